package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fodonfoto/MemoryLM/internal/app"
	"github.com/fodonfoto/MemoryLM/internal/config"
	"github.com/fodonfoto/MemoryLM/internal/httpapi"
	"github.com/fodonfoto/MemoryLM/internal/httpapi/handlers"
	"github.com/fodonfoto/MemoryLM/internal/logging"
	"github.com/fodonfoto/MemoryLM/internal/notebook"
	"github.com/fodonfoto/MemoryLM/internal/store/rabbitmq"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	var inline *notebook.InlineDispatcher
	switch cfg.GenerationMode {
	case "queue":
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			return fmt.Errorf("rabbit publisher: %w", err)
		}
		a.OnClose(pub.Close)
		a.Generator.SetDispatcher(notebook.NewQueueDispatcher(pub))
	default:
		inline = notebook.NewInlineDispatcher(a.Generator, log)
		a.Generator.SetDispatcher(inline)
		// runs left in flight by a previous process
		n, err := a.Generator.ResumeRunning(ctx)
		if err != nil {
			log.Warn("resume generation runs failed", zap.Error(err))
		} else if n > 0 {
			log.Info("resumed generation runs", zap.Int("count", n))
		}
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := &handlers.Handler{
		Cfg:       cfg,
		Notebooks: a.Notebooks,
		Generator: a.Generator,
		Media:     a.Media,
		Bus:       a.Bus,
		Log:       log,
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(h, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("api listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("generation_mode", cfg.GenerationMode),
			zap.String("ai_provider", cfg.AIProvider),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("api shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if inline != nil {
		// inline runs resume from their stored stage on the next start
		waitOrTimeout(inline, shutdownTimeout, log)
	}
	return nil
}

func waitOrTimeout(d *notebook.InlineDispatcher, timeout time.Duration, log *zap.Logger) {
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		log.Warn("generation runs still in flight at shutdown")
	}
}
