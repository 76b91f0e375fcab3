package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/fodonfoto/MemoryLM/internal/app"
	"github.com/fodonfoto/MemoryLM/internal/config"
	"github.com/fodonfoto/MemoryLM/internal/logging"
	"github.com/fodonfoto/MemoryLM/internal/notebook"
	"github.com/fodonfoto/MemoryLM/internal/store/rabbitmq"
)

const (
	maxConcurrency = 50
	// a run is retried maxAttempts times before its message goes to the DLQ
	maxAttempts = 3
	baseRetry   = 5 * time.Second
)

func workerConcurrency(n int) int {
	if n <= 0 {
		return 2
	}
	if n > maxConcurrency {
		return maxConcurrency
	}
	return n
}

// retryDelay backs off exponentially with the attempt number.
func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return baseRetry << (attempt - 1)
}

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
		log.Fatal("worker stopped", zap.Error(err))
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

	retries, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		return fmt.Errorf("rabbit publisher: %w", err)
	}
	a.OnClose(retries.Close)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		return fmt.Errorf("rabbit dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbit channel: %w", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareQueues(ch, cfg.RabbitQueue); err != nil {
		return err
	}

	// strict concurrency control
	concurrency := workerConcurrency(cfg.WorkerConcurrency)
	if err := ch.Qos(concurrency, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	log.Info("worker started", zap.String("queue", cfg.RabbitQueue), zap.Int("concurrency", concurrency))

	w := &worker{gen: a.Generator, retries: retries, log: log}

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				w.handle(ctx, workerID, d)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return nil

		case d, ok := <-msgs:
			if !ok {
				close(jobs)
				wg.Wait()
				return errors.New("delivery channel closed")
			}
			jobs <- d
		}
	}
}

type worker struct {
	gen     *notebook.Generator
	retries *rabbitmq.Publisher
	log     *zap.Logger
}

func (w *worker) handle(ctx context.Context, workerID int, d amqp.Delivery) {
	m, err := rabbitmq.DecodeJob(d.Body)
	if err != nil {
		w.log.Warn("bad message", zap.Int("worker", workerID), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	err = w.gen.Run(ctx, m.NotebookID, m.RunID)
	cost := time.Since(start)

	if err == nil {
		if cost > 2*time.Second {
			w.log.Info("job_timing",
				zap.Int("worker", workerID),
				zap.String("notebook_id", m.NotebookID),
				zap.String("run_id", m.RunID),
				zap.Duration("total", cost),
			)
		}
		if err := d.Ack(false); err != nil {
			w.log.Warn("ack failed", zap.String("run_id", m.RunID), zap.Error(err))
		}
		return
	}

	// shutdown mid-run: the stored stage lets the next delivery resume
	if ctx.Err() != nil {
		_ = d.Nack(false, true)
		return
	}

	attempt := rabbitmq.Attempt(d) + 1
	w.log.Error("job_timing_failed",
		zap.Int("worker", workerID),
		zap.String("notebook_id", m.NotebookID),
		zap.String("run_id", m.RunID),
		zap.Int("attempt", attempt),
		zap.Duration("total", cost),
		zap.Error(err),
	)
	if attempt > maxAttempts {
		_ = d.Nack(false, false)
		return
	}
	if err := w.retries.PublishRetry(ctx, d.Body, attempt, retryDelay(attempt)); err != nil {
		w.log.Error("schedule retry failed", zap.String("run_id", m.RunID), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}
