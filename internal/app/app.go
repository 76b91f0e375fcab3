// Package app wires configured components into the notebook services shared
// by the API server, the queue worker and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fodonfoto/MemoryLM/internal/ai"
	"github.com/fodonfoto/MemoryLM/internal/config"
	"github.com/fodonfoto/MemoryLM/internal/db"
	"github.com/fodonfoto/MemoryLM/internal/events"
	"github.com/fodonfoto/MemoryLM/internal/media"
	"github.com/fodonfoto/MemoryLM/internal/notebook"
	"github.com/fodonfoto/MemoryLM/internal/store/redisstore"
)

type App struct {
	Cfg config.Config
	Log *zap.Logger

	DB        *gorm.DB
	Repo      *notebook.Repo
	Notebooks *notebook.Service
	Generator *notebook.Generator
	Media     media.Store
	Bus       events.Bus

	closers []func() error
}

// New opens storage and builds the services. Dispatching generation runs is
// left to the caller (SetDispatcher on Generator).
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN, log, notebook.Models()...)
	if err != nil {
		return nil, err
	}
	a.DB = gdb
	if sqlDB, err := gdb.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	var rdb *redisstore.Store
	if cfg.MediaBackend == "redis" || cfg.EventBackend == "redis" {
		rdb, err = redisstore.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
	}

	switch cfg.MediaBackend {
	case "redis":
		a.Media = rdb.Media(cfg.MediaTTL)
	default:
		store, err := media.NewLocalStore(cfg.MediaDir)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Media = store
	}

	switch cfg.EventBackend {
	case "redis":
		a.Bus = rdb.Bus()
	default:
		a.Bus = events.NewMemoryBus()
	}

	reg, gemini, err := NewRegistry(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	log.Info("ai providers registered", zap.Strings("providers", ProviderNames(reg)), zap.String("selected", cfg.AIProvider))

	chat, err := reg.Get(ctx, cfg.AIProvider, "")
	if err != nil {
		a.Close()
		return nil, err
	}
	if p, ok := chat.(*ai.OllamaProvider); ok {
		if err := p.Ping(ctx); err != nil {
			log.Warn("ollama not reachable", zap.String("base_url", p.BaseURL), zap.Error(err))
		}
	}

	// podcast generation needs Gemini; without a key Start reports it
	var studio ai.Studio
	if gemini != nil {
		studio = gemini
	} else {
		log.Warn("GEMINI_API_KEY not set, podcast generation disabled")
	}

	a.Repo = notebook.NewRepo(gdb)
	a.Notebooks = notebook.NewService(a.Repo, chat, a.Bus, log)
	a.Generator = notebook.NewGenerator(a.Repo, studio, a.Media, a.Bus, log, notebook.GeneratorOptions{
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
	})
	return a, nil
}

// NewRegistry registers the chat providers. The Gemini provider is nil when
// no API key is configured.
func NewRegistry(ctx context.Context, cfg config.Config, log *zap.Logger) (*ai.Registry, *ai.GeminiProvider, error) {
	reg := ai.NewRegistry()

	var gemini *ai.GeminiProvider
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		var err error
		gemini, err = ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey, ai.GeminiOptions{
			ChatModel:   cfg.GeminiChatModel,
			ScriptModel: cfg.GeminiScriptModel,
			VideoModel:  cfg.GeminiVideoModel,
		})
		if err != nil {
			return nil, nil, err
		}
	}
	reg.Register("gemini", func(ctx context.Context, model string) (ai.ChatProvider, error) {
		if gemini == nil {
			return nil, errors.New("gemini: GEMINI_API_KEY (or API_KEY) is required")
		}
		return gemini, nil
	})

	reg.Register("ollama", func(ctx context.Context, model string) (ai.ChatProvider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		p := ai.NewOllamaProvider(cfg.OllamaBaseURL, m)
		p.Log = log
		return p, nil
	})

	reg.Register("openrouter", func(ctx context.Context, model string) (ai.ChatProvider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, m, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	return reg, gemini, nil
}

// ProviderNames lists registered providers in stable order.
func ProviderNames(reg *ai.Registry) []string {
	names := reg.Names()
	sort.Strings(names)
	return names
}

// OnClose registers fn to run on Close, before storage is closed.
func (a *App) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
