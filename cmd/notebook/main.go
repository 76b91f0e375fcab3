package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fodonfoto/MemoryLM/internal/app"
	"github.com/fodonfoto/MemoryLM/internal/config"
	"github.com/fodonfoto/MemoryLM/internal/logging"
	"github.com/fodonfoto/MemoryLM/internal/notebook"
)

var (
	// Global flags
	verbose  bool
	provider string
	files    []string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "notebook",
	Short: "Chat with your sources and turn them into a video podcast",
	Long: `notebook loads local files as sources into a throwaway notebook.

Text, image and PDF files are supported; anything else is skipped.
Chat runs on the configured AI provider (gemini, ollama or openrouter);
podcast generation needs GEMINI_API_KEY.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(level, "text")
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "chat provider (overrides AI_PROVIDER)")
	rootCmd.PersistentFlags().StringSliceVarP(&files, "file", "f", nil, "source file (repeatable)")
	_ = rootCmd.MarkPersistentFlagRequired("file")

	rootCmd.AddCommand(askCmd, podcastCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// session is a notebook loaded with the --file sources.
type session struct {
	app *app.App
	nb  *notebook.Notebook
	tmp string
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if provider != "" {
		cfg.AIProvider = provider
	}
	tmp, err := os.MkdirTemp("", "notebook-")
	if err != nil {
		return nil, err
	}
	// everything lives for the duration of the command
	cfg.DBDriver = "sqlite"
	cfg.DBDSN = "file:" + filepath.Join(tmp, "notebook.db")
	cfg.MediaBackend = "local"
	cfg.MediaDir = filepath.Join(tmp, "media")
	cfg.EventBackend = "memory"
	cfg.GenerationMode = "inline"

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = os.RemoveAll(tmp)
		return nil, err
	}
	s := &session{app: a, tmp: tmp}

	uploads, err := loadUploads(files)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.nb, err = a.Notebooks.CreateNotebook(ctx, "cli")
	if err != nil {
		s.Close()
		return nil, err
	}
	added, err := a.Notebooks.AddSources(ctx, s.nb.ID, uploads)
	if err != nil {
		s.Close()
		return nil, err
	}
	if len(added) == 0 {
		s.Close()
		return nil, fmt.Errorf("none of the %d file(s) is a supported source", len(uploads))
	}
	for _, src := range added {
		logger.Debug("source added", zap.String("name", src.Name), zap.String("kind", string(src.Kind)))
	}
	return s, nil
}

func (s *session) Close() {
	s.app.Close()
	_ = os.RemoveAll(s.tmp)
}

func loadUploads(paths []string) ([]notebook.Upload, error) {
	out := make([]notebook.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, notebook.Upload{Name: filepath.Base(p), Data: data})
	}
	return out, nil
}
