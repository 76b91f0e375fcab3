package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fodonfoto/MemoryLM/internal/ai"
	"github.com/fodonfoto/MemoryLM/internal/common"
	"github.com/fodonfoto/MemoryLM/internal/config"
	"github.com/fodonfoto/MemoryLM/internal/notebook"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	name, err := common.NewULID()
	require.NoError(t, err)
	cfg := config.Defaults()
	cfg.DBDSN = "file:" + name + "?mode=memory&cache=shared"
	cfg.MediaDir = t.TempDir()
	return cfg
}

func TestNewRegistry(t *testing.T) {
	cfg := testConfig(t)
	reg, gemini, err := NewRegistry(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, gemini)
	assert.Equal(t, []string{"gemini", "ollama", "openrouter"}, ProviderNames(reg))

	_, err = reg.Get(context.Background(), "gemini", "")
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	p, err := reg.Get(context.Background(), "ollama", "")
	require.NoError(t, err)
	assert.Equal(t, cfg.OllamaModel, p.(*ai.OllamaProvider).Model)

	p, err = reg.Get(context.Background(), "ollama", "qwen2")
	require.NoError(t, err)
	assert.Equal(t, "qwen2", p.(*ai.OllamaProvider).Model)

	_, err = reg.Get(context.Background(), "openrouter", "")
	assert.NoError(t, err)
}

func TestNew_OllamaWithoutGemini(t *testing.T) {
	var pinged atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			pinged.Store(true)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.AIProvider = "ollama"
	cfg.OllamaBaseURL = srv.URL

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	assert.True(t, pinged.Load())

	ctx := context.Background()
	nb, err := a.Notebooks.CreateNotebook(ctx, "wired")
	require.NoError(t, err)
	_, err = a.Notebooks.AddSources(ctx, nb.ID, []notebook.Upload{
		{Name: "a.txt", MIMEType: "text/plain", Data: []byte("alpha")},
	})
	require.NoError(t, err)

	_, err = a.Generator.Start(ctx, nb.ID)
	assert.ErrorIs(t, err, notebook.ErrNoStudio)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.AIProvider = "nope"
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown ai provider")
}
