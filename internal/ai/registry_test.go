package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopProvider struct{ model string }

func (p *nopProvider) NewSession(ctx context.Context, systemInstruction string) (ChatSession, error) {
	return nil, nil
}

func TestRegistry_GetIsCaseInsensitive(t *testing.T) {
	reg := NewRegistry()
	reg.Register(" Gemini ", func(ctx context.Context, model string) (ChatProvider, error) {
		return &nopProvider{model: model}, nil
	})

	p, err := reg.Get(context.Background(), "GEMINI", "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", p.(*nopProvider).model)
	assert.Equal(t, []string{"gemini"}, reg.Names())
}

func TestRegistry_Unknown(t *testing.T) {
	_, err := NewRegistry().Get(context.Background(), "nope", "")
	assert.EqualError(t, err, "unknown ai provider: nope")
}
