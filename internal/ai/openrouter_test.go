package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouter_StreamChat(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Par\"}}]}\n\n")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"is\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "k", "m", "", "")
	msgs := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "q", Attachments: []Attachment{
			{Name: "a.png", MIMEType: "image/png", Data: []byte("png")},
			{Name: "b.pdf", MIMEType: "application/pdf", Data: []byte("pdf")},
		}},
	}
	reply, err := drain(t)(p.StreamChat(context.Background(), msgs))
	require.NoError(t, err)
	assert.Equal(t, "Paris", reply)

	messages := raw["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "sys", messages[0].(map[string]any)["content"])

	parts := messages[1].(map[string]any)["content"].([]any)
	require.Len(t, parts, 3)
	assert.Equal(t, "text", parts[0].(map[string]any)["type"])
	assert.Equal(t, "data:image/png;base64,cG5n", parts[1].(map[string]any)["image_url"].(map[string]any)["url"])
	assert.Equal(t, "b.pdf", parts[2].(map[string]any)["file"].(map[string]any)["filename"])
}

func TestOpenRouter_RequiresKey(t *testing.T) {
	p := NewOpenRouterProvider("", "", "m", "", "")
	_, err := p.NewSession(context.Background(), "sys")
	assert.EqualError(t, err, "openrouter: api key is required")
}

func TestOpenRouter_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := drain(t)(NewOpenRouterProvider(srv.URL, "k", "m", "", "").StreamChat(context.Background(), nil))
	assert.EqualError(t, err, "openrouter: rate limited")
}
