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
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestOllama_StreamChat(t *testing.T) {
	var got ollamaChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Par"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"is"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	p := NewOllamaProvider(srv.URL, "llama3")
	p.Log = zap.New(core)
	msgs := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "q", Attachments: []Attachment{
			{Name: "map.png", MIMEType: "image/png", Data: []byte("png")},
			{Name: "report.pdf", MIMEType: "application/pdf", Data: []byte("pdf")},
		}},
	}
	reply, err := drain(t)(p.StreamChat(context.Background(), msgs))
	require.NoError(t, err)
	assert.Equal(t, "Paris", reply)

	assert.True(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, []string{"cG5n"}, got.Messages[1].Images)

	dropped := logs.FilterMessage("ollama: attachment dropped").All()
	require.Len(t, dropped, 1)
	assert.Equal(t, "report.pdf", dropped[0].ContextMap()["name"])
	assert.Equal(t, "application/pdf", dropped[0].ContextMap()["mime_type"])
}

func TestOllama_StreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"error":"model not found"}`)
	}))
	defer srv.Close()

	_, err := drain(t)(NewOllamaProvider(srv.URL, "x").StreamChat(context.Background(), nil))
	assert.EqualError(t, err, "model not found")
}

func TestOllama_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "x")
	_, err := drain(t)(p.StreamChat(context.Background(), nil))
	assert.EqualError(t, err, "ollama: status 502")
	assert.EqualError(t, p.Ping(context.Background()), "ollama: status 502")
}
