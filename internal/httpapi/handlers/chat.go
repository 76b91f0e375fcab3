package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fodonfoto/MemoryLM/internal/common"
	"github.com/fodonfoto/MemoryLM/internal/notebook"
)

const heartbeatInterval = 15 * time.Second

type sseWriter struct {
	c       *gin.Context
	flusher http.Flusher
}

func startSSE(c *gin.Context) (*sseWriter, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, 50003, "streaming not supported")
		return nil, false
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
	c.Status(http.StatusOK)
	flusher.Flush()
	return &sseWriter{c: c, flusher: flusher}, true
}

func (w *sseWriter) send(event string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		// last-resort: send a simple error that won't break SSE framing
		fmt.Fprintf(w.c.Writer, "event: error\ndata: {\"message\":\"json marshal failed\"}\n\n")
		w.flusher.Flush()
		return
	}
	if event != "" {
		fmt.Fprintf(w.c.Writer, "event: %s\n", event)
	}
	fmt.Fprintf(w.c.Writer, "data: %s\n\n", string(b))
	w.flusher.Flush()
}

func (w *sseWriter) ping() {
	w.send("ping", gin.H{"type": "ping", "ts": time.Now().Unix()})
}

type sendMessageReq struct {
	Message string `json:"message"`
}

// SendMessageStream streams the assistant reply as server-sent events:
// "turns" (the user turn and the assistant placeholder), "chunk" per delta
// with the accumulated text, then "done" with the final assistant turn.
func (h *Handler) SendMessageStream(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	ctx := c.Request.Context()
	reply, err := h.Notebooks.SendMessageStream(ctx, c.Param("id"), req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}

	w, ok := startSSE(c)
	if !ok {
		return
	}
	w.send("turns", gin.H{"type": "turns", "user": reply.UserTurn, "assistant": reply.AssistantTurn})

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	// done is read only after every chunk has been sent
	chunks := reply.Chunks
	var done <-chan notebook.Turn
	text := ""
	for {
		select {
		case delta, ok := <-chunks:
			if !ok {
				chunks = nil
				done = reply.Done
				continue
			}
			text += delta
			w.send("chunk", gin.H{"type": "chunk", "delta": delta, "text": text})

		case <-ticker.C:
			w.ping()

		case final, ok := <-done:
			if !ok {
				return
			}
			w.send("done", gin.H{"type": "done", "turn": final})
			return

		case <-ctx.Done():
			return
		}
	}
}
