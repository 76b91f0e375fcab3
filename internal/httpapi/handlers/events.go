package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Events streams the notebook's state changes as server-sent events until
// the client goes away.
func (h *Handler) Events(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.Notebooks.GetNotebook(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	sub, err := h.Bus.Subscribe(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	w, ok := startSSE(c)
	if !ok {
		return
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			w.send(ev.Type, ev)
		case <-ticker.C:
			w.ping()
		case <-ctx.Done():
			return
		}
	}
}
