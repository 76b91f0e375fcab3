package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fodonfoto/MemoryLM/internal/common"
	"github.com/fodonfoto/MemoryLM/internal/config"
	"github.com/fodonfoto/MemoryLM/internal/events"
	"github.com/fodonfoto/MemoryLM/internal/media"
	"github.com/fodonfoto/MemoryLM/internal/notebook"
)

type Handler struct {
	Cfg       config.Config
	Notebooks *notebook.Service
	Generator *notebook.Generator
	Media     media.Store
	Bus       events.Bus
	Log       *zap.Logger
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

// fail maps domain errors onto the response envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, notebook.ErrNotFound), errors.Is(err, media.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40400, "not found")
	case errors.Is(err, notebook.ErrNoSources):
		common.Fail(c, http.StatusConflict, 40901, "add sources first")
	case errors.Is(err, notebook.ErrJobInProgress):
		common.Fail(c, http.StatusConflict, 40902, err.Error())
	case errors.Is(err, notebook.ErrChatBusy):
		common.Fail(c, http.StatusConflict, 40903, err.Error())
	case errors.Is(err, notebook.ErrNoStudio):
		common.Fail(c, http.StatusServiceUnavailable, 50301, err.Error())
	case errors.Is(err, notebook.ErrEmptyMessage):
		common.Fail(c, http.StatusBadRequest, 10002, err.Error())
	default:
		h.Log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("notebook_id", c.Param("id")),
			zap.Error(err),
		)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}
