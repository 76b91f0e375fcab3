package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fodonfoto/MemoryLM/internal/auth"
	"github.com/fodonfoto/MemoryLM/internal/common"
)

type createNotebookReq struct {
	Title string `json:"title"`
}

// CreateNotebook returns the new notebook and the bearer token scoped to it.
func (h *Handler) CreateNotebook(c *gin.Context) {
	var req createNotebookReq
	_ = c.ShouldBindJSON(&req) // allow empty body

	nb, err := h.Notebooks.CreateNotebook(c.Request.Context(), req.Title)
	if err != nil {
		h.fail(c, err)
		return
	}
	token, err := auth.SignJWT(nb.ID, h.Cfg.JWTSecret, h.Cfg.TokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}
	common.OK(c, gin.H{"notebook": nb, "token": token})
}

// GetNotebook returns the full view of the notebook.
func (h *Handler) GetNotebook(c *gin.Context) {
	v, err := h.Notebooks.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, v)
}

func (h *Handler) ListTurns(c *gin.Context) {
	turns, err := h.Notebooks.ListTurns(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, gin.H{"turns": turns})
}
