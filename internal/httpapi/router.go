package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fodonfoto/MemoryLM/internal/common"
	"github.com/fodonfoto/MemoryLM/internal/httpapi/handlers"
	"github.com/fodonfoto/MemoryLM/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)
	r.POST("/notebooks", h.CreateNotebook)

	// notebook-scoped token required
	nb := r.Group("/notebooks/:id")
	nb.Use(middleware.NotebookAuth(h.Cfg.JWTSecret))
	nb.GET("", h.GetNotebook)
	nb.GET("/events", h.Events)

	nb.GET("/sources", h.ListSources)
	nb.POST("/sources", h.AddSources)
	nb.DELETE("/sources", h.ClearSources)
	nb.DELETE("/sources/:source_id", h.DeleteSource)

	nb.GET("/turns", h.ListTurns)
	nb.POST("/chat/stream", h.SendMessageStream)

	nb.POST("/podcast", h.StartPodcast)
	nb.GET("/podcast", h.GetPodcast)
	nb.GET("/podcast/media", h.PodcastMedia)
	return r
}
