package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fodonfoto/MemoryLM/internal/common"
	"github.com/fodonfoto/MemoryLM/internal/notebook"
)

type jobResp struct {
	*notebook.GenerationJob
	LatestNote string `json:"latest_note,omitempty"`
	MediaURL   string `json:"media_url,omitempty"`
}

func jobView(c *gin.Context, j *notebook.GenerationJob) jobResp {
	out := jobResp{GenerationJob: j, LatestNote: j.LatestNote()}
	if j.Status == notebook.JobDone && j.MediaHandle != "" {
		out.MediaURL = "/notebooks/" + c.Param("id") + "/podcast/media"
	}
	return out
}

// StartPodcast starts a generation run and returns the job snapshot.
func (h *Handler) StartPodcast(c *gin.Context) {
	job, err := h.Generator.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"code": 0, "message": "ok", "data": jobView(c, job)})
}

func (h *Handler) GetPodcast(c *gin.Context) {
	job, err := h.Generator.Job(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, jobView(c, job))
}

// PodcastMedia serves the finished video of the notebook.
func (h *Handler) PodcastMedia(c *gin.Context) {
	job, err := h.Generator.Job(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if job.Status != notebook.JobDone || job.MediaHandle == "" {
		common.Fail(c, http.StatusNotFound, 40401, "no podcast media yet")
		return
	}
	obj, err := h.Media.Get(c.Request.Context(), job.MediaHandle)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, obj.MIMEType, obj.Data)
}
