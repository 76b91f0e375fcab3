package handlers

import (
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fodonfoto/MemoryLM/internal/common"
	"github.com/fodonfoto/MemoryLM/internal/notebook"
)

const maxUploadBytes = 32 << 20

type sourceReq struct {
	Name     string `json:"name" binding:"required"`
	MIMEType string `json:"mime_type"`
	// Content is plain text for text sources, or base64 / a data URL for
	// binary ones.
	Content string `json:"content" binding:"required"`
}

type addSourcesReq struct {
	Sources []sourceReq `json:"sources" binding:"required,dive"`
}

func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.Notebooks.ListSources(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, gin.H{"sources": sources})
}

// AddSources accepts multipart files (field "files") or a JSON body.
func (h *Handler) AddSources(c *gin.Context) {
	var uploads []notebook.Upload
	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		uploads, err = multipartUploads(c)
	} else {
		uploads, err = jsonUploads(c)
	}
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, err.Error())
		return
	}

	added, err := h.Notebooks.AddSources(c.Request.Context(), c.Param("id"), uploads)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, gin.H{"added": added, "dropped": len(uploads) - len(added)})
}

func multipartUploads(c *gin.Context) ([]notebook.Upload, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	files := form.File["files"]
	out := make([]notebook.Upload, 0, len(files))
	for _, fh := range files {
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, notebook.Upload{
			Name:     fh.Filename,
			MIMEType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return out, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func jsonUploads(c *gin.Context) ([]notebook.Upload, error) {
	var req addSourcesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	out := make([]notebook.Upload, 0, len(req.Sources))
	for _, s := range req.Sources {
		payload, declared := notebook.StripDataURL(s.Content)
		mt := s.MIMEType
		if mt == "" {
			mt = declared
		}
		data := []byte(payload)
		if kind, ok := notebook.ClassifyMIME(mt); !ok || kind != notebook.KindText || declared != "" {
			if decoded, err := base64.StdEncoding.DecodeString(payload); err == nil {
				data = decoded
			}
		}
		out = append(out, notebook.Upload{Name: s.Name, MIMEType: mt, Data: data})
	}
	return out, nil
}

func (h *Handler) DeleteSource(c *gin.Context) {
	sid, err := strconv.ParseUint(c.Param("source_id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10003, "invalid source id")
		return
	}
	if err := h.Notebooks.RemoveSource(c.Request.Context(), c.Param("id"), sid); err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, nil)
}

func (h *Handler) ClearSources(c *gin.Context) {
	if err := h.Notebooks.ClearSources(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, nil)
}
