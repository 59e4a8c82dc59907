package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rentaspace/backend/internal/auth"
	"github.com/rentaspace/backend/internal/file"
)

type Handler struct {
	service file.Service
}

func NewHandler(service file.Service) *Handler {
	return &Handler{service: service}
}

// Upload accepts a multipart image and stores it. Admin only.
func (h *Handler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	userID := auth.GetUserID(c)

	f, err := h.service.Upload(c.Request.Context(), header, userID)
	if err != nil {
		if errors.Is(err, file.ErrUnsupportedType) {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		return
	}

	c.JSON(http.StatusCreated, NewFileResponse(f))
}

func (h *Handler) Download(c *gin.Context) {
	h.stream(c, false)
}

func (h *Handler) DownloadThumbnail(c *gin.Context) {
	h.stream(c, true)
}

func (h *Handler) stream(c *gin.Context, thumbnail bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var (
		rc  io.ReadCloser
		f   *file.File
		err error
	)
	if thumbnail {
		rc, f, err = h.service.DownloadThumbnail(c.Request.Context(), id)
	} else {
		rc, f, err = h.service.Download(c.Request.Context(), id)
	}
	if err != nil {
		if errors.Is(err, file.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer rc.Close()

	contentType := f.ContentType
	if thumbnail {
		contentType = "image/jpeg"
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(c.Writer, rc); err != nil {
		// Client likely disconnected mid-stream; nothing sensible to send.
		return
	}
}

// Delete removes a file record and its stored content. Admin only.
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, file.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete file"})
		return
	}

	c.Status(http.StatusNoContent)
}
