package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/andresuchdata/stockpilot/internal/service"
	"github.com/andresuchdata/stockpilot/internal/sheet"
	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploads  *service.UploadService
	maxBytes int64
}

func NewUploadHandler(uploads *service.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploads: uploads, maxBytes: maxBytes}
}

// Upload ingests one multipart "file" into the dataset named by :kind.
// The kind "auto" classifies the file by its name.
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "file is required", err)
		return
	}

	kind := domain.DetectKind(header.Filename)
	if label := c.Param("kind"); label != "auto" {
		kind, err = domain.ParseDatasetKind(label)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid dataset kind", err)
			return
		}
	}

	f, err := header.Open()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "unreadable upload", err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "unreadable upload", err)
		return
	}

	result, err := h.uploads.Upload(c.Request.Context(), kind, header.Filename, data)
	switch {
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		errorResponse(c, http.StatusUnsupportedMediaType, "unsupported file", err)
		return
	case err != nil:
		errorResponse(c, http.StatusInternalServerError, "failed to process upload", err)
		return
	}

	status := http.StatusOK
	if len(result.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

// Clear deletes every persisted record set.
func (h *UploadHandler) Clear(c *gin.Context) {
	if err := h.uploads.Clear(c.Request.Context()); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to clear records", err)
		return
	}
	c.Status(http.StatusNoContent)
}
