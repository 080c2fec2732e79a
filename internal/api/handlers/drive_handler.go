package handlers

import (
	"context"
	"net/http"

	"github.com/andresuchdata/stockpilot/internal/drive"
	"github.com/andresuchdata/stockpilot/internal/pipeline"
	"github.com/gin-gonic/gin"
)

// DriveSource is the part of the Drive client the handlers use.
type DriveSource interface {
	ListFiles(ctx context.Context, folderID string) ([]*drive.File, error)
	FindFolderByPath(ctx context.Context, path string) (string, error)
	FolderSources(ctx context.Context, folderID string) ([]pipeline.Source, error)
}

type DriveHandler struct {
	drive         DriveSource
	importer      *pipeline.Importer
	defaultFolder string
}

func NewDriveHandler(src DriveSource, importer *pipeline.Importer, defaultFolder string) *DriveHandler {
	return &DriveHandler{drive: src, importer: importer, defaultFolder: defaultFolder}
}

func (h *DriveHandler) resolveFolder(c *gin.Context, folderID, path string) (string, bool) {
	if path != "" {
		id, err := h.drive.FindFolderByPath(c.Request.Context(), path)
		if err != nil {
			errorResponse(c, http.StatusNotFound, "folder not found", err)
			return "", false
		}
		return id, true
	}
	if folderID == "" {
		folderID = h.defaultFolder
	}
	return folderID, true
}

// ListFiles lists a folder by ?folderId= or ?path=.
func (h *DriveHandler) ListFiles(c *gin.Context) {
	folderID, ok := h.resolveFolder(c, c.Query("folderId"), c.Query("path"))
	if !ok {
		return
	}

	files, err := h.drive.ListFiles(c.Request.Context(), folderID)
	if err != nil {
		errorResponse(c, http.StatusBadGateway, "failed to list drive files", err)
		return
	}
	if files == nil {
		files = []*drive.File{}
	}
	c.JSON(http.StatusOK, files)
}

type driveImportRequest struct {
	FolderID string   `json:"folderId"`
	Path     string   `json:"path"`
	Files    []string `json:"files"`
}

// Import pulls a folder (optionally a subset of its files) through the
// batch importer.
func (h *DriveHandler) Import(c *gin.Context) {
	var req driveImportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	folderID, ok := h.resolveFolder(c, req.FolderID, req.Path)
	if !ok {
		return
	}

	sources, err := h.drive.FolderSources(c.Request.Context(), folderID)
	if err != nil {
		errorResponse(c, http.StatusBadGateway, "failed to list drive files", err)
		return
	}
	sources = drive.SelectSources(sources, req.Files)

	results, err := h.importer.Import(c.Request.Context(), sources)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "drive import failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": results, "total": len(results)})
}
