package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/andresuchdata/stockpilot/internal/ingest"
)

// Source is one document to import. Kind may be left empty, in which case
// it is detected from Name.
type Source struct {
	Name string
	Kind domain.DatasetKind
	Open func(ctx context.Context) (io.ReadCloser, error)
}

// Applier merges a decoded grid into the persisted record set.
type Applier interface {
	Apply(ctx context.Context, kind domain.DatasetKind, grid ingest.Grid) (*domain.UploadResult, error)
}

// ImportConfig holds configuration for an Importer
type ImportConfig struct {
	WorkerCount   int           // Number of concurrent fetch+decode workers
	RetryAttempts int           // Number of retries when opening a source fails
	RetryBackoff  time.Duration // Backoff duration between retries
}

// DefaultImportConfig returns sensible defaults
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WorkerCount:   4,
		RetryAttempts: 2,
		RetryBackoff:  500 * time.Millisecond,
	}
}

// FileJobStatus represents the state of a single file import
type FileJobStatus string

const (
	FileStatusCompleted FileJobStatus = "completed"
	FileStatusRejected  FileJobStatus = "rejected" // decoded, but ingestion reported structural errors
	FileStatusFailed    FileJobStatus = "failed"
)

// FileResult tracks the import of a single source
type FileResult struct {
	Name     string               `json:"name"`
	Kind     domain.DatasetKind   `json:"kind"`
	Status   FileJobStatus        `json:"status"`
	Result   *domain.UploadResult `json:"result,omitempty"`
	Error    string               `json:"error,omitempty"`
	Duration time.Duration        `json:"durationNs"`
}
