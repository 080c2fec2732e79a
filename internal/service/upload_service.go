// internal/service/upload_service.go
package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/andresuchdata/stockpilot/internal/ingest"
	"github.com/andresuchdata/stockpilot/internal/merge"
	"github.com/andresuchdata/stockpilot/internal/repository"
	"github.com/andresuchdata/stockpilot/internal/sheet"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Locker serializes merges across processes. The returned func releases
// the lease.
type Locker interface {
	Acquire(ctx context.Context) (func(), error)
}

// Archiver keeps a copy of raw uploaded bytes and returns where it went.
type Archiver interface {
	Archive(ctx context.Context, kind domain.DatasetKind, batchID, filename string, data []byte) (string, error)
}

type UploadService struct {
	repo     *repository.RecordRepository
	ingestor *ingest.Ingestor
	locker   Locker
	archiver Archiver

	// mu makes load-merge-persist atomic within this process
	mu sync.Mutex
}

type UploadOption func(*UploadService)

func WithLocker(l Locker) UploadOption {
	return func(s *UploadService) { s.locker = l }
}

func WithArchiver(a Archiver) UploadOption {
	return func(s *UploadService) { s.archiver = a }
}

func NewUploadService(repo *repository.RecordRepository, ingestor *ingest.Ingestor, opts ...UploadOption) *UploadService {
	s := &UploadService{repo: repo, ingestor: ingestor}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload decodes a raw document, merges it into the persisted set of kind
// and archives the original bytes when an archiver is configured.
func (s *UploadService) Upload(ctx context.Context, kind domain.DatasetKind, filename string, data []byte) (*domain.UploadResult, error) {
	grid, err := sheet.Decode(filename, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}

	result, err := s.Apply(ctx, kind, grid)
	if err != nil {
		return nil, err
	}

	if s.archiver != nil && len(result.Errors) == 0 {
		key, err := s.archiver.Archive(ctx, kind, result.BatchID, filename, data)
		if err != nil {
			// the merge already happened; archiving is best effort
			log.Warn().Err(err).Str("batch_id", result.BatchID).Str("file", filename).Msg("failed to archive upload")
		} else {
			result.ArchiveKey = key
		}
	}

	return result, nil
}

// Apply ingests a decoded grid and merges it into the persisted set as one
// atomic unit. Structural ingestion problems come back in result.Errors and
// leave the persisted set untouched.
func (s *UploadService) Apply(ctx context.Context, kind domain.DatasetKind, grid ingest.Grid) (*domain.UploadResult, error) {
	result := &domain.UploadResult{
		BatchID: uuid.NewString(),
		Kind:    kind,
		Errors:  []string{},
	}

	switch kind {
	case domain.KindSales:
		records, errs := s.ingestor.Sales(grid)
		result.Ingested, result.Errors = len(records), nonNil(errs)
		if len(errs) > 0 {
			break
		}
		err := s.withMergeLock(ctx, func() error {
			existing, err := s.repo.LoadSales(ctx)
			if err != nil {
				return err
			}
			merged := merge.Sales(existing, records)
			logMerge(result, len(existing), len(merged))
			if err := s.repo.SaveSales(ctx, merged); err != nil {
				return err
			}
			result.Persisted = len(merged)
			return nil
		})
		if err != nil {
			return nil, err
		}

	case domain.KindMaster:
		records, errs := s.ingestor.Master(grid)
		result.Ingested, result.Errors = len(records), nonNil(errs)
		if len(errs) > 0 {
			break
		}
		err := s.withMergeLock(ctx, func() error {
			existing, err := s.repo.LoadMaster(ctx)
			if err != nil {
				return err
			}
			merged := merge.Master(existing, records)
			logMerge(result, len(existing), len(merged))
			if err := s.repo.SaveMaster(ctx, merged); err != nil {
				return err
			}
			result.Persisted = len(merged)
			return nil
		})
		if err != nil {
			return nil, err
		}

	case domain.KindInbound:
		records, errs := s.ingestor.Inbound(grid)
		result.Ingested, result.Errors = len(records), nonNil(errs)
		if len(errs) > 0 {
			break
		}
		err := s.withMergeLock(ctx, func() error {
			existing, err := s.repo.LoadInbound(ctx)
			if err != nil {
				return err
			}
			merged := merge.Inbound(existing, records)
			logMerge(result, len(existing), len(merged))
			if err := s.repo.SaveInbound(ctx, merged); err != nil {
				return err
			}
			result.Persisted = len(merged)
			return nil
		})
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown dataset kind %q", kind)
	}

	if len(result.Errors) > 0 {
		log.Warn().
			Str("batch_id", result.BatchID).
			Str("kind", string(kind)).
			Strs("errors", result.Errors).
			Msg("upload rejected")
	}

	return result, nil
}

// Clear deletes every persisted record set.
func (s *UploadService) Clear(ctx context.Context) error {
	return s.withMergeLock(ctx, func() error {
		if err := s.repo.Clear(ctx); err != nil {
			return err
		}
		log.Info().Msg("persisted records cleared")
		return nil
	})
}

func (s *UploadService) withMergeLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx)
		if err != nil {
			return err
		}
		defer release()
	}

	return fn()
}

func logMerge(result *domain.UploadResult, before, after int) {
	log.Info().
		Str("batch_id", result.BatchID).
		Str("kind", string(result.Kind)).
		Int("ingested", result.Ingested).
		Int("before", before).
		Int("after", after).
		Msg("merge applied")
}

func nonNil(errs []string) []string {
	if errs == nil {
		return []string{}
	}
	return errs
}
