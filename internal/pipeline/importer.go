package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/andresuchdata/stockpilot/internal/ingest"
	"github.com/andresuchdata/stockpilot/internal/sheet"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Importer fetches and decodes many sources concurrently, then applies them
// one at a time in input order so later files overwrite earlier ones
// deterministically.
type Importer struct {
	applier Applier
	cfg     ImportConfig
}

func NewImporter(applier Applier, cfg ImportConfig) *Importer {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &Importer{applier: applier, cfg: cfg}
}

type decoded struct {
	grid    ingest.Grid
	err     error
	elapsed time.Duration
}

// Import returns one FileResult per source. A source that fails to fetch or
// decode is reported and skipped; a failed merge aborts the run.
func (im *Importer) Import(ctx context.Context, sources []Source) ([]FileResult, error) {
	grids := make([]decoded, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.cfg.WorkerCount)
	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			grid, err := im.decode(gctx, src)
			grids[i] = decoded{grid: grid, err: err, elapsed: time.Since(start)}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]FileResult, len(sources))
	for i, src := range sources {
		kind := src.Kind
		if kind == "" {
			kind = domain.DetectKind(src.Name)
		}
		res := FileResult{Name: src.Name, Kind: kind, Duration: grids[i].elapsed}

		if err := grids[i].err; err != nil {
			res.Status = FileStatusFailed
			res.Error = err.Error()
			log.Warn().Err(err).Str("file", src.Name).Msg("import: skipped source")
			results[i] = res
			continue
		}

		start := time.Now()
		upload, err := im.applier.Apply(ctx, kind, grids[i].grid)
		if err != nil {
			return results[:i], fmt.Errorf("failed to apply %s: %w", src.Name, err)
		}
		res.Duration += time.Since(start)
		res.Result = upload
		res.Status = FileStatusCompleted
		if len(upload.Errors) > 0 {
			res.Status = FileStatusRejected
		}
		results[i] = res

		log.Info().
			Str("file", src.Name).
			Str("kind", string(kind)).
			Str("status", string(res.Status)).
			Int("records", upload.Ingested).
			Msg("import: applied source")
	}

	return results, nil
}

func (im *Importer) decode(ctx context.Context, src Source) (ingest.Grid, error) {
	rc, err := im.open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return sheet.Decode(src.Name, rc)
}

func (im *Importer) open(ctx context.Context, src Source) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 0; attempt <= im.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(im.cfg.RetryBackoff):
			}
		}
		rc, err := src.Open(ctx)
		if err == nil {
			return rc, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("open %s: %w", src.Name, lastErr)
}
