package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/andresuchdata/stockpilot/internal/ingest"
	"github.com/andresuchdata/stockpilot/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIngestor() *ingest.Ingestor {
	return ingest.NewIngestor(time.UTC).WithClock(func() time.Time {
		return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	})
}

func newServices(opts ...UploadOption) (*UploadService, *AnalyticsService, *repository.RecordRepository) {
	repo := repository.NewRecordRepository(repository.NewMemoryStore(), "test")
	return NewUploadService(repo, testIngestor(), opts...), NewAnalyticsService(repo), repo
}

func row(cells ...any) ingest.Row {
	out := make(ingest.Row, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case string:
			out[i] = ingest.Text(v)
		case int:
			out[i] = ingest.Number(float64(v))
		}
	}
	return out
}

func salesGrid(date string, qty int) ingest.Grid {
	return ingest.Grid{
		row("날짜", "상품명", "바코드", "판매수량", "재고"),
		row(date, "Aqua Cream", "880001", qty, 20),
	}
}

type countingLocker struct {
	mu       sync.Mutex
	acquired int
	err      error
}

func (l *countingLocker) Acquire(context.Context) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() {}, nil
}

type recordingArchiver struct {
	files []string
	err   error
}

func (a *recordingArchiver) Archive(_ context.Context, kind domain.DatasetKind, batchID, filename string, _ []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.files = append(a.files, filename)
	return fmt.Sprintf("uploads/%s/%s_%s", kind, batchID, filename), nil
}

func TestApplySalesOverwritesAcrossUploads(t *testing.T) {
	ctx := context.Background()
	uploads, _, repo := newServices()

	res, err := uploads.Apply(ctx, domain.KindSales, salesGrid("2026-01-30", 5))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ingested)
	assert.Equal(t, 1, res.Persisted)
	assert.Empty(t, res.Errors)
	assert.NotEmpty(t, res.BatchID)

	_, err = uploads.Apply(ctx, domain.KindSales, salesGrid("2026-01-30", 9))
	require.NoError(t, err)

	sales, err := repo.LoadSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, 9, sales[0].SalesQty)
}

func TestApplyStructuralErrorLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	uploads, _, repo := newServices()

	_, err := uploads.Apply(ctx, domain.KindInbound, ingest.Grid{
		row("상품명", "입고수량"),
		row("Aqua Cream", 10),
	})
	require.NoError(t, err)

	res, err := uploads.Apply(ctx, domain.KindInbound, ingest.Grid{
		row("상품명", "메모"),
		row("Aqua Cream", "n/a"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Errors)
	assert.Zero(t, res.Persisted)

	inbound, err := repo.LoadInbound(ctx)
	require.NoError(t, err)
	require.Len(t, inbound, 1)
	assert.Equal(t, 10, inbound[0].InboundQty)
}

func TestApplyUnknownKind(t *testing.T) {
	uploads, _, _ := newServices()
	_, err := uploads.Apply(context.Background(), domain.DatasetKind("returns"), nil)
	assert.Error(t, err)
}

func TestConcurrentAppliesDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	locker := &countingLocker{}
	uploads, _, repo := newServices(WithLocker(locker))

	var wg sync.WaitGroup
	for day := 1; day <= 20; day++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			_, err := uploads.Apply(ctx, domain.KindSales, salesGrid(fmt.Sprintf("2026-01-%02d", day), day))
			assert.NoError(t, err)
		}(day)
	}
	wg.Wait()

	sales, err := repo.LoadSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 20)
	assert.Equal(t, 20, locker.acquired)
	assert.Equal(t, "2026-01-01", sales[0].Date)
}

func TestLockFailureAbortsMerge(t *testing.T) {
	uploads, _, _ := newServices(WithLocker(&countingLocker{err: errors.New("lock busy")}))
	_, err := uploads.Apply(context.Background(), domain.KindSales, salesGrid("2026-01-30", 1))
	assert.Error(t, err)
}

func TestUploadDecodesAndArchives(t *testing.T) {
	ctx := context.Background()
	archiver := &recordingArchiver{}
	uploads, _, _ := newServices(WithArchiver(archiver))

	doc := []byte("바코드,상품명,원가,본사재고\n880001,Aqua Cream,1200,15\n")
	res, err := uploads.Upload(ctx, domain.KindMaster, "master.csv", doc)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Persisted)
	assert.Equal(t, []string{"master.csv"}, archiver.files)
	assert.Contains(t, res.ArchiveKey, "uploads/master/")
}

func TestUploadArchiveFailureIsNotFatal(t *testing.T) {
	uploads, _, _ := newServices(WithArchiver(&recordingArchiver{err: errors.New("bucket gone")}))
	res, err := uploads.Upload(context.Background(), domain.KindMaster, "master.csv", []byte("barcode,sku name\n1,Toner\n"))
	require.NoError(t, err)
	assert.Empty(t, res.ArchiveKey)
	assert.Equal(t, 1, res.Persisted)
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	uploads, _, _ := newServices()
	_, err := uploads.Upload(context.Background(), domain.KindSales, "legacy.xls", []byte("x"))
	assert.Error(t, err)
}

func TestAnalyticsOverUploads(t *testing.T) {
	ctx := context.Background()
	uploads, reports, _ := newServices()

	_, err := uploads.Apply(ctx, domain.KindMaster, ingest.Grid{
		row("바코드", "상품명", "원가", "본사재고"),
		row("880001", "Aqua Cream", 1000, 5),
	})
	require.NoError(t, err)
	_, err = uploads.Apply(ctx, domain.KindSales, salesGrid("2026-01-30", 7))
	require.NoError(t, err)
	_, err = uploads.Apply(ctx, domain.KindInbound, ingest.Grid{
		row("상품명", "입고수량"),
		row("Aqua Cream", 3),
	})
	require.NoError(t, err)

	stats, err := reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-30", stats.LatestDate)
	assert.Equal(t, 7, stats.TotalSales)
	assert.Equal(t, 1, stats.ProductCount)

	risks, err := reports.Risks(ctx)
	require.NoError(t, err)
	require.Len(t, risks, 1)
	assert.Equal(t, 3, risks[0].InboundQty)
	assert.Equal(t, 20, risks[0].CurrentInventory)

	groups, err := reports.Groups(ctx, "sales", true)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Aqua Cream", groups[0].GroupName)

	trends, err := reports.Trends(ctx)
	require.NoError(t, err)
	require.Len(t, trends, 1)

	records, err := reports.Records(ctx, domain.KindInbound)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	require.NoError(t, uploads.Clear(ctx))
	stats, err = reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSales)
}

// slowStore widens the window between load and persist.
type slowStore struct {
	repository.KVStore
	delay time.Duration
}

func (s slowStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	time.Sleep(s.delay)
	return s.KVStore.Get(ctx, key)
}

// mutexLocker stands in for a lock shared by separate processes.
type mutexLocker struct{ mu sync.Mutex }

func (l *mutexLocker) Acquire(context.Context) (func(), error) {
	l.mu.Lock()
	return l.mu.Unlock, nil
}

func TestApplySharedLockSerializesSeparateServices(t *testing.T) {
	ctx := context.Background()
	store := slowStore{KVStore: repository.NewMemoryStore(), delay: 20 * time.Millisecond}
	repo := repository.NewRecordRepository(store, "test")
	lock := &mutexLocker{}

	// two services over one store, like a server and a CLI sharing a database
	a := NewUploadService(repo, testIngestor(), WithLocker(lock))
	b := NewUploadService(repo, testIngestor(), WithLocker(lock))

	gridFor := func(name, barcode string) ingest.Grid {
		return ingest.Grid{
			row("날짜", "상품명", "바코드", "판매수량", "재고"),
			row("2026-01-30", name, barcode, 1, 2),
		}
	}

	var wg sync.WaitGroup
	for _, job := range []struct {
		svc           *UploadService
		name, barcode string
	}{{a, "Aqua Cream", "A"}, {b, "Body Lotion", "B"}} {
		wg.Add(1)
		go func(svc *UploadService, name, barcode string) {
			defer wg.Done()
			_, err := svc.Apply(ctx, domain.KindSales, gridFor(name, barcode))
			assert.NoError(t, err)
		}(job.svc, job.name, job.barcode)
	}
	wg.Wait()

	sales, err := repo.LoadSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 2, "concurrent uploads of distinct products must both persist")
}
