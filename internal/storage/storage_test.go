package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/stockpilot/internal/config"
	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStorage) ListObjects(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key > out[j].Key })
	return out, nil
}

func (m *memoryStorage) GetObject(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return io.NopCloser(bytes.NewReader(v)), nil
}

func (m *memoryStorage) PutObject(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func TestArchiveKey(t *testing.T) {
	a := NewArchiver(newMemoryStorage(), "/uploads/", time.UTC)
	at := time.Date(2026, 1, 30, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, "uploads/sales/20260130/b1_daily.xlsx", a.ArchiveKey(domain.KindSales, "b1", "daily.xlsx", at))
	assert.Equal(t, "uploads/master/20260130/b2_m.csv", a.ArchiveKey(domain.KindMaster, "b2", `C:\exports\m.csv`, at))

	bare := NewArchiver(newMemoryStorage(), "", time.UTC)
	assert.Equal(t, "inbound/20260130/b3_i.csv", bare.ArchiveKey(domain.KindInbound, "b3", "i.csv", at))
}

func TestArchiveStoresBytes(t *testing.T) {
	store := newMemoryStorage()
	a := NewArchiver(store, "raw", time.UTC)

	key, err := a.Archive(context.Background(), domain.KindSales, "batch", "sales.xlsx", []byte("PK"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "raw/sales/"))
	assert.Equal(t, []byte("PK"), store.objects[key])
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", store.types[key])
}

func TestBucketSources(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStorage()
	require.NoError(t, store.PutObject(ctx, "drop/master/products.xlsx", []byte("m"), ""))
	require.NoError(t, store.PutObject(ctx, "drop/2026-01-30.csv", []byte("s"), ""))
	require.NoError(t, store.PutObject(ctx, "drop/입고예정.csv", []byte("i"), ""))
	require.NoError(t, store.PutObject(ctx, "drop/readme.txt", []byte("x"), ""))

	sources, err := BucketSources(ctx, store, "drop/")
	require.NoError(t, err)
	require.Len(t, sources, 3)

	assert.Equal(t, "2026-01-30.csv", sources[0].Name)
	assert.Equal(t, domain.DatasetKind(""), sources[0].Kind)
	assert.Equal(t, "products.xlsx", sources[1].Name)
	assert.Equal(t, domain.KindMaster, sources[1].Kind)

	rc, err := sources[1].Open(ctx)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "m", string(body))
}

func TestNewS3ClientValidates(t *testing.T) {
	_, err := NewS3Client(config.ArchiveConfig{Bucket: "b"})
	assert.Error(t, err)
	_, err = NewS3Client(config.ArchiveConfig{Endpoint: "minio:9000"})
	assert.Error(t, err)

	c, err := NewS3Client(config.ArchiveConfig{Endpoint: "http://minio:9000/", Bucket: "b", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "b", c.bucket)
	assert.Equal(t, "minio:9000", c.client.EndpointURL().Host)
	assert.Equal(t, "http", c.client.EndpointURL().Scheme)
}
