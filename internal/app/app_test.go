package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/andresuchdata/stockpilot/internal/config"
	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/andresuchdata/stockpilot/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Backend: BackendMemory, KeyPrefix: "t"},
		Redis: config.RedisConfig{LockTTLSecs: 5},
		App:   config.AppConfig{Timezone: "Asia/Seoul", ImportWorkers: 2},
	}
}

func TestNewMemoryBackend(t *testing.T) {
	a, err := New(context.Background(), baseConfig())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Storage)
	assert.Nil(t, a.Drive)
	assert.NotNil(t, a.Importer)
}

func TestNewRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.Store.Backend = BackendRedis
	cfg.Redis.Host, cfg.Redis.Port = mr.Host(), mr.Port()

	ctx := context.Background()
	a, err := New(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Uploads.Apply(ctx, domain.KindInbound, ingest.Grid{
		{ingest.Text("상품명"), ingest.Text("입고수량")},
		{ingest.Text("Aqua Cream"), ingest.Number(12)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Persisted)
	assert.True(t, mr.Exists("t:inbound_records"))
	assert.False(t, mr.Exists("t:lock:merge"), "lock is released after the merge")
}

func TestNewUnknownBackend(t *testing.T) {
	cfg := baseConfig()
	cfg.Store.Backend = "sqlite"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
