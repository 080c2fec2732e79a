package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andresuchdata/stockpilot/internal/config"
	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/andresuchdata/stockpilot/internal/repository"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	store := NewStore(client)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte(`[1,2]`)))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1,2]`, string(v))

	require.NoError(t, store.Delete(ctx, "k"))
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreBacksRecordRepository(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	repo := repository.NewRecordRepository(NewStore(client), "sp")

	require.NoError(t, repo.SaveInbound(ctx, []domain.InboundRecord{{ProductName: "Toner", InboundQty: 3}}))
	assert.True(t, mr.Exists("sp:inbound_records"))

	inbound, err := repo.LoadInbound(ctx)
	require.NoError(t, err)
	require.Len(t, inbound, 1)
	assert.Equal(t, 3, inbound[0].InboundQty)
}

func TestMergeLockExcludesSecondHolder(t *testing.T) {
	_, client := newTestClient(t)
	first := NewMergeLock(client, "sp:lock:merge", time.Second)
	second := NewMergeLock(client, "sp:lock:merge", time.Second)

	release, err := first.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	_, err = second.Acquire(ctx)
	require.Error(t, err)

	release()

	release2, err := second.Acquire(context.Background())
	require.NoError(t, err)
	release2()
}

func TestMergeLockRefreshesWhileHeld(t *testing.T) {
	mr, client := newTestClient(t)
	lock := NewMergeLock(client, "sp:lock:merge", 100*time.Millisecond)

	release, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	// burn most of the lease, then give the refresher time to extend it
	mr.FastForward(80 * time.Millisecond)
	time.Sleep(120 * time.Millisecond)
	mr.FastForward(60 * time.Millisecond)

	assert.True(t, mr.Exists("sp:lock:merge"), "lease must outlive its original ttl while held")
}

func TestNewClientPings(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), config.RedisConfig{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	_ = client.Close()
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.RedisConfig{URL: "redis://:pw@cache:6380/2"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.RedisConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	_, err = buildRedisOptions(config.RedisConfig{URL: "://bad"})
	assert.Error(t, err)
}
