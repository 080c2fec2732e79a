package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLockBusy is returned when another process held the merge lock for the
// whole wait.
var ErrLockBusy = errors.New("merge lock is held by another process")

const lockRetryInterval = 100 * time.Millisecond

// MergeLock is a cross-process mutex around load-merge-persist.
type MergeLock struct {
	locker *redislock.Client
	key    string
	ttl    time.Duration
}

func NewMergeLock(client *goredis.Client, key string, ttl time.Duration) *MergeLock {
	return &MergeLock{
		locker: redislock.New(client),
		key:    key,
		ttl:    ttl,
	}
}

// Acquire blocks until the lease is obtained, ctx ends or one ttl passes.
func (l *MergeLock) Acquire(ctx context.Context) (func(), error) {
	lock, err := l.locker.Obtain(ctx, l.key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(lockRetryInterval),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrLockBusy, l.key)
	} else if err != nil {
		return nil, fmt.Errorf("obtain merge lock: %w", err)
	}

	done := make(chan struct{})
	go l.keepAlive(lock, done)

	return func() {
		close(done)
		// the merge may have outlived ctx
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Str("key", l.key).Msg("failed to release merge lock")
		}
	}, nil
}

// keepAlive extends the lease every half ttl until done is closed, so a
// merge slower than one ttl keeps exclusive access.
func (l *MergeLock) keepAlive(lock *redislock.Lock, done <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := lock.Refresh(context.Background(), l.ttl, nil); err != nil {
				log.Warn().Err(err).Str("key", l.key).Msg("failed to refresh merge lock")
				return
			}
		}
	}
}
