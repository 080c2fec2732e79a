package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// MergeLock is a cross-process mutex around load-merge-persist, held as a
// session-level advisory lock on a dedicated connection.
type MergeLock struct {
	db  *DB
	key string
}

func NewMergeLock(db *DB, key string) *MergeLock {
	return &MergeLock{db: db, key: key}
}

// Acquire blocks until the advisory lock is granted or ctx ends. The
// connection stays checked out until release so the lock lives with it.
func (l *MergeLock) Acquire(ctx context.Context) (func(), error) {
	conn, err := l.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("merge lock connection: %w", err)
	}

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtext($1))`, l.key); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("obtain merge lock %s: %w", l.key, err)
	}

	return func() {
		// the merge may have outlived ctx
		if _, err := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, l.key); err != nil {
			log.Warn().Err(err).Str("key", l.key).Msg("failed to release merge lock")
		}
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to return merge lock connection")
		}
	}, nil
}
