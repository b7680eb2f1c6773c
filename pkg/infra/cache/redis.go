// Package cache mirrors book snapshots into Redis, best effort.
package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openvenue/matchbook/pkg/app/core"
)

const keyPrefix = "orderbook:"

// Mirror is a write-through/read-through snapshot cache. Writes are fire and
// forget; reads report a miss on any error so callers fall back to the
// authoritative in-memory book.
type Mirror struct {
	rdb *redis.Client
	log *zap.SugaredLogger
}

func NewMirror(url string, log *zap.SugaredLogger) (*Mirror, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Mirror{rdb: redis.NewClient(opts), log: log}, nil
}

// Mirror writes the snapshot under orderbook:<symbol>. Failures are logged
// and discarded, never propagated.
func (m *Mirror) Mirror(ctx context.Context, symbol string, snap core.Snapshot) {
	body, err := json.Marshal(snap)
	if err != nil {
		m.log.Warnw("cache_marshal_failed", "symbol", symbol, "err", err)
		return
	}
	if err := m.rdb.Set(ctx, keyPrefix+symbol, body, 0).Err(); err != nil {
		m.log.Warnw("cache_write_failed", "symbol", symbol, "err", err)
	}
}

// Fetch loads the cached snapshot. A cache miss and a cache error look the
// same to the caller: not found.
func (m *Mirror) Fetch(ctx context.Context, symbol string) (core.Snapshot, bool) {
	body, err := m.rdb.Get(ctx, keyPrefix+symbol).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			m.log.Warnw("cache_read_failed", "symbol", symbol, "err", err)
		}
		return core.Snapshot{}, false
	}

	var snap core.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		m.log.Warnw("cache_decode_failed", "symbol", symbol, "err", err)
		return core.Snapshot{}, false
	}
	return snap, true
}

func (m *Mirror) Close() error {
	return m.rdb.Close()
}
