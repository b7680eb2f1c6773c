package venue

import (
	"context"
	"time"

	"github.com/openvenue/matchbook/pkg/app/core"
)

// Event types carried on the bus and in the journal.
const (
	EventOrderBookUpdate = "orderBookUpdate"
	EventTrade           = "trade"
)

// BookUpdate is the payload broadcast and announced after every mutation.
type BookUpdate struct {
	Symbol    string       `json:"instrument"`
	Bids      []core.Order `json:"bids"`
	Asks      []core.Order `json:"asks"`
	Timestamp time.Time    `json:"timestamp"`
}

// Broadcaster pushes book and trade deltas to currently connected observers
// of an instrument. Delivery is at-most-once per observer; a slow observer is
// skipped, never retried, and never blocks the matching path.
type Broadcaster interface {
	PublishBook(symbol string, update BookUpdate)
	PublishTrade(trade core.Trade)
}

// SnapshotCache is the best-effort external mirror of book state. Mirror
// swallows failures; Fetch reports a miss as false so callers fall back to
// the authoritative in-memory book.
type SnapshotCache interface {
	Mirror(ctx context.Context, symbol string, snap core.Snapshot)
	Fetch(ctx context.Context, symbol string) (core.Snapshot, bool)
}

// EventSink fans a change event out to downstream consumers without awaiting
// acknowledgment. Failures are logged and discarded at the sink.
type EventSink interface {
	Announce(ctx context.Context, symbol, eventType string, payload any)
}

// TaskRunner runs the detached side-effect tasks scheduled after a mutation.
type TaskRunner interface {
	Submit(task func())
}
