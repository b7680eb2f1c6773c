// Package orderbook holds the per-instrument resting order collections.
//
// Each side is a btree keyed by (price, arrival): bids descending by price,
// asks ascending, FIFO within a price level. The book itself does no locking;
// the venue serializes every mutation and read of a book (run-to-completion),
// so ordering invariants never need a lock of their own.
package orderbook

import (
	"github.com/tidwall/btree"

	"github.com/openvenue/matchbook/pkg/app/core"
)

type Book struct {
	bids *btree.BTreeG[*core.Order]
	asks *btree.BTreeG[*core.Order]

	// arrival sequence, monotonic per book
	arrivals uint64
}

func New() *Book {
	bids := btree.NewBTreeG(func(a, b *core.Order) bool {
		if !a.Price.Equal(b.Price) {
			return a.Price.GreaterThan(b.Price) // highest bid first
		}
		return a.Arrival < b.Arrival
	})
	asks := btree.NewBTreeG(func(a, b *core.Order) bool {
		if !a.Price.Equal(b.Price) {
			return a.Price.LessThan(b.Price) // lowest ask first
		}
		return a.Arrival < b.Arrival
	})
	return &Book{bids: bids, asks: asks}
}

func (b *Book) side(s core.Side) *btree.BTreeG[*core.Order] {
	if s == core.Buy {
		return b.bids
	}
	return b.asks
}

// Insert admits an order on its side, stamping the arrival sequence that
// fixes its FIFO position within the price level.
func (b *Book) Insert(o *core.Order) {
	b.arrivals++
	o.Arrival = b.arrivals
	b.side(o.Side).Set(o)
}

// PeekBest returns the highest-priority resting order for the side, or
// false if the side is empty. An empty side is absence, not an error.
func (b *Book) PeekBest(s core.Side) (*core.Order, bool) {
	return b.side(s).Min()
}

// PopBest removes and returns the highest-priority resting order, used when
// a resting order has been fully filled.
func (b *Book) PopBest(s core.Side) (*core.Order, bool) {
	return b.side(s).PopMin()
}

// Depth returns the number of resting orders on a side.
func (b *Book) Depth(s core.Side) int {
	return b.side(s).Len()
}

// Snapshot deep-copies both sides in priority order. The copy is independent
// of the live book: later matching never shows through it.
func (b *Book) Snapshot() core.Snapshot {
	snap := core.Snapshot{
		Bids: make([]core.Order, 0, b.bids.Len()),
		Asks: make([]core.Order, 0, b.asks.Len()),
	}
	b.bids.Scan(func(o *core.Order) bool {
		snap.Bids = append(snap.Bids, *o)
		return true
	})
	b.asks.Scan(func(o *core.Order) bool {
		snap.Asks = append(snap.Asks, *o)
		return true
	})
	return snap
}
