package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// ParseSide maps wire representations ("buy"/"bid", "sell"/"ask") to a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy", "bid":
		return Buy, nil
	case "sell", "ask":
		return Sell, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

// Order is an incoming or resting limit order. Once admitted to a book the
// book owns it exclusively; the submitting connection keeps no handle on it.
type Order struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"instrument"`
	Side      Side            `json:"-"`
	Price     decimal.Decimal `json:"price"`    // limit price, > 0
	Quantity  decimal.Decimal `json:"quantity"` // original quantity, > 0
	Remaining decimal.Decimal `json:"remaining"`
	Owner     string          `json:"owner"`
	Timestamp time.Time       `json:"timestamp"`

	// Arrival is a per-book monotonic sequence assigned on admission and
	// used for FIFO tie-breaks within a price level. Wall clocks can
	// collide; the sequence cannot.
	Arrival uint64 `json:"-"`
}

// OrderStatus is the residual state of an order after a submit completes.
type OrderStatus string

const (
	StatusFilled          OrderStatus = "filled"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusResting         OrderStatus = "resting"
)

// Status derives the residual state from the remaining quantity.
func (o *Order) Status() OrderStatus {
	switch {
	case o.Remaining.IsZero():
		return StatusFilled
	case o.Remaining.Equal(o.Quantity):
		return StatusResting
	default:
		return StatusPartiallyFilled
	}
}

// Trade is produced once per crossing event, consumed by the broadcast and
// event pipelines and then discarded. The core keeps no trade history.
type Trade struct {
	Symbol    string          `json:"instrument"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Timestamp time.Time       `json:"timestamp"`
}

// Snapshot is an immutable point-in-time copy of a book's two sides.
// Bids are sorted best (highest price) first, asks best (lowest) first.
type Snapshot struct {
	Bids []Order `json:"bids"`
	Asks []Order `json:"asks"`
}

// ErrUnknownInstrument rejects operations against a symbol that was never
// registered.
var ErrUnknownInstrument = errors.New("unknown instrument")

// ValidationError rejects a malformed submission before the book is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
