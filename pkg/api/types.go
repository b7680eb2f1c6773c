package api

// Request and response types for REST endpoints and WebSocket messages

import (
	"github.com/shopspring/decimal"

	"github.com/openvenue/matchbook/pkg/app/core"
)

// ==============================
// REST Types
// ==============================

// SubmitOrderRequest is the payload for POST /api/v1/orders
type SubmitOrderRequest struct {
	Symbol   string          `json:"instrument"`
	Side     string          `json:"side"`     // "buy" or "sell"
	Price    decimal.Decimal `json:"price"`    // positive decimal
	Quantity decimal.Decimal `json:"quantity"` // positive decimal
	Owner    string          `json:"owner"`
}

// SubmitOrderResponse reports the accepted order's residual state and the
// trades the submission produced.
type SubmitOrderResponse struct {
	OrderID   string          `json:"orderId"`
	Status    core.OrderStatus `json:"status"` // "filled" | "partially_filled" | "resting"
	Remaining decimal.Decimal `json:"remaining"`
	Trades    []core.Trade    `json:"trades"`
}

// SnapshotResponse is the current book state for one instrument.
type SnapshotResponse struct {
	Symbol    string       `json:"instrument"`
	Bids      []core.Order `json:"bids"` // sorted high to low
	Asks      []core.Order `json:"asks"` // sorted low to high
	Timestamp int64        `json:"timestamp"` // Unix milliseconds
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSMessage is the base structure for all WebSocket messages
type WSMessage struct {
	Type string `json:"type"` // "orderbook" or "trade"
	Data any    `json:"data"`
}

// WSSubscribeRequest is sent by a client to manage channel subscriptions,
// e.g. ["orderbook:BTC-USDT", "trades:BTC-USDT"]. There is no replay: a
// client that subscribes after an update must request a fresh snapshot.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}
