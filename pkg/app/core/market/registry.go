// Package market tracks the tradable instruments of the venue.
package market

import (
	"fmt"
	"strings"
	"sync"
)

// Market is a tradable pair with its own independent order book.
type Market struct {
	Symbol     string `json:"symbol"`     // e.g. "BTC-USDT"
	BaseAsset  string `json:"baseAsset"`  // e.g. "BTC"
	QuoteAsset string `json:"quoteAsset"` // e.g. "USDT"
}

// NewMarket builds a market from a "BASE-QUOTE" symbol.
func NewMarket(symbol string) (*Market, error) {
	base, quote, ok := strings.Cut(symbol, "-")
	if !ok || base == "" || quote == "" {
		return nil, fmt.Errorf("malformed symbol %q, want BASE-QUOTE", symbol)
	}
	return &Market{Symbol: symbol, BaseAsset: base, QuoteAsset: quote}, nil
}

// Registry is an append-only symbol -> market map, populated at startup
// registration. No operation removes an instrument during normal operation.
type Registry struct {
	mu      sync.RWMutex
	markets map[string]*Market
}

func NewRegistry() *Registry {
	return &Registry{markets: make(map[string]*Market)}
}

// Register adds a market. Returns an error if the symbol is already taken.
func (r *Registry) Register(m *Market) error {
	if m == nil {
		return fmt.Errorf("cannot register nil market")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.markets[m.Symbol]; exists {
		return fmt.Errorf("market %s already registered", m.Symbol)
	}
	r.markets[m.Symbol] = m
	return nil
}

// Get retrieves a market by symbol.
func (r *Registry) Get(symbol string) (*Market, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.markets[symbol]
	return m, ok
}

// Exists checks whether a symbol is registered.
func (r *Registry) Exists(symbol string) bool {
	_, ok := r.Get(symbol)
	return ok
}

// List returns all registered markets. The slice is a copy.
func (r *Registry) List() []*Market {
	r.mu.RLock()
	defer r.mu.RUnlock()

	markets := make([]*Market, 0, len(r.markets))
	for _, m := range r.markets {
		markets = append(markets, m)
	}
	return markets
}

// Count returns the number of registered markets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.markets)
}
