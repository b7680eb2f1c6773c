// Package venue implements the matching engine and its side-effect pipeline.
package venue

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openvenue/matchbook/pkg/app/core"
	"github.com/openvenue/matchbook/pkg/app/core/market"
	"github.com/openvenue/matchbook/pkg/app/core/orderbook"
	"github.com/openvenue/matchbook/pkg/util"
)

// Options carries the collaborators of the matching engine. Every sink is
// optional: a nil sink is skipped, and a failing one never reaches the
// caller. Only the in-memory books are load-bearing.
type Options struct {
	Broadcaster Broadcaster
	Cache       SnapshotCache
	Events      EventSink
	Journal     EventSink
	Workers     TaskRunner
	Clock       util.Clock
}

// App is the venue core: one order book per registered instrument, mutated
// only by Submit. It is constructed once at startup and passed by reference
// to every caller; there is no package-level instance.
type App struct {
	log      *zap.SugaredLogger
	clock    util.Clock
	registry *market.Registry

	mu    sync.RWMutex // guards the books map, not the books
	books map[string]*bookState

	broadcaster Broadcaster
	cache       SnapshotCache
	events      EventSink
	journal     EventSink
	workers     TaskRunner
}

// bookState pairs a book with the lock that gives every Submit on that
// instrument run-to-completion semantics. Books of different instruments
// proceed independently.
type bookState struct {
	mu   sync.Mutex
	book *orderbook.Book
}

func NewApp(log *zap.SugaredLogger, opts Options) *App {
	clock := opts.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	return &App{
		log:         log,
		clock:       clock,
		registry:    market.NewRegistry(),
		books:       make(map[string]*bookState),
		broadcaster: opts.Broadcaster,
		cache:       opts.Cache,
		events:      opts.Events,
		journal:     opts.Journal,
		workers:     opts.Workers,
	}
}

// RegisterMarket creates the instrument and its book. Registration happens
// at startup; books live for the process lifetime and are never delisted.
func (a *App) RegisterMarket(symbol string) error {
	m, err := market.NewMarket(symbol)
	if err != nil {
		return err
	}
	if err := a.registry.Register(m); err != nil {
		return err
	}

	a.mu.Lock()
	a.books[symbol] = &bookState{book: orderbook.New()}
	a.mu.Unlock()

	a.log.Infow("market_registered", "symbol", symbol)
	return nil
}

// ListMarkets returns the registered instruments.
func (a *App) ListMarkets() []*market.Market {
	return a.registry.List()
}

func (a *App) bookFor(symbol string) (*bookState, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	bs, ok := a.books[symbol]
	return bs, ok
}

// Submit validates and admits an order, runs the matching loop to
// completion, and fires the side-effect pipeline. It returns the accepted
// order's residual state and the trades produced, possibly none.
//
// The whole call holds the instrument's book lock: no other mutation or
// snapshot of that book can observe the loop mid-flight.
func (a *App) Submit(symbol string, side core.Side, price, quantity decimal.Decimal, owner string) (core.Order, []core.Trade, error) {
	if owner == "" {
		return core.Order{}, nil, &core.ValidationError{Field: "owner", Reason: "must not be empty"}
	}
	if !price.IsPositive() {
		return core.Order{}, nil, &core.ValidationError{Field: "price", Reason: "must be positive"}
	}
	if !quantity.IsPositive() {
		return core.Order{}, nil, &core.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	bs, ok := a.bookFor(symbol)
	if !ok {
		return core.Order{}, nil, core.ErrUnknownInstrument
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()

	order := &core.Order{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Remaining: quantity,
		Owner:     owner,
		Timestamp: a.clock.Now(),
	}
	bs.book.Insert(order)

	trades := a.match(symbol, bs.book)
	accepted := *order

	snap := bs.book.Snapshot()
	a.publish(symbol, snap, trades)
	a.dispatch(symbol, snap, trades)

	a.log.Infow("order_submitted",
		"symbol", symbol,
		"order_id", accepted.ID,
		"side", side.String(),
		"status", accepted.Status(),
		"fills", len(trades),
	)
	return accepted, trades, nil
}

// match consumes crossing orders until one side empties or best bid falls
// below best ask. A single aggressor may sweep multiple resting orders.
func (a *App) match(symbol string, book *orderbook.Book) []core.Trade {
	var trades []core.Trade
	for {
		bid, ok := book.PeekBest(core.Buy)
		if !ok {
			break
		}
		ask, ok := book.PeekBest(core.Sell)
		if !ok {
			break
		}
		if bid.Price.LessThan(ask.Price) {
			break
		}

		// Execution price comes from the resting side, the order that
		// was already in the book when the cross appeared.
		resting := ask
		if bid.Arrival < ask.Arrival {
			resting = bid
		}

		matched := decimal.Min(bid.Remaining, ask.Remaining)
		bid.Remaining = bid.Remaining.Sub(matched)
		ask.Remaining = ask.Remaining.Sub(matched)

		trades = append(trades, core.Trade{
			Symbol:    symbol,
			Price:     resting.Price,
			Quantity:  matched,
			Timestamp: a.clock.Now(),
		})

		if bid.Remaining.IsZero() {
			book.PopBest(core.Buy)
		}
		if ask.Remaining.IsZero() {
			book.PopBest(core.Sell)
		}
	}
	return trades
}

// publish delivers the fresh snapshot and trades to connected observers,
// synchronously with the triggering mutation.
func (a *App) publish(symbol string, snap core.Snapshot, trades []core.Trade) {
	if a.broadcaster == nil {
		return
	}
	a.broadcaster.PublishBook(symbol, BookUpdate{
		Symbol:    symbol,
		Bids:      snap.Bids,
		Asks:      snap.Asks,
		Timestamp: a.clock.Now(),
	})
	for _, t := range trades {
		a.broadcaster.PublishTrade(t)
	}
}

// dispatch schedules the detached cache, bus and journal writes. The
// matching path never awaits them; their completion order relative to later
// submits is unspecified.
func (a *App) dispatch(symbol string, snap core.Snapshot, trades []core.Trade) {
	update := BookUpdate{
		Symbol:    symbol,
		Bids:      snap.Bids,
		Asks:      snap.Asks,
		Timestamp: a.clock.Now(),
	}

	if a.cache != nil {
		a.schedule(func() { a.cache.Mirror(context.Background(), symbol, snap) })
	}
	if a.events != nil {
		a.schedule(func() {
			a.events.Announce(context.Background(), symbol, EventOrderBookUpdate, update)
			for _, t := range trades {
				a.events.Announce(context.Background(), symbol, EventTrade, t)
			}
		})
	}
	if a.journal != nil {
		a.schedule(func() {
			a.journal.Announce(context.Background(), symbol, EventOrderBookUpdate, update)
			for _, t := range trades {
				a.journal.Announce(context.Background(), symbol, EventTrade, t)
			}
		})
	}
}

func (a *App) schedule(task func()) {
	if a.workers == nil {
		go task()
		return
	}
	a.workers.Submit(task)
}

// GetSnapshot serves current book state: the external cache first, the
// authoritative in-memory book on miss or cache error.
func (a *App) GetSnapshot(ctx context.Context, symbol string) (core.Snapshot, error) {
	bs, ok := a.bookFor(symbol)
	if !ok {
		return core.Snapshot{}, core.ErrUnknownInstrument
	}

	if a.cache != nil {
		if snap, ok := a.cache.Fetch(ctx, symbol); ok {
			return snap, nil
		}
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.book.Snapshot(), nil
}

// LocalSnapshot bypasses the cache and reads the in-memory book only.
func (a *App) LocalSnapshot(symbol string) (core.Snapshot, error) {
	bs, ok := a.bookFor(symbol)
	if !ok {
		return core.Snapshot{}, core.ErrUnknownInstrument
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.book.Snapshot(), nil
}
