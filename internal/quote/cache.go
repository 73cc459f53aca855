package quote

import (
	"sync/atomic"
	"time"

	"github.com/predictivelabs/trader/internal/types"
)

// Cache is a latest-value cell for the most recent quote snapshot. A single
// feeder goroutine writes; any number of readers load lock-free. Trades and
// book updates arrive on separate streams, so each setter merges into the
// previous snapshot rather than replacing it wholesale.
type Cache struct {
	latest atomic.Pointer[types.Quote]
}

func NewCache() *Cache {
	return &Cache{}
}

// Load returns the current snapshot, or false when nothing has been cached
// yet.
func (c *Cache) Load() (types.Quote, bool) {
	snapshot := c.latest.Load()
	if snapshot == nil {
		return types.Quote{}, false
	}

	return *snapshot, true
}

// SetLast merges a new last-trade price into the snapshot.
func (c *Cache) SetLast(symbol string, price float64, at time.Time) {
	snapshot := c.snapshotFor(symbol)
	snapshot.Last = price
	snapshot.Time = at
	c.latest.Store(&snapshot)
}

// SetBook merges new best bid/ask prices into the snapshot.
func (c *Cache) SetBook(symbol string, bid, ask float64, at time.Time) {
	snapshot := c.snapshotFor(symbol)
	snapshot.Bid = bid
	snapshot.Ask = ask
	snapshot.Time = at
	c.latest.Store(&snapshot)
}

// Seed replaces the snapshot wholesale, used to prime the cache from a REST
// lookup before the stream delivers its first event.
func (c *Cache) Seed(quote types.Quote) {
	c.latest.Store(&quote)
}

func (c *Cache) snapshotFor(symbol string) types.Quote {
	if prev := c.latest.Load(); prev != nil {
		return *prev
	}

	return types.Quote{Symbol: symbol}
}
