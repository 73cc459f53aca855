package quote

import (
	"context"
	"time"

	"github.com/predictivelabs/trader/internal/broker"
)

// StreamingGateway decorates a Gateway so price reads come from the stream
// cache instead of a REST round trip per poll. Stale or missing snapshots
// fall through to the wrapped gateway. Order operations pass through
// untouched.
type StreamingGateway struct {
	broker.Gateway

	cache  *Cache
	maxAge time.Duration
	now    func() time.Time
}

// WithStreamingQuotes wraps a gateway with cached quote reads. maxAge bounds
// how old a snapshot may be before the read falls back to the gateway.
func WithStreamingQuotes(gateway broker.Gateway, cache *Cache, maxAge time.Duration) *StreamingGateway {
	return &StreamingGateway{
		Gateway: gateway,
		cache:   cache,
		maxAge:  maxAge,
		now:     time.Now,
	}
}

func (g *StreamingGateway) fresh() (float64, float64, float64, bool) {
	snapshot, ok := g.cache.Load()
	if !ok {
		return 0, 0, 0, false
	}

	if g.maxAge > 0 && g.now().Sub(snapshot.Time) > g.maxAge {
		return 0, 0, 0, false
	}

	return snapshot.Last, snapshot.Bid, snapshot.Ask, true
}

// GetLastPrice implements broker.Gateway.
func (g *StreamingGateway) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	if last, _, _, ok := g.fresh(); ok && last > 0 {
		return last, nil
	}

	return g.Gateway.GetLastPrice(ctx, symbol)
}

// GetLastBid implements broker.Gateway.
func (g *StreamingGateway) GetLastBid(ctx context.Context, symbol string) (float64, error) {
	if _, bid, _, ok := g.fresh(); ok && bid > 0 {
		return bid, nil
	}

	return g.Gateway.GetLastBid(ctx, symbol)
}

// GetLastAsk implements broker.Gateway.
func (g *StreamingGateway) GetLastAsk(ctx context.Context, symbol string) (float64, error) {
	if _, _, ask, ok := g.fresh(); ok && ask > 0 {
		return ask, nil
	}

	return g.Gateway.GetLastAsk(ctx, symbol)
}

var _ broker.Gateway = (*StreamingGateway)(nil)
