// Package broker defines the gateway interface the trading engine uses to
// reach a live brokerage, plus the concrete gateway implementations.
package broker

import (
	"context"

	"github.com/predictivelabs/trader/internal/types"
)

// Gateway is the synchronous, pull-based brokerage abstraction consumed by the
// trading engine. Implementations vary by backend but all expose quote
// retrieval, order placement/cancellation, fill-status lookup, and a
// market-hours check. Any call may fail with a typed broker error
// (connectivity, rejection, empty response); errors propagate to the engine's
// cycle boundary, except where a gateway defines its own
// reauthenticate-and-retry for a known recoverable failure.
type Gateway interface {
	// GetLastPrice returns the last trade price for the symbol.
	GetLastPrice(ctx context.Context, symbol string) (float64, error)
	// GetLastBid returns the current best bid for the symbol.
	GetLastBid(ctx context.Context, symbol string) (float64, error)
	// GetLastAsk returns the current best ask for the symbol.
	GetLastAsk(ctx context.Context, symbol string) (float64, error)
	// MarketIsOpen reports whether the market currently accepts orders.
	MarketIsOpen(ctx context.Context) (bool, error)
	// PlaceOrder submits the order and returns the broker-assigned order id.
	PlaceOrder(ctx context.Context, descriptor types.OrderDescriptor) (string, error)
	// CancelOrder requests cancellation of an active order. Cancellation never
	// discards quantity that has already filled.
	CancelOrder(ctx context.Context, brokerOrderID string) error
	// GetOrderFillStatus returns the current execution progress of an order.
	GetOrderFillStatus(ctx context.Context, brokerOrderID string) (types.FillStatus, error)
}
