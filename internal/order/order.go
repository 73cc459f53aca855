// Package order implements the order entity: one order intent, its lifecycle
// against a broker gateway, and its fill progress.
package order

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/predictivelabs/trader/internal/broker"
	"github.com/predictivelabs/trader/internal/types"
	"github.com/predictivelabs/trader/pkg/errors"
)

// Order represents one order intent and its fill progress. It is created in
// memory, placed against a gateway, polled for fills, and becomes inactive
// once fully filled or cancelled.
type Order struct {
	Descriptor types.OrderDescriptor
	// BrokerID is assigned by the broker at placement.
	BrokerID string
	// FilledQuantity is the cumulative executed quantity reported by the broker.
	FilledQuantity int64
	// AvgFillPrice reflects only the filled portion; 0 until any fill.
	AvgFillPrice float64
	// Active is true from successful placement until full fill or cancellation.
	Active bool

	// reconciledQuantity is the portion of FilledQuantity already applied to
	// the ledger. The engine diffs against it so each executed share is
	// counted exactly once across polling cycles.
	reconciledQuantity int64
}

// Market creates a market order intent.
func Market(symbol string, side types.OrderSide, quantity int64) *Order {
	return newOrder(symbol, side, types.OrderKindMarket, quantity, optional.None[float64]())
}

// Limit creates a limit order intent.
func Limit(symbol string, side types.OrderSide, quantity int64, limitPrice float64) *Order {
	return newOrder(symbol, side, types.OrderKindLimit, quantity, optional.Some(limitPrice))
}

func newOrder(symbol string, side types.OrderSide, kind types.OrderKind, quantity int64, limitPrice optional.Option[float64]) *Order {
	return &Order{
		Descriptor: types.OrderDescriptor{
			ClientID:   uuid.New().String(),
			Symbol:     strings.ToUpper(symbol),
			Side:       side,
			Kind:       kind,
			Quantity:   quantity,
			LimitPrice: limitPrice,
		},
		BrokerID:           "",
		FilledQuantity:     0,
		AvgFillPrice:       0,
		Active:             false,
		reconciledQuantity: 0,
	}
}

// Place validates the order and submits it to the gateway. On success the
// broker-assigned id is recorded and the order becomes active. One network call.
func (o *Order) Place(ctx context.Context, gw broker.Gateway) (string, error) {
	if err := o.Descriptor.Validate(); err != nil {
		return "", err
	}

	id, err := gw.PlaceOrder(ctx, o.Descriptor)
	if err != nil {
		return "", err
	}

	o.BrokerID = id
	o.Active = true

	return id, nil
}

// Cancel requests cancellation of an active order. Allowed while partially
// filled; already-executed quantity and its reconciliation state are kept.
func (o *Order) Cancel(ctx context.Context, gw broker.Gateway) error {
	if o.BrokerID == "" {
		return errors.New(errors.ErrCodeOrderNotActive, "order has not been placed")
	}

	if err := gw.CancelOrder(ctx, o.BrokerID); err != nil {
		return err
	}

	o.Active = false

	return nil
}

// RefreshFill queries the broker for current fill progress and updates the
// order in place. Idempotent: repeated calls with no broker-side change leave
// the order unchanged. Returns whether the order is now fully filled.
func (o *Order) RefreshFill(ctx context.Context, gw broker.Gateway) (bool, error) {
	if o.BrokerID == "" {
		return false, errors.New(errors.ErrCodeOrderNotActive, "order has not been placed")
	}

	status, err := gw.GetOrderFillStatus(ctx, o.BrokerID)
	if err != nil {
		return false, err
	}

	filled := status.FilledQuantity
	if filled > o.Descriptor.Quantity {
		filled = o.Descriptor.Quantity
	}

	o.FilledQuantity = filled
	o.AvgFillPrice = status.AvgPrice

	// A limit order fills at the limit price; some brokers omit the average
	// on limit fills, so fall back to the deterministic price. Known
	// simplification: partial fills at better prices are not modeled locally
	// beyond what the broker reports.
	if o.AvgFillPrice == 0 && filled > 0 && o.Descriptor.Kind == types.OrderKindLimit {
		o.AvgFillPrice = o.Descriptor.LimitPrice.TakeOr(0)
	}

	if o.IsFilled() {
		o.Active = false
	}

	return o.IsFilled(), nil
}

// IsFilled reports whether the filled quantity has reached the requested quantity.
func (o *Order) IsFilled() bool {
	return o.FilledQuantity >= o.Descriptor.Quantity
}

// UnreconciledDelta returns the executed quantity not yet applied to the
// ledger: the increase in filled quantity since the last MarkReconciled.
func (o *Order) UnreconciledDelta() int64 {
	return o.FilledQuantity - o.reconciledQuantity
}

// MarkReconciled records that the current filled quantity has been applied to
// the ledger.
func (o *Order) MarkReconciled() {
	o.reconciledQuantity = o.FilledQuantity
}

// Reconciled reports whether every executed share has been applied to the ledger.
func (o *Order) Reconciled() bool {
	return o.reconciledQuantity == o.FilledQuantity
}
