// Package ledger tracks the cash and share position owned by the trading
// engine. The ledger is mutated only by confirmed fill deltas, never by order
// placement, so it always reflects executed quantity exactly once.
package ledger

import (
	"github.com/predictivelabs/trader/internal/types"
	"github.com/predictivelabs/trader/pkg/errors"
	"github.com/shopspring/decimal"
)

// Ledger holds the locally tracked cash balance and share count.
type Ledger struct {
	cash           decimal.Decimal
	shares         int64
	initialCapital decimal.Decimal
}

// New creates a ledger starting with the given cash and no shares.
func New(initialCapital decimal.Decimal) *Ledger {
	return &Ledger{
		cash:           initialCapital,
		shares:         0,
		initialCapital: initialCapital,
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() decimal.Decimal {
	return l.cash
}

// Shares returns the current share count.
func (l *Ledger) Shares() int64 {
	return l.shares
}

// InitialCapital returns the starting cash, immutable after construction.
func (l *Ledger) InitialCapital() decimal.Decimal {
	return l.initialCapital
}

// ApplyFill applies a confirmed incremental fill. deltaQty is the increase in
// filled quantity since the last observation, not the cumulative filled
// amount; the caller is responsible for diffing successive fill reports.
func (l *Ledger) ApplyFill(side types.OrderSide, deltaQty int64, avgPrice float64) error {
	if deltaQty < 0 {
		return errors.Newf(errors.ErrCodeNegativeFill,
			"fill delta must be non-negative, got %d", deltaQty)
	}

	if deltaQty == 0 {
		return nil
	}

	amount := decimal.NewFromInt(deltaQty).Mul(decimal.NewFromFloat(avgPrice))

	switch side {
	case types.OrderSideBuy:
		l.cash = l.cash.Sub(amount)
		l.shares += deltaQty
	case types.OrderSideSell:
		l.cash = l.cash.Add(amount)
		l.shares -= deltaQty
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown order side: %s", side)
	}

	return nil
}

// Validate fails with an invariant violation when cash or shares have gone
// negative. A violation is fatal for the cycle that observes it; the ledger
// makes no attempt to repair itself.
func (l *Ledger) Validate() error {
	if l.cash.IsNegative() {
		return errors.Newf(errors.ErrCodeInvariantViolation,
			"cash balance is negative: %s", l.cash.StringFixed(2))
	}

	if l.shares < 0 {
		return errors.Newf(errors.ErrCodeInvariantViolation,
			"share count is negative: %d", l.shares)
	}

	return nil
}

// MarkToMarket values the position at the given last trade price. Returns the
// equity held in shares and the total account value (cash + equity). Pure
// read, no mutation.
func (l *Ledger) MarkToMarket(lastPrice float64) (equity decimal.Decimal, total decimal.Decimal) {
	equity = decimal.NewFromInt(l.shares).Mul(decimal.NewFromFloat(lastPrice))
	total = l.cash.Add(equity)

	return equity, total
}

// Return reports the fractional return of the current value against the
// initial capital, e.g. 0.05 for a 5% gain.
func (l *Ledger) Return(lastPrice float64) decimal.Decimal {
	if l.initialCapital.IsZero() {
		return decimal.Zero
	}

	_, total := l.MarkToMarket(lastPrice)

	return total.Div(l.initialCapital).Sub(decimal.NewFromInt(1))
}
