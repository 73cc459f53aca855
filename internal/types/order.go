package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/predictivelabs/trader/pkg/errors"
)

type OrderSide string

type OrderKind string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

const (
	OrderKindMarket OrderKind = "MARKET"
	OrderKindLimit  OrderKind = "LIMIT"
)

// Sign returns +1 for a buy and -1 for a sell, the direction in which a fill
// moves the share position.
func (s OrderSide) Sign() int64 {
	if s == OrderSideSell {
		return -1
	}

	return 1
}

// OrderDescriptor is the broker-facing description of one order intent.
type OrderDescriptor struct {
	// ClientID is a locally generated id attached to the order before placement.
	ClientID string    `yaml:"client_id" json:"client_id" validate:"required,uuid"`
	Symbol   string    `yaml:"symbol" json:"symbol" validate:"required,uppercase"`
	Side     OrderSide `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Kind     OrderKind `yaml:"kind" json:"kind" validate:"required,oneof=MARKET LIMIT"`
	Quantity int64     `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	// LimitPrice is set only for LIMIT orders and must be positive there.
	LimitPrice optional.Option[float64] `yaml:"limit_price" json:"limit_price"`
}

// Validate checks the descriptor against the order invariants: positive
// quantity, a known side and kind, and a positive limit price on LIMIT orders.
func (d *OrderDescriptor) Validate() error {
	validate := validator.New()
	if err := validate.Struct(d); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order descriptor", err)
	}

	if d.Kind == OrderKindLimit {
		limit, err := d.LimitPrice.Take()
		if err != nil || limit <= 0 {
			return errors.Newf(errors.ErrCodeInvalidLimitPrice,
				"limit order for %s requires a positive limit price", d.Symbol)
		}
	}

	return nil
}

// FillStatus is a broker's report of an order's execution progress.
type FillStatus struct {
	FilledQuantity int64     `yaml:"filled_quantity" json:"filled_quantity"`
	Quantity       int64     `yaml:"quantity" json:"quantity"`
	AvgPrice       float64   `yaml:"avg_price" json:"avg_price"`
	Side           OrderSide `yaml:"side" json:"side"`
}

// IsComplete reports whether the filled quantity has reached the requested quantity.
func (f FillStatus) IsComplete() bool {
	return f.FilledQuantity >= f.Quantity
}
