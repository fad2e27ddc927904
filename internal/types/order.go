package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
)

type PurchaseType string

type OrderType string

type OrderStatus string

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
)

const (
	OrderStatusFilled   OrderStatus = "FILLED"
	OrderStatusRejected OrderStatus = "REJECTED"
)

// MarketOrder is a request to buy or sell a whole number of units at market price.
type MarketOrder struct {
	Symbol   string       `yaml:"symbol" json:"symbol" validate:"required"`
	Side     PurchaseType `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Quantity int          `yaml:"quantity" json:"quantity" validate:"required,gte=1"`
}

// Validate checks the order fields before it is sent to a broker.
func (o MarketOrder) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid market order", err)
	}

	return nil
}

// PlacedOrder is a market order as acknowledged by a trading provider.
type PlacedOrder struct {
	OrderID   string      `yaml:"order_id" json:"order_id"`
	Order     MarketOrder `yaml:"order" json:"order"`
	Type      OrderType   `yaml:"type" json:"type"`
	Status    OrderStatus `yaml:"status" json:"status"`
	Timestamp time.Time   `yaml:"timestamp" json:"timestamp"`
}
