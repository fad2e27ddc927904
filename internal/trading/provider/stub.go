package tradingprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"go.uber.org/zap"
)

// StubProviderConfig configures the stub provider.
type StubProviderConfig struct {
	// FailOrders makes every order fail, for exercising error handling end to end.
	FailOrders bool `json:"failOrders,omitempty" yaml:"fail_orders,omitempty" jsonschema:"title=Fail Orders,description=Reject every order,default=false"`
}

// StubTradingSystemProvider accepts orders without contacting a broker and keeps
// them in memory.
type StubTradingSystemProvider struct {
	config StubProviderConfig
	log    *logger.Logger

	mu     sync.Mutex
	orders []types.PlacedOrder
}

func NewStubTradingSystemProvider(config StubProviderConfig, log *logger.Logger) *StubTradingSystemProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &StubTradingSystemProvider{
		config: config,
		log:    log,
	}
}

func (s *StubTradingSystemProvider) PlaceMarketOrder(_ context.Context, instrumentID string, quantity int, side types.PurchaseType) error {
	order := types.MarketOrder{Symbol: instrumentID, Side: side, Quantity: quantity}
	if err := order.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeOrderFailed, "order rejected before submission", err)
	}

	if s.config.FailOrders {
		s.log.Warn("Stub order rejected", zap.String("symbol", instrumentID), zap.String("side", string(side)))

		return errors.Newf(errors.ErrCodeOrderFailed, "stub provider rejected %s order for %s", side, instrumentID)
	}

	s.mu.Lock()
	placed := types.PlacedOrder{
		OrderID:   fmt.Sprintf("stub-%d", len(s.orders)+1),
		Order:     order,
		Type:      types.OrderTypeMarket,
		Status:    types.OrderStatusFilled,
		Timestamp: time.Now(),
	}
	s.orders = append(s.orders, placed)
	s.mu.Unlock()

	s.log.Info("Stub order placed",
		zap.String("order_id", placed.OrderID),
		zap.String("symbol", instrumentID),
		zap.String("side", string(side)),
		zap.Int("quantity", quantity),
	)

	return nil
}

// GetInstrument returns a tradable instrument with a unit step size for any symbol.
func (s *StubTradingSystemProvider) GetInstrument(_ context.Context, symbol string) (types.Instrument, error) {
	if symbol == "" {
		return types.Instrument{}, errors.New(errors.ErrCodeInstrumentNotFound, "symbol is required")
	}

	return types.Instrument{
		Symbol:   symbol,
		Status:   "TRADING",
		StepSize: "1",
		TickSize: "0.01",
	}, nil
}

func (s *StubTradingSystemProvider) CheckConnection(_ context.Context) error {
	return nil
}

// Orders returns a copy of the orders accepted so far.
func (s *StubTradingSystemProvider) Orders() []types.PlacedOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]types.PlacedOrder, len(s.orders))
	copy(orders, s.orders)

	return orders
}

func parseStubConfig(jsonConfig string) (*StubProviderConfig, error) {
	var config StubProviderConfig

	if jsonConfig == "" {
		return &config, nil
	}

	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to parse stub config", err)
	}

	return &config, nil
}
