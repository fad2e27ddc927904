package tradingprovider

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service interfaces for mocking the Binance API

// CreateOrderService interface for creating orders.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side binance.SideType) CreateOrderService
	Type(orderType binance.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Do(ctx context.Context) (*binance.CreateOrderResponse, error)
}

// ExchangeInfoService interface for fetching symbol metadata.
type ExchangeInfoService interface {
	Symbol(symbol string) ExchangeInfoService
	Do(ctx context.Context) (*binance.ExchangeInfo, error)
}

// GetAccountService interface for getting account info.
type GetAccountService interface {
	Do(ctx context.Context) (*binance.Account, error)
}

// BinanceClient interface abstracts the Binance client for testing.
type BinanceClient interface {
	NewCreateOrderService() CreateOrderService
	NewExchangeInfoService() ExchangeInfoService
	NewGetAccountService() GetAccountService
}

// realBinanceClient wraps the actual binance.Client.
type realBinanceClient struct {
	client *binance.Client
}

func (r *realBinanceClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

func (r *realBinanceClient) NewExchangeInfoService() ExchangeInfoService {
	return &realExchangeInfoService{service: r.client.NewExchangeInfoService()}
}

func (r *realBinanceClient) NewGetAccountService() GetAccountService {
	return &realGetAccountService{service: r.client.NewGetAccountService()}
}

// Real service wrappers

type realCreateOrderService struct {
	service *binance.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side binance.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) Type(orderType binance.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*binance.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realExchangeInfoService struct {
	service *binance.ExchangeInfoService
}

func (s *realExchangeInfoService) Symbol(symbol string) ExchangeInfoService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realExchangeInfoService) Do(ctx context.Context) (*binance.ExchangeInfo, error) {
	return s.service.Do(ctx)
}

type realGetAccountService struct {
	service *binance.GetAccountService
}

func (s *realGetAccountService) Do(ctx context.Context) (*binance.Account, error) {
	return s.service.Do(ctx)
}

// BinanceTradingSystemProvider places market orders on Binance. With useTestnet the
// orders go to the testnet sandbox (https://testnet.binance.vision/).
type BinanceTradingSystemProvider struct {
	client BinanceClient
	log    *logger.Logger

	mu          sync.Mutex
	instruments map[string]types.Instrument
}

// NewBinanceTradingSystemProvider creates a new Binance trading system.
// If config.BaseURL is set, it takes precedence over useTestnet.
func NewBinanceTradingSystemProvider(config BinanceProviderConfig, useTestnet bool, log *logger.Logger) (*BinanceTradingSystemProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if useTestnet {
		binance.UseTestnet = true
	}

	client := binance.NewClient(config.ApiKey, config.SecretKey)

	if config.BaseURL != "" {
		client.BaseURL = config.BaseURL
	}

	return newBinanceTradingSystemProviderWithClient(&realBinanceClient{client: client}, log), nil
}

// newBinanceTradingSystemProviderWithClient creates a new Binance trading system with a custom client.
// This is used for testing with mock clients.
func newBinanceTradingSystemProviderWithClient(client BinanceClient, log *logger.Logger) *BinanceTradingSystemProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BinanceTradingSystemProvider{
		client:      client,
		log:         log,
		instruments: make(map[string]types.Instrument),
	}
}

// PlaceMarketOrder places a market order for a whole number of units.
// Every failure is reported with ErrCodeOrderFailed.
func (b *BinanceTradingSystemProvider) PlaceMarketOrder(ctx context.Context, instrumentID string, quantity int, side types.PurchaseType) error {
	order := types.MarketOrder{Symbol: instrumentID, Side: side, Quantity: quantity}
	if err := order.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeOrderFailed, "order rejected before submission", err)
	}

	var binanceSide binance.SideType

	switch side {
	case types.PurchaseTypeBuy:
		binanceSide = binance.SideTypeBuy
	case types.PurchaseTypeSell:
		binanceSide = binance.SideTypeSell
	}

	instrument, err := b.GetInstrument(ctx, instrumentID)
	if err != nil {
		return errors.Wrap(errors.ErrCodeOrderFailed, "failed to resolve instrument", err)
	}

	if !instrument.IsTrading() {
		return errors.Newf(errors.ErrCodeOrderFailed, "instrument %s is not trading (status %s)", instrumentID, instrument.Status)
	}

	qty, err := formatQuantity(quantity, instrument.StepSize)
	if err != nil {
		return errors.Wrap(errors.ErrCodeOrderFailed, "invalid order quantity", err)
	}

	response, err := b.client.NewCreateOrderService().
		Symbol(instrumentID).
		Side(binanceSide).
		Type(binance.OrderTypeMarket).
		Quantity(qty).
		Do(ctx)
	if err != nil {
		b.log.Error("Binance order failed",
			zap.String("symbol", instrumentID),
			zap.String("side", string(side)),
			zap.String("quantity", qty),
			zap.Error(err),
		)

		return errors.Wrap(errors.ErrCodeOrderFailed, "failed to place order on Binance", err)
	}

	placed := convertCreateOrderResponse(response, order)
	b.log.Info("Binance order placed",
		zap.String("order_id", placed.OrderID),
		zap.String("symbol", instrumentID),
		zap.String("side", string(side)),
		zap.String("quantity", qty),
		zap.String("status", string(placed.Status)),
	)

	if placed.Status == types.OrderStatusRejected {
		return errors.Newf(errors.ErrCodeOrderFailed, "order %s was rejected", placed.OrderID)
	}

	return nil
}

// GetInstrument returns exchange metadata for symbol. Results are cached for the
// lifetime of the provider.
func (b *BinanceTradingSystemProvider) GetInstrument(ctx context.Context, symbol string) (types.Instrument, error) {
	b.mu.Lock()
	instrument, ok := b.instruments[symbol]
	b.mu.Unlock()

	if ok {
		return instrument, nil
	}

	info, err := b.client.NewExchangeInfoService().Symbol(symbol).Do(ctx)
	if err != nil {
		return types.Instrument{}, errors.Wrap(errors.ErrCodeInstrumentNotFound, "failed to fetch exchange info", err)
	}

	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}

		instrument = convertSymbolToInstrument(s)

		b.mu.Lock()
		b.instruments[symbol] = instrument
		b.mu.Unlock()

		return instrument, nil
	}

	return types.Instrument{}, errors.Newf(errors.ErrCodeInstrumentNotFound, "instrument %s not found on Binance", symbol)
}

// CheckConnection verifies connectivity and authentication with an account request.
func (b *BinanceTradingSystemProvider) CheckConnection(ctx context.Context) error {
	_, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeProviderNotReady, "failed to connect to Binance API", err)
	}

	return nil
}

// Helper functions

// formatQuantity renders quantity as a decimal string and checks it against the
// instrument's lot step size. An empty step size disables the check.
func formatQuantity(quantity int, stepSize string) (string, error) {
	qty := decimal.NewFromInt(int64(quantity))

	if stepSize == "" {
		return qty.String(), nil
	}

	step, err := decimal.NewFromString(stepSize)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid step size %q", stepSize)
	}

	if step.IsPositive() && !qty.Mod(step).IsZero() {
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "quantity %s is not a multiple of step size %s", qty, step)
	}

	return qty.String(), nil
}

func convertSymbolToInstrument(s binance.Symbol) types.Instrument {
	instrument := types.Instrument{
		Symbol:     s.Symbol,
		BaseAsset:  s.BaseAsset,
		QuoteAsset: s.QuoteAsset,
		Status:     s.Status,
	}

	if lot := s.LotSizeFilter(); lot != nil {
		instrument.StepSize = lot.StepSize
	}

	if price := s.PriceFilter(); price != nil {
		instrument.TickSize = price.TickSize
	}

	return instrument
}

func convertCreateOrderResponse(response *binance.CreateOrderResponse, order types.MarketOrder) types.PlacedOrder {
	placed := types.PlacedOrder{
		Order:     order,
		Type:      types.OrderTypeMarket,
		Status:    types.OrderStatusFilled,
		Timestamp: time.Now(),
	}

	if response == nil {
		return placed
	}

	placed.OrderID = strconv.FormatInt(response.OrderID, 10)

	if response.TransactTime > 0 {
		placed.Timestamp = time.UnixMilli(response.TransactTime)
	}

	switch response.Status {
	case binance.OrderStatusTypeRejected, binance.OrderStatusTypeExpired, binance.OrderStatusTypeCanceled:
		placed.Status = types.OrderStatusRejected
	}

	return placed
}
