package mocks

//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/candle-trader/internal/strategy OrderPlacer,Observer,Strategy
//go:generate mockgen -destination=./mock_trading_system_provider.go -package=mocks github.com/rxtech-lab/candle-trader/internal/trading/provider TradingSystemProvider
//go:generate mockgen -destination=./mock_marketdata_provider.go -package=mocks github.com/rxtech-lab/candle-trader/pkg/marketdata/provider Provider
