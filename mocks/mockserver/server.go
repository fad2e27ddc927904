// Package mockserver serves the subset of the Binance spot REST API the trading
// provider uses: exchange info, account and market orders. Point a provider at
// it with BinanceProviderConfig.BaseURL or the binance_base_url setting.
package mockserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Binance error codes returned by the server.
const (
	ErrCodeInvalidAPIKey       = -2015
	ErrCodeInvalidSymbol       = -1121
	ErrCodeInsufficientBalance = -2010
	ErrCodeMissingParameter    = -1102
)

// SymbolInfo describes a tradable pair.
type SymbolInfo struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Status     string
	StepSize   string
	TickSize   string
}

// Order is a filled market order as the server recorded it.
type Order struct {
	OrderID  int64
	Symbol   string
	Side     string
	Type     string
	Quantity float64
	Price    float64
	Time     time.Time
}

// ServerConfig seeds the server state.
type ServerConfig struct {
	// APIKey every signed request must carry in X-MBX-APIKEY. Empty accepts any key.
	APIKey string
	// Balances maps asset to free balance.
	Balances map[string]float64
	// Prices maps symbol to the price market orders fill at.
	Prices map[string]float64
	// Symbols defaults to BTCUSDT and ETHUSDT with whole-unit lots.
	Symbols []SymbolInfo
}

// MockBinanceServer is an in-process Binance REST endpoint.
type MockBinanceServer struct {
	mu         sync.Mutex
	apiKey     string
	balances   map[string]float64
	prices     map[string]float64
	symbols    map[string]SymbolInfo
	orders     []Order
	orderIDSeq int64

	server *httptest.Server
}

func defaultSymbols() []SymbolInfo {
	return []SymbolInfo{
		{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT", Status: "TRADING", StepSize: "1.00000000", TickSize: "0.01000000"},
		{Symbol: "ETHUSDT", BaseAsset: "ETH", QuoteAsset: "USDT", Status: "TRADING", StepSize: "1.00000000", TickSize: "0.01000000"},
	}
}

// NewMockBinanceServer starts a server on a random local port. Call Close when done.
func NewMockBinanceServer(config ServerConfig) *MockBinanceServer {
	s := &MockBinanceServer{
		apiKey:     config.APIKey,
		balances:   make(map[string]float64),
		prices:     make(map[string]float64),
		symbols:    make(map[string]SymbolInfo),
		orderIDSeq: 1000,
	}

	for asset, amount := range config.Balances {
		s.balances[asset] = amount
	}

	for symbol, price := range config.Prices {
		s.prices[symbol] = price
	}

	symbols := config.Symbols
	if len(symbols) == 0 {
		symbols = defaultSymbols()
	}

	for _, info := range symbols {
		s.symbols[info.Symbol] = info
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/v3/exchangeInfo", s.handleExchangeInfo).Methods(http.MethodGet)
	router.HandleFunc("/api/v3/account", s.requireAPIKey(s.handleAccount)).Methods(http.MethodGet)
	router.HandleFunc("/api/v3/order", s.requireAPIKey(s.handleCreateOrder)).Methods(http.MethodPost)

	s.server = httptest.NewServer(router)

	return s
}

// BaseURL is the value for BinanceProviderConfig.BaseURL.
func (s *MockBinanceServer) BaseURL() string {
	return s.server.URL
}

func (s *MockBinanceServer) Close() {
	s.server.Close()
}

// SetPrice changes the fill price of later market orders on symbol.
func (s *MockBinanceServer) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prices[symbol] = price
}

// Balance returns the free balance of asset.
func (s *MockBinanceServer) Balance(asset string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.balances[asset]
}

// Orders returns the filled orders in arrival order.
func (s *MockBinanceServer) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]Order, len(s.orders))
	copy(orders, s.orders)

	return orders
}

func (s *MockBinanceServer) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-MBX-APIKEY") != s.apiKey {
			writeError(w, http.StatusUnauthorized, ErrCodeInvalidAPIKey, "Invalid API-key, IP, or permissions for action.")

			return
		}

		next(w, r)
	}
}

// handleExchangeInfo handles GET /api/v3/exchangeInfo?symbol=...
func (s *MockBinanceServer) handleExchangeInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := r.URL.Query().Get("symbol")

	symbols := []map[string]any{}

	for _, info := range s.symbols {
		if wanted != "" && info.Symbol != wanted {
			continue
		}

		symbols = append(symbols, map[string]any{
			"symbol":     info.Symbol,
			"status":     info.Status,
			"baseAsset":  info.BaseAsset,
			"quoteAsset": info.QuoteAsset,
			"orderTypes": []string{"MARKET"},
			"filters": []map[string]any{
				{"filterType": "LOT_SIZE", "minQty": info.StepSize, "maxQty": "9000000.00000000", "stepSize": info.StepSize},
				{"filterType": "PRICE_FILTER", "minPrice": info.TickSize, "maxPrice": "1000000.00000000", "tickSize": info.TickSize},
			},
		})
	}

	if wanted != "" && len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidSymbol, "Invalid symbol.")

		return
	}

	writeJSON(w, map[string]any{
		"timezone":   "UTC",
		"serverTime": time.Now().UnixMilli(),
		"symbols":    symbols,
	})
}

// handleAccount handles GET /api/v3/account
func (s *MockBinanceServer) handleAccount(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balances := make([]map[string]string, 0, len(s.balances))
	for asset, free := range s.balances {
		balances = append(balances, map[string]string{
			"asset":  asset,
			"free":   formatAmount(free),
			"locked": "0.00000000",
		})
	}

	writeJSON(w, map[string]any{
		"makerCommission": 10,
		"takerCommission": 10,
		"canTrade":        true,
		"canWithdraw":     true,
		"canDeposit":      true,
		"updateTime":      time.Now().UnixMilli(),
		"accountType":     "SPOT",
		"balances":        balances,
		"permissions":     []string{"SPOT"},
	})
}

// handleCreateOrder handles POST /api/v3/order for MARKET orders. Orders fill
// at once at the configured price and move balances between the pair's assets.
func (s *MockBinanceServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeMissingParameter, "Malformed request.")

		return
	}

	symbol := r.FormValue("symbol")
	side := r.FormValue("side")
	orderType := r.FormValue("type")

	if symbol == "" || side == "" || orderType == "" || r.FormValue("quantity") == "" {
		writeError(w, http.StatusBadRequest, ErrCodeMissingParameter, "Mandatory parameter was not sent, was empty/null, or malformed.")

		return
	}

	if orderType != "MARKET" {
		writeError(w, http.StatusBadRequest, ErrCodeMissingParameter, "Only MARKET orders are supported.")

		return
	}

	quantity, err := strconv.ParseFloat(r.FormValue("quantity"), 64)
	if err != nil || quantity <= 0 {
		writeError(w, http.StatusBadRequest, ErrCodeMissingParameter, "Illegal characters found in parameter 'quantity'.")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.symbols[symbol]
	price, priced := s.prices[symbol]

	if !ok || !priced {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidSymbol, "Invalid symbol.")

		return
	}

	cost := price * quantity

	switch strings.ToUpper(side) {
	case "BUY":
		if s.balances[info.QuoteAsset] < cost {
			writeError(w, http.StatusBadRequest, ErrCodeInsufficientBalance, "Account has insufficient balance for requested action.")

			return
		}

		s.balances[info.QuoteAsset] -= cost
		s.balances[info.BaseAsset] += quantity
	case "SELL":
		if s.balances[info.BaseAsset] < quantity {
			writeError(w, http.StatusBadRequest, ErrCodeInsufficientBalance, "Account has insufficient balance for requested action.")

			return
		}

		s.balances[info.BaseAsset] -= quantity
		s.balances[info.QuoteAsset] += cost
	default:
		writeError(w, http.StatusBadRequest, ErrCodeMissingParameter, "Invalid side.")

		return
	}

	s.orderIDSeq++
	order := Order{
		OrderID:  s.orderIDSeq,
		Symbol:   symbol,
		Side:     strings.ToUpper(side),
		Type:     orderType,
		Quantity: quantity,
		Price:    price,
		Time:     time.Now(),
	}
	s.orders = append(s.orders, order)

	writeJSON(w, map[string]any{
		"symbol":              order.Symbol,
		"orderId":             order.OrderID,
		"clientOrderId":       "mock-" + strconv.FormatInt(order.OrderID, 10),
		"transactTime":        order.Time.UnixMilli(),
		"price":               "0.00000000",
		"origQty":             formatAmount(quantity),
		"executedQty":         formatAmount(quantity),
		"cummulativeQuoteQty": formatAmount(cost),
		"status":              "FILLED",
		"timeInForce":         "GTC",
		"type":                order.Type,
		"side":                order.Side,
		"fills": []map[string]any{
			{"price": formatAmount(price), "qty": formatAmount(quantity), "commission": "0.00000000", "commissionAsset": info.QuoteAsset, "tradeId": order.OrderID},
		},
	})
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg})
}
