// Package mockserver provides a mock Binance spot API for end-to-end tests.
// It implements the REST endpoints the trading gateway uses: ticker prices,
// book tickers, and the order lifecycle.
package mockserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Order is a broker-side order with its cumulative execution state.
type Order struct {
	ID               int64
	ClientOrderID    string
	Symbol           string
	Side             string
	Type             string
	Quantity         float64
	Price            float64
	ExecutedQuantity float64
	CummulativeQuote float64
	Status           string
}

type book struct {
	last float64
	bid  float64
	ask  float64
}

// MockBinanceServer serves a scriptable subset of the Binance spot API.
type MockBinanceServer struct {
	mu sync.RWMutex

	server *httptest.Server

	prices map[string]book
	orders map[int64]*Order
	nextID int64

	// instantFill executes new orders in full at the last price.
	instantFill bool
}

// New starts the server. Callers own the returned server and must Close it.
func New() *MockBinanceServer {
	s := &MockBinanceServer{
		prices: make(map[string]book),
		orders: make(map[int64]*Order),
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/v3/ticker/price", s.handleTickerPrice).Methods(http.MethodGet)
	router.HandleFunc("/api/v3/ticker/bookTicker", s.handleBookTicker).Methods(http.MethodGet)
	router.HandleFunc("/api/v3/order", s.handleCreateOrder).Methods(http.MethodPost)
	router.HandleFunc("/api/v3/order", s.handleGetOrder).Methods(http.MethodGet)
	router.HandleFunc("/api/v3/order", s.handleCancelOrder).Methods(http.MethodDelete)

	s.server = httptest.NewServer(router)

	return s
}

// URL returns the server's base URL for client configuration.
func (s *MockBinanceServer) URL() string {
	return s.server.URL
}

func (s *MockBinanceServer) Close() {
	s.server.Close()
}

// SetPrice scripts the market for a symbol.
func (s *MockBinanceServer) SetPrice(symbol string, last, bid, ask float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prices[symbol] = book{last: last, bid: bid, ask: ask}
}

// SetInstantFill toggles filling new orders immediately at the last price.
func (s *MockBinanceServer) SetInstantFill(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.instantFill = on
}

// FillLatest sets the cumulative execution of the most recent order.
func (s *MockBinanceServer) FillLatest(quantity, avgPrice float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[s.nextID]
	if !ok {
		return
	}

	o.ExecutedQuantity = quantity
	o.CummulativeQuote = quantity * avgPrice

	if quantity >= o.Quantity {
		o.Status = "FILLED"
	} else if quantity > 0 {
		o.Status = "PARTIALLY_FILLED"
	}
}

// Orders returns a snapshot of all orders in placement sequence.
func (s *MockBinanceServer) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]Order, 0, len(s.orders))
	for id := int64(1); id <= s.nextID; id++ {
		if o, ok := s.orders[id]; ok {
			orders = append(orders, *o)
		}
	}

	return orders
}

func (s *MockBinanceServer) handleTickerPrice(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")

	s.mu.RLock()
	b, ok := s.prices[symbol]
	s.mu.RUnlock()

	if !ok {
		writeAPIError(w, -1121, "Invalid symbol.")

		return
	}

	writeJSON(w, map[string]string{
		"symbol": symbol,
		"price":  formatFloat(b.last),
	})
}

func (s *MockBinanceServer) handleBookTicker(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")

	s.mu.RLock()
	b, ok := s.prices[symbol]
	s.mu.RUnlock()

	if !ok {
		writeAPIError(w, -1121, "Invalid symbol.")

		return
	}

	writeJSON(w, map[string]string{
		"symbol":   symbol,
		"bidPrice": formatFloat(b.bid),
		"bidQty":   "100",
		"askPrice": formatFloat(b.ask),
		"askQty":   "100",
	})
}

func (s *MockBinanceServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeAPIError(w, -1100, "Illegal parameters.")

		return
	}

	symbol := r.FormValue("symbol")
	quantity, err := strconv.ParseFloat(r.FormValue("quantity"), 64)
	if err != nil || quantity <= 0 {
		writeAPIError(w, -1013, "Invalid quantity.")

		return
	}

	price := 0.0
	if raw := r.FormValue("price"); raw != "" {
		price, _ = strconv.ParseFloat(raw, 64)
	}

	s.mu.Lock()

	s.nextID++
	o := &Order{
		ID:            s.nextID,
		ClientOrderID: r.FormValue("newClientOrderId"),
		Symbol:        symbol,
		Side:          r.FormValue("side"),
		Type:          r.FormValue("type"),
		Quantity:      quantity,
		Price:         price,
		Status:        "NEW",
	}

	if s.instantFill {
		o.ExecutedQuantity = quantity
		o.CummulativeQuote = quantity * s.prices[symbol].last
		o.Status = "FILLED"
	}

	s.orders[o.ID] = o
	response := orderJSON(o)
	response["transactTime"] = time.Now().UnixMilli()

	s.mu.Unlock()

	writeJSON(w, response)
}

func (s *MockBinanceServer) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := s.lookup(r.URL.Query().Get("orderId"))
	if !ok {
		writeAPIError(w, -2013, "Order does not exist.")

		return
	}

	s.mu.RLock()
	response := orderJSON(o)
	s.mu.RUnlock()

	writeJSON(w, response)
}

func (s *MockBinanceServer) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := s.lookup(r.URL.Query().Get("orderId"))
	if !ok {
		writeAPIError(w, -2013, "Order does not exist.")

		return
	}

	s.mu.Lock()

	if o.Status == "NEW" || o.Status == "PARTIALLY_FILLED" {
		o.Status = "CANCELED"
	}

	response := orderJSON(o)
	s.mu.Unlock()

	writeJSON(w, response)
}

func (s *MockBinanceServer) lookup(rawID string) (*Order, bool) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]

	return o, ok
}

func orderJSON(o *Order) map[string]any {
	return map[string]any{
		"symbol":              o.Symbol,
		"orderId":             o.ID,
		"clientOrderId":       o.ClientOrderID,
		"price":               formatFloat(o.Price),
		"origQty":             formatFloat(o.Quantity),
		"executedQty":         formatFloat(o.ExecutedQuantity),
		"cummulativeQuoteQty": formatFloat(o.CummulativeQuote),
		"status":              o.Status,
		"timeInForce":         "GTC",
		"type":                o.Type,
		"side":                o.Side,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg})
}
