package broker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/predictivelabs/trader/internal/logger"
	"github.com/predictivelabs/trader/internal/types"
	"github.com/predictivelabs/trader/pkg/errors"
	"go.uber.org/zap"
)

// Authenticator performs the broker's OAuth handshake and returns a session
// token. Sessions expire server-side without notice; the gateway calls this
// again when it detects a dead session.
type Authenticator interface {
	Authenticate(ctx context.Context) (string, error)
}

// SessionGatewayConfig holds connection settings for the session gateway.
type SessionGatewayConfig struct {
	BaseURL   string `json:"base_url" yaml:"base_url" validate:"required,url"`
	AccountID string `json:"account_id" yaml:"account_id" validate:"required"`
	// Timeout applies per request. Zero means no timeout.
	Timeout types.Duration `json:"timeout" yaml:"timeout"`
}

type quoteResponse struct {
	Symbol    string  `json:"symbol"`
	LastTrade float64 `json:"lastTrade"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
}

type placeOrderRequest struct {
	ClientOrderID string  `json:"clientOrderId"`
	Symbol        string  `json:"symbol"`
	OrderAction   string  `json:"orderAction"`
	PriceType     string  `json:"priceType"`
	OrderTerm     string  `json:"orderTerm"`
	LimitPrice    float64 `json:"limitPrice,omitempty"`
	Quantity      int64   `json:"quantity"`
}

type placeOrderResponse struct {
	OrderID string `json:"orderId"`
}

type orderStatusResponse struct {
	OrderID         string  `json:"orderId"`
	OrderAction     string  `json:"orderAction"`
	OrderedQuantity int64   `json:"orderedQuantity"`
	FilledQuantity  int64   `json:"filledQuantity"`
	AvgFillPrice    float64 `json:"averageExecutionPrice"`
	Status          string  `json:"status"`
}

// SessionGateway implements Gateway against a session-token equities REST API.
// The broker invalidates sessions without warning and signals it by returning
// an empty quote body, so quote reads re-authenticate once and retry before
// giving up. Market hours come from the local NYSE calendar rather than an
// API round trip.
type SessionGateway struct {
	client   *resty.Client
	auth     Authenticator
	config   SessionGatewayConfig
	calendar *MarketCalendar
	logger   *logger.Logger

	// now is swapped out in tests.
	now func() time.Time

	mu sync.Mutex
}

// NewSessionGateway authenticates and returns a ready gateway.
func NewSessionGateway(ctx context.Context, config SessionGatewayConfig, auth Authenticator, log *logger.Logger) (*SessionGateway, error) {
	calendar, err := NewMarketCalendar()
	if err != nil {
		return nil, err
	}

	client := resty.New().SetBaseURL(config.BaseURL)
	if config.Timeout > 0 {
		client.SetTimeout(config.Timeout.Std())
	}

	gateway := &SessionGateway{
		client:   client,
		auth:     auth,
		config:   config,
		calendar: calendar,
		logger:   log,
		now:      time.Now,
	}

	if err := gateway.authenticate(ctx); err != nil {
		return nil, err
	}

	return gateway, nil
}

func (g *SessionGateway) authenticate(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	token, err := g.auth.Authenticate(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReauthFailed, "broker authentication failed", err)
	}

	g.client.SetAuthToken(token)
	g.logger.Debug("broker session established")

	return nil
}

// quote fetches a quote, re-authenticating once if the session came back
// empty. An empty body with a 200 status is how the broker reports a dead
// session.
func (g *SessionGateway) quote(ctx context.Context, symbol string) (quoteResponse, error) {
	symbol = strings.ToUpper(symbol)

	quote, ok, err := g.fetchQuote(ctx, symbol)
	if err != nil {
		return quoteResponse{}, err
	}

	if ok {
		return quote, nil
	}

	g.logger.Warn("empty quote, re-authenticating session", zap.String("symbol", symbol))

	if err := g.authenticate(ctx); err != nil {
		return quoteResponse{}, err
	}

	quote, ok, err = g.fetchQuote(ctx, symbol)
	if err != nil {
		return quoteResponse{}, err
	}

	if !ok {
		return quoteResponse{}, errors.Newf(errors.ErrCodeEmptyQuote, "empty quote for %s after re-authentication", symbol)
	}

	return quote, nil
}

func (g *SessionGateway) fetchQuote(ctx context.Context, symbol string) (quoteResponse, bool, error) {
	var quote quoteResponse

	resp, err := g.client.R().
		SetContext(ctx).
		SetResult(&quote).
		Get(fmt.Sprintf("/v1/market/quote/%s", symbol))
	if err != nil {
		return quoteResponse{}, false, errors.Wrap(errors.ErrCodeQuoteFailed, "quote request failed", err)
	}

	if resp.StatusCode() == 401 {
		return quoteResponse{}, false, nil
	}

	if !resp.IsSuccess() {
		return quoteResponse{}, false, errors.Newf(errors.ErrCodeQuoteFailed, "quote request returned %d", resp.StatusCode())
	}

	// A 200 with no quote payload means the session is gone.
	if quote.Symbol == "" {
		return quoteResponse{}, false, nil
	}

	return quote, true, nil
}

// GetLastPrice implements Gateway.
func (g *SessionGateway) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	quote, err := g.quote(ctx, symbol)
	if err != nil {
		return 0, err
	}

	return quote.LastTrade, nil
}

// GetLastBid implements Gateway.
func (g *SessionGateway) GetLastBid(ctx context.Context, symbol string) (float64, error) {
	quote, err := g.quote(ctx, symbol)
	if err != nil {
		return 0, err
	}

	return quote.Bid, nil
}

// GetLastAsk implements Gateway.
func (g *SessionGateway) GetLastAsk(ctx context.Context, symbol string) (float64, error) {
	quote, err := g.quote(ctx, symbol)
	if err != nil {
		return 0, err
	}

	return quote.Ask, nil
}

// MarketIsOpen implements Gateway using the local NYSE calendar.
func (g *SessionGateway) MarketIsOpen(ctx context.Context) (bool, error) {
	return g.calendar.IsOpen(g.now()), nil
}

// PlaceOrder implements Gateway.
func (g *SessionGateway) PlaceOrder(ctx context.Context, descriptor types.OrderDescriptor) (string, error) {
	if err := descriptor.Validate(); err != nil {
		return "", err
	}

	request := placeOrderRequest{
		ClientOrderID: descriptor.ClientID,
		Symbol:        descriptor.Symbol,
		OrderAction:   string(descriptor.Side),
		PriceType:     string(descriptor.Kind),
		OrderTerm:     "GOOD_FOR_DAY",
		Quantity:      descriptor.Quantity,
	}
	if descriptor.Kind == types.OrderKindLimit {
		request.LimitPrice = descriptor.LimitPrice.TakeOr(0)
	}

	var placed placeOrderResponse

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&placed).
		Post(fmt.Sprintf("/v1/accounts/%s/orders", g.config.AccountID))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeOrderRejected, "order request failed", err)
	}

	if resp.StatusCode() == 401 {
		return "", errors.New(errors.ErrCodeSessionExpired, "session expired while placing order")
	}

	if !resp.IsSuccess() {
		return "", errors.Newf(errors.ErrCodeOrderRejected, "order rejected with status %d: %s", resp.StatusCode(), resp.String())
	}

	if placed.OrderID == "" {
		return "", errors.New(errors.ErrCodeOrderRejected, "broker returned no order id")
	}

	g.logger.Info("order placed",
		zap.String("order_id", placed.OrderID),
		zap.String("symbol", descriptor.Symbol),
		zap.String("side", string(descriptor.Side)),
		zap.Int64("quantity", descriptor.Quantity))

	return placed.OrderID, nil
}

// CancelOrder implements Gateway.
func (g *SessionGateway) CancelOrder(ctx context.Context, brokerOrderID string) error {
	resp, err := g.client.R().
		SetContext(ctx).
		Put(fmt.Sprintf("/v1/accounts/%s/orders/%s/cancel", g.config.AccountID, brokerOrderID))
	if err != nil {
		return errors.Wrap(errors.ErrCodeCancelFailed, "cancel request failed", err)
	}

	if resp.StatusCode() == 404 {
		return errors.Newf(errors.ErrCodeOrderNotFound, "order %s not found", brokerOrderID)
	}

	if !resp.IsSuccess() {
		return errors.Newf(errors.ErrCodeCancelFailed, "cancel rejected with status %d", resp.StatusCode())
	}

	return nil
}

// GetOrderFillStatus implements Gateway.
func (g *SessionGateway) GetOrderFillStatus(ctx context.Context, brokerOrderID string) (types.FillStatus, error) {
	var status orderStatusResponse

	resp, err := g.client.R().
		SetContext(ctx).
		SetResult(&status).
		Get(fmt.Sprintf("/v1/accounts/%s/orders/%s", g.config.AccountID, brokerOrderID))
	if err != nil {
		return types.FillStatus{}, errors.Wrap(errors.ErrCodeFillStatusFailed, "order status request failed", err)
	}

	if resp.StatusCode() == 404 {
		return types.FillStatus{}, errors.Newf(errors.ErrCodeOrderNotFound, "order %s not found", brokerOrderID)
	}

	if !resp.IsSuccess() {
		return types.FillStatus{}, errors.Newf(errors.ErrCodeFillStatusFailed, "order status returned %d", resp.StatusCode())
	}

	side := types.OrderSideBuy
	if strings.EqualFold(status.OrderAction, string(types.OrderSideSell)) {
		side = types.OrderSideSell
	}

	return types.FillStatus{
		FilledQuantity: status.FilledQuantity,
		Quantity:       status.OrderedQuantity,
		AvgPrice:       status.AvgFillPrice,
		Side:           side,
	}, nil
}

// StaticTokenAuthenticator returns a fixed token. Useful for sandbox
// environments where the OAuth dance happened out of band.
type StaticTokenAuthenticator struct {
	Token string
}

func (a *StaticTokenAuthenticator) Authenticate(ctx context.Context) (string, error) {
	if a.Token == "" {
		return "", errors.New(errors.ErrCodeReauthFailed, "no session token configured")
	}

	return a.Token, nil
}

var (
	_ Gateway       = (*SessionGateway)(nil)
	_ Authenticator = (*StaticTokenAuthenticator)(nil)
)
