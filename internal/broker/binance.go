package broker

import (
	"context"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/predictivelabs/trader/internal/types"
	"github.com/predictivelabs/trader/pkg/errors"
)

// Service interfaces for mocking the Binance API

// CreateOrderService interface for creating orders.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side binance.SideType) CreateOrderService
	Type(orderType binance.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Price(price string) CreateOrderService
	TimeInForce(tif binance.TimeInForceType) CreateOrderService
	NewClientOrderID(id string) CreateOrderService
	Do(ctx context.Context) (*binance.CreateOrderResponse, error)
}

// CancelOrderService interface for canceling orders.
type CancelOrderService interface {
	Symbol(symbol string) CancelOrderService
	OrderID(orderID int64) CancelOrderService
	Do(ctx context.Context) (*binance.CancelOrderResponse, error)
}

// GetOrderService interface for querying order state.
type GetOrderService interface {
	Symbol(symbol string) GetOrderService
	OrderID(orderID int64) GetOrderService
	Do(ctx context.Context) (*binance.Order, error)
}

// ListPricesService interface for last trade prices.
type ListPricesService interface {
	Symbol(symbol string) ListPricesService
	Do(ctx context.Context) ([]*binance.SymbolPrice, error)
}

// ListBookTickersService interface for best bid/ask.
type ListBookTickersService interface {
	Symbol(symbol string) ListBookTickersService
	Do(ctx context.Context) ([]*binance.BookTicker, error)
}

// BinanceClient interface abstracts the Binance client for testing.
type BinanceClient interface {
	NewCreateOrderService() CreateOrderService
	NewCancelOrderService() CancelOrderService
	NewGetOrderService() GetOrderService
	NewListPricesService() ListPricesService
	NewListBookTickersService() ListBookTickersService
}

// realBinanceClient wraps the actual binance.Client.
type realBinanceClient struct {
	client *binance.Client
}

func (r *realBinanceClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

func (r *realBinanceClient) NewCancelOrderService() CancelOrderService {
	return &realCancelOrderService{service: r.client.NewCancelOrderService()}
}

func (r *realBinanceClient) NewGetOrderService() GetOrderService {
	return &realGetOrderService{service: r.client.NewGetOrderService()}
}

func (r *realBinanceClient) NewListPricesService() ListPricesService {
	return &realListPricesService{service: r.client.NewListPricesService()}
}

func (r *realBinanceClient) NewListBookTickersService() ListBookTickersService {
	return &realListBookTickersService{service: r.client.NewListBookTickersService()}
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

func (s *realCreateOrderService) Price(price string) CreateOrderService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOrderService) TimeInForce(tif binance.TimeInForceType) CreateOrderService {
	s.service = s.service.TimeInForce(tif)

	return s
}

func (s *realCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	s.service = s.service.NewClientOrderID(id)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*binance.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realCancelOrderService struct {
	service *binance.CancelOrderService
}

func (s *realCancelOrderService) Symbol(symbol string) CancelOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelOrderService) OrderID(orderID int64) CancelOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realCancelOrderService) Do(ctx context.Context) (*binance.CancelOrderResponse, error) {
	return s.service.Do(ctx)
}

type realGetOrderService struct {
	service *binance.GetOrderService
}

func (s *realGetOrderService) Symbol(symbol string) GetOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realGetOrderService) OrderID(orderID int64) GetOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realGetOrderService) Do(ctx context.Context) (*binance.Order, error) {
	return s.service.Do(ctx)
}

type realListPricesService struct {
	service *binance.ListPricesService
}

func (s *realListPricesService) Symbol(symbol string) ListPricesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realListPricesService) Do(ctx context.Context) ([]*binance.SymbolPrice, error) {
	return s.service.Do(ctx)
}

type realListBookTickersService struct {
	service *binance.ListBookTickersService
}

func (s *realListBookTickersService) Symbol(symbol string) ListBookTickersService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realListBookTickersService) Do(ctx context.Context) ([]*binance.BookTicker, error) {
	return s.service.Do(ctx)
}

// BinanceGatewayConfig holds credentials for the Binance gateway.
type BinanceGatewayConfig struct {
	ApiKey    string `json:"api_key" yaml:"api_key" validate:"required"`
	SecretKey string `json:"secret_key" yaml:"secret_key" validate:"required"`
	// BaseURL overrides the API endpoint, taking precedence over UseTestnet.
	BaseURL    string `json:"base_url" yaml:"base_url"`
	UseTestnet bool   `json:"use_testnet" yaml:"use_testnet"`
}

// BinanceGateway implements Gateway against the Binance spot API. The gateway
// is bound to one trading symbol; cancellation and fill lookups reuse it since
// Binance requires the symbol alongside the order id. Crypto trades around the
// clock, so MarketIsOpen always reports true.
type BinanceGateway struct {
	client BinanceClient
	symbol string
}

// NewBinanceGateway creates a gateway bound to the given symbol.
func NewBinanceGateway(config BinanceGatewayConfig, symbol string) (*BinanceGateway, error) {
	if symbol == "" {
		return nil, errors.New(errors.ErrCodeInvalidSymbol, "symbol is required")
	}

	if config.UseTestnet {
		binance.UseTestnet = true
	}

	client := binance.NewClient(config.ApiKey, config.SecretKey)
	if config.BaseURL != "" {
		client.BaseURL = config.BaseURL
	}

	return &BinanceGateway{
		client: &realBinanceClient{client: client},
		symbol: strings.ToUpper(symbol),
	}, nil
}

// newBinanceGatewayWithClient creates a gateway with a custom client, used for
// testing with mocks.
func newBinanceGatewayWithClient(client BinanceClient, symbol string) *BinanceGateway {
	return &BinanceGateway{
		client: client,
		symbol: strings.ToUpper(symbol),
	}
}

// GetLastPrice implements Gateway.
func (b *BinanceGateway) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := b.client.NewListPricesService().Symbol(strings.ToUpper(symbol)).Do(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQuoteFailed, "failed to fetch last price from Binance", err)
	}

	if len(prices) == 0 {
		return 0, errors.Newf(errors.ErrCodeEmptyQuote, "no price returned for %s", symbol)
	}

	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "unparseable price from Binance", err)
	}

	return price, nil
}

// GetLastBid implements Gateway.
func (b *BinanceGateway) GetLastBid(ctx context.Context, symbol string) (float64, error) {
	ticker, err := b.bookTicker(ctx, symbol)
	if err != nil {
		return 0, err
	}

	bid, err := strconv.ParseFloat(ticker.BidPrice, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "unparseable bid from Binance", err)
	}

	return bid, nil
}

// GetLastAsk implements Gateway.
func (b *BinanceGateway) GetLastAsk(ctx context.Context, symbol string) (float64, error) {
	ticker, err := b.bookTicker(ctx, symbol)
	if err != nil {
		return 0, err
	}

	ask, err := strconv.ParseFloat(ticker.AskPrice, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "unparseable ask from Binance", err)
	}

	return ask, nil
}

func (b *BinanceGateway) bookTicker(ctx context.Context, symbol string) (*binance.BookTicker, error) {
	tickers, err := b.client.NewListBookTickersService().Symbol(strings.ToUpper(symbol)).Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQuoteFailed, "failed to fetch book ticker from Binance", err)
	}

	if len(tickers) == 0 {
		return nil, errors.Newf(errors.ErrCodeEmptyQuote, "no book ticker returned for %s", symbol)
	}

	return tickers[0], nil
}

// MarketIsOpen implements Gateway. The Binance spot market never closes.
func (b *BinanceGateway) MarketIsOpen(ctx context.Context) (bool, error) {
	return true, nil
}

// PlaceOrder implements Gateway.
func (b *BinanceGateway) PlaceOrder(ctx context.Context, descriptor types.OrderDescriptor) (string, error) {
	if err := descriptor.Validate(); err != nil {
		return "", err
	}

	var side binance.SideType

	switch descriptor.Side {
	case types.OrderSideBuy:
		side = binance.SideTypeBuy
	case types.OrderSideSell:
		side = binance.SideTypeSell
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order side: %s", descriptor.Side)
	}

	var orderType binance.OrderType

	switch descriptor.Kind {
	case types.OrderKindMarket:
		orderType = binance.OrderTypeMarket
	case types.OrderKindLimit:
		orderType = binance.OrderTypeLimit
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order kind: %s", descriptor.Kind)
	}

	service := b.client.NewCreateOrderService().
		Symbol(descriptor.Symbol).
		Side(side).
		Type(orderType).
		Quantity(strconv.FormatInt(descriptor.Quantity, 10)).
		NewClientOrderID(descriptor.ClientID)

	if descriptor.Kind == types.OrderKindLimit {
		service = service.
			Price(strconv.FormatFloat(descriptor.LimitPrice.TakeOr(0), 'f', -1, 64)).
			TimeInForce(binance.TimeInForceTypeGTC)
	}

	resp, err := service.Do(ctx)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeOrderRejected, "failed to place order on Binance", err)
	}

	return strconv.FormatInt(resp.OrderID, 10), nil
}

// CancelOrder implements Gateway.
func (b *BinanceGateway) CancelOrder(ctx context.Context, brokerOrderID string) error {
	orderID, err := strconv.ParseInt(brokerOrderID, 10, 64)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order ID format", err)
	}

	_, err = b.client.NewCancelOrderService().Symbol(b.symbol).OrderID(orderID).Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCancelFailed, "failed to cancel order on Binance", err)
	}

	return nil
}

// GetOrderFillStatus implements Gateway. The average fill price is derived
// from the cumulative quote quantity over the executed quantity.
func (b *BinanceGateway) GetOrderFillStatus(ctx context.Context, brokerOrderID string) (types.FillStatus, error) {
	orderID, err := strconv.ParseInt(brokerOrderID, 10, 64)
	if err != nil {
		return types.FillStatus{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order ID format", err)
	}

	ord, err := b.client.NewGetOrderService().Symbol(b.symbol).OrderID(orderID).Do(ctx)
	if err != nil {
		return types.FillStatus{}, errors.Wrap(errors.ErrCodeFillStatusFailed, "failed to query order on Binance", err)
	}

	executed, err := strconv.ParseFloat(ord.ExecutedQuantity, 64)
	if err != nil {
		return types.FillStatus{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "unparseable executed quantity", err)
	}

	requested, err := strconv.ParseFloat(ord.OrigQuantity, 64)
	if err != nil {
		return types.FillStatus{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "unparseable requested quantity", err)
	}

	quoteQty, err := strconv.ParseFloat(ord.CummulativeQuoteQuantity, 64)
	if err != nil {
		return types.FillStatus{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "unparseable quote quantity", err)
	}

	avgPrice := 0.0
	if executed > 0 {
		avgPrice = quoteQty / executed
	}

	side := types.OrderSideBuy
	if ord.Side == binance.SideTypeSell {
		side = types.OrderSideSell
	}

	return types.FillStatus{
		FilledQuantity: int64(executed),
		Quantity:       int64(requested),
		AvgPrice:       avgPrice,
		Side:           side,
	}, nil
}

// Verify BinanceGateway implements the Gateway interface.
var _ Gateway = (*BinanceGateway)(nil)
