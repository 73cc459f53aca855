package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/predictivelabs/trader/internal/types"
	pkgerrors "github.com/predictivelabs/trader/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// Mock implementations for testing

type mockCreateOrderService struct {
	symbol        string
	side          binance.SideType
	orderType     binance.OrderType
	quantity      string
	price         string
	tif           binance.TimeInForceType
	clientOrderID string
	response      *binance.CreateOrderResponse
	err           error
}

func (m *mockCreateOrderService) Symbol(symbol string) CreateOrderService {
	m.symbol = symbol

	return m
}

func (m *mockCreateOrderService) Side(side binance.SideType) CreateOrderService {
	m.side = side

	return m
}

func (m *mockCreateOrderService) Type(orderType binance.OrderType) CreateOrderService {
	m.orderType = orderType

	return m
}

func (m *mockCreateOrderService) Quantity(quantity string) CreateOrderService {
	m.quantity = quantity

	return m
}

func (m *mockCreateOrderService) Price(price string) CreateOrderService {
	m.price = price

	return m
}

func (m *mockCreateOrderService) TimeInForce(tif binance.TimeInForceType) CreateOrderService {
	m.tif = tif

	return m
}

func (m *mockCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	m.clientOrderID = id

	return m
}

func (m *mockCreateOrderService) Do(ctx context.Context) (*binance.CreateOrderResponse, error) {
	return m.response, m.err
}

type mockCancelOrderService struct {
	symbol   string
	orderID  int64
	response *binance.CancelOrderResponse
	err      error
}

func (m *mockCancelOrderService) Symbol(symbol string) CancelOrderService {
	m.symbol = symbol

	return m
}

func (m *mockCancelOrderService) OrderID(orderID int64) CancelOrderService {
	m.orderID = orderID

	return m
}

func (m *mockCancelOrderService) Do(ctx context.Context) (*binance.CancelOrderResponse, error) {
	return m.response, m.err
}

type mockGetOrderService struct {
	symbol  string
	orderID int64
	order   *binance.Order
	err     error
}

func (m *mockGetOrderService) Symbol(symbol string) GetOrderService {
	m.symbol = symbol

	return m
}

func (m *mockGetOrderService) OrderID(orderID int64) GetOrderService {
	m.orderID = orderID

	return m
}

func (m *mockGetOrderService) Do(ctx context.Context) (*binance.Order, error) {
	return m.order, m.err
}

type mockListPricesService struct {
	symbol string
	prices []*binance.SymbolPrice
	err    error
}

func (m *mockListPricesService) Symbol(symbol string) ListPricesService {
	m.symbol = symbol

	return m
}

func (m *mockListPricesService) Do(ctx context.Context) ([]*binance.SymbolPrice, error) {
	return m.prices, m.err
}

type mockListBookTickersService struct {
	symbol  string
	tickers []*binance.BookTicker
	err     error
}

func (m *mockListBookTickersService) Symbol(symbol string) ListBookTickersService {
	m.symbol = symbol

	return m
}

func (m *mockListBookTickersService) Do(ctx context.Context) ([]*binance.BookTicker, error) {
	return m.tickers, m.err
}

type mockBinanceClient struct {
	createOrderService     *mockCreateOrderService
	cancelOrderService     *mockCancelOrderService
	getOrderService        *mockGetOrderService
	listPricesService      *mockListPricesService
	listBookTickersService *mockListBookTickersService
}

func newMockBinanceClient() *mockBinanceClient {
	return &mockBinanceClient{
		createOrderService:     &mockCreateOrderService{},
		cancelOrderService:     &mockCancelOrderService{},
		getOrderService:        &mockGetOrderService{},
		listPricesService:      &mockListPricesService{},
		listBookTickersService: &mockListBookTickersService{},
	}
}

func (m *mockBinanceClient) NewCreateOrderService() CreateOrderService {
	return m.createOrderService
}

func (m *mockBinanceClient) NewCancelOrderService() CancelOrderService {
	return m.cancelOrderService
}

func (m *mockBinanceClient) NewGetOrderService() GetOrderService {
	return m.getOrderService
}

func (m *mockBinanceClient) NewListPricesService() ListPricesService {
	return m.listPricesService
}

func (m *mockBinanceClient) NewListBookTickersService() ListBookTickersService {
	return m.listBookTickersService
}

type BinanceGatewayTestSuite struct {
	suite.Suite
	client  *mockBinanceClient
	gateway *BinanceGateway
}

func TestBinanceGatewaySuite(t *testing.T) {
	suite.Run(t, new(BinanceGatewayTestSuite))
}

func (suite *BinanceGatewayTestSuite) SetupTest() {
	suite.client = newMockBinanceClient()
	suite.gateway = newBinanceGatewayWithClient(suite.client, "BTCUSDT")
}

func (suite *BinanceGatewayTestSuite) TestGetLastPrice() {
	suite.client.listPricesService.prices = []*binance.SymbolPrice{
		{Symbol: "BTCUSDT", Price: "45123.50"},
	}

	price, err := suite.gateway.GetLastPrice(context.Background(), "BTCUSDT")
	suite.NoError(err)
	suite.Equal(45123.50, price)
	suite.Equal("BTCUSDT", suite.client.listPricesService.symbol)
}

func (suite *BinanceGatewayTestSuite) TestGetLastPriceEmptyResponse() {
	suite.client.listPricesService.prices = nil

	_, err := suite.gateway.GetLastPrice(context.Background(), "BTCUSDT")
	suite.Error(err)
	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeEmptyQuote))
}

func (suite *BinanceGatewayTestSuite) TestGetBidAsk() {
	suite.client.listBookTickersService.tickers = []*binance.BookTicker{
		{Symbol: "BTCUSDT", BidPrice: "45120.00", AskPrice: "45125.00"},
	}

	bid, err := suite.gateway.GetLastBid(context.Background(), "BTCUSDT")
	suite.NoError(err)
	suite.Equal(45120.00, bid)

	ask, err := suite.gateway.GetLastAsk(context.Background(), "BTCUSDT")
	suite.NoError(err)
	suite.Equal(45125.00, ask)
}

func (suite *BinanceGatewayTestSuite) TestMarketAlwaysOpen() {
	open, err := suite.gateway.MarketIsOpen(context.Background())
	suite.NoError(err)
	suite.True(open)
}

func (suite *BinanceGatewayTestSuite) TestPlaceMarketOrder() {
	suite.client.createOrderService.response = &binance.CreateOrderResponse{OrderID: 98765}

	descriptor := types.OrderDescriptor{
		ClientID:   uuid.New().String(),
		Symbol:     "BTCUSDT",
		Side:       types.OrderSideBuy,
		Kind:       types.OrderKindMarket,
		Quantity:   2,
		LimitPrice: optional.None[float64](),
	}

	id, err := suite.gateway.PlaceOrder(context.Background(), descriptor)
	suite.NoError(err)
	suite.Equal("98765", id)
	suite.Equal("BTCUSDT", suite.client.createOrderService.symbol)
	suite.Equal(binance.SideTypeBuy, suite.client.createOrderService.side)
	suite.Equal(binance.OrderTypeMarket, suite.client.createOrderService.orderType)
	suite.Equal("2", suite.client.createOrderService.quantity)
	suite.Equal(descriptor.ClientID, suite.client.createOrderService.clientOrderID)
}

func (suite *BinanceGatewayTestSuite) TestPlaceLimitOrderSetsPriceAndTIF() {
	suite.client.createOrderService.response = &binance.CreateOrderResponse{OrderID: 11}

	descriptor := types.OrderDescriptor{
		ClientID:   uuid.New().String(),
		Symbol:     "BTCUSDT",
		Side:       types.OrderSideSell,
		Kind:       types.OrderKindLimit,
		Quantity:   1,
		LimitPrice: optional.Some(45200.0),
	}

	_, err := suite.gateway.PlaceOrder(context.Background(), descriptor)
	suite.NoError(err)
	suite.Equal("45200", suite.client.createOrderService.price)
	suite.Equal(binance.TimeInForceTypeGTC, suite.client.createOrderService.tif)
}

func (suite *BinanceGatewayTestSuite) TestPlaceOrderRejection() {
	suite.client.createOrderService.err = errors.New("insufficient balance")

	descriptor := types.OrderDescriptor{
		ClientID:   uuid.New().String(),
		Symbol:     "BTCUSDT",
		Side:       types.OrderSideBuy,
		Kind:       types.OrderKindMarket,
		Quantity:   2,
		LimitPrice: optional.None[float64](),
	}

	_, err := suite.gateway.PlaceOrder(context.Background(), descriptor)
	suite.Error(err)
	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeOrderRejected))
}

func (suite *BinanceGatewayTestSuite) TestCancelOrder() {
	suite.client.cancelOrderService.response = &binance.CancelOrderResponse{}

	err := suite.gateway.CancelOrder(context.Background(), "98765")
	suite.NoError(err)
	suite.Equal("BTCUSDT", suite.client.cancelOrderService.symbol)
	suite.Equal(int64(98765), suite.client.cancelOrderService.orderID)
}

func (suite *BinanceGatewayTestSuite) TestCancelOrderInvalidID() {
	err := suite.gateway.CancelOrder(context.Background(), "not-a-number")
	suite.Error(err)
	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeInvalidParameter))
}

func (suite *BinanceGatewayTestSuite) TestGetOrderFillStatus() {
	suite.client.getOrderService.order = &binance.Order{
		OrderID:                  98765,
		Side:                     binance.SideTypeBuy,
		OrigQuantity:             "20.00000000",
		ExecutedQuantity:         "12.00000000",
		CummulativeQuoteQuantity: "600.00000000",
	}

	status, err := suite.gateway.GetOrderFillStatus(context.Background(), "98765")
	suite.NoError(err)
	suite.Equal(int64(12), status.FilledQuantity)
	suite.Equal(int64(20), status.Quantity)
	suite.Equal(50.0, status.AvgPrice)
	suite.Equal(types.OrderSideBuy, status.Side)
	suite.False(status.IsComplete())
}

func (suite *BinanceGatewayTestSuite) TestGetOrderFillStatusNoFill() {
	suite.client.getOrderService.order = &binance.Order{
		OrderID:                  98765,
		Side:                     binance.SideTypeSell,
		OrigQuantity:             "5.00000000",
		ExecutedQuantity:         "0.00000000",
		CummulativeQuoteQuantity: "0.00000000",
	}

	status, err := suite.gateway.GetOrderFillStatus(context.Background(), "98765")
	suite.NoError(err)
	suite.Equal(int64(0), status.FilledQuantity)
	suite.Zero(status.AvgPrice)
	suite.Equal(types.OrderSideSell, status.Side)
}
