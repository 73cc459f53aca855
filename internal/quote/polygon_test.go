package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	polygonws "github.com/polygon-io/client-go/websocket"
	"github.com/polygon-io/client-go/websocket/models"
	"github.com/predictivelabs/trader/internal/logger"
	"github.com/stretchr/testify/suite"
)

// mockPolygonStreamService implements PolygonStreamService for testing.
type mockPolygonStreamService struct {
	events       []any
	errors       []error
	connectError error
	subscribed   []polygonws.Topic
	outputChan   chan any
	errorChan    chan error
	closed       bool
}

func newMockPolygonStreamService() *mockPolygonStreamService {
	return &mockPolygonStreamService{
		outputChan: make(chan any, 100),
		errorChan:  make(chan error, 10),
	}
}

func (m *mockPolygonStreamService) Connect() error {
	if m.connectError != nil {
		return m.connectError
	}

	go func() {
		for _, event := range m.events {
			m.outputChan <- event
		}
		for _, err := range m.errors {
			m.errorChan <- err
		}
	}()

	return nil
}

func (m *mockPolygonStreamService) Subscribe(topic polygonws.Topic, tickers ...string) error {
	m.subscribed = append(m.subscribed, topic)

	return nil
}

func (m *mockPolygonStreamService) Unsubscribe(topic polygonws.Topic, tickers ...string) error {
	return nil
}

func (m *mockPolygonStreamService) Output() <-chan any {
	return m.outputChan
}

func (m *mockPolygonStreamService) Error() <-chan error {
	return m.errorChan
}

func (m *mockPolygonStreamService) Close() {
	if !m.closed {
		m.closed = true
		close(m.outputChan)
		close(m.errorChan)
	}
}

type PolygonFeederTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func TestPolygonFeederSuite(t *testing.T) {
	suite.Run(t, new(PolygonFeederTestSuite))
}

func (suite *PolygonFeederTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.logger = log
}

func (suite *PolygonFeederTestSuite) runFeeder(mockWs *mockPolygonStreamService, cache *Cache) {
	feeder := newPolygonFeederWithService(mockWs, "AAPL", cache, suite.logger)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	suite.NoError(feeder.Run(ctx))
}

func (suite *PolygonFeederTestSuite) TestTradeAndQuoteEventsFillCache() {
	mockWs := newMockPolygonStreamService()
	mockWs.events = []any{
		models.EquityTrade{
			EventType: models.EventType{EventType: "T"},
			Symbol:    "AAPL",
			Price:     187.45,
			Timestamp: 1704067200000,
		},
		models.EquityQuote{
			EventType: models.EventType{EventType: "Q"},
			Symbol:    "AAPL",
			BidPrice:  187.40,
			AskPrice:  187.50,
			Timestamp: 1704067201000,
		},
	}

	cache := NewCache()
	suite.runFeeder(mockWs, cache)

	snapshot, ok := cache.Load()
	suite.True(ok)
	suite.Equal(187.45, snapshot.Last)
	suite.Equal(187.40, snapshot.Bid)
	suite.Equal(187.50, snapshot.Ask)
}

func (suite *PolygonFeederTestSuite) TestSubscribesTradesAndQuotes() {
	mockWs := newMockPolygonStreamService()
	cache := NewCache()
	suite.runFeeder(mockWs, cache)

	suite.Contains(mockWs.subscribed, polygonws.StocksTrades)
	suite.Contains(mockWs.subscribed, polygonws.StocksQuotes)
}

func (suite *PolygonFeederTestSuite) TestIgnoresOtherSymbols() {
	mockWs := newMockPolygonStreamService()
	mockWs.events = []any{
		models.EquityTrade{
			EventType: models.EventType{EventType: "T"},
			Symbol:    "MSFT",
			Price:     402.10,
			Timestamp: 1704067200000,
		},
	}

	cache := NewCache()
	suite.runFeeder(mockWs, cache)

	_, ok := cache.Load()
	suite.False(ok)
}

func (suite *PolygonFeederTestSuite) TestStreamErrorDoesNotStopFeeder() {
	mockWs := newMockPolygonStreamService()
	mockWs.errors = []error{errors.New("transient disconnect")}
	mockWs.events = []any{
		models.EquityTrade{
			EventType: models.EventType{EventType: "T"},
			Symbol:    "AAPL",
			Price:     187.45,
			Timestamp: 1704067200000,
		},
	}

	cache := NewCache()
	suite.runFeeder(mockWs, cache)

	snapshot, ok := cache.Load()
	suite.True(ok)
	suite.Equal(187.45, snapshot.Last)
}

func (suite *PolygonFeederTestSuite) TestConnectFailure() {
	mockWs := newMockPolygonStreamService()
	mockWs.connectError = errors.New("dial refused")

	feeder := newPolygonFeederWithService(mockWs, "AAPL", NewCache(), suite.logger)

	err := feeder.Run(context.Background())
	suite.Error(err)
}
