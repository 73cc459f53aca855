package quote

import (
	"context"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	restmodels "github.com/polygon-io/client-go/rest/models"
	polygonws "github.com/polygon-io/client-go/websocket"
	wsmodels "github.com/polygon-io/client-go/websocket/models"
	"github.com/predictivelabs/trader/internal/logger"
	"github.com/predictivelabs/trader/internal/types"
	"github.com/predictivelabs/trader/pkg/errors"
	"go.uber.org/zap"
)

// PolygonStreamService abstracts the Polygon websocket client for testing.
type PolygonStreamService interface {
	Connect() error
	Subscribe(topic polygonws.Topic, tickers ...string) error
	Unsubscribe(topic polygonws.Topic, tickers ...string) error
	Output() <-chan any
	Error() <-chan error
	Close()
}

type realPolygonStream struct {
	client *polygonws.Client
}

func (r *realPolygonStream) Connect() error {
	return r.client.Connect()
}

func (r *realPolygonStream) Subscribe(topic polygonws.Topic, tickers ...string) error {
	return r.client.Subscribe(topic, tickers...)
}

func (r *realPolygonStream) Unsubscribe(topic polygonws.Topic, tickers ...string) error {
	return r.client.Unsubscribe(topic, tickers...)
}

func (r *realPolygonStream) Output() <-chan any {
	return r.client.Output()
}

func (r *realPolygonStream) Error() <-chan error {
	return r.client.Error()
}

func (r *realPolygonStream) Close() {
	r.client.Close()
}

// PolygonFeederConfig holds the Polygon API credentials and feed selection.
type PolygonFeederConfig struct {
	ApiKey string `json:"api_key" yaml:"api_key" validate:"required"`
	// Delayed selects the 15-minute delayed feed, which is available on the
	// free tier.
	Delayed bool `json:"delayed" yaml:"delayed"`
}

// PolygonFeeder subscribes to trades and quotes for one symbol and keeps the
// cache's snapshot current. Stream errors are logged and the loop keeps
// draining; the polygonws client reconnects internally.
type PolygonFeeder struct {
	service PolygonStreamService
	rest    *polygon.Client
	cache   *Cache
	symbol  string
	logger  *logger.Logger
}

// NewPolygonFeeder creates a feeder for the given symbol.
func NewPolygonFeeder(config PolygonFeederConfig, symbol string, cache *Cache, log *logger.Logger) (*PolygonFeeder, error) {
	feed := polygonws.RealTime
	if config.Delayed {
		feed = polygonws.Delayed
	}

	ws, err := polygonws.New(polygonws.Config{
		APIKey: config.ApiKey,
		Feed:   feed,
		Market: polygonws.Stocks,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create polygon websocket client", err)
	}

	return &PolygonFeeder{
		service: &realPolygonStream{client: ws},
		rest:    polygon.New(config.ApiKey),
		cache:   cache,
		symbol:  strings.ToUpper(symbol),
		logger:  log,
	}, nil
}

func newPolygonFeederWithService(service PolygonStreamService, symbol string, cache *Cache, log *logger.Logger) *PolygonFeeder {
	return &PolygonFeeder{
		service: service,
		cache:   cache,
		symbol:  strings.ToUpper(symbol),
		logger:  log,
	}
}

// Seed primes the cache from REST last-trade and last-quote lookups so
// readers have a snapshot before the first stream event lands.
func (f *PolygonFeeder) Seed(ctx context.Context) error {
	if f.rest == nil {
		return nil
	}

	trade, err := f.rest.GetLastTrade(ctx, &restmodels.GetLastTradeParams{Ticker: f.symbol})
	if err != nil {
		return errors.Wrap(errors.ErrCodeQuoteFailed, "failed to fetch last trade", err)
	}

	book, err := f.rest.GetLastQuote(ctx, &restmodels.GetLastQuoteParams{Ticker: f.symbol})
	if err != nil {
		return errors.Wrap(errors.ErrCodeQuoteFailed, "failed to fetch last quote", err)
	}

	f.cache.Seed(types.Quote{
		Symbol: f.symbol,
		Last:   trade.Results.Price,
		Bid:    book.Results.BidPrice,
		Ask:    book.Results.AskPrice,
		Time:   time.Now(),
	})

	return nil
}

// Run connects, subscribes, and pumps stream events into the cache until the
// context is cancelled.
func (f *PolygonFeeder) Run(ctx context.Context) error {
	if err := f.service.Connect(); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to connect to polygon stream", err)
	}
	defer f.service.Close()

	if err := f.service.Subscribe(polygonws.StocksTrades, f.symbol); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to subscribe to trades", err)
	}

	if err := f.service.Subscribe(polygonws.StocksQuotes, f.symbol); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to subscribe to quotes", err)
	}

	f.logger.Info("quote stream started", zap.String("symbol", f.symbol))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-f.service.Error():
			if !ok {
				return nil
			}

			f.logger.Warn("quote stream error", zap.Error(err))
		case event, ok := <-f.service.Output():
			if !ok {
				return nil
			}

			f.apply(event)
		}
	}
}

func (f *PolygonFeeder) apply(event any) {
	switch e := event.(type) {
	case wsmodels.EquityTrade:
		if e.Symbol != f.symbol {
			return
		}

		f.cache.SetLast(e.Symbol, e.Price, time.UnixMilli(e.Timestamp))
	case wsmodels.EquityQuote:
		if e.Symbol != f.symbol {
			return
		}

		f.cache.SetBook(e.Symbol, e.BidPrice, e.AskPrice, time.UnixMilli(e.Timestamp))
	default:
		// Aggregates and status messages are not interesting here.
	}
}
