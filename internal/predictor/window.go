package predictor

import (
	"context"
	"math"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/predictivelabs/trader/internal/types"
	"github.com/predictivelabs/trader/pkg/errors"
)

const (
	// WindowBars is the number of minute bars the model consumes per
	// inference.
	WindowBars = 10
	// WindowFeatures is the per-bar feature count: open, high, low, close.
	WindowFeatures = 4
)

// BarSource supplies the most recent minute bars for a symbol.
type BarSource interface {
	RecentBars(ctx context.Context, symbol string, count int) ([]types.Bar, error)
}

// Normalization holds the per-window parameters needed to map a model output
// back to a price. The anchor is the window's first open; the scale is the
// root-mean-square deviation of every feature value from the anchor.
type Normalization struct {
	Anchor float64
	Scale  float64
}

// Denormalize maps a normalized model output back into price space.
func (n Normalization) Denormalize(prediction float64) float64 {
	return prediction*n.Scale + n.Anchor
}

// Normalize flattens the window into model input order (open, high, low,
// close per bar) and scales every value relative to the window's first open.
// A flat window has zero scale and cannot be normalized.
func Normalize(bars []types.Bar) ([]float32, Normalization, error) {
	if len(bars) == 0 {
		return nil, Normalization{}, errors.New(errors.ErrCodeInsufficientWindow, "empty bar window")
	}

	anchor := bars[0].Open

	var sumSquares float64

	raw := make([]float64, 0, len(bars)*WindowFeatures)
	for _, bar := range bars {
		for _, v := range [WindowFeatures]float64{bar.Open, bar.High, bar.Low, bar.Close} {
			raw = append(raw, v)
			sumSquares += (v - anchor) * (v - anchor)
		}
	}

	scale := math.Sqrt(sumSquares / float64(len(raw)))
	if scale == 0 {
		return nil, Normalization{}, errors.Newf(errors.ErrCodeDegenerateWindow, "window is flat at %.2f, cannot normalize", anchor)
	}

	normalized := make([]float32, len(raw))
	for i, v := range raw {
		normalized[i] = float32((v - anchor) / scale)
	}

	return normalized, Normalization{Anchor: anchor, Scale: scale}, nil
}

// PolygonBars fetches minute aggregates from the Polygon REST API.
type PolygonBars struct {
	client *polygon.Client
	// lookback bounds how far back the aggregate query reaches. Wider than
	// the window itself so that halts and thin minutes do not starve it.
	lookback time.Duration
	now      func() time.Time
}

func NewPolygonBars(apiKey string) (*PolygonBars, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon api key is required")
	}

	return &PolygonBars{
		client:   polygon.New(apiKey),
		lookback: 4 * time.Hour,
		now:      time.Now,
	}, nil
}

// RecentBars implements BarSource, returning the trailing count minute bars.
func (p *PolygonBars) RecentBars(ctx context.Context, symbol string, count int) ([]types.Bar, error) {
	end := p.now()
	start := end.Add(-p.lookback)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   models.Minute,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(50000)

	iter := p.client.ListAggs(ctx, params)

	var bars []types.Bar

	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, types.Bar{
			Symbol: symbol,
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if iter.Err() != nil {
		return nil, errors.Wrap(errors.ErrCodeWindowFetch, "failed to list minute aggregates", iter.Err())
	}

	if len(bars) < count {
		return nil, errors.Newf(errors.ErrCodeInsufficientWindow, "need %d minute bars, got %d", count, len(bars))
	}

	return bars[len(bars)-count:], nil
}

var _ BarSource = (*PolygonBars)(nil)
