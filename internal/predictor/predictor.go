package predictor

import (
	"context"
)

// Predictor produces a price target for the next trading period. The target
// drives order intent: a target above the ask means buy, below the bid means
// sell.
type Predictor interface {
	// PredictPrice returns the predicted price for the symbol over the next
	// prediction interval.
	PredictPrice(ctx context.Context, symbol string) (float64, error)
}
