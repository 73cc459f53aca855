package predictor

import (
	"context"
	"testing"

	"github.com/predictivelabs/trader/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// Runs the fetch-and-normalize pipeline over a generated bar series the way
// the predictor consumes it.
func TestWindowPipelineOverGeneratedSeries(t *testing.T) {
	ctrl := gomock.NewController(t)

	generated := mocks.NewBarGenerator(1)
	config := mocks.DefaultBarGeneratorConfig()
	config.Symbol = "AAPL"
	config.Count = WindowBars
	bars := generated.Generate(config)

	source := mocks.NewMockBarSource(ctrl)
	source.EXPECT().
		RecentBars(gomock.Any(), "AAPL", WindowBars).
		Return(bars, nil)

	fetched, err := source.RecentBars(context.Background(), "AAPL", WindowBars)
	require.NoError(t, err)

	features, norm, err := Normalize(fetched)
	require.NoError(t, err)
	require.Len(t, features, WindowBars*WindowFeatures)

	assert.Equal(t, bars[0].Open, norm.Anchor)
	assert.Greater(t, norm.Scale, 0.0)

	// Denormalizing any feature recovers the original price.
	for i, bar := range bars {
		recovered := norm.Denormalize(float64(features[i*WindowFeatures+3]))
		assert.InDelta(t, bar.Close, recovered, 1e-6)
	}
}
