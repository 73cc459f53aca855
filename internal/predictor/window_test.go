package predictor

import (
	"math"
	"testing"

	"github.com/predictivelabs/trader/internal/types"
	pkgerrors "github.com/predictivelabs/trader/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSingleBar(t *testing.T) {
	bars := []types.Bar{
		{Open: 100, High: 102, Low: 98, Close: 100},
	}

	features, norm, err := Normalize(bars)
	require.NoError(t, err)

	assert.Equal(t, 100.0, norm.Anchor)
	assert.InDelta(t, math.Sqrt2, norm.Scale, 1e-9)

	// Feature order is open, high, low, close.
	require.Len(t, features, WindowFeatures)
	assert.InDelta(t, 0, features[0], 1e-6)
	assert.InDelta(t, math.Sqrt2, features[1], 1e-6)
	assert.InDelta(t, -math.Sqrt2, features[2], 1e-6)
	assert.InDelta(t, 0, features[3], 1e-6)
}

func TestNormalizeAnchorsOnFirstOpen(t *testing.T) {
	bars := []types.Bar{
		{Open: 50, High: 51, Low: 49, Close: 50.5},
		{Open: 50.5, High: 52, Low: 50, Close: 51},
	}

	_, norm, err := Normalize(bars)
	require.NoError(t, err)
	assert.Equal(t, 50.0, norm.Anchor)
	assert.Greater(t, norm.Scale, 0.0)
}

func TestNormalizeDenormalizeRoundTrip(t *testing.T) {
	bars := []types.Bar{
		{Open: 187.20, High: 187.60, Low: 187.00, Close: 187.45},
		{Open: 187.45, High: 187.90, Low: 187.30, Close: 187.80},
		{Open: 187.80, High: 188.00, Low: 187.50, Close: 187.55},
	}

	features, norm, err := Normalize(bars)
	require.NoError(t, err)

	// Every normalized feature maps back to its original price.
	prices := []float64{
		187.20, 187.60, 187.00, 187.45,
		187.45, 187.90, 187.30, 187.80,
		187.80, 188.00, 187.50, 187.55,
	}
	for i, f := range features {
		assert.InDelta(t, prices[i], norm.Denormalize(float64(f)), 1e-4)
	}
}

func TestNormalizeFlatWindow(t *testing.T) {
	bars := []types.Bar{
		{Open: 100, High: 100, Low: 100, Close: 100},
		{Open: 100, High: 100, Low: 100, Close: 100},
	}

	_, _, err := Normalize(bars)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.ErrCodeDegenerateWindow))
}

func TestNormalizeEmptyWindow(t *testing.T) {
	_, _, err := Normalize(nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.ErrCodeInsufficientWindow))
}

func TestDenormalizeAppliesScaleThenAnchor(t *testing.T) {
	norm := Normalization{Anchor: 100, Scale: 2}

	assert.Equal(t, 100.0, norm.Denormalize(0))
	assert.Equal(t, 103.0, norm.Denormalize(1.5))
	assert.Equal(t, 97.0, norm.Denormalize(-1.5))
}
