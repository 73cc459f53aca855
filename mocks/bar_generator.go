package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/predictivelabs/trader/internal/types"
)

// BarGenerator produces realistic minute-bar series for testing and
// benchmarking prediction inputs.
type BarGenerator struct {
	rng *rand.Rand
}

// NewBarGenerator creates a generator seeded for reproducible output.
func NewBarGenerator(seed int64) *BarGenerator {
	return &BarGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// BarGeneratorConfig configures the generated series.
type BarGeneratorConfig struct {
	// Symbol stamps every generated bar.
	Symbol string
	// StartTime is the timestamp of the first bar.
	StartTime time.Time
	// Interval is the duration between bars.
	Interval time.Duration
	// Count is the number of bars to generate.
	Count int
	// InitialPrice seeds the series.
	InitialPrice float64
	// Volatility controls per-bar movement (0.002 = 0.2% per bar).
	Volatility float64
	// Trend is the total drift across the series, negative for bearish.
	Trend float64
	// VolumeBase is the average volume per bar.
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0).
	VolumeVariance float64
}

// DefaultBarGeneratorConfig returns a neutral minute-bar configuration.
func DefaultBarGeneratorConfig() BarGeneratorConfig {
	return BarGeneratorConfig{
		Symbol:         "TEST",
		StartTime:      time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC),
		Interval:       time.Minute,
		Count:          100,
		InitialPrice:   100.0,
		Volatility:     0.002,
		Trend:          0.0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Generate creates a bar series following geometric Brownian motion.
func (g *BarGenerator) Generate(config BarGeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normally distributed step.
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)
		closePrice := open * (1 + priceChange + drift)

		intraRange := math.Abs(priceChange) * open * g.rng.Float64()
		high := math.Max(open, closePrice) + intraRange/2
		low := math.Min(open, closePrice) - intraRange/2

		volume := config.VolumeBase * (1 + config.VolumeVariance*(2*g.rng.Float64()-1))

		bars[i] = types.Bar{
			Symbol: config.Symbol,
			Time:   currentTime,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		}

		currentPrice = closePrice
		currentTime = currentTime.Add(config.Interval)
	}

	return bars
}
