package types

import "time"

// Quote is a point-in-time snapshot of a symbol's market prices.
type Quote struct {
	Symbol string    `yaml:"symbol" json:"symbol"`
	Last   float64   `yaml:"last" json:"last"`
	Bid    float64   `yaml:"bid" json:"bid"`
	Ask    float64   `yaml:"ask" json:"ask"`
	Time   time.Time `yaml:"time" json:"time"`
}

// Bar is one aggregated interval of market data, used as predictor input.
type Bar struct {
	Symbol string    `yaml:"symbol" json:"symbol"`
	Time   time.Time `yaml:"time" json:"time"`
	Open   float64   `yaml:"open" json:"open"`
	High   float64   `yaml:"high" json:"high"`
	Low    float64   `yaml:"low" json:"low"`
	Close  float64   `yaml:"close" json:"close"`
	Volume float64   `yaml:"volume" json:"volume"`
}
