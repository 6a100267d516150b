package model

import "time"

// Asset is the canonical market snapshot for one trading symbol.
// Numeric fields are already parsed from the exchange's text encoding.
type Asset struct {
	ID               string
	Symbol           string
	Name             string
	Price            float64
	Change24h        float64
	ChangePercent24h float64
	Volume24h        float64
	High24h          float64
	Low24h           float64
	LastUpdated      time.Time
	MarketCap        float64
	Sparkline        []float64
}

// MarketData aggregates market-wide figures derived from the asset set.
type MarketData struct {
	TotalMarketCap float64
	TotalVolume24h float64
	BTCDominance   float64
	ActiveAssets   int
	FearGreedIndex int
}
