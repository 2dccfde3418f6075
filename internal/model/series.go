package model

import "time"

// IndicatorSeries is a named sequence aligned index-for-index with the
// candles it was computed from.
type IndicatorSeries struct {
	Name   string  `json:"name"`
	Values []Float `json:"values"`
}

// HistoricalSeries holds one asset's candles and enabled indicators.
// It is built once per fetch and not mutated afterwards.
type HistoricalSeries struct {
	Asset      string                     `json:"asset"`
	Currency   string                     `json:"currency"`
	Days       int                        `json:"days"`
	Candles    []Candle                   `json:"candles"`
	Indicators map[string]IndicatorSeries `json:"indicators"`
	// Enabled lists indicator names in canonical column order.
	Enabled   []string  `json:"enabled"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Closes returns the close-price sequence.
func (s *HistoricalSeries) Closes() []float64 {
	closes := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		closes[i] = c.Close
	}
	return closes
}

// SeriesSummary condenses a HistoricalSeries for the point display.
type SeriesSummary struct {
	Asset     string  `json:"asset"`
	LastClose float64 `json:"last_close"`
	ChangePct float64 `json:"change_pct"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Position  float64 `json:"position"` // 0.0 ~ 1.0
	Samples   int     `json:"samples"`
}

// AlignedLiveTable is the union-of-timestamps view over all live buffers.
// Cells[row][col] is present only if Assets[col] was sampled at Times[row].
type AlignedLiveTable struct {
	Times  []time.Time `json:"times"`
	Assets []string    `json:"assets"`
	Cells  [][]Float   `json:"cells"`
}

// Column returns the cells of one asset, or nil if the asset is not a column.
func (t *AlignedLiveTable) Column(asset string) []Float {
	col := -1
	for i, a := range t.Assets {
		if a == asset {
			col = i
			break
		}
	}
	if col < 0 {
		return nil
	}
	out := make([]Float, len(t.Cells))
	for i, row := range t.Cells {
		out[i] = row[col]
	}
	return out
}
