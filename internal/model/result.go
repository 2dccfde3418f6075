package model

import "time"

// HistoryResult is the outcome of building one asset's historical series.
// Exactly one of Series and Err is set.
type HistoryResult struct {
	Asset  string
	Series *HistoricalSeries
	Err    error
}

// OK reports whether the asset produced a series.
func (r HistoryResult) OK() bool { return r.Err == nil && r.Series != nil }

// Successful returns the series of all successful results, in order.
func Successful(results []HistoryResult) []*HistoricalSeries {
	out := make([]*HistoricalSeries, 0, len(results))
	for _, r := range results {
		if r.OK() {
			out = append(out, r.Series)
		}
	}
	return out
}

// TickFailure names an asset skipped during a tick and why.
type TickFailure struct {
	Asset string `json:"asset"`
	Class string `json:"class"`
	Err   error  `json:"-"`
}

// TickResult is the output of one live polling tick.
type TickResult struct {
	Seq   int              `json:"seq"`
	At    time.Time        `json:"at"`
	Table AlignedLiveTable `json:"table"`
	// Latest holds the price appended this tick, per asset sampled.
	Latest map[string]float64 `json:"latest"`
	Failed []TickFailure      `json:"failed,omitempty"`
}
