package collector

import (
	"context"
	"fmt"
	"time"

	"CoinDash/internal/calculator"
	"CoinDash/internal/model"

	"github.com/rs/zerolog/log"
)

// HistoryRequest selects the assets and indicators of one historical render.
type HistoryRequest struct {
	Assets   []string
	Currency string
	Days     int
	Toggles  calculator.Toggles
}

// Collector builds historical series from a data source.
type Collector struct {
	Source HistorySource
	now    func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(source HistorySource) *Collector {
	return &Collector{Source: source, now: time.Now}
}

// CollectHistory builds one series per requested asset. Assets are fetched
// one at a time in request order. A failing asset yields a result carrying
// its error and no series; it never aborts the other assets.
func (c *Collector) CollectHistory(ctx context.Context, req HistoryRequest) []model.HistoryResult {
	results := make([]model.HistoryResult, 0, len(req.Assets))
	for _, id := range req.Assets {
		series, err := c.Collect(ctx, id, req.Currency, req.Days, req.Toggles)
		if err != nil {
			log.Warn().Err(err).Str("asset", id).Str("class", Classify(err)).Msg("historical data unavailable, skipping asset")
		}
		results = append(results, model.HistoryResult{Asset: id, Series: series, Err: err})
	}
	return results
}

// Collect fetches one asset's price and volume history and derives candles
// and the enabled indicators.
func (c *Collector) Collect(ctx context.Context, id, currency string, days int, toggles calculator.Toggles) (*model.HistoricalSeries, error) {
	chart, err := c.Source.FetchMarketChart(ctx, id, currency, days)
	if err != nil {
		return nil, err
	}
	if chart == nil || chart.Prices == nil || chart.Volumes == nil {
		return nil, fmt.Errorf("market chart [%s]: %w", id, ErrMalformedResponse)
	}
	if len(chart.Prices) == 0 {
		return nil, fmt.Errorf("market chart [%s]: empty price series: %w", id, ErrNoData)
	}

	candles := calculator.BuildCandles(chart.Prices, chart.Volumes)
	closes := make([]float64, len(candles))
	for i, cd := range candles {
		closes[i] = cd.Close
	}
	indicators, enabled := calculator.Compute(closes, toggles)

	return &model.HistoricalSeries{
		Asset:      id,
		Currency:   currency,
		Days:       days,
		Candles:    candles,
		Indicators: indicators,
		Enabled:    enabled,
		FetchedAt:  c.now(),
	}, nil
}
