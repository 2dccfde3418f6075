package metrics

import (
	"context"
	"time"

	"CoinDash/internal/collector"
	"CoinDash/internal/model"
)

// instrumented wraps a Fetcher and records every request it makes.
type instrumented struct {
	next collector.Fetcher
	rec  *Recorder
}

// WrapFetcher returns a Fetcher that reports request counts, failures and
// latency to rec.
func WrapFetcher(f collector.Fetcher, rec *Recorder) collector.Fetcher {
	return &instrumented{next: f, rec: rec}
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) observe(op string, start time.Time, err error) {
	i.rec.RecordFetch(op, collector.Classify(err), time.Since(start))
}

func (i *instrumented) FetchCurrentPrice(ctx context.Context, id, currency string) (float64, error) {
	start := time.Now()
	p, err := i.next.FetchCurrentPrice(ctx, id, currency)
	i.observe("price", start, err)
	return p, err
}

func (i *instrumented) FetchMarketChart(ctx context.Context, id, currency string, days int) (*model.MarketChart, error) {
	start := time.Now()
	c, err := i.next.FetchMarketChart(ctx, id, currency, days)
	i.observe("market_chart", start, err)
	return c, err
}

func (i *instrumented) FetchCoinList(ctx context.Context) ([]model.Coin, error) {
	start := time.Now()
	c, err := i.next.FetchCoinList(ctx)
	i.observe("coin_list", start, err)
	return c, err
}

func (i *instrumented) FetchCoinImage(ctx context.Context, id string) (string, error) {
	start := time.Now()
	u, err := i.next.FetchCoinImage(ctx, id)
	i.observe("coin_image", start, err)
	return u, err
}
