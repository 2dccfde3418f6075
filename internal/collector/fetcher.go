package collector

import (
	"context"

	"CoinDash/internal/model"
)

// PriceSource returns the current price of an asset in a quote currency.
type PriceSource interface {
	FetchCurrentPrice(ctx context.Context, id, currency string) (float64, error)
}

// HistorySource returns raw price and volume series covering the last days.
type HistorySource interface {
	FetchMarketChart(ctx context.Context, id, currency string, days int) (*model.MarketChart, error)
}

// CatalogSource lists every known asset.
type CatalogSource interface {
	FetchCoinList(ctx context.Context) ([]model.Coin, error)
}

// LogoSource returns the small logo URL of an asset.
type LogoSource interface {
	FetchCoinImage(ctx context.Context, id string) (string, error)
}

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	PriceSource
	HistorySource
	CatalogSource
	LogoSource
	Name() string
}
