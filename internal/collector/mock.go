package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CoinDash/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Assets without an entry fail with ErrNoData.
type MockFetcher struct {
	mu sync.Mutex

	Prices map[string]float64
	Charts map[string]*model.MarketChart
	Coins  []model.Coin
	Logos  map[string]string
	// Errors forces a failure for an asset across all calls.
	Errors map[string]error

	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCurrentPrice(_ context.Context, id, currency string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := m.Errors[id]; err != nil {
		return 0, err
	}
	p, ok := m.Prices[id]
	if !ok {
		return 0, fmt.Errorf("mock price [%s/%s]: %w", id, currency, ErrNoData)
	}
	return p, nil
}

// SetPrice changes the price returned for id.
func (m *MockFetcher) SetPrice(id string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Prices == nil {
		m.Prices = make(map[string]float64)
	}
	m.Prices[id] = price
}

// SetError forces failures for id; nil clears it.
func (m *MockFetcher) SetError(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Errors == nil {
		m.Errors = make(map[string]error)
	}
	m.Errors[id] = err
}

func (m *MockFetcher) FetchMarketChart(_ context.Context, id, _ string, days int) (*model.MarketChart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := m.Errors[id]; err != nil {
		return nil, err
	}
	if chart, ok := m.Charts[id]; ok {
		return chart, nil
	}
	if p, ok := m.Prices[id]; ok {
		return GenerateMockChart(p, days*24), nil
	}
	return nil, fmt.Errorf("mock chart [%s]: %w", id, ErrNoData)
}

func (m *MockFetcher) FetchCoinList(_ context.Context) ([]model.Coin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Coins == nil {
		return nil, fmt.Errorf("mock coin list: %w", ErrSourceUnavailable)
	}
	return m.Coins, nil
}

func (m *MockFetcher) FetchCoinImage(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	logo, ok := m.Logos[id]
	if !ok {
		return "", fmt.Errorf("mock logo [%s]: %w", id, ErrNoData)
	}
	return logo, nil
}

// GenerateMockChart builds an hourly chart of count samples drifting around basePrice.
func GenerateMockChart(basePrice float64, count int) *model.MarketChart {
	chart := &model.MarketChart{
		Prices:  make([]model.PricePoint, count),
		Volumes: make([]model.VolumePoint, count),
	}
	start := time.Now().UTC().Truncate(time.Hour).Add(-time.Duration(count) * time.Hour)
	for i := 0; i < count; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		p := basePrice * (1 + float64(i-count/2)*0.001)
		chart.Prices[i] = model.PricePoint{Time: ts, Price: p}
		chart.Volumes[i] = model.VolumePoint{Time: ts, Volume: 1000000}
	}
	return chart
}
