package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"CoinDash/internal/model"
)

// DefaultBaseURL is the public CoinGecko v3 API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoFetcher implements Fetcher using the public CoinGecko REST API.
type CoinGeckoFetcher struct {
	BaseURL        string
	UserAgent      string
	PriceTimeout   time.Duration
	HistoryTimeout time.Duration
	Client         *http.Client
}

// NewCoinGeckoFetcher creates a new fetcher with optional proxy support.
func NewCoinGeckoFetcher(baseURL, proxyURL string, priceTimeout, historyTimeout time.Duration) *CoinGeckoFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CoinGeckoFetcher{
		BaseURL:        baseURL,
		UserAgent:      "Mozilla/5.0",
		PriceTimeout:   priceTimeout,
		HistoryTimeout: historyTimeout,
		Client:         &http.Client{Transport: transport},
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// FetchCurrentPrice reads /simple/price. A response without the asset or
// currency key is reported as ErrNoData.
func (f *CoinGeckoFetcher) FetchCurrentPrice(ctx context.Context, id, currency string) (float64, error) {
	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", currency)

	var result map[string]map[string]float64
	if err := f.getJSON(ctx, f.PriceTimeout, "/simple/price", q, &result); err != nil {
		return 0, fmt.Errorf("fetch current price [%s]: %w", id, err)
	}
	price, ok := result[id][currency]
	if !ok {
		return 0, fmt.Errorf("fetch current price [%s/%s]: %w", id, currency, ErrNoData)
	}
	return price, nil
}

// FetchMarketChart reads /coins/{id}/market_chart. Both "prices" and
// "total_volumes" must be present; any other field is ignored.
func (f *CoinGeckoFetcher) FetchMarketChart(ctx context.Context, id, currency string, days int) (*model.MarketChart, error) {
	q := url.Values{}
	q.Set("vs_currency", currency)
	q.Set("days", strconv.Itoa(days))

	var raw map[string]json.RawMessage
	if err := f.getJSON(ctx, f.HistoryTimeout, "/coins/"+url.PathEscape(id)+"/market_chart", q, &raw); err != nil {
		return nil, fmt.Errorf("fetch market chart [%s]: %w", id, err)
	}
	pricesRaw, ok := raw["prices"]
	if !ok {
		return nil, fmt.Errorf("fetch market chart [%s]: missing prices: %w", id, ErrMalformedResponse)
	}
	volumesRaw, ok := raw["total_volumes"]
	if !ok {
		return nil, fmt.Errorf("fetch market chart [%s]: missing total_volumes: %w", id, ErrMalformedResponse)
	}

	pairs, err := decodePairs(pricesRaw)
	if err != nil {
		return nil, fmt.Errorf("fetch market chart [%s]: prices: %w", id, err)
	}
	volPairs, err := decodePairs(volumesRaw)
	if err != nil {
		return nil, fmt.Errorf("fetch market chart [%s]: total_volumes: %w", id, err)
	}

	chart := &model.MarketChart{
		Prices:  make([]model.PricePoint, len(pairs)),
		Volumes: make([]model.VolumePoint, len(volPairs)),
	}
	for i, p := range pairs {
		chart.Prices[i] = model.PricePoint{Time: time.UnixMilli(int64(p[0])).UTC(), Price: p[1]}
	}
	for i, v := range volPairs {
		chart.Volumes[i] = model.VolumePoint{Time: time.UnixMilli(int64(v[0])).UTC(), Volume: v[1]}
	}
	return chart, nil
}

// FetchCoinList reads /coins/list.
func (f *CoinGeckoFetcher) FetchCoinList(ctx context.Context) ([]model.Coin, error) {
	var coins []model.Coin
	if err := f.getJSON(ctx, f.HistoryTimeout, "/coins/list", nil, &coins); err != nil {
		return nil, fmt.Errorf("fetch coin list: %w", err)
	}
	return coins, nil
}

// FetchCoinImage reads image.small from /coins/{id}.
func (f *CoinGeckoFetcher) FetchCoinImage(ctx context.Context, id string) (string, error) {
	var result struct {
		Image struct {
			Small string `json:"small"`
		} `json:"image"`
	}
	if err := f.getJSON(ctx, f.PriceTimeout, "/coins/"+url.PathEscape(id), nil, &result); err != nil {
		return "", fmt.Errorf("fetch coin image [%s]: %w", id, err)
	}
	return result.Image.Small, nil
}

// getJSON performs one GET bounded by timeout and decodes the body into out.
// Transport errors, timeouts and non-200 statuses map to ErrSourceUnavailable;
// undecodable bodies map to ErrMalformedResponse.
func (f *CoinGeckoFetcher) getJSON(ctx context.Context, timeout time.Duration, path string, q url.Values, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	u := f.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrSourceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d, body: %s", ErrSourceUnavailable, resp.StatusCode, truncate(body, 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrMalformedResponse, err)
	}
	return nil
}

// decodePairs decodes a [[timestamp_ms, value], ...] array.
func decodePairs(raw json.RawMessage) ([][2]float64, error) {
	var rows [][]float64
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	out := make([][2]float64, len(rows))
	for i, r := range rows {
		if len(r) < 2 {
			return nil, fmt.Errorf("%w: row %d has %d fields, want 2", ErrMalformedResponse, i, len(r))
		}
		out[i] = [2]float64{r[0], r[1]}
	}
	return out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
