package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CoinDash/internal/calculator"
	"CoinDash/internal/collector"
	"CoinDash/internal/live"
	"CoinDash/internal/metrics"
	"CoinDash/internal/model"
	"CoinDash/internal/recorder"

	"github.com/gorilla/websocket"
)

type fakeRefresher struct {
	agg *live.Aggregator
}

func (f fakeRefresher) RunOnce(ctx context.Context) model.TickResult { return f.agg.Tick(ctx) }

func newTestServer(t *testing.T) (*Server, *collector.MockFetcher, *recorder.SQLiteRecorder) {
	t.Helper()
	mock := &collector.MockFetcher{
		Coins: []model.Coin{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
			{ID: "ethereum", Symbol: "eth", Name: "Ethereum"},
			{ID: "solana", Symbol: "sol", Name: "Solana"},
		},
		Logos: map[string]string{"bitcoin": "https://img/btc.png"},
	}
	mock.SetPrice("bitcoin", 42000)
	mock.SetPrice("ethereum", 2200)

	journal, err := recorder.NewSQLiteRecorder()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { journal.Close() })

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(3 * time.Second)
		return now
	}
	agg := live.NewAggregator("sess", "usd", []string{"bitcoin", "ethereum"}, mock, live.WithClock(clock))

	s := New(":0", Deps{
		SessionID:  "sess",
		Currency:   "usd",
		Days:       1,
		Toggles:    calculator.Toggles{MA: true, EMA: true},
		ShowVolume: true,
		Catalog:    collector.NewCatalog(mock),
		Collector:  collector.NewCollector(mock),
		Aggregator: agg,
		Refresher:  fakeRefresher{agg: agg},
		Journal:    journal,
		Metrics:    metrics.New(),
	})
	return s, mock, journal
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"session":"sess"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestCoins_SearchAndLimit(t *testing.T) {
	s, _, _ := newTestServer(t)

	var coins []coinView
	rec := do(t, s, http.MethodGet, "/api/coins?q=eth")
	decode(t, rec, &coins)
	if len(coins) != 1 || coins[0].ID != "ethereum" || coins[0].Label != "Ethereum (ETH)" {
		t.Errorf("unexpected coins %+v", coins)
	}

	rec = do(t, s, http.MethodGet, "/api/coins?limit=2")
	decode(t, rec, &coins)
	if len(coins) != 2 {
		t.Errorf("expected default search capped at 2, got %d", len(coins))
	}

	if rec := do(t, s, http.MethodGet, "/api/coins?limit=500"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for limit=500, got %d", rec.Code)
	}
}

func TestHistory(t *testing.T) {
	s, _, journal := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/history?coins=Bitcoin%20(BTC),solana&days=1&ema=false")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp historyResponse
	decode(t, rec, &resp)

	if len(resp.Series) != 1 || resp.Series[0].Asset != "bitcoin" {
		t.Fatalf("expected only bitcoin to succeed, got %+v", resp.Series)
	}
	if resp.Series[0].Logo != "https://img/btc.png" || resp.Series[0].Label != "Bitcoin (BTC)" {
		t.Errorf("unexpected view %+v", resp.Series[0])
	}
	if got := strings.Join(resp.Enabled, ","); got != "MA7,MA25" {
		t.Errorf("expected MA columns only, got %s", got)
	}
	if len(resp.Series[0].Series.Candles) != 24 {
		t.Errorf("expected 24 hourly candles, got %d", len(resp.Series[0].Series.Candles))
	}
	if len(resp.Failed) != 1 || resp.Failed[0].Asset != "solana" || resp.Failed[0].Class != "no_data" {
		t.Errorf("unexpected failures %+v", resp.Failed)
	}

	st, err := journal.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Fetches != 2 || st.FetchFailures["no_data"] != 1 {
		t.Errorf("unexpected journal %+v", st)
	}
}

func TestHistory_EmptyMessageAndVolumeToggle(t *testing.T) {
	s, _, _ := newTestServer(t)

	var resp historyResponse
	decode(t, do(t, s, http.MethodGet, "/api/history?coins=solana"), &resp)
	if len(resp.Series) != 0 || resp.Message != "No historical data available for selected coins." {
		t.Errorf("unexpected empty response %+v", resp)
	}

	decode(t, do(t, s, http.MethodGet, "/api/history?coins=bitcoin&volume=false"), &resp)
	for _, c := range resp.Series[0].Series.Candles {
		if c.Volume.Valid {
			t.Fatalf("expected volume omitted, got %+v", c)
		}
	}
}

func TestHistory_Validation(t *testing.T) {
	s, _, _ := newTestServer(t)
	tests := []struct {
		name   string
		target string
	}{
		{"missing coins", "/api/history"},
		{"bad currency", "/api/history?coins=bitcoin&currency=btc"},
		{"bad days", "/api/history?coins=bitcoin&days=2"},
		{"bad toggle", "/api/history?coins=bitcoin&ma=maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, s, http.MethodGet, tt.target); rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHistory_TooManyDistinctCoins(t *testing.T) {
	s, mock, _ := newTestServer(t)
	mock.Coins = append(mock.Coins,
		model.Coin{ID: "a", Symbol: "a", Name: "A"},
		model.Coin{ID: "b", Symbol: "b", Name: "B"},
		model.Coin{ID: "c", Symbol: "c", Name: "C"},
	)
	rec := do(t, s, http.MethodGet, "/api/history?coins=bitcoin,ethereum,solana,a,b,c")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for six assets, got %d", rec.Code)
	}
}

func TestExportHistory(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/history/bitcoin/export.csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if lines[0] != "time,open,high,low,close,volume,MA7,MA25,EMA12,EMA26" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if len(lines) != 25 {
		t.Errorf("expected 24 rows plus header, got %d lines", len(lines))
	}

	if rec := do(t, s, http.MethodGet, "/api/history/solana/export.csv"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for asset without data, got %d", rec.Code)
	}
}

func TestLive_RefreshAndExport(t *testing.T) {
	s, mock, _ := newTestServer(t)

	var tick model.TickResult
	decode(t, do(t, s, http.MethodPost, "/api/live/refresh"), &tick)
	if tick.Seq != 1 || tick.Latest["bitcoin"] != 42000 {
		t.Fatalf("unexpected tick %+v", tick)
	}

	mock.SetError("ethereum", collector.ErrSourceUnavailable)
	mock.SetPrice("bitcoin", 42100.123456789)
	decode(t, do(t, s, http.MethodPost, "/api/live/refresh"), &tick)
	if len(tick.Failed) != 1 || tick.Failed[0].Class != "unavailable" {
		t.Fatalf("expected ethereum failure, got %+v", tick.Failed)
	}

	var view struct {
		Ticks  int                    `json:"ticks"`
		Latest []livePoint            `json:"latest"`
		Table  model.AlignedLiveTable `json:"table"`
	}
	decode(t, do(t, s, http.MethodGet, "/api/live"), &view)
	if view.Ticks != 2 || len(view.Table.Times) != 2 {
		t.Fatalf("unexpected live view %+v", view)
	}
	if view.Latest[0].Price != "42100.12345679" || view.Latest[0].Label != "Bitcoin (BTC)" {
		t.Errorf("unexpected point display %+v", view.Latest[0])
	}
	if eth := view.Table.Column("ethereum"); !eth[0].Valid || eth[1].Valid {
		t.Errorf("expected ethereum present then absent, got %+v", eth)
	}

	rec := do(t, s, http.MethodGet, "/api/live/bitcoin/export.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 || lines[0] != "time,price" || lines[1] != "2024-01-01T12:00:03Z,42000" {
		t.Errorf("unexpected live export %q", rec.Body.String())
	}
	if rec := do(t, s, http.MethodGet, "/api/live/dogecoin/export.csv"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for untracked asset, got %d", rec.Code)
	}
}

func TestJournalAndMetrics(t *testing.T) {
	s, _, _ := newTestServer(t)
	do(t, s, http.MethodGet, "/api/history?coins=bitcoin")

	rec := do(t, s, http.MethodGet, "/api/journal")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"fetches":1`) {
		t.Errorf("unexpected journal %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "coindash_live_ticks_total 0") {
		t.Errorf("unexpected metrics response %d %s", rec.Code, rec.Body.String())
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	s, _, _ := newTestServer(t)
	ts := httptest.NewServer(s.Echo())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.deps.Hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	s.deps.Hub.Broadcast(model.TickResult{Seq: 7, Latest: map[string]float64{"bitcoin": 1}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got struct {
		Type string `json:"type"`
		Seq  int    `json:"seq"`
	}
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != "tick" || got.Seq != 7 {
		t.Errorf("unexpected message %s", msg)
	}
}
