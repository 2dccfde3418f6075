package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"CoinDash/internal/collector"
	"CoinDash/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWrapFetcher_CountsOutcomes(t *testing.T) {
	rec := New()
	mock := &collector.MockFetcher{}
	mock.SetPrice("bitcoin", 100)
	f := WrapFetcher(mock, rec)

	ctx := context.Background()
	if _, err := f.FetchCurrentPrice(ctx, "bitcoin", "usd"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.FetchCurrentPrice(ctx, "missing", "usd"); err == nil {
		t.Fatal("expected error for unknown asset")
	}

	if got := testutil.ToFloat64(rec.fetches.WithLabelValues("price")); got != 2 {
		t.Errorf("expected 2 price fetches, got %v", got)
	}
	if got := testutil.ToFloat64(rec.fetchFailures.WithLabelValues("price", "no_data")); got != 1 {
		t.Errorf("expected 1 no_data failure, got %v", got)
	}
	if f.Name() != "mock" {
		t.Errorf("expected wrapped name, got %q", f.Name())
	}
}

func TestRecordTick(t *testing.T) {
	rec := New()
	rec.RecordTick("usd", model.TickResult{Seq: 1, Latest: map[string]float64{"bitcoin": 42000}})
	rec.RecordTick("usd", model.TickResult{Seq: 2, Latest: map[string]float64{"bitcoin": 42100}})

	if got := testutil.ToFloat64(rec.ticks); got != 2 {
		t.Errorf("expected 2 ticks, got %v", got)
	}
	if got := testutil.ToFloat64(rec.lastPrice.WithLabelValues("bitcoin", "usd")); got != 42100 {
		t.Errorf("expected last price 42100, got %v", got)
	}
}

func TestHandler_Exposition(t *testing.T) {
	rec := New()
	rec.RecordTick("usd", model.TickResult{Latest: map[string]float64{"ethereum": 2000}})

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), `coindash_last_price{asset="ethereum",currency="usd"} 2000`) {
		t.Errorf("gauge missing from exposition:\n%s", body)
	}
}

func TestNew_Independent(t *testing.T) {
	// Separate registries must not collide on registration.
	New()
	New()
}
