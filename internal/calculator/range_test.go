package calculator

import (
	"testing"
	"time"

	"CoinDash/internal/model"
)

func TestWindowRange(t *testing.T) {
	closes := []float64{5, 1, 9, 3, 4}
	h, l, err := WindowRange(closes, 0)
	if err != nil || h != 9 || l != 1 {
		t.Errorf("full window: got %.0f/%.0f err=%v", h, l, err)
	}
	h, l, _ = WindowRange(closes, 2)
	if h != 4 || l != 3 {
		t.Errorf("last 2: got %.0f/%.0f", h, l)
	}
	if _, _, err := WindowRange(nil, 0); err == nil {
		t.Error("expected error for empty closes")
	}
}

func TestRangePosition(t *testing.T) {
	tests := []struct {
		cur, high, low, want float64
	}{
		{150, 200, 100, 0.5},
		{250, 200, 100, 1},
		{50, 200, 100, 0},
		{100, 100, 100, 0.5},
	}
	for _, tt := range tests {
		got, err := RangePosition(tt.cur, tt.high, tt.low)
		if err != nil || got != tt.want {
			t.Errorf("RangePosition(%.0f,%.0f,%.0f) = %.2f, %v; want %.2f", tt.cur, tt.high, tt.low, got, err, tt.want)
		}
	}
	if _, err := RangePosition(1, 1, 2); err == nil {
		t.Error("expected error for high < low")
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := BuildCandles([]model.PricePoint{
		{Time: base, Price: 100},
		{Time: base.Add(time.Hour), Price: 120},
		{Time: base.Add(2 * time.Hour), Price: 110},
	}, nil)
	sum, err := Summarize("bitcoin", candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.LastClose != 110 || sum.High != 120 || sum.Low != 100 || sum.Samples != 3 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	assertClose(t, "change", sum.ChangePct, 10, 1e-9)
	assertClose(t, "position", sum.Position, 0.5, 1e-9)

	if _, err := Summarize("x", nil); err == nil {
		t.Error("expected error for empty candles")
	}
}
