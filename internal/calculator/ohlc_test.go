package calculator

import (
	"testing"
	"time"

	"CoinDash/internal/model"
)

func TestSynthesizeOHLC_FirstIndexMissing(t *testing.T) {
	out := SynthesizeOHLC([]float64{100, 105, 98})
	if out.Open[0].Valid || out.High[0].Valid || out.Low[0].Valid {
		t.Fatalf("expected open/high/low missing at index 0, got %+v %+v %+v", out.Open[0], out.High[0], out.Low[0])
	}
	if out.Close[0] != 100 {
		t.Errorf("close[0]: expected 100, got %.2f", out.Close[0])
	}
}

func TestSynthesizeOHLC_TwoSampleWindow(t *testing.T) {
	prices := []float64{100, 105, 98, 98, 120}
	out := SynthesizeOHLC(prices)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if out.Open[i] != model.Some(prev) {
			t.Errorf("open[%d]: expected %.2f, got %+v", i, prev, out.Open[i])
		}
		if out.Close[i] != cur {
			t.Errorf("close[%d]: expected %.2f, got %.2f", i, cur, out.Close[i])
		}
		if out.High[i] != model.Some(max(prev, cur)) {
			t.Errorf("high[%d]: expected %.2f, got %+v", i, max(prev, cur), out.High[i])
		}
		if out.Low[i] != model.Some(min(prev, cur)) {
			t.Errorf("low[%d]: expected %.2f, got %+v", i, min(prev, cur), out.Low[i])
		}
		// low <= open,close <= high
		if out.Low[i].Value > out.Open[i].Value || out.Open[i].Value > out.High[i].Value ||
			out.Low[i].Value > out.Close[i] || out.Close[i] > out.High[i].Value {
			t.Errorf("index %d violates low <= open,close <= high", i)
		}
	}
}

func TestSynthesizeOHLC_Empty(t *testing.T) {
	out := SynthesizeOHLC(nil)
	if len(out.Open) != 0 || len(out.High) != 0 || len(out.Low) != 0 || len(out.Close) != 0 {
		t.Fatalf("expected empty output, got %+v", out)
	}
}

func TestBuildCandles_PositionalVolume(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := []model.PricePoint{
		{Time: base, Price: 10},
		{Time: base.Add(time.Hour), Price: 12},
		{Time: base.Add(2 * time.Hour), Price: 11},
	}
	// Timestamps deliberately disagree with the price series.
	volumes := []model.VolumePoint{
		{Time: base.Add(30 * time.Minute), Volume: 1000},
		{Time: base.Add(90 * time.Minute), Volume: 2000},
	}
	candles := BuildCandles(prices, volumes)
	if len(candles) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(candles))
	}
	if candles[0].Volume != model.Some(1000) || candles[1].Volume != model.Some(2000) {
		t.Errorf("volume not aligned by position: %+v %+v", candles[0].Volume, candles[1].Volume)
	}
	if candles[2].Volume.Valid {
		t.Errorf("expected missing volume past end of volume series, got %+v", candles[2].Volume)
	}
	if !candles[1].Time.Equal(prices[1].Time) {
		t.Errorf("candle time should come from price series")
	}
	if candles[2].High != model.Some(12) || candles[2].Low != model.Some(11) {
		t.Errorf("unexpected high/low: %+v %+v", candles[2].High, candles[2].Low)
	}
}
