package calculator

import "testing"

func TestRSISeries_WarmUp(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	rsi := RSISeries(closes, 14)
	for i := 0; i < 14; i++ {
		if rsi[i].Valid {
			t.Errorf("RSI[%d] should be missing", i)
		}
	}
	// Strictly rising closes have no losses.
	for i := 14; i < len(closes); i++ {
		if !rsi[i].Valid || rsi[i].Value != 100 {
			t.Errorf("RSI[%d]: expected 100, got %+v", i, rsi[i])
		}
	}
}

func TestCalculateRSI_Insufficient(t *testing.T) {
	got, err := CalculateRSI([]float64{1, 2, 3}, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 50 {
		t.Errorf("expected default 50, got %.2f", got)
	}
	if _, err := CalculateRSI([]float64{1, 2, 3}, 0); err == nil {
		t.Error("expected error for non-positive period")
	}
}

func TestCalculateRSI_Mixed(t *testing.T) {
	closes := []float64{44, 44.5, 44, 44.5, 44, 44.5, 44, 44.5, 44, 44.5, 44, 44.5, 44, 44.5, 44}
	got, err := CalculateRSI(closes, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 7 gains and 7 losses of equal size.
	assertClose(t, "RSI", got, 50, 1e-9)
}
