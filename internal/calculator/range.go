package calculator

import (
	"errors"
	"math"

	"CoinDash/internal/model"
)

// WindowRange scans the most recent n closes and returns the high and low.
// n <= 0 scans the whole sequence.
func WindowRange(closes []float64, n int) (high, low float64, err error) {
	if len(closes) == 0 {
		return 0, 0, errors.New("no closes provided")
	}
	start := 0
	if n > 0 && len(closes) > n {
		start = len(closes) - n
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, c := range closes[start:] {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	return high, low, nil
}

// RangePosition returns where the current price sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// Summarize condenses candles into the figures shown next to a chart.
func Summarize(asset string, candles []model.Candle) (model.SeriesSummary, error) {
	closes := extractCloses(candles)
	high, low, err := WindowRange(closes, 0)
	if err != nil {
		return model.SeriesSummary{}, err
	}
	last := closes[len(closes)-1]
	pos, err := RangePosition(last, high, low)
	if err != nil {
		return model.SeriesSummary{}, err
	}
	sum := model.SeriesSummary{
		Asset:     asset,
		LastClose: last,
		High:      high,
		Low:       low,
		Position:  pos,
		Samples:   len(closes),
	}
	if first := closes[0]; first != 0 {
		sum.ChangePct = (last - first) / first * 100
	}
	return sum, nil
}
