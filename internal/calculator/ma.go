package calculator

import (
	"errors"

	"CoinDash/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// MovingAverage returns the trailing simple moving average series.
// MA[i] is the mean of closes[i-window+1..i] and is missing for i < window-1.
func MovingAverage(closes []float64, window int) []model.Float {
	out := make([]model.Float, len(closes))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(closes); i++ {
		sum := 0.0
		for _, c := range closes[i-window+1 : i+1] {
			sum += c
		}
		out[i] = model.Some(sum / float64(window))
	}
	return out
}

func extractCloses(candles []model.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
