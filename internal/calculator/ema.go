package calculator

import "CoinDash/internal/model"

// EMAAlpha returns the smoothing factor for a span: 2/(span+1).
func EMAAlpha(span int) float64 {
	return 2.0 / float64(span+1)
}

// ExponentialMovingAverage returns the recursively smoothed series seeded
// with the first observation: EMA[0] = closes[0] and
// EMA[i] = alpha*closes[i] + (1-alpha)*EMA[i-1]. Every index is defined.
func ExponentialMovingAverage(closes []float64, span int) []model.Float {
	out := make([]model.Float, len(closes))
	if len(closes) == 0 || span <= 0 {
		return out
	}
	alpha := EMAAlpha(span)
	ema := closes[0]
	out[0] = model.Some(ema)
	for i := 1; i < len(closes); i++ {
		ema = alpha*closes[i] + (1-alpha)*ema
		out[i] = model.Some(ema)
	}
	return out
}
