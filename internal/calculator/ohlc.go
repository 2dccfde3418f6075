package calculator

import "CoinDash/internal/model"

// OHLC holds parallel open/high/low/close sequences of equal length.
type OHLC struct {
	Open  []model.Float
	High  []model.Float
	Low   []model.Float
	Close []float64
}

// SynthesizeOHLC derives candles from a raw price sequence.
//
// The close is the sample itself and the open is the previous sample. High
// and low are the max/min over the two-sample window {price[i-1], price[i]},
// so they are a one-sided approximation, not intrabar extremes. Open, high
// and low are missing at index 0.
func SynthesizeOHLC(prices []float64) OHLC {
	n := len(prices)
	out := OHLC{
		Open:  make([]model.Float, n),
		High:  make([]model.Float, n),
		Low:   make([]model.Float, n),
		Close: make([]float64, n),
	}
	for i, p := range prices {
		out.Close[i] = p
		if i == 0 {
			continue
		}
		prev := prices[i-1]
		out.Open[i] = model.Some(prev)
		out.High[i] = model.Some(max(prev, p))
		out.Low[i] = model.Some(min(prev, p))
	}
	return out
}

// BuildCandles runs the synthesizer over prices and attaches volumes by
// position. Volumes beyond the end of the volume series are missing.
func BuildCandles(prices []model.PricePoint, volumes []model.VolumePoint) []model.Candle {
	raw := make([]float64, len(prices))
	for i, p := range prices {
		raw[i] = p.Price
	}
	ohlc := SynthesizeOHLC(raw)

	candles := make([]model.Candle, len(prices))
	for i, p := range prices {
		c := model.Candle{
			Time:  p.Time,
			Open:  ohlc.Open[i],
			High:  ohlc.High[i],
			Low:   ohlc.Low[i],
			Close: ohlc.Close[i],
		}
		if i < len(volumes) {
			c.Volume = model.Some(volumes[i].Volume)
		}
		candles[i] = c
	}
	return candles
}
