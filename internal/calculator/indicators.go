package calculator

import "CoinDash/internal/model"

// Kind identifies an indicator family.
type Kind int

const (
	KindMA Kind = iota
	KindEMA
	KindRSI
)

// Indicator is one configured indicator instance.
type Indicator struct {
	Name   string
	Kind   Kind
	Period int // window for MA, span for EMA, lookback for RSI
}

// Indicators lists every supported instance in canonical column order.
var Indicators = []Indicator{
	{Name: "MA7", Kind: KindMA, Period: 7},
	{Name: "MA25", Kind: KindMA, Period: 25},
	{Name: "EMA12", Kind: KindEMA, Period: 12},
	{Name: "EMA26", Kind: KindEMA, Period: 26},
	{Name: "RSI14", Kind: KindRSI, Period: 14},
}

// Toggles enables indicator families.
type Toggles struct {
	MA  bool `json:"ma"`
	EMA bool `json:"ema"`
	RSI bool `json:"rsi"`
}

// Enabled reports whether the family of ind is switched on.
func (t Toggles) Enabled(ind Indicator) bool {
	switch ind.Kind {
	case KindMA:
		return t.MA
	case KindEMA:
		return t.EMA
	case KindRSI:
		return t.RSI
	}
	return false
}

// EnabledNames returns the enabled indicator names in canonical order.
func (t Toggles) EnabledNames() []string {
	var names []string
	for _, ind := range Indicators {
		if t.Enabled(ind) {
			names = append(names, ind.Name)
		}
	}
	return names
}

// Lookup returns the indicator with the given name.
func Lookup(name string) (Indicator, bool) {
	for _, ind := range Indicators {
		if ind.Name == name {
			return ind, true
		}
	}
	return Indicator{}, false
}

// Series computes ind over closes.
func (ind Indicator) Series(closes []float64) model.IndicatorSeries {
	var values []model.Float
	switch ind.Kind {
	case KindMA:
		values = MovingAverage(closes, ind.Period)
	case KindEMA:
		values = ExponentialMovingAverage(closes, ind.Period)
	case KindRSI:
		values = RSISeries(closes, ind.Period)
	}
	return model.IndicatorSeries{Name: ind.Name, Values: values}
}

// Compute runs every enabled indicator over closes. Disabled indicators are
// not computed at all. The returned names follow canonical order.
func Compute(closes []float64, toggles Toggles) (map[string]model.IndicatorSeries, []string) {
	out := make(map[string]model.IndicatorSeries)
	names := toggles.EnabledNames()
	for _, name := range names {
		ind, _ := Lookup(name)
		out[name] = ind.Series(closes)
	}
	return out, names
}
