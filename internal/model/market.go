package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Float is a numeric cell that may be absent, e.g. the open of the first
// candle or a moving average before its window fills.
type Float struct {
	Value float64
	Valid bool
}

// Some returns a present value.
func Some(v float64) Float { return Float{Value: v, Valid: true} }

// Missing is the absent value.
var Missing = Float{}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Missing
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Some(v)
	return nil
}

// PricePoint is a single price sample produced by the data source.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// VolumePoint is a single volume sample. It pairs with the PricePoint at the
// same index, not the one with the same timestamp.
type VolumePoint struct {
	Time   time.Time `json:"time"`
	Volume float64   `json:"volume"`
}

// Candle is one synthesized OHLCV record.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   Float     `json:"open"`
	High   Float     `json:"high"`
	Low    Float     `json:"low"`
	Close  float64   `json:"close"`
	Volume Float     `json:"volume"`
}

// MarketChart is the raw historical payload for one asset.
type MarketChart struct {
	Prices  []PricePoint
	Volumes []VolumePoint
}

// Coin is one catalog entry.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Label is the human-readable selection label, e.g. "Bitcoin (BTC)".
func (c Coin) Label() string {
	return c.Name + " (" + strings.ToUpper(c.Symbol) + ")"
}
