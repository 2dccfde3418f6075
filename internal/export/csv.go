package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"CoinDash/internal/calculator"
	"CoinDash/internal/model"
)

var historicalHeader = []string{"time", "open", "high", "low", "close", "volume"}

// WriteHistoricalCSV writes one row per candle: time, open, high, low,
// close, volume, then one column per enabled indicator. Missing values are
// empty fields.
func WriteHistoricalCSV(w io.Writer, s *model.HistoricalSeries) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, historicalHeader...), s.Enabled...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(header))
	for i, c := range s.Candles {
		row[0] = c.Time.UTC().Format(time.RFC3339Nano)
		row[1] = formatFloat(c.Open)
		row[2] = formatFloat(c.High)
		row[3] = formatFloat(c.Low)
		row[4] = strconv.FormatFloat(c.Close, 'g', -1, 64)
		row[5] = formatFloat(c.Volume)
		for j, name := range s.Enabled {
			var v model.Float
			if vals := s.Indicators[name].Values; i < len(vals) {
				v = vals[i]
			}
			row[len(historicalHeader)+j] = formatFloat(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadHistoricalCSV parses a file written by WriteHistoricalCSV. Indicator
// columns are recognised by name; unknown columns are rejected.
func ReadHistoricalCSV(r io.Reader, asset string) (*model.HistoricalSeries, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: missing header")
	}
	header := records[0]
	if len(header) < len(historicalHeader) {
		return nil, fmt.Errorf("read csv: header has %d columns, want at least %d", len(header), len(historicalHeader))
	}
	for i, h := range historicalHeader {
		if header[i] != h {
			return nil, fmt.Errorf("read csv: column %d is %q, want %q", i, header[i], h)
		}
	}
	enabled := header[len(historicalHeader):]
	for _, name := range enabled {
		if _, ok := calculator.Lookup(name); !ok {
			return nil, fmt.Errorf("read csv: unknown indicator column %q", name)
		}
	}

	s := &model.HistoricalSeries{
		Asset:      asset,
		Candles:    make([]model.Candle, 0, len(records)-1),
		Indicators: make(map[string]model.IndicatorSeries, len(enabled)),
		Enabled:    append([]string{}, enabled...),
	}
	for _, name := range enabled {
		s.Indicators[name] = model.IndicatorSeries{Name: name, Values: make([]model.Float, 0, len(records)-1)}
	}

	for n, rec := range records[1:] {
		line := n + 2
		ts, err := time.Parse(time.RFC3339Nano, rec[0])
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: time: %w", line, err)
		}
		var c model.Candle
		c.Time = ts
		fields := []*model.Float{&c.Open, &c.High, &c.Low, nil, &c.Volume}
		for i, dst := range fields {
			col := i + 1
			if dst == nil {
				c.Close, err = strconv.ParseFloat(rec[col], 64)
				if err != nil {
					return nil, fmt.Errorf("read csv line %d: close: %w", line, err)
				}
				continue
			}
			if *dst, err = parseFloat(rec[col]); err != nil {
				return nil, fmt.Errorf("read csv line %d: %s: %w", line, header[col], err)
			}
		}
		s.Candles = append(s.Candles, c)

		for j, name := range enabled {
			v, err := parseFloat(rec[len(historicalHeader)+j])
			if err != nil {
				return nil, fmt.Errorf("read csv line %d: %s: %w", line, name, err)
			}
			ind := s.Indicators[name]
			ind.Values = append(ind.Values, v)
			s.Indicators[name] = ind
		}
	}
	return s, nil
}

// WriteLiveCSV writes an asset's live buffer as time, price rows.
func WriteLiveCSV(w io.Writer, points []model.PricePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "price"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range points {
		if err := cw.Write([]string{
			p.Time.UTC().Format(time.RFC3339Nano),
			strconv.FormatFloat(p.Price, 'g', -1, 64),
		}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f model.Float) string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}

func parseFloat(s string) (model.Float, error) {
	if s == "" {
		return model.Missing, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Missing, err
	}
	return model.Some(v), nil
}
