package recorder

import (
	"time"

	"CoinDash/internal/model"
)

// TickRecord holds one live polling tick.
type TickRecord struct {
	Session string
	Seq     int
	At      time.Time
	Samples map[string]float64 // asset -> price appended this tick
	Failed  []model.TickFailure
}

// FetchRecord holds the outcome of one historical fetch.
type FetchRecord struct {
	Session  string
	Asset    string
	Currency string
	Days     int
	Class    string // "ok" or a failure class
	Candles  int
}

// Stats summarizes the session journal.
type Stats struct {
	Ticks         int            `json:"ticks"`
	Samples       int            `json:"samples"`
	TickFailures  map[string]int `json:"tick_failures"`
	Fetches       int            `json:"fetches"`
	FetchFailures map[string]int `json:"fetch_failures"`
}

// Recorder journals session activity for the lifetime of the process.
type Recorder interface {
	RecordTick(rec *TickRecord) error
	RecordFetch(rec *FetchRecord) error
	Stats() (*Stats, error)
	Close() error
}

// FetchRecordOf builds the journal entry for one historical fetch outcome.
func FetchRecordOf(session, currency string, days int, r model.HistoryResult, class string) *FetchRecord {
	rec := &FetchRecord{
		Session:  session,
		Asset:    r.Asset,
		Currency: currency,
		Days:     days,
		Class:    class,
	}
	if r.Series != nil {
		rec.Candles = len(r.Series.Candles)
	}
	return rec
}
