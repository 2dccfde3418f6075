package recorder

import (
	"errors"
	"testing"
	"time"

	"CoinDash/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder()
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_Ticks(t *testing.T) {
	r := newTestRecorder(t)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := r.RecordTick(&TickRecord{
		Session: "s1",
		Seq:     1,
		At:      at,
		Samples: map[string]float64{"bitcoin": 42000, "ethereum": 2200},
	})
	if err != nil {
		t.Fatalf("record tick: %v", err)
	}
	err = r.RecordTick(&TickRecord{
		Session: "s1",
		Seq:     2,
		At:      at.Add(3 * time.Second),
		Samples: map[string]float64{"bitcoin": 42010},
		Failed: []model.TickFailure{
			{Asset: "ethereum", Class: "unavailable", Err: errors.New("boom")},
		},
	})
	if err != nil {
		t.Fatalf("record tick: %v", err)
	}

	st, err := r.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Ticks != 2 {
		t.Errorf("expected 2 ticks, got %d", st.Ticks)
	}
	if st.Samples != 3 {
		t.Errorf("expected 3 samples, got %d", st.Samples)
	}
	if st.TickFailures["unavailable"] != 1 {
		t.Errorf("expected 1 unavailable failure, got %v", st.TickFailures)
	}
}

func TestSQLiteRecorder_Fetches(t *testing.T) {
	r := newTestRecorder(t)
	records := []FetchRecord{
		{Session: "s1", Asset: "bitcoin", Currency: "usd", Days: 7, Class: "ok", Candles: 168},
		{Session: "s1", Asset: "nope", Currency: "usd", Days: 7, Class: "no_data"},
		{Session: "s1", Asset: "eth", Currency: "usd", Days: 7, Class: "malformed"},
	}
	for i := range records {
		if err := r.RecordFetch(&records[i]); err != nil {
			t.Fatalf("record fetch: %v", err)
		}
	}

	st, err := r.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Fetches != 3 {
		t.Errorf("expected 3 fetches, got %d", st.Fetches)
	}
	if len(st.FetchFailures) != 2 || st.FetchFailures["no_data"] != 1 || st.FetchFailures["malformed"] != 1 {
		t.Errorf("unexpected fetch failures %v", st.FetchFailures)
	}
}

func TestSQLiteRecorder_Isolated(t *testing.T) {
	a := newTestRecorder(t)
	b := newTestRecorder(t)
	if err := a.RecordTick(&TickRecord{Session: "a", Seq: 1, At: time.Now()}); err != nil {
		t.Fatalf("record tick: %v", err)
	}
	st, err := b.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Ticks != 0 {
		t.Errorf("expected separate journals, second saw %d ticks", st.Ticks)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordTick(&TickRecord{}); err != nil {
		t.Fatal(err)
	}
	st, err := r.Stats()
	if err != nil || st.Ticks != 0 {
		t.Fatalf("unexpected stats %+v, %v", st, err)
	}
}
