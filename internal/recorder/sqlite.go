package recorder

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// MemoryDSN names a private in-memory database. Nothing outlives the process.
const MemoryDSN = ":memory:"

// SQLiteRecorder journals ticks and fetches into an in-memory SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens the in-memory journal and runs migrations.
func NewSQLiteRecorder() (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", MemoryDSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Each connection to a memory database is a separate database.
	db.SetMaxOpenConns(1)

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Msg("in-memory journal opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS live_ticks (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			session   TEXT NOT NULL,
			seq       INTEGER NOT NULL,
			timestamp INTEGER NOT NULL,
			sampled   INTEGER,
			failed    INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS live_samples (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			session   TEXT NOT NULL,
			asset     TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			price     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_asset ON live_samples(asset, timestamp)`,

		`CREATE TABLE IF NOT EXISTS tick_failures (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			session   TEXT NOT NULL,
			asset     TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			class     TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS fetch_log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			session   TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			asset     TEXT NOT NULL,
			currency  TEXT,
			days      INTEGER,
			class     TEXT,
			candles   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_ts ON fetch_log(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTick(rec *TickRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ts := rec.At.UnixNano()
	if _, err := tx.Exec(`INSERT INTO live_ticks (session, seq, timestamp, sampled, failed) VALUES (?,?,?,?,?)`,
		rec.Session, rec.Seq, ts, len(rec.Samples), len(rec.Failed)); err != nil {
		return fmt.Errorf("insert tick: %w", err)
	}

	assets := make([]string, 0, len(rec.Samples))
	for a := range rec.Samples {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	for _, a := range assets {
		if _, err := tx.Exec(`INSERT INTO live_samples (session, asset, timestamp, price) VALUES (?,?,?,?)`,
			rec.Session, a, ts, rec.Samples[a]); err != nil {
			return fmt.Errorf("insert sample: %w", err)
		}
	}
	for _, f := range rec.Failed {
		if _, err := tx.Exec(`INSERT INTO tick_failures (session, asset, timestamp, class) VALUES (?,?,?,?)`,
			rec.Session, f.Asset, ts, f.Class); err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordFetch(rec *FetchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fetch_log
		(session, timestamp, asset, currency, days, class, candles)
		VALUES (?,?,?,?,?,?,?)`,
		rec.Session, time.Now().UnixNano(), rec.Asset, rec.Currency, rec.Days, rec.Class, rec.Candles,
	)
	return err
}

func (r *SQLiteRecorder) Stats() (*Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := &Stats{TickFailures: map[string]int{}, FetchFailures: map[string]int{}}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM live_ticks`).Scan(&st.Ticks); err != nil {
		return nil, fmt.Errorf("count ticks: %w", err)
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM live_samples`).Scan(&st.Samples); err != nil {
		return nil, fmt.Errorf("count samples: %w", err)
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM fetch_log`).Scan(&st.Fetches); err != nil {
		return nil, fmt.Errorf("count fetches: %w", err)
	}
	if err := r.countBy(`SELECT class, COUNT(*) FROM tick_failures GROUP BY class`, st.TickFailures); err != nil {
		return nil, err
	}
	if err := r.countBy(`SELECT class, COUNT(*) FROM fetch_log WHERE class != 'ok' GROUP BY class`, st.FetchFailures); err != nil {
		return nil, err
	}
	return st, nil
}

func (r *SQLiteRecorder) countBy(query string, into map[string]int) error {
	rows, err := r.db.Query(query)
	if err != nil {
		return fmt.Errorf("query %q: %w", query, err)
	}
	defer rows.Close()
	for rows.Next() {
		var class string
		var n int
		if err := rows.Scan(&class, &n); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		into[class] = n
	}
	return rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing in-memory journal")
	return r.db.Close()
}
