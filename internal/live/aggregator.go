// Package live keeps per-asset price buffers for a polling session and
// derives the time-aligned multi-asset table after every tick.
package live

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"CoinDash/internal/collector"
	"CoinDash/internal/model"

	"github.com/rs/zerolog/log"
)

// Aggregator owns one LiveBuffer per tracked asset for the lifetime of a
// session. Buffers start empty, are append-only and are never reset.
type Aggregator struct {
	SessionID string
	Currency  string
	Source    collector.PriceSource

	assets []string
	// retention caps each buffer to its most recent samples; 0 keeps all.
	retention int
	now       func() time.Time

	mu      sync.RWMutex
	buffers map[string][]model.PricePoint
	seq     int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithRetention caps each buffer to the most recent n samples.
func WithRetention(n int) Option {
	return func(a *Aggregator) { a.retention = n }
}

// WithClock overrides the tick clock.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an aggregator tracking assets in display order.
func NewAggregator(sessionID, currency string, assets []string, source collector.PriceSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		SessionID: sessionID,
		Currency:  currency,
		Source:    source,
		assets:    slices.Clone(assets),
		now:       time.Now,
		buffers:   make(map[string][]model.PricePoint, len(assets)),
	}
	for _, id := range assets {
		a.buffers[id] = nil
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assets returns the tracked assets in display order.
func (a *Aggregator) Assets() []string { return slices.Clone(a.assets) }

// Tick polls every tracked asset once, in order, and rebuilds the table.
// All samples of a tick share the instant the tick started. An asset whose
// fetch fails, or that reports no (zero) price, is skipped for this tick.
func (a *Aggregator) Tick(ctx context.Context) model.TickResult {
	at := a.now()
	latest := make(map[string]float64)
	var failed []model.TickFailure

	for _, id := range a.assets {
		price, err := a.Source.FetchCurrentPrice(ctx, id, a.Currency)
		if err == nil && price == 0 {
			err = fmt.Errorf("live price [%s]: zero price: %w", id, collector.ErrNoData)
		}
		if err != nil {
			class := collector.Classify(err)
			log.Warn().Err(err).Str("session", a.SessionID).Str("asset", id).Str("class", class).Msg("live price unavailable, skipping asset")
			failed = append(failed, model.TickFailure{Asset: id, Class: class, Err: err})
			continue
		}
		if err := a.Append(id, model.PricePoint{Time: at, Price: price}); err != nil {
			log.Warn().Err(err).Str("asset", id).Msg("live sample rejected")
			failed = append(failed, model.TickFailure{Asset: id, Class: "rejected", Err: err})
			continue
		}
		latest[id] = price
	}

	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	return model.TickResult{
		Seq:    seq,
		At:     at,
		Table:  a.Table(),
		Latest: latest,
		Failed: failed,
	}
}

// Append adds a sample to an asset's buffer. Samples must be strictly
// later than the buffer's last one.
func (a *Aggregator) Append(asset string, p model.PricePoint) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf, ok := a.buffers[asset]
	if !ok {
		return fmt.Errorf("append [%s]: asset not tracked", asset)
	}
	if n := len(buf); n > 0 && !p.Time.After(buf[n-1].Time) {
		return fmt.Errorf("append [%s]: sample at %s not after last sample at %s",
			asset, p.Time.Format(time.RFC3339Nano), buf[n-1].Time.Format(time.RFC3339Nano))
	}
	buf = append(buf, p)
	if a.retention > 0 && len(buf) > a.retention {
		buf = slices.Clone(buf[len(buf)-a.retention:])
	}
	a.buffers[asset] = buf
	return nil
}

// Table rebuilds the aligned table from the current buffers.
func (a *Aggregator) Table() model.AlignedLiveTable {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Align(a.assets, a.buffers)
}

// Buffer returns a copy of an asset's buffer.
func (a *Aggregator) Buffer(asset string) ([]model.PricePoint, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	buf, ok := a.buffers[asset]
	return slices.Clone(buf), ok
}

// Latest returns the most recent sample of an asset.
func (a *Aggregator) Latest(asset string) (model.PricePoint, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	buf := a.buffers[asset]
	if len(buf) == 0 {
		return model.PricePoint{}, false
	}
	return buf[len(buf)-1], true
}

// Ticks returns the number of completed ticks.
func (a *Aggregator) Ticks() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.seq
}
