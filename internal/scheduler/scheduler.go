package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CoinDash/internal/live"
	"CoinDash/internal/model"
	"CoinDash/internal/recorder"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// TickHandler receives every tick result, in order, on the polling goroutine.
type TickHandler func(res model.TickResult)

// Poller drives a live.Aggregator on a fixed interval until it is stopped,
// its context is cancelled, or its tick budget is spent. Ticks never overlap.
type Poller struct {
	Cron       *cron.Cron
	Aggregator *live.Aggregator
	Recorder   recorder.Recorder
	Interval   time.Duration
	// MaxTicks stops polling after that many ticks; 0 polls until stopped.
	MaxTicks int

	handlers []TickHandler
	job      cron.Job

	ctx    context.Context
	cancel context.CancelFunc

	runMu    sync.Mutex // held while a tick runs
	mu       sync.Mutex
	ticks    int
	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

// NewPoller creates a new Poller.
func NewPoller(agg *live.Aggregator, rec recorder.Recorder, interval time.Duration, maxTicks int) *Poller {
	logger := cron.PrintfLogger(&log.Logger)
	p := &Poller{
		Cron:       cron.New(cron.WithSeconds(), cron.WithLogger(logger)),
		Aggregator: agg,
		Recorder:   rec,
		Interval:   interval,
		MaxTicks:   maxTicks,
		done:       make(chan struct{}),
	}
	p.job = cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(p.tick))
	return p
}

// OnTick registers a handler. Handlers must be registered before Start.
func (p *Poller) OnTick(h TickHandler) {
	p.handlers = append(p.handlers, h)
}

// Start schedules polling and runs the first tick immediately. Cancelling
// ctx stops the poller.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("poller already started")
	}
	if p.Interval < time.Second {
		return fmt.Errorf("poll interval %s below 1s", p.Interval)
	}
	p.started = true
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.Cron.Schedule(cron.Every(p.Interval), p.job)
	p.Cron.Start()
	go p.job.Run()
	go func() {
		<-p.ctx.Done()
		p.Stop()
	}()

	log.Info().
		Str("session", p.Aggregator.SessionID).
		Dur("interval", p.Interval).
		Int("max_ticks", p.MaxTicks).
		Strs("assets", p.Aggregator.Assets()).
		Msg("live polling started")
	return nil
}

// Stop halts polling. A tick already running completes; Done is closed
// afterwards. Stop is safe to call more than once and from a TickHandler.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		if p.cancel != nil {
			p.cancel()
		}
		p.mu.Unlock()
		stopped := p.Cron.Stop()
		go func() {
			<-stopped.Done()
			p.runMu.Lock()
			p.runMu.Unlock()
			close(p.done)
			log.Info().Str("session", p.Aggregator.SessionID).Int("ticks", p.Ticks()).Msg("live polling stopped")
		}()
	})
}

// Done is closed once polling has fully stopped.
func (p *Poller) Done() <-chan struct{} { return p.done }

// Ticks returns the number of ticks run by this poller.
func (p *Poller) Ticks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks
}

// RunOnce performs a single tick outside the schedule, for manual refresh.
func (p *Poller) RunOnce(ctx context.Context) model.TickResult {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.execute(ctx)
}

func (p *Poller) tick() {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	if p.ctx.Err() != nil {
		return
	}
	p.execute(p.ctx)

	p.mu.Lock()
	p.ticks++
	exhausted := p.MaxTicks > 0 && p.ticks >= p.MaxTicks
	p.mu.Unlock()
	if exhausted {
		log.Info().Int("ticks", p.MaxTicks).Msg("tick budget spent")
		p.Stop()
	}
}

func (p *Poller) execute(ctx context.Context) model.TickResult {
	res := p.Aggregator.Tick(ctx)

	if p.Recorder != nil {
		if err := p.Recorder.RecordTick(&recorder.TickRecord{
			Session: p.Aggregator.SessionID,
			Seq:     res.Seq,
			At:      res.At,
			Samples: res.Latest,
			Failed:  res.Failed,
		}); err != nil {
			log.Error().Err(err).Msg("record tick")
		}
	}
	for _, h := range p.handlers {
		h(res)
	}
	return res
}
