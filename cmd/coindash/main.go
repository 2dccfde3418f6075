package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"CoinDash/internal/calculator"
	"CoinDash/internal/collector"
	"CoinDash/internal/config"
	"CoinDash/internal/live"
	"CoinDash/internal/logger"
	"CoinDash/internal/metrics"
	"CoinDash/internal/model"
	"CoinDash/internal/recorder"
	"CoinDash/internal/render"
	"CoinDash/internal/scheduler"
	"CoinDash/internal/server"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	if _, err := logger.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("init logger")
	}

	session := uuid.NewString()
	log.Info().Str("session", session).Msg("CoinDash starting...")

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Init data source
	cg := collector.NewCoinGeckoFetcher(cfg.Source.BaseURL, cfg.Proxy, cfg.Source.PriceTimeout, cfg.Source.HistoryTimeout)
	cg.UserAgent = cfg.Source.UserAgent
	mr := metrics.New()
	src := metrics.WrapFetcher(cg, mr)
	log.Info().Str("source", src.Name()).Str("base_url", cg.BaseURL).Msg("data source ready")

	// Resolve selection
	catalog := collector.NewCatalog(src)
	assets := resolveAssets(ctx, catalog, cfg.Dashboard.Coins)
	if len(assets) == 0 {
		log.Fatal().Strs("coins", cfg.Dashboard.Coins).Msg("no selected coin could be resolved")
	}
	labels := catalog.Labels(ctx, assets)
	currency := cfg.Dashboard.Currency

	// Init journal
	var journal recorder.Recorder
	if cfg.Journal.Enabled {
		sr, err := recorder.NewSQLiteRecorder()
		if err != nil {
			log.Warn().Err(err).Msg("init journal failed, using noop")
			journal = recorder.NewNoopRecorder()
		} else {
			journal = sr
		}
	} else {
		journal = recorder.NewNoopRecorder()
	}
	defer journal.Close()

	toggles := calculator.Toggles{
		MA:  cfg.Dashboard.Indicators.MA,
		EMA: cfg.Dashboard.Indicators.EMA,
		RSI: cfg.Dashboard.Indicators.RSI,
	}

	// Historical render
	col := collector.NewCollector(src)
	results := col.CollectHistory(ctx, collector.HistoryRequest{
		Assets:   assets,
		Currency: currency,
		Days:     cfg.Dashboard.Days,
		Toggles:  toggles,
	})
	for _, r := range results {
		rec := recorder.FetchRecordOf(session, currency, cfg.Dashboard.Days, r, collector.Classify(r.Err))
		if err := journal.RecordFetch(rec); err != nil {
			log.Error().Err(err).Msg("record fetch")
		}
	}
	fmt.Println(render.FormatHistorySummary(results, cfg.Dashboard.Indicators.Volume))

	hub := server.NewHub()

	// Live polling
	var (
		agg    *live.Aggregator
		poller *scheduler.Poller
		done   <-chan struct{}
	)
	if cfg.Live.Enabled {
		agg = live.NewAggregator(session, currency, assets, src, live.WithRetention(cfg.Live.Retention))
		poller = scheduler.NewPoller(agg, journal, cfg.Live.Interval, cfg.Live.MaxTicks)
		poller.OnTick(func(res model.TickResult) {
			mr.RecordTick(currency, res)
			fmt.Print(render.FormatLiveTick(res, currency, labels))
		})
		poller.OnTick(hub.Broadcast)
	}

	// HTTP surface
	var srv *server.Server
	if cfg.Server.Addr != "" {
		deps := server.Deps{
			SessionID:  session,
			Currency:   currency,
			Days:       cfg.Dashboard.Days,
			Toggles:    toggles,
			ShowVolume: cfg.Dashboard.Indicators.Volume,
			Catalog:    catalog,
			Collector:  col,
			Aggregator: agg,
			Journal:    journal,
			Metrics:    mr,
			Hub:        hub,
		}
		if poller != nil {
			deps.Refresher = poller
		}
		srv = server.New(cfg.Server.Addr, deps)
		srv.Start()
	}

	if poller != nil {
		if err := poller.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("start live polling")
		}
		done = poller.Done()
	}

	switch {
	case srv != nil:
		log.Info().Msg("CoinDash is running. Press Ctrl+C to stop.")
		<-ctx.Done()
	case done != nil:
		select {
		case <-ctx.Done():
		case <-done:
		}
	}

	log.Info().Msg("shutdown signal received, stopping...")
	if poller != nil {
		poller.Stop()
		<-poller.Done()
		fmt.Print(render.FormatLiveTable(agg.Table()))
	}
	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}
	if st, err := journal.Stats(); err == nil {
		log.Info().
			Int("ticks", st.Ticks).
			Int("samples", st.Samples).
			Int("fetches", st.Fetches).
			Str("tick_failures", render.FormatJournal(st.TickFailures)).
			Str("fetch_failures", render.FormatJournal(st.FetchFailures)).
			Msg("session journal")
	}
	log.Info().Msg("CoinDash stopped")
}

// resolveAssets maps configured coin entries to asset ids. When the catalog
// cannot be loaded the entries are used as ids.
func resolveAssets(ctx context.Context, catalog *collector.Catalog, coins []string) []string {
	if catalog.Load(ctx) > 0 {
		return catalog.ResolveAll(ctx, coins)
	}
	log.Warn().Msg("coin catalog unavailable, using configured coins as ids")
	ids := make([]string, 0, len(coins))
	seen := make(map[string]bool)
	for _, c := range coins {
		id := strings.ToLower(strings.TrimSpace(c))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
