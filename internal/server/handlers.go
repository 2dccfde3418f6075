package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"CoinDash/internal/calculator"
	"CoinDash/internal/collector"
	"CoinDash/internal/export"
	"CoinDash/internal/model"
	"CoinDash/internal/recorder"
	"CoinDash/internal/render"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const maxAssets = 5

type coinsQuery struct {
	Query string `query:"q"`
	Limit int    `query:"limit" default:"20" validate:"gte=1,lte=250"`
}

type historyQuery struct {
	Coins    string `query:"coins" validate:"required"`
	Currency string `query:"currency" validate:"omitempty,oneof=usd eur gbp jpy inr"`
	Days     int    `query:"days" validate:"omitempty,oneof=1 7 30 90 180 365"`
	MA       string `query:"ma" validate:"omitempty,boolean"`
	EMA      string `query:"ema" validate:"omitempty,boolean"`
	RSI      string `query:"rsi" validate:"omitempty,boolean"`
	Volume   string `query:"volume" validate:"omitempty,boolean"`
}

type exportQuery struct {
	ID       string `param:"id" validate:"required"`
	Currency string `query:"currency" validate:"omitempty,oneof=usd eur gbp jpy inr"`
	Days     int    `query:"days" validate:"omitempty,oneof=1 7 30 90 180 365"`
}

type coinView struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Label  string `json:"label"`
}

type seriesView struct {
	Asset   string                  `json:"asset"`
	Label   string                  `json:"label"`
	Logo    string                  `json:"logo,omitempty"`
	Summary model.SeriesSummary     `json:"summary"`
	Series  *model.HistoricalSeries `json:"series"`
}

type failureView struct {
	Asset string `json:"asset"`
	Class string `json:"class"`
}

type historyResponse struct {
	Currency string        `json:"currency"`
	Days     int           `json:"days"`
	Enabled  []string      `json:"enabled"`
	Series   []seriesView  `json:"series"`
	Failed   []failureView `json:"failed,omitempty"`
	Message  string        `json:"message,omitempty"`
}

type livePoint struct {
	Asset string    `json:"asset"`
	Label string    `json:"label"`
	Logo  string    `json:"logo,omitempty"`
	Price string    `json:"price"`
	Time  time.Time `json:"time"`
}

func (s *Server) health(c echo.Context) error {
	resp := map[string]any{"status": "ok", "session": s.deps.SessionID}
	if s.deps.Aggregator != nil {
		resp["assets"] = s.deps.Aggregator.Assets()
		resp["ticks"] = s.deps.Aggregator.Ticks()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) coins(c echo.Context) error {
	var q coinsQuery
	if errs := bindQuery(c, &q); errs != nil {
		return badRequest(c, errs)
	}
	out := []coinView{}
	if s.deps.Catalog != nil {
		for _, coin := range s.deps.Catalog.Search(c.Request().Context(), q.Query, q.Limit) {
			out = append(out, coinView{ID: coin.ID, Symbol: coin.Symbol, Name: coin.Name, Label: coin.Label()})
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) history(c echo.Context) error {
	var q historyQuery
	if errs := bindQuery(c, &q); errs != nil {
		return badRequest(c, errs)
	}
	if s.deps.Collector == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "historical data is not configured")
	}
	ctx := c.Request().Context()

	assets := s.resolve(c, q.Coins)
	if len(assets) > maxAssets {
		return badRequest(c, []ValidationError{{
			Code: "ERR_MAX", Field: "coins", Message: fmt.Sprintf("coins must be at most %d", maxAssets),
		}})
	}

	req := collector.HistoryRequest{
		Assets:   assets,
		Currency: firstNonEmpty(q.Currency, s.deps.Currency),
		Days:     q.Days,
		Toggles: calculator.Toggles{
			MA:  boolOr(q.MA, s.deps.Toggles.MA),
			EMA: boolOr(q.EMA, s.deps.Toggles.EMA),
			RSI: boolOr(q.RSI, s.deps.Toggles.RSI),
		},
	}
	if req.Days == 0 {
		req.Days = s.deps.Days
	}
	showVolume := boolOr(q.Volume, s.deps.ShowVolume)

	results := s.deps.Collector.CollectHistory(ctx, req)
	resp := historyResponse{
		Currency: req.Currency,
		Days:     req.Days,
		Enabled:  req.Toggles.EnabledNames(),
		Series:   []seriesView{},
	}
	for _, r := range results {
		s.journalFetch(r, req)
		if !r.OK() {
			resp.Failed = append(resp.Failed, failureView{Asset: r.Asset, Class: collector.Classify(r.Err)})
			continue
		}
		sum, err := calculator.Summarize(r.Asset, r.Series.Candles)
		if err != nil {
			resp.Failed = append(resp.Failed, failureView{Asset: r.Asset, Class: "no_data"})
			continue
		}
		series := r.Series
		if !showVolume {
			series = withoutVolume(series)
		}
		view := seriesView{Asset: r.Asset, Label: r.Asset, Series: series, Summary: sum}
		if s.deps.Catalog != nil {
			view.Label = s.deps.Catalog.Label(ctx, r.Asset)
			view.Logo = s.deps.Catalog.Logo(ctx, r.Asset)
		}
		resp.Series = append(resp.Series, view)
	}
	if len(resp.Series) == 0 {
		resp.Message = render.NoHistoryMessage
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) exportHistory(c echo.Context) error {
	var q exportQuery
	if errs := bindQuery(c, &q); errs != nil {
		return badRequest(c, errs)
	}
	if s.deps.Collector == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "historical data is not configured")
	}
	currency := firstNonEmpty(q.Currency, s.deps.Currency)
	days := q.Days
	if days == 0 {
		days = s.deps.Days
	}

	series, err := s.deps.Collector.Collect(c.Request().Context(), q.ID, currency, days, s.deps.Toggles)
	s.journalFetch(model.HistoryResult{Asset: q.ID, Series: series, Err: err},
		collector.HistoryRequest{Currency: currency, Days: days})
	if err != nil {
		return sourceError(err)
	}

	setAttachment(c, fmt.Sprintf("%s_%s_%dd.csv", q.ID, currency, days))
	return export.WriteHistoricalCSV(c.Response(), series)
}

func (s *Server) live(c echo.Context) error {
	agg := s.deps.Aggregator
	if agg == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "live polling is disabled")
	}
	ctx := c.Request().Context()

	points := []livePoint{}
	for _, asset := range agg.Assets() {
		p, ok := agg.Latest(asset)
		if !ok {
			continue
		}
		lp := livePoint{Asset: asset, Label: asset, Price: render.Price(p.Price), Time: p.Time}
		if s.deps.Catalog != nil {
			lp.Label = s.deps.Catalog.Label(ctx, asset)
			lp.Logo = s.deps.Catalog.Logo(ctx, asset)
		}
		points = append(points, lp)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"session":  agg.SessionID,
		"currency": agg.Currency,
		"ticks":    agg.Ticks(),
		"latest":   points,
		"table":    agg.Table(),
	})
}

func (s *Server) refresh(c echo.Context) error {
	if s.deps.Refresher == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "live polling is disabled")
	}
	return c.JSON(http.StatusOK, s.deps.Refresher.RunOnce(c.Request().Context()))
}

func (s *Server) exportLive(c echo.Context) error {
	if s.deps.Aggregator == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "live polling is disabled")
	}
	id := c.Param("id")
	buf, ok := s.deps.Aggregator.Buffer(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("asset %q is not tracked", id))
	}
	setAttachment(c, fmt.Sprintf("%s_live.csv", id))
	return export.WriteLiveCSV(c.Response(), buf)
}

func (s *Server) journal(c echo.Context) error {
	st, err := s.deps.Journal.Stats()
	if err != nil {
		log.Error().Err(err).Msg("journal stats")
		return echo.NewHTTPError(http.StatusInternalServerError, "journal unavailable")
	}
	return c.JSON(http.StatusOK, map[string]any{"session": s.deps.SessionID, "stats": st})
}

// resolve maps free-text coin entries to asset ids through the catalog.
// Without a catalog the entries are taken as ids.
func (s *Server) resolve(c echo.Context, coins string) []string {
	var texts []string
	for _, t := range strings.Split(coins, ",") {
		if t = strings.TrimSpace(t); t != "" {
			texts = append(texts, t)
		}
	}
	if s.deps.Catalog == nil {
		return texts
	}
	return s.deps.Catalog.ResolveAll(c.Request().Context(), texts)
}

func (s *Server) journalFetch(r model.HistoryResult, req collector.HistoryRequest) {
	rec := recorder.FetchRecordOf(s.deps.SessionID, req.Currency, req.Days, r, collector.Classify(r.Err))
	if err := s.deps.Journal.RecordFetch(rec); err != nil {
		log.Error().Err(err).Msg("record fetch")
	}
}

// withoutVolume returns a copy of s whose candles carry no volume.
func withoutVolume(s *model.HistoricalSeries) *model.HistoricalSeries {
	cp := *s
	cp.Candles = make([]model.Candle, len(s.Candles))
	for i, c := range s.Candles {
		c.Volume = model.Missing
		cp.Candles[i] = c
	}
	return &cp
}

func sourceError(err error) error {
	switch {
	case errors.Is(err, collector.ErrNoData):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, collector.ErrSourceUnavailable), errors.Is(err, collector.ErrMalformedResponse):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func setAttachment(c echo.Context, filename string) {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// boolOr parses a validated boolean parameter, falling back to def when unset.
func boolOr(v string, def bool) bool {
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
