package render

import (
	"fmt"
	"sort"
	"strings"

	"CoinDash/internal/calculator"
	"CoinDash/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// NoHistoryMessage is shown when no selected asset produced a series.
const NoHistoryMessage = "No historical data available for selected coins."

var (
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#26a641"))
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e05c5c"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// Price rounds a price to 8 decimal places for the point display.
func Price(p float64) string {
	return decimal.NewFromFloat(p).Round(8).String()
}

// Percent renders a change percentage with sign and two decimals.
func Percent(pct float64) string {
	d := decimal.NewFromFloat(pct).Round(2)
	if d.IsPositive() {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}

// FormatLiveTick renders the point display of one tick: the latest price of
// every asset, colored against its previous sample, plus skipped assets.
func FormatLiveTick(res model.TickResult, currency string, labels map[string]string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Live #%d | %s", res.Seq, res.At.Format("15:04:05"))))
	b.WriteString("\n")

	cur := strings.ToUpper(currency)
	for _, asset := range res.Table.Assets {
		name := asset
		if l, ok := labels[asset]; ok && l != "" {
			name = l
		}
		price, ok := res.Latest[asset]
		if !ok {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s: -", name)))
			b.WriteString("\n")
			continue
		}
		line := fmt.Sprintf("  %s: %s %s", name, Price(price), cur)
		switch direction(res.Table.Column(asset)) {
		case 1:
			line = upStyle.Render(line + " ▲")
		case -1:
			line = downStyle.Render(line + " ▼")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	for _, f := range res.Failed {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  skipped %s (%s)", f.Asset, f.Class)))
		b.WriteString("\n")
	}
	return b.String()
}

// direction compares the last two present values of a column.
func direction(col []model.Float) int {
	var last, prev model.Float
	for i := len(col) - 1; i >= 0; i-- {
		if !col[i].Valid {
			continue
		}
		if !last.Valid {
			last = col[i]
			continue
		}
		prev = col[i]
		break
	}
	switch {
	case !prev.Valid || last.Value == prev.Value:
		return 0
	case last.Value > prev.Value:
		return 1
	default:
		return -1
	}
}

// FormatHistorySummary renders one block per successful series. Failed
// assets are left out; with none left it returns NoHistoryMessage.
func FormatHistorySummary(results []model.HistoryResult, showVolume bool) string {
	series := model.Successful(results)
	if len(series) == 0 {
		return NoHistoryMessage
	}

	var b strings.Builder
	for i, s := range series {
		if i > 0 {
			b.WriteString("\n")
		}
		sum, err := calculator.Summarize(s.Asset, s.Candles)
		if err != nil {
			b.WriteString(fmt.Sprintf("%s: %v\n", s.Asset, err))
			continue
		}
		cur := strings.ToUpper(s.Currency)

		b.WriteString(headerStyle.Render(fmt.Sprintf("%s | %dd | %d candles", s.Asset, s.Days, sum.Samples)))
		b.WriteString("\n")
		change := Percent(sum.ChangePct)
		switch {
		case sum.ChangePct > 0:
			change = upStyle.Render(change)
		case sum.ChangePct < 0:
			change = downStyle.Render(change)
		}
		b.WriteString(fmt.Sprintf("  Close: %s %s (%s)\n", Price(sum.LastClose), cur, change))
		b.WriteString(fmt.Sprintf("  Range: %s ~ %s (position %s)\n",
			Price(sum.Low), Price(sum.High), decimal.NewFromFloat(sum.Position).Round(2).StringFixed(2)))

		for _, name := range s.Enabled {
			b.WriteString(fmt.Sprintf("  %s: %s\n", name, lastValue(s.Indicators[name].Values)))
		}
		if showVolume {
			vols := make([]model.Float, len(s.Candles))
			for j, c := range s.Candles {
				vols[j] = c.Volume
			}
			b.WriteString(fmt.Sprintf("  Volume: %s\n", lastValue(vols)))
		}
	}
	return b.String()
}

// lastValue renders the final element of a series, or "-" when it is absent.
func lastValue(vals []model.Float) string {
	if len(vals) == 0 || !vals[len(vals)-1].Valid {
		return "-"
	}
	return Price(vals[len(vals)-1].Value)
}

// FormatLiveTable renders the aligned table with one row per timestamp.
// Absent cells print as "-".
func FormatLiveTable(t model.AlignedLiveTable) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("time\t" + strings.Join(t.Assets, "\t")))
	b.WriteString("\n")
	for i, ts := range t.Times {
		b.WriteString(ts.Format("15:04:05"))
		for _, cell := range t.Cells[i] {
			b.WriteString("\t")
			if cell.Valid {
				b.WriteString(Price(cell.Value))
			} else {
				b.WriteString("-")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatJournal renders failure counts keyed by class in a stable order.
func FormatJournal(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}
