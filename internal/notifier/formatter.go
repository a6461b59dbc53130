package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"StockLens/internal/format"
	"StockLens/internal/model"
)

var directionIcon = map[model.Direction]string{
	model.DirectionUp:   "📈",
	model.DirectionDown: "📉",
	model.DirectionFlat: "➖",
}

// FormatInsights renders one symbol's insights as a Telegram HTML message.
func FormatInsights(ins model.StockInsights, fromCache bool) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("<b>%s</b> %s (%s)\n", html.EscapeString(ins.Symbol), format.Currency(ins.LatestPrice), ins.LatestDate))
	b.WriteString(fmt.Sprintf("Day: %s (%s)\n", signedCurrency(ins.DayChange.Absolute), format.Percent(ins.DayChange.Percentage)))
	b.WriteString(fmt.Sprintf("7d: %s %s | 30d: %s %s\n",
		directionIcon[ins.Trend7Day.Direction], format.Percent(ins.Trend7Day.Percentage),
		directionIcon[ins.Trend30Day.Direction], format.Percent(ins.Trend30Day.Percentage)))
	b.WriteString(fmt.Sprintf("Volume: %s\n", format.LargeNumber(float64(ins.Volume))))
	if ins.High52Week != nil && ins.Low52Week != nil {
		b.WriteString(fmt.Sprintf("52w: %s - %s\n", format.Currency(*ins.Low52Week), format.Currency(*ins.High52Week)))
	}
	if ins.PERatio != nil {
		b.WriteString(fmt.Sprintf("P/E: %.2f\n", *ins.PERatio))
	}
	if fromCache {
		b.WriteString("<i>cached</i>\n")
	}
	return b.String()
}

// DigestLine is one symbol's entry in the daily digest.
type DigestLine struct {
	Symbol   string
	Insights *model.StockInsights
	Err      error
}

// FormatDigest renders a compact summary line per watchlisted symbol.
func FormatDigest(day time.Time, lines []DigestLine) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>StockLens digest</b> | %s\n\n", day.Format("2006-01-02")))
	if len(lines) == 0 {
		b.WriteString("Watchlist is empty.\n")
		return b.String()
	}
	for _, l := range lines {
		if l.Err != nil || l.Insights == nil {
			b.WriteString(fmt.Sprintf("%s: %s\n", html.EscapeString(l.Symbol), html.EscapeString(model.UserMessage(l.Err))))
			continue
		}
		ins := l.Insights
		b.WriteString(fmt.Sprintf("%s %s %s %s (7d %s)\n",
			directionIcon[ins.Trend7Day.Direction],
			html.EscapeString(ins.Symbol),
			format.Currency(ins.LatestPrice),
			format.Percent(ins.DayChange.Percentage),
			format.Percent(ins.Trend7Day.Percentage)))
	}
	return b.String()
}

func signedCurrency(v float64) string {
	if v > 0 {
		return "+" + format.Currency(v)
	}
	return format.Currency(v)
}
