package collector

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"StockLens/internal/model"

	"github.com/shopspring/decimal"
)

const (
	dailySeriesKey = "Time Series (Daily)"
	dateLayout     = "2006-01-02"
)

// avDailyPayload is the TIME_SERIES_DAILY response shape.
type avDailyPayload struct {
	Series       map[string]avDailyBar `json:"Time Series (Daily)"`
	Note         string                `json:"Note"`
	Information  string                `json:"Information"`
	ErrorMessage string                `json:"Error Message"`
}

type avDailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// NormalizeDaily converts a TIME_SERIES_DAILY payload into a Series sorted
// most recent first. Any malformed entry fails the whole conversion.
func NormalizeDaily(payload []byte) (model.Series, error) {
	var p avDailyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: decode daily payload: %v", model.ErrParse, err)
	}
	if p.Series == nil {
		return nil, fmt.Errorf("%w: payload has no %q field", model.ErrProviderData, dailySeriesKey)
	}

	series := make(model.Series, 0, len(p.Series))
	seen := make(map[time.Time]string, len(p.Series))
	for key, raw := range p.Series {
		bar, err := parseDailyBar(key, raw)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[bar.Date]; dup {
			return nil, fmt.Errorf("%w: duplicate date %s (%q and %q)", model.ErrParse, bar.Date.Format(dateLayout), prev, key)
		}
		seen[bar.Date] = key
		series = append(series, bar)
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date.After(series[j].Date) })
	return series, nil
}

func parseDailyBar(key string, raw avDailyBar) (model.DailyBar, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(key))
	if err != nil {
		return model.DailyBar{}, fmt.Errorf("%w: bad date %q", model.ErrParse, key)
	}

	prices := [4]float64{}
	for i, field := range []struct{ name, value string }{
		{"open", raw.Open}, {"high", raw.High}, {"low", raw.Low}, {"close", raw.Close},
	} {
		d, err := decimal.NewFromString(strings.TrimSpace(field.value))
		if err != nil {
			return model.DailyBar{}, fmt.Errorf("%w: %s %s=%q", model.ErrParse, key, field.name, field.value)
		}
		if !d.IsPositive() {
			return model.DailyBar{}, fmt.Errorf("%w: %s %s must be positive, got %s", model.ErrParse, key, field.name, d)
		}
		prices[i] = d.InexactFloat64()
	}

	vol, err := decimal.NewFromString(strings.TrimSpace(raw.Volume))
	if err != nil {
		return model.DailyBar{}, fmt.Errorf("%w: %s volume=%q", model.ErrParse, key, raw.Volume)
	}
	if vol.IsNegative() || !vol.Equal(vol.Truncate(0)) {
		return model.DailyBar{}, fmt.Errorf("%w: %s volume must be a non-negative integer, got %s", model.ErrParse, key, vol)
	}

	return model.DailyBar{
		Date:   date,
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: vol.IntPart(),
	}, nil
}

// avOverviewPayload is the OVERVIEW response shape. Alpha Vantage returns an
// empty object for unknown symbols.
type avOverviewPayload struct {
	Symbol               string `json:"Symbol"`
	Name                 string `json:"Name"`
	PERatio              string `json:"PERatio"`
	MarketCapitalization string `json:"MarketCapitalization"`
}

// NormalizeOverview parses an OVERVIEW payload. Placeholder values such as
// "None" or "-" become nil.
func NormalizeOverview(payload []byte) (*model.Overview, error) {
	var p avOverviewPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: decode overview payload: %v", model.ErrParse, err)
	}
	if p.Symbol == "" {
		return nil, fmt.Errorf("%w: empty overview", model.ErrProviderData)
	}
	return &model.Overview{
		Symbol:    p.Symbol,
		Name:      p.Name,
		PERatio:   optionalNumber(p.PERatio),
		MarketCap: optionalNumber(p.MarketCapitalization),
	}, nil
}

func optionalNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "None", "-", "N/A":
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
