package calculator

import (
	"math"

	"StockLens/internal/model"
)

const (
	// TradingDaysPerYear bounds the 52-week window.
	TradingDaysPerYear = 252
	// MinRangeSample is the fewest bars needed to report a 52-week range.
	MinRangeSample = 30
	// DefaultDeadZone is the percentage band treated as flat.
	DefaultDeadZone = 0.5
)

// Options tunes trend classification.
type Options struct {
	DeadZone float64
}

// DefaultOptions returns the standard ±0.5% dead zone.
func DefaultOptions() Options {
	return Options{DeadZone: DefaultDeadZone}
}

// DayChange compares the two most recent closes.
func DayChange(series model.Series) model.Change {
	if len(series) < 2 {
		return model.Change{}
	}
	abs := series[0].Close - series[1].Close
	return model.Change{
		Absolute:   Round2(abs),
		Percentage: Round2(abs / series[1].Close * 100),
	}
}

// Trend compares the latest close with the close window bars earlier.
// Too few bars yields flat/0.
func Trend(series model.Series, window int, deadZone float64) model.Trend {
	if window <= 0 || len(series) < window+1 {
		return model.Trend{Direction: model.DirectionFlat}
	}
	pct := Round2(pctChange(series[window].Close, series[0].Close))
	dir := model.DirectionFlat
	switch {
	case pct > deadZone:
		dir = model.DirectionUp
	case pct < -deadZone:
		dir = model.DirectionDown
	}
	return model.Trend{Direction: dir, Percentage: pct}
}

// Range52Week scans the most recent 252 bars for the highest high and lowest
// low. Fewer than 30 bars returns nil for both.
func Range52Week(series model.Series) (high, low *float64) {
	n := len(series)
	if n > TradingDaysPerYear {
		n = TradingDaysPerYear
	}
	if n < MinRangeSample {
		return nil, nil
	}
	hi, lo := math.Inf(-1), math.Inf(1)
	for _, b := range series[:n] {
		if b.High > hi {
			hi = b.High
		}
		if b.Low < lo {
			lo = b.Low
		}
	}
	hi, lo = Round2(hi), Round2(lo)
	return &hi, &lo
}

// Compute derives StockInsights from a descending series and optional
// overview metadata. It does no I/O.
func Compute(symbol string, series model.Series, overview *model.Overview, opts Options) model.StockInsights {
	ins := model.StockInsights{
		Symbol:     symbol,
		DayChange:  DayChange(series),
		Trend7Day:  Trend(series, 7, opts.DeadZone),
		Trend30Day: Trend(series, 30, opts.DeadZone),
	}
	if latest, ok := series.Latest(); ok {
		ins.LatestPrice = Round2(latest.Close)
		ins.LatestDate = latest.Date.Format("2006-01-02")
		ins.Volume = latest.Volume
	}
	ins.High52Week, ins.Low52Week = Range52Week(series)
	if overview != nil && overview.PERatio != nil {
		pe := Round2(*overview.PERatio)
		ins.PERatio = &pe
	}
	return ins
}
