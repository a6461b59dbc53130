package scheduler

import (
	"time"

	"StockLens/internal/logger"

	"github.com/scmhub/calendar"
)

// TradingCalendar decides whether an exchange is open on a given day.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// NewTradingCalendar loads the calendar for an ISO 10383 MIC such as "xnys".
// Unknown MICs fall back to a Monday to Friday calendar in New York time.
func NewTradingCalendar(mic string) *TradingCalendar {
	if cal := calendar.GetCalendar(mic); cal != nil {
		return &TradingCalendar{Calendar: cal, Timezone: cal.Loc}
	}

	logger.GetLogger().WithComponent("scheduler").
		WithFields(logger.Fields{"mic": mic}).
		Warn("exchange calendar not found, using weekday fallback")
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &TradingCalendar{Fallback: true, Timezone: loc}
}

// IsTradingDay reports whether date is a business day on the exchange.
func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}
	if tc.Fallback || tc.Calendar == nil {
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}
