package insights

import (
	"context"
	"fmt"

	"StockLens/internal/calculator"
	"StockLens/internal/collector"
	"StockLens/internal/logger"
	"StockLens/internal/model"
)

// Options controls what a Service computes.
type Options struct {
	DeadZone        float64 // zero classifies every move as up or down
	IncludeOverview bool
}

// DefaultOptions returns the standard dead zone with overview data.
func DefaultOptions() Options {
	return Options{DeadZone: calculator.DefaultDeadZone, IncludeOverview: true}
}

// Result is a computed insight and whether its series came from cache.
type Result struct {
	Insights  model.StockInsights
	FromCache bool
}

// Service turns a user-supplied symbol into insights.
type Service struct {
	Collector *collector.Collector
	Options   Options

	log *logger.Entry
}

// NewService creates a new Service.
func NewService(col *collector.Collector, opts Options) *Service {
	return &Service{
		Collector: col,
		Options:   opts,
		log:       logger.GetLogger().WithComponent("insights"),
	}
}

// Get validates rawSymbol and computes its insights. Invalid symbols fail
// with model.ErrValidation before any I/O.
func (s *Service) Get(ctx context.Context, rawSymbol string) (*Result, error) {
	symbol, err := model.NormalizeSymbol(rawSymbol)
	if err != nil {
		return nil, err
	}

	res, err := s.Collector.DailySeries(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(res.Series) == 0 {
		return nil, fmt.Errorf("%w: empty daily series for %s", model.ErrProviderData, symbol)
	}

	var overview *model.Overview
	if s.Options.IncludeOverview {
		ov, _, err := s.Collector.Overview(ctx, symbol)
		if err != nil {
			s.log.WithFields(logger.Fields{"symbol": symbol}).WithError(err).Warn("overview unavailable")
		} else {
			overview = ov
		}
	}

	ins := calculator.Compute(symbol, res.Series, overview, calculator.Options{DeadZone: s.Options.DeadZone})
	return &Result{Insights: ins, FromCache: res.FromCache}, nil
}
