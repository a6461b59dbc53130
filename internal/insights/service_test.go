package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockLens/internal/clock"
	"StockLens/internal/collector"
	"StockLens/internal/dispatcher"
	"StockLens/internal/model"
	"StockLens/internal/store"
)

var now = time.Date(2024, 3, 8, 18, 0, 0, 0, time.UTC)

func newTestService(mp *collector.MockProvider, includeOverview bool) *Service {
	opts := DefaultOptions()
	opts.IncludeOverview = includeOverview
	return newServiceWith(mp, opts)
}

func newServiceWith(mp *collector.MockProvider, opts Options) *Service {
	clk := clock.NewFake(now)
	d := dispatcher.New(dispatcher.Options{MinInterval: 12 * time.Second, Clock: clk})
	col := collector.NewCollector(mp, store.NewMemoryStore(), d, 24*time.Hour, clk)
	return NewService(col, opts)
}

func TestGet_InvalidSymbolSkipsIO(t *testing.T) {
	mp := collector.NewMockProvider()
	svc := newTestService(mp, true)

	for _, raw := range []string{"", "   ", "TOO-LONG-SYMBOL", "A$B"} {
		_, err := svc.Get(context.Background(), raw)
		if !errors.Is(err, model.ErrValidation) {
			t.Errorf("Get(%q): expected ErrValidation, got %v", raw, err)
		}
	}
	if calls := mp.Calls(); len(calls) != 0 {
		t.Errorf("invalid symbols must not reach the provider, got %v", calls)
	}
}

func TestGet_ComputesInsights(t *testing.T) {
	mp := collector.NewMockProvider()
	mp.Set("AAPL", model.DataTypeDaily, collector.MockDailyPayload("AAPL", now, []float64{110, 100, 99, 98, 97, 96, 95, 100}))
	mp.Set("AAPL", model.DataTypeOverview, collector.MockOverviewPayload("AAPL", "Apple Inc", "28.456"))
	svc := newTestService(mp, true)

	res, err := svc.Get(context.Background(), " aapl ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.Collector.Wait()

	ins := res.Insights
	if ins.Symbol != "AAPL" {
		t.Errorf("expected normalized symbol AAPL, got %q", ins.Symbol)
	}
	if ins.LatestPrice != 110 || ins.LatestDate != "2024-03-08" {
		t.Errorf("unexpected latest %v on %s", ins.LatestPrice, ins.LatestDate)
	}
	if ins.DayChange.Absolute != 10 || ins.DayChange.Percentage != 10 {
		t.Errorf("unexpected day change %+v", ins.DayChange)
	}
	if ins.Trend7Day.Direction != model.DirectionUp || ins.Trend7Day.Percentage != 10 {
		t.Errorf("unexpected 7d trend %+v", ins.Trend7Day)
	}
	if ins.Trend30Day.Direction != model.DirectionFlat || ins.Trend30Day.Percentage != 0 {
		t.Errorf("30d trend needs 31 bars, got %+v", ins.Trend30Day)
	}
	if ins.High52Week != nil || ins.Low52Week != nil {
		t.Error("52-week range needs 30 bars")
	}
	if ins.PERatio == nil || *ins.PERatio != 28.46 {
		t.Errorf("expected peRatio 28.46, got %v", ins.PERatio)
	}
	if res.FromCache {
		t.Error("first read should not come from cache")
	}
}

func TestGet_OverviewIsBestEffort(t *testing.T) {
	mp := collector.NewMockProvider()
	mp.Set("MSFT", model.DataTypeDaily, collector.MockDailyPayload("MSFT", now, []float64{400, 398}))
	svc := newTestService(mp, true)

	res, err := svc.Get(context.Background(), "MSFT")
	svc.Collector.Wait()
	if err != nil {
		t.Fatalf("overview failure must not fail the request: %v", err)
	}
	if res.Insights.PERatio != nil {
		t.Errorf("expected no peRatio, got %v", *res.Insights.PERatio)
	}
}

func TestGet_OverviewDisabled(t *testing.T) {
	mp := collector.NewMockProvider()
	mp.Set("IBM", model.DataTypeDaily, collector.MockDailyPayload("IBM", now, []float64{190, 189}))
	svc := newTestService(mp, false)

	if _, err := svc.Get(context.Background(), "IBM"); err != nil {
		t.Fatal(err)
	}
	svc.Collector.Wait()
	if calls := mp.Calls(); len(calls) != 1 || calls[0] != "IBM|TIME_SERIES_DAILY" {
		t.Errorf("expected only the daily fetch, got %v", calls)
	}
}

func TestGet_EmptySeriesIsProviderData(t *testing.T) {
	mp := collector.NewMockProvider()
	mp.Set("NEW", model.DataTypeDaily, collector.MockDailyPayload("NEW", now, nil))
	svc := newTestService(mp, false)

	_, err := svc.Get(context.Background(), "NEW")
	svc.Collector.Wait()
	if !errors.Is(err, model.ErrProviderData) {
		t.Errorf("expected ErrProviderData, got %v", err)
	}
}

func TestGet_ProviderErrorPropagates(t *testing.T) {
	mp := collector.NewMockProvider()
	mp.Err = model.ErrProviderRateLimit
	svc := newTestService(mp, false)

	if _, err := svc.Get(context.Background(), "AAPL"); !errors.Is(err, model.ErrProviderRateLimit) {
		t.Errorf("expected ErrProviderRateLimit, got %v", err)
	}
}

func TestGet_DeadZoneIsConfigurable(t *testing.T) {
	// 100.2 vs 100 seven bars earlier is +0.20%
	closes := []float64{100.2, 100.1, 100.1, 100.1, 100.1, 100.1, 100.1, 100}
	tests := []struct {
		deadZone float64
		want     model.Direction
	}{
		{0.5, model.DirectionFlat},
		{0.1, model.DirectionUp},
		{0, model.DirectionUp},
	}
	for _, tt := range tests {
		mp := collector.NewMockProvider()
		mp.Set("KO", model.DataTypeDaily, collector.MockDailyPayload("KO", now, closes))
		svc := newServiceWith(mp, Options{DeadZone: tt.deadZone})

		res, err := svc.Get(context.Background(), "KO")
		svc.Collector.Wait()
		if err != nil {
			t.Fatal(err)
		}
		if got := res.Insights.Trend7Day; got.Direction != tt.want || got.Percentage != 0.2 {
			t.Errorf("dead zone %v: got %+v, want %s at 0.2%%", tt.deadZone, got, tt.want)
		}
	}
}
