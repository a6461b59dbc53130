package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"StockLens/internal/model"
)

// MockProvider serves fixed payloads for development and tests.
type MockProvider struct {
	mu       sync.Mutex
	Payloads map[string][]byte // key: symbol + "|" + data type
	Err      error
	calls    []string
}

func NewMockProvider() *MockProvider {
	return &MockProvider{Payloads: make(map[string][]byte)}
}

func (m *MockProvider) Name() string { return "mock" }

// Set registers the payload returned for (symbol, dataType).
func (m *MockProvider) Set(symbol string, dataType model.DataType, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Payloads[symbol+"|"+string(dataType)] = payload
}

func (m *MockProvider) Fetch(ctx context.Context, symbol string, dataType model.DataType) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTransport, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := symbol + "|" + string(dataType)
	m.calls = append(m.calls, key)
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Payloads[key]
	if !ok {
		return nil, fmt.Errorf("%w: no mock payload for %s", model.ErrProviderData, key)
	}
	return p, nil
}

// Calls returns every (symbol|type) key fetched so far.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockDailyPayload builds a TIME_SERIES_DAILY payload with one bar per
// weekday ending at latest. closes[0] is the most recent close.
func MockDailyPayload(symbol string, latest time.Time, closes []float64) []byte {
	series := make(map[string]avDailyBar, len(closes))
	day := latest
	for _, c := range closes {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, -1)
		}
		series[day.Format(dateLayout)] = avDailyBar{
			Open:   fmt.Sprintf("%.4f", c*0.995),
			High:   fmt.Sprintf("%.4f", c*1.01),
			Low:    fmt.Sprintf("%.4f", c*0.99),
			Close:  fmt.Sprintf("%.4f", c),
			Volume: "1000000",
		}
		day = day.AddDate(0, 0, -1)
	}
	body, _ := json.Marshal(map[string]interface{}{
		"Meta Data": map[string]string{
			"1. Information": "Daily Prices (open, high, low, close) and Volumes",
			"2. Symbol":      symbol,
		},
		dailySeriesKey: series,
	})
	return body
}

// MockOverviewPayload builds an OVERVIEW payload.
func MockOverviewPayload(symbol, name, peRatio string) []byte {
	body, _ := json.Marshal(avOverviewPayload{
		Symbol:               symbol,
		Name:                 name,
		PERatio:              peRatio,
		MarketCapitalization: "1000000000",
	})
	return body
}
