package collector

import (
	"errors"
	"testing"
	"time"

	"StockLens/internal/model"
)

const sampleDaily = `{
	"Meta Data": {"2. Symbol": "IBM"},
	"Time Series (Daily)": {
		"2024-03-04": {"1. open": "185.00", "2. high": "187.50", "3. low": "184.10", "4. close": "186.20", "5. volume": "4200000"},
		"2024-03-06": {"1. open": "188.00", "2. high": "190.00", "3. low": "187.00", "4. close": "189.40", "5. volume": "5100000"},
		"2024-03-05": {"1. open": "186.30", "2. high": "188.90", "3. low": "185.60", "4. close": "188.10", "5. volume": "3900000"}
	}
}`

func TestNormalizeDaily_SortsDescending(t *testing.T) {
	series, err := NormalizeDaily([]byte(sampleDaily))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(series))
	}
	want := []string{"2024-03-06", "2024-03-05", "2024-03-04"}
	for i, w := range want {
		if got := series[i].Date.Format("2006-01-02"); got != w {
			t.Errorf("bar %d: expected %s, got %s", i, w, got)
		}
	}
	head := series[0]
	if head.Close != 189.40 || head.High != 190.00 || head.Volume != 5100000 {
		t.Errorf("unexpected head bar: %+v", head)
	}
}

func TestNormalizeDaily_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"not json", `<html>`, model.ErrParse},
		{"missing series", `{"Meta Data": {}}`, model.ErrProviderData},
		{"bad close", `{"Time Series (Daily)": {"2024-03-04": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "abc", "5. volume": "1"}}}`, model.ErrParse},
		{"zero price", `{"Time Series (Daily)": {"2024-03-04": {"1. open": "0", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}}}`, model.ErrParse},
		{"negative volume", `{"Time Series (Daily)": {"2024-03-04": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "-5"}}}`, model.ErrParse},
		{"fractional volume", `{"Time Series (Daily)": {"2024-03-04": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1.5"}}}`, model.ErrParse},
		{"bad date", `{"Time Series (Daily)": {"03/04/2024": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}}}`, model.ErrParse},
		{"duplicate date", `{"Time Series (Daily)": {"2024-03-04": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}, " 2024-03-04": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}}}`, model.ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeDaily([]byte(tt.payload))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNormalizeDaily_EmptySeries(t *testing.T) {
	series, err := NormalizeDaily([]byte(`{"Time Series (Daily)": {}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 0 {
		t.Errorf("expected empty series, got %d bars", len(series))
	}
}

func TestNormalizeOverview(t *testing.T) {
	ov, err := NormalizeOverview([]byte(`{"Symbol": "IBM", "Name": "International Business Machines", "PERatio": "22.5", "MarketCapitalization": "None"}`))
	if err != nil {
		t.Fatal(err)
	}
	if ov.PERatio == nil || *ov.PERatio != 22.5 {
		t.Errorf("expected P/E 22.5, got %v", ov.PERatio)
	}
	if ov.MarketCap != nil {
		t.Errorf("expected nil market cap for None, got %v", *ov.MarketCap)
	}

	if _, err := NormalizeOverview([]byte(`{}`)); !errors.Is(err, model.ErrProviderData) {
		t.Errorf("expected ErrProviderData for empty overview, got %v", err)
	}
}

func TestMockDailyPayload_RoundTrip(t *testing.T) {
	latest := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC) // Friday
	series, err := NormalizeDaily(MockDailyPayload("AAPL", latest, []float64{10, 9, 8, 7, 6, 5}))
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 6 {
		t.Fatalf("expected 6 bars, got %d", len(series))
	}
	if !series[0].Date.Equal(latest) || series[0].Close != 10 {
		t.Errorf("unexpected head %+v", series[0])
	}
	// 5 weekdays back from Friday skips the weekend
	if got := series[5].Date.Weekday(); got != time.Friday {
		t.Errorf("expected previous Friday, got %s", got)
	}
}
