package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockLens/internal/model"
)

func TestAlphaVantageProvider_Fetch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"function":   q.Get("function"),
			"symbol":     q.Get("symbol"),
			"outputsize": q.Get("outputsize"),
			"apikey":     q.Get("apikey"),
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleDaily)
	}))
	defer srv.Close()

	p := NewAlphaVantageProvider(srv.URL, "demo", "", 5*time.Second)
	body, err := p.Fetch(context.Background(), "IBM", model.DataTypeDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery["function"] != "TIME_SERIES_DAILY" || gotQuery["symbol"] != "IBM" ||
		gotQuery["outputsize"] != "compact" || gotQuery["apikey"] != "demo" {
		t.Errorf("unexpected query %v", gotQuery)
	}
	if _, err := NormalizeDaily(body); err != nil {
		t.Errorf("returned body does not normalize: %v", err)
	}
}

func TestAlphaVantageProvider_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limit note", 200, `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`, model.ErrProviderRateLimit},
		{"rate limit information", 200, `{"Information": "API rate limit reached"}`, model.ErrProviderRateLimit},
		{"unknown symbol", 200, `{"Error Message": "Invalid API call."}`, model.ErrProviderData},
		{"missing series", 200, `{"Meta Data": {}}`, model.ErrProviderData},
		{"not json", 200, `oops`, model.ErrProviderData},
		{"server error", 503, `busy`, model.ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			p := NewAlphaVantageProvider(srv.URL, "demo", "", 5*time.Second)
			_, err := p.Fetch(context.Background(), "ZZZZ", model.DataTypeDaily)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAlphaVantageProvider_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewAlphaVantageProvider(url, "demo", "", time.Second)
	if _, err := p.Fetch(context.Background(), "IBM", model.DataTypeDaily); !errors.Is(err, model.ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestAlphaVantageProvider_EmptyOverview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("outputsize") != "" {
			t.Errorf("overview request must not send outputsize")
		}
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	p := NewAlphaVantageProvider(srv.URL, "demo", "", time.Second)
	if _, err := p.Fetch(context.Background(), "ZZZZ", model.DataTypeOverview); !errors.Is(err, model.ErrProviderData) {
		t.Errorf("expected ErrProviderData, got %v", err)
	}
}
