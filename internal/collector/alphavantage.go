package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StockLens/internal/model"

	"github.com/go-resty/resty/v2"
)

// DefaultAlphaVantageURL is the public query endpoint.
const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantageProvider implements Provider using the Alpha Vantage REST API.
type AlphaVantageProvider struct {
	BaseURL string
	APIKey  string
	Client  *resty.Client
}

// NewAlphaVantageProvider creates a provider with optional proxy support.
func NewAlphaVantageProvider(baseURL, apiKey, proxyURL string, timeout time.Duration) *AlphaVantageProvider {
	if baseURL == "" {
		baseURL = DefaultAlphaVantageURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "StockLens/1.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &AlphaVantageProvider{BaseURL: baseURL, APIKey: apiKey, Client: client}
}

func (p *AlphaVantageProvider) Name() string { return "alphavantage" }

// Fetch requests one payload. Only payloads that carry the expected data are
// returned; soft errors in the body are mapped to typed errors.
func (p *AlphaVantageProvider) Fetch(ctx context.Context, symbol string, dataType model.DataType) ([]byte, error) {
	params := map[string]string{
		"function": string(dataType),
		"symbol":   symbol,
		"apikey":   p.APIKey,
	}
	if dataType == model.DataTypeDaily {
		params["outputsize"] = "compact"
	}

	resp, err := p.Client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", model.ErrTransport, dataType, symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s %s: status %d", model.ErrTransport, dataType, symbol, resp.StatusCode())
	}

	body := resp.Body()
	if err := classifyPayload(body, dataType); err != nil {
		return nil, fmt.Errorf("%s %s: %w", dataType, symbol, err)
	}
	return body, nil
}

// classifyPayload inspects an HTTP 200 body for provider-level errors.
func classifyPayload(body []byte, dataType model.DataType) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return fmt.Errorf("%w: response is not a JSON object: %v", model.ErrProviderData, err)
	}

	for _, key := range []string{"Note", "Information"} {
		if raw, ok := probe[key]; ok {
			var msg string
			_ = json.Unmarshal(raw, &msg)
			return fmt.Errorf("%w: %s", model.ErrProviderRateLimit, msg)
		}
	}
	if raw, ok := probe["Error Message"]; ok {
		var msg string
		_ = json.Unmarshal(raw, &msg)
		return fmt.Errorf("%w: %s", model.ErrProviderData, msg)
	}

	switch dataType {
	case model.DataTypeDaily:
		if _, ok := probe[dailySeriesKey]; !ok {
			return fmt.Errorf("%w: missing %q", model.ErrProviderData, dailySeriesKey)
		}
	case model.DataTypeOverview:
		if _, ok := probe["Symbol"]; !ok {
			return fmt.Errorf("%w: empty overview", model.ErrProviderData)
		}
	}
	return nil
}
