package model

import "time"

// DataType tags the shape of a cached provider payload.
type DataType string

const (
	DataTypeDaily    DataType = "TIME_SERIES_DAILY"
	DataTypeOverview DataType = "OVERVIEW"
)

// DailyBar is one trading day as received from the provider.
type DailyBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Series holds daily bars strictly descending by date. Element 0 is the
// most recent trading day.
type Series []DailyBar

// Latest returns the most recent bar, or false for an empty series.
func (s Series) Latest() (DailyBar, bool) {
	if len(s) == 0 {
		return DailyBar{}, false
	}
	return s[0], true
}

// Overview is the subset of company metadata used by insights.
type Overview struct {
	Symbol    string
	Name      string
	PERatio   *float64
	MarketCap *float64
}

// CacheEntry is one cached raw provider response keyed by (Symbol, DataType).
type CacheEntry struct {
	Symbol    string
	DataType  DataType
	Payload   []byte
	FetchedAt time.Time
}

// WatchlistItem is one symbol on a user's watchlist.
type WatchlistItem struct {
	UserID  string    `json:"userId"`
	Symbol  string    `json:"symbol"`
	AddedAt time.Time `json:"addedAt"`
}
