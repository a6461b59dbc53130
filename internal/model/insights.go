package model

// Direction of a price trend over a window.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Change is an absolute and percentage move between two closes.
type Change struct {
	Absolute   float64 `json:"absolute"`
	Percentage float64 `json:"percentage"`
}

// Trend is the direction and percentage move over an N-day window.
type Trend struct {
	Direction  Direction `json:"direction"`
	Percentage float64   `json:"percentage"`
}

// StockInsights is derived from the current series on every request and
// never persisted.
type StockInsights struct {
	Symbol      string   `json:"symbol"`
	LatestPrice float64  `json:"latestPrice"`
	LatestDate  string   `json:"latestDate"`
	DayChange   Change   `json:"dayChange"`
	Trend7Day   Trend    `json:"trend7Day"`
	Trend30Day  Trend    `json:"trend30Day"`
	Volume      int64    `json:"volume"`
	High52Week  *float64 `json:"high52Week,omitempty"`
	Low52Week   *float64 `json:"low52Week,omitempty"`
	PERatio     *float64 `json:"peRatio,omitempty"`
}
