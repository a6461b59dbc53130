package model

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrProviderRateLimit = errors.New("provider rate limit reached")
	ErrProviderData      = errors.New("provider returned no data")
	ErrTransport         = errors.New("provider transport error")
	ErrCacheWrite        = errors.New("cache write failed")
	ErrParse             = errors.New("malformed numeric field")
	ErrJobTimeout        = errors.New("provider call timed out")

	ErrCacheMiss       = errors.New("cache miss")
	ErrDuplicateSymbol = errors.New("symbol already in watchlist")
	ErrNotFound        = errors.New("not found")
)

// UserMessage maps an error to text suitable for showing to a user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "Invalid symbol. Use 1-10 letters, digits or dots."
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in first."
	case errors.Is(err, ErrProviderRateLimit):
		return "Market data limit reached. Please wait a minute and try again."
	case errors.Is(err, ErrProviderData):
		return "No market data found for this symbol."
	case errors.Is(err, ErrJobTimeout):
		return "The market data provider took too long to respond."
	case errors.Is(err, ErrTransport):
		return "Could not reach the market data provider."
	case errors.Is(err, ErrParse):
		return "Market data for this symbol could not be read."
	case errors.Is(err, ErrDuplicateSymbol):
		return "This symbol is already on your watchlist."
	case errors.Is(err, ErrNotFound):
		return "Symbol is not on your watchlist."
	default:
		return "Something went wrong. Please try again."
	}
}
