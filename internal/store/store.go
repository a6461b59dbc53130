package store

import (
	"context"
	"time"

	"StockLens/internal/model"
)

// Store is the persistence boundary: the provider cache plus per-user
// watchlists.
type Store interface {
	GetCached(ctx context.Context, symbol string, dataType model.DataType, notBefore time.Time) ([]byte, error)
	UpsertCached(ctx context.Context, entry model.CacheEntry) error

	AddSymbol(ctx context.Context, userID, symbol string) (*model.WatchlistItem, error)
	RemoveSymbol(ctx context.Context, userID, symbol string) error
	ListSymbols(ctx context.Context, userID string) ([]model.WatchlistItem, error)
	AllSymbols(ctx context.Context) ([]string, error)

	Close() error
}
