package collector

import (
	"context"

	"StockLens/internal/model"
)

// Provider fetches raw payloads from a market-data API. Implementations must
// return model.ErrProviderRateLimit, model.ErrProviderData or
// model.ErrTransport (wrapped) so callers can tell the failures apart.
type Provider interface {
	Fetch(ctx context.Context, symbol string, dataType model.DataType) ([]byte, error)
	Name() string
}
