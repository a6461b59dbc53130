package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockLens/internal/model"
)

func TestMemoryStore_CacheAndWatchlist(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	_ = m.UpsertCached(ctx, model.CacheEntry{Symbol: "AAPL", DataType: model.DataTypeDaily, Payload: []byte("x"), FetchedAt: now.Add(-25 * time.Hour)})
	if _, err := m.GetCached(ctx, "AAPL", model.DataTypeDaily, now.Add(-24*time.Hour)); !errors.Is(err, model.ErrCacheMiss) {
		t.Errorf("expected stale row to miss, got %v", err)
	}

	m.ReadErr = errors.New("disk gone")
	if _, err := m.GetCached(ctx, "AAPL", model.DataTypeDaily, now); err == nil {
		t.Error("expected injected read error")
	}
	m.ReadErr = nil

	if _, err := m.AddSymbol(ctx, "u1", "AAPL"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddSymbol(ctx, "u1", "AAPL"); !errors.Is(err, model.ErrDuplicateSymbol) {
		t.Errorf("expected duplicate error, got %v", err)
	}
	if err := m.RemoveSymbol(ctx, "u2", "AAPL"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found for other user, got %v", err)
	}
}
