package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"StockLens/internal/model"
)

type cacheKey struct {
	symbol   string
	dataType model.DataType
}

// MemoryStore keeps everything in process memory. It is used when no
// database is configured and as a test double.
type MemoryStore struct {
	mu        sync.RWMutex
	cache     map[cacheKey]model.CacheEntry
	watchlist map[string]map[string]time.Time

	// ReadErr and WriteErr, when set, fail cache reads and writes.
	ReadErr  error
	WriteErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache:     make(map[cacheKey]model.CacheEntry),
		watchlist: make(map[string]map[string]time.Time),
	}
}

func (m *MemoryStore) GetCached(_ context.Context, symbol string, dataType model.DataType, notBefore time.Time) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	e, ok := m.cache[cacheKey{symbol, dataType}]
	if !ok || e.FetchedAt.Before(notBefore) {
		return nil, model.ErrCacheMiss
	}
	return e.Payload, nil
}

func (m *MemoryStore) UpsertCached(_ context.Context, e model.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.cache[cacheKey{e.Symbol, e.DataType}] = e
	return nil
}

// Entry returns the stored cache row regardless of age.
func (m *MemoryStore) Entry(symbol string, dataType model.DataType) (model.CacheEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.cache[cacheKey{symbol, dataType}]
	return e, ok
}

func (m *MemoryStore) AddSymbol(_ context.Context, userID, symbol string) (*model.WatchlistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, ok := m.watchlist[userID]
	if !ok {
		list = make(map[string]time.Time)
		m.watchlist[userID] = list
	}
	if _, dup := list[symbol]; dup {
		return nil, fmt.Errorf("%w: %s", model.ErrDuplicateSymbol, symbol)
	}
	now := time.Now()
	list[symbol] = now
	return &model.WatchlistItem{UserID: userID, Symbol: symbol, AddedAt: now}, nil
}

func (m *MemoryStore) RemoveSymbol(_ context.Context, userID, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.watchlist[userID][symbol]; !ok {
		return fmt.Errorf("%w: %s", model.ErrNotFound, symbol)
	}
	delete(m.watchlist[userID], symbol)
	return nil
}

func (m *MemoryStore) ListSymbols(_ context.Context, userID string) ([]model.WatchlistItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]model.WatchlistItem, 0, len(m.watchlist[userID]))
	for sym, at := range m.watchlist[userID] {
		items = append(items, model.WatchlistItem{UserID: userID, Symbol: sym, AddedAt: at})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].Symbol < items[j].Symbol
		}
		return items[i].AddedAt.Before(items[j].AddedAt)
	})
	return items, nil
}

func (m *MemoryStore) AllSymbols(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, list := range m.watchlist {
		for sym := range list {
			seen[sym] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
