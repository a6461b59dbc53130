package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"StockLens/internal/logger"
	"StockLens/internal/model"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore persists cache rows and watchlists through database/sql.
type SQLStore struct {
	db     *sql.DB
	driver string
	log    *logger.Entry
	mu     sync.Mutex // serializes sqlite writers
}

// Open connects to driver/dsn and runs migrations.
func Open(driver, dsn string) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if driver == DriverSQLite && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver, log: logger.GetLogger().WithComponent("store")}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			s.log.WithError(err).Warn("set WAL mode failed")
		}
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.log.WithFields(logger.Fields{"driver": driver}).Info("store opened")
	return s, nil
}

func (s *SQLStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS market_cache (
			symbol     TEXT   NOT NULL,
			data_type  TEXT   NOT NULL,
			payload    TEXT   NOT NULL,
			fetched_at BIGINT NOT NULL,
			PRIMARY KEY (symbol, data_type)
		)`,
		`CREATE TABLE IF NOT EXISTS watchlist (
			user_id  TEXT   NOT NULL,
			symbol   TEXT   NOT NULL,
			added_at BIGINT NOT NULL,
			PRIMARY KEY (user_id, symbol)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_symbol ON watchlist(symbol)`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec %q: %w", q[:40], err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) GetCached(ctx context.Context, symbol string, dataType model.DataType, notBefore time.Time) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT payload FROM market_cache WHERE symbol = ? AND data_type = ? AND fetched_at >= ?`),
		symbol, string(dataType), notBefore.UnixMilli(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("query cache %s/%s: %w", symbol, dataType, err)
	}
	return []byte(payload), nil
}

func (s *SQLStore) UpsertCached(ctx context.Context, e model.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO market_cache (symbol, data_type, payload, fetched_at)
		VALUES (?,?,?,?)
		ON CONFLICT (symbol, data_type) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`),
		e.Symbol, string(e.DataType), string(e.Payload), e.FetchedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert cache %s/%s: %w", e.Symbol, e.DataType, err)
	}
	return nil
}

func (s *SQLStore) AddSymbol(ctx context.Context, userID, symbol string) (*model.WatchlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	res, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO watchlist (user_id, symbol, added_at)
		VALUES (?,?,?) ON CONFLICT (user_id, symbol) DO NOTHING`),
		userID, symbol, now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("add %s for %s: %w", symbol, userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("add %s for %s: %w", symbol, userID, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrDuplicateSymbol, symbol)
	}
	return &model.WatchlistItem{UserID: userID, Symbol: symbol, AddedAt: time.UnixMilli(now.UnixMilli())}, nil
}

func (s *SQLStore) RemoveSymbol(ctx context.Context, userID, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM watchlist WHERE user_id = ? AND symbol = ?`), userID, symbol)
	if err != nil {
		return fmt.Errorf("remove %s for %s: %w", symbol, userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", model.ErrNotFound, symbol)
	}
	return nil
}

func (s *SQLStore) ListSymbols(ctx context.Context, userID string) ([]model.WatchlistItem, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT symbol, added_at FROM watchlist WHERE user_id = ? ORDER BY added_at, symbol`), userID)
	if err != nil {
		return nil, fmt.Errorf("list watchlist for %s: %w", userID, err)
	}
	defer rows.Close()

	var items []model.WatchlistItem
	for rows.Next() {
		var sym string
		var ms int64
		if err := rows.Scan(&sym, &ms); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		items = append(items, model.WatchlistItem{UserID: userID, Symbol: sym, AddedAt: time.UnixMilli(ms)})
	}
	return items, rows.Err()
}

func (s *SQLStore) AllSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM watchlist ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("list watched symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	s.log.Info("closing store")
	return s.db.Close()
}
