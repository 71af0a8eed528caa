package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool settings for the audit log. Writes are one row per analysis, so a
// small pool is enough.
const (
	maxConns        = 4
	maxConnIdleTime = 5 * time.Minute
	connectTimeout  = 5 * time.Second
)

var (
	pool    *pgxpool.Pool
	initErr error
	once    sync.Once
)

// InitDB opens the shared connection pool. Only the first call connects;
// later calls return the first call's result.
func InitDB(ctx context.Context, dbURL string) error {
	once.Do(func() {
		initErr = connect(ctx, dbURL)
	})
	return initErr
}

func connect(ctx context.Context, dbURL string) error {
	if dbURL == "" {
		return fmt.Errorf("STORE_CONFIG: database url not set")
	}
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return fmt.Errorf("STORE_CONFIG: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MaxConnIdleTime = maxConnIdleTime
	cfg.ConnConfig.ConnectTimeout = connectTimeout
	cfg.ConnConfig.RuntimeParams["application_name"] = "counterparty_analyzer"

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("STORE_CONNECT: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return fmt.Errorf("STORE_CONNECT: %w", err)
	}
	pool = p
	return nil
}

// GetPool returns the shared pool, nil before a successful InitDB.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the shared pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}
