package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB represents a database connection pool
type DB struct {
	*pgxpool.Pool
}

// PoolConfig holds connection pool configuration
type PoolConfig struct {
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Connections kept warm
	ConnMaxLifetime time.Duration // Maximum amount of time a connection may be reused
	ConnMaxIdleTime time.Duration // Maximum amount of time a connection may be idle
}

// DefaultPoolConfig returns sensible defaults for connection pooling
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:        25,
		MinConns:        2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// ParsePoolConfig parses databaseURL and applies pool limits. All sessions
// run in UTC.
func ParsePoolConfig(databaseURL string, poolCfg PoolConfig) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.ConnConfig.RuntimeParams["timezone"] = "UTC"

	if poolCfg.MaxConns > 0 {
		config.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		config.MinConns = poolCfg.MinConns
	}
	if poolCfg.ConnMaxLifetime > 0 {
		config.MaxConnLifetime = poolCfg.ConnMaxLifetime
	}
	if poolCfg.ConnMaxIdleTime > 0 {
		config.MaxConnIdleTime = poolCfg.ConnMaxIdleTime
	}

	return config, nil
}

// NewConnection creates a new database connection pool with default limits
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	return NewConnectionWithPool(ctx, databaseURL, DefaultPoolConfig())
}

// NewConnectionWithPool creates a new database connection pool and pings it
func NewConnectionWithPool(ctx context.Context, databaseURL string, poolCfg PoolConfig) (*DB, error) {
	config, err := ParsePoolConfig(databaseURL, poolCfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// Status reports "connected" when the pool answers a ping.
func (db *DB) Status(ctx context.Context) string {
	if db == nil || db.Pool == nil {
		return "disconnected"
	}
	if err := db.Ping(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}
