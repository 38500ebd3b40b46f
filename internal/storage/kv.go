package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"passive-genius/internal/config"
)

// ErrNotFound is returned by KV.Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// KV is the minimal key-value contract the stores need.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// NewKV builds the backend selected by STORE_BACKEND. db is only used by
// the sqlite backend.
func NewKV(cfg *config.Config, db *sql.DB) (KV, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		if db == nil {
			return nil, fmt.Errorf("sqlite store backend requires a database")
		}
		return NewSQLiteKV(db), nil
	case config.BackendFile:
		return NewFileKV(cfg.StoreFilePath)
	case config.BackendRedis:
		return NewRedisKV(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}
