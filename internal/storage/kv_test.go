package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"passive-genius/internal/config"
	"passive-genius/internal/database"
)

func newSQLiteKV(t *testing.T) *SQLiteKV {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteKV(db.SQL)
}

func newFileKV(t *testing.T) *FileKV {
	t.Helper()
	kv, err := NewFileKV(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatalf("failed to create FileKV: %v", err)
	}
	return kv
}

func backends(t *testing.T) map[string]KV {
	kvs := map[string]KV{
		"sqlite": newSQLiteKV(t),
		"file":   newFileKV(t),
	}
	// Redis is exercised only when a server is available.
	if addr := os.Getenv("REDIS_TEST_ADDR"); addr != "" {
		r := NewRedisKV(addr, "", 15)
		if err := r.Ping(context.Background()); err == nil {
			t.Cleanup(func() { r.Close() })
			kvs["redis"] = r
		}
	}
	return kvs
}

func TestKVBackends(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			key := "tg:42/pg_progress_" + name

			if _, err := kv.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Expected ErrNotFound, got %v", err)
			}

			if err := kv.Set(ctx, key, []byte(`{"0-0":true}`)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, err := kv.Get(ctx, key)
			if err != nil || string(got) != `{"0-0":true}` {
				t.Fatalf("Expected round trip, got %q, %v", got, err)
			}

			if err := kv.Set(ctx, key, []byte(`{}`)); err != nil {
				t.Fatalf("Overwrite failed: %v", err)
			}
			got, _ = kv.Get(ctx, key)
			if string(got) != `{}` {
				t.Errorf("Expected overwritten value, got %q", got)
			}
		})
	}
}

func TestFileKVKeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	kv := newFileKV(t)
	_ = kv.Set(ctx, "a/b", []byte("1"))
	_ = kv.Set(ctx, "a_b", []byte("2"))

	v1, _ := kv.Get(ctx, "a/b")
	v2, _ := kv.Get(ctx, "a_b")
	if string(v1) != "1" || string(v2) != "2" {
		t.Errorf("Expected distinct files, got %q and %q", v1, v2)
	}
}

func TestNewKV(t *testing.T) {
	db, err := database.NewDB(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cases := map[string]bool{config.BackendSQLite: true, config.BackendFile: true, config.BackendRedis: true, "etcd": false}
	for backend, ok := range cases {
		cfg := &config.Config{StoreBackend: backend, StoreFilePath: filepath.Join(t.TempDir(), "files"), RedisAddr: "localhost:6379"}
		kv, err := NewKV(cfg, db.SQL)
		if ok && (err != nil || kv == nil) {
			t.Errorf("%s: expected backend, got %v", backend, err)
		}
		if !ok && err == nil {
			t.Errorf("%s: expected error", backend)
		}
	}

	if _, err := NewKV(&config.Config{StoreBackend: config.BackendSQLite}, nil); err == nil {
		t.Error("Expected error for sqlite backend without database")
	}
}
