// Package storage persists per-identity state behind a namespaced key-value
// boundary and layers typed program, schedule, history and profile stores
// on top of it.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Logical keys, one JSON document each per namespace.
const (
	KeyProfile  = "userProfile"
	KeyPrograms = "customPrograms"
	KeySchedule = "workoutSchedule"
	KeyHistory  = "workoutHistory"
)

// Keys lists every logical key.
var Keys = []string{KeyProfile, KeyPrograms, KeySchedule, KeyHistory}

// ErrNotFound is returned when a program or history record does not exist.
var ErrNotFound = errors.New("not found")

// KV is a namespaced key-value store. Namespaces are identities. Writes to
// different keys are independent; there is no transaction across keys.
type KV interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Put(ctx context.Context, namespace, key string, value []byte) error
	Close() error
}

// Load decodes the JSON document at key, returning def when it is absent.
func Load[T any](ctx context.Context, kv KV, namespace, key string, def T) (T, error) {
	data, ok, err := kv.Get(ctx, namespace, key)
	if err != nil {
		return def, fmt.Errorf("loading %s/%s: %w", namespace, key, err)
	}
	if !ok || len(data) == 0 {
		return def, nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return def, fmt.Errorf("decoding %s/%s: %w", namespace, key, err)
	}
	return v, nil
}

// Save encodes v as JSON and stores it at key.
func Save(ctx context.Context, kv KV, namespace, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", namespace, key, err)
	}
	if err := kv.Put(ctx, namespace, key, data); err != nil {
		return fmt.Errorf("saving %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Options selects and configures a KV backend.
type Options struct {
	Driver string // sqlite, postgres or memory
	Path   string // sqlite database file
	DSN    string // postgres connection string
}

// Open connects the configured backend. Postgres migrations are applied
// before the pool is returned.
func Open(ctx context.Context, opts Options, log *slog.Logger) (KV, error) {
	switch opts.Driver {
	case "", "sqlite":
		log.Info("opening sqlite store", "path", opts.Path)
		return OpenSQLite(opts.Path)
	case "postgres":
		log.Info("running migrations")
		if err := RunMigrations(opts.DSN); err != nil {
			return nil, err
		}
		return NewPostgres(ctx, opts.DSN)
	case "memory":
		log.Warn("using in-memory store, data will not survive a restart")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
