package storage

import "sync"

// Store provides typed access to the documents of each namespace.
type Store struct {
	kv KV
	// mu serializes read-modify-write cycles on list documents.
	mu sync.Mutex
}

// New wraps kv in a Store.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// KV returns the underlying key-value store.
func (s *Store) KV() KV { return s.kv }

// Close closes the underlying key-value store.
func (s *Store) Close() error { return s.kv.Close() }
