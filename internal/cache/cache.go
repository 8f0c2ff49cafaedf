// Package cache stores per-symbol price tables keyed by ticker.
//
// A Store never overwrites an existing entry: once a key has been written
// it stays as-is until removed out of band.
package cache

import "errors"

// ErrNotCached is returned by Get when no entry exists for the key.
var ErrNotCached = errors.New("not cached")

// Store is the cache lookup capability used by the pipeline stages.
type Store interface {
	Has(key string) bool
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}
