// Package cache memoizes the one input-derived-only result that
// otherwise gets recomputed from scratch on every CLI invocation: the
// per-node critical-path remainder (§4.3) depends only on the
// dependency graph's content, never on a capacity overlay, so once one
// run has paid for the reverse-topological pass, a later run over an
// unchanged catalog can skip it entirely. With the Redis backend this
// memoization is shared across worker processes, not just within one.
package cache

import (
	"context"
	"time"
)

// Cache is the interface both backends implement: a byte-oriented
// get/set with TTL, so callers own their own (de)serialization.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}
