// Package idempotency remembers the response to a mutating request so that a
// retry carrying the same Idempotency-Key replays it instead of moving money
// twice.
package idempotency

import (
	"context"
	"time"
)

// Record is a stored response.
type Record struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	CreatedAt  time.Time
}

// Matches reports whether the record was produced by the same route.
func (r Record) Matches(method, path string) bool {
	return r.Method == method && r.Path == path
}

// Store keeps records keyed by owner and client key.
type Store interface {
	Get(ctx context.Context, ownerID, key string) (Record, bool, error)
	// Save stores rec, replacing an older record under the same key.
	Save(ctx context.Context, ownerID, key string, rec Record) error
	// Purge deletes records created before cutoff and returns how many went.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}
