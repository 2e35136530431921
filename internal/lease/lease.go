// Package lease provides time-bounded exclusive claims on string
// keys. The admission controller serializes every ledger mutation
// for one occurrence behind a lease on the occurrence key, and the
// waitlist manager reuses the same key so queue renumbering and
// admissions never interleave.
package lease

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync/atomic"
	"time"
)

// ErrNotAcquired is returned when the wait budget elapses before the
// key frees up. It is a liveness fault caused by contention, distinct
// from every business rejection, and safe to retry with backoff.
var ErrNotAcquired = errors.New("lease not acquired within wait budget")

// Token is the opaque proof of a held lease. Tokens can only be
// obtained from a successful Acquire, which is what keeps callers
// from reaching a critical section without holding its lock.
type Token struct {
	key      string
	value    string
	released atomic.Bool
}

// Key returns the resource key the token holds.
func (t *Token) Key() string { return t.key }

// Provider hands out mutually exclusive leases on keys. At most one
// live token exists per key at any time.
type Provider interface {
	// Acquire blocks until the key is free, the wait budget elapses
	// (ErrNotAcquired) or ctx is cancelled.
	Acquire(ctx context.Context, key string, wait time.Duration) (*Token, error)
	// Release frees the key. Releasing a token twice is a no-op.
	Release(ctx context.Context, tok *Token) error
}

// randomValue produces the fencing value stored under the key so a
// release can prove it still owns the lease it is deleting.
func randomValue() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
