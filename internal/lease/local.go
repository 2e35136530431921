package lease

import (
	"context"
	"sync"
	"time"
)

// LocalProvider implements Provider with in-process semaphores. It
// has the same semantics as RedisProvider for a single-node
// deployment and is what the test suite runs against. It cannot
// coordinate across processes.
type LocalProvider struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

// NewLocalProvider returns an empty in-process provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{sems: make(map[string]chan struct{})}
}

// sem returns the binary semaphore for a key, creating it lazily.
func (p *LocalProvider) sem(key string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sems[key]
	if !ok {
		s = make(chan struct{}, 1)
		p.sems[key] = s
	}
	return s
}

// Acquire waits for the key's slot for at most the wait budget.
func (p *LocalProvider) Acquire(ctx context.Context, key string, wait time.Duration) (*Token, error) {
	value, err := randomValue()
	if err != nil {
		return nil, err
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case p.sem(key) <- struct{}{}:
		return &Token{key: key, value: value}, nil
	case <-timer.C:
		return nil, ErrNotAcquired
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release frees the key's slot. The released flag on the token keeps
// a double release from freeing a slot some other holder now owns.
func (p *LocalProvider) Release(_ context.Context, tok *Token) error {
	if tok == nil || tok.released.Swap(true) {
		return nil
	}
	select {
	case <-p.sem(tok.key):
	default:
	}
	return nil
}
