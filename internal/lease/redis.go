package lease

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a crashed holder can wedge a key before
// Redis expires the lease on its own. Critical sections are a couple
// of short queries, so 30s is generous.
const DefaultTTL = 30 * time.Second

// pollInterval is how often Acquire retries SET NX while waiting.
const pollInterval = 50 * time.Millisecond

// releaseScript deletes the key only while it still holds our token
// value. An expired lease that another process has since re-acquired
// is therefore never released from under the new holder.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisProvider implements Provider on a shared Redis instance,
// giving mutual exclusion across every process pointed at it.
type RedisProvider struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisProvider returns a provider on the given client. Callers
// running without Redis should use NewLocalProvider instead.
func NewRedisProvider(rdb *redis.Client) *RedisProvider {
	if rdb == nil {
		panic("nil redis client passed to NewRedisProvider")
	}
	return &RedisProvider{rdb: rdb, ttl: DefaultTTL, prefix: "lease:"}
}

// Acquire polls SET NX PX until it wins the key or the wait budget is
// spent. A Redis transport error aborts the attempt immediately; the
// caller treats it like any other failure to acquire.
func (p *RedisProvider) Acquire(ctx context.Context, key string, wait time.Duration) (*Token, error) {
	value, err := randomValue()
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(wait)
	for {
		ok, err := p.rdb.SetNX(ctx, p.prefix+key, value, p.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return &Token{key: key, value: value}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Release runs the compare-and-delete script for the token's key.
func (p *RedisProvider) Release(ctx context.Context, tok *Token) error {
	if tok == nil || tok.released.Swap(true) {
		return nil
	}
	return releaseScript.Run(ctx, p.rdb, []string{p.prefix + tok.key}, tok.value).Err()
}
