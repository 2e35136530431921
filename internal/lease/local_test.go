package lease

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalAcquireRelease(t *testing.T) {
	p := NewLocalProvider()
	ctx := context.Background()

	tok, err := p.Acquire(ctx, "1:2026-03-14", time.Second)
	require.NoError(t, err)
	require.Equal(t, "1:2026-03-14", tok.Key())

	require.NoError(t, p.Release(ctx, tok))

	// Reacquirable after release.
	tok2, err := p.Acquire(ctx, "1:2026-03-14", time.Second)
	require.NoError(t, err)
	require.NoError(t, p.Release(ctx, tok2))
}

func TestLocalAcquireTimesOutWhileHeld(t *testing.T) {
	p := NewLocalProvider()
	ctx := context.Background()

	tok, err := p.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	defer p.Release(ctx, tok)

	_, err = p.Acquire(ctx, "k", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrNotAcquired)
}

func TestLocalKeysIndependent(t *testing.T) {
	p := NewLocalProvider()
	ctx := context.Background()

	tok, err := p.Acquire(ctx, "1:2026-03-14", time.Second)
	require.NoError(t, err)
	defer p.Release(ctx, tok)

	// A different occurrence is not blocked.
	other, err := p.Acquire(ctx, "1:2026-03-15", 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, p.Release(ctx, other))
}

func TestLocalAcquireHonorsContext(t *testing.T) {
	p := NewLocalProvider()
	ctx := context.Background()

	tok, err := p.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	defer p.Release(ctx, tok)

	cctx, cancel := context.WithCancel(ctx)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = p.Acquire(cctx, "k", 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

// TestLocalDoubleReleaseSafe guards the token's released flag: a
// stale second release must not free a slot a new holder now owns.
func TestLocalDoubleReleaseSafe(t *testing.T) {
	p := NewLocalProvider()
	ctx := context.Background()

	tok1, err := p.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	require.NoError(t, p.Release(ctx, tok1))

	tok2, err := p.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	// Releasing tok1 again is a no-op; tok2 still holds the key.
	require.NoError(t, p.Release(ctx, tok1))
	_, err = p.Acquire(ctx, "k", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, p.Release(ctx, tok2))
}

func TestLocalReleaseNilToken(t *testing.T) {
	p := NewLocalProvider()
	require.NoError(t, p.Release(context.Background(), nil))
}

// TestLocalMutualExclusion runs a classic critical-section counter:
// any overlap between holders shows up as a lost update.
func TestLocalMutualExclusion(t *testing.T) {
	p := NewLocalProvider()
	const workers = 30

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := p.Acquire(context.Background(), "k", 5*time.Second)
			if err != nil {
				t.Error(err)
				return
			}
			v := counter
			time.Sleep(time.Millisecond)
			counter = v + 1
			_ = p.Release(context.Background(), tok)
		}()
	}
	wg.Wait()
	require.Equal(t, workers, counter)
}
