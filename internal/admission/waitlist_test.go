package admission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aquacenter/session-admission/internal/lease"
	"github.com/aquacenter/session-admission/internal/model"
)

// fakeWaitlistStore keeps every entry, including withdrawn and
// promoted ones, so tests can assert on terminal statuses too.
type fakeWaitlistStore struct {
	mu      sync.Mutex
	entries []model.WaitlistEntry
	nextID  uint64
}

func newFakeWaitlistStore() *fakeWaitlistStore { return &fakeWaitlistStore{} }

func (s *fakeWaitlistStore) ActiveEntries(_ context.Context, sessionID uint64, date string) ([]model.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.WaitlistEntry
	for _, e := range s.entries {
		if e.SessionID == sessionID && e.Date == date && e.Status == model.WaitlistWaiting {
			out = append(out, e)
		}
	}
	// Stored in insertion order, which matches position order because
	// every mutation runs under the occurrence lease.
	return out, nil
}

func (s *fakeWaitlistStore) HasLiveEntry(_ context.Context, sessionID uint64, date string, memberID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.SessionID == sessionID && e.Date == date && e.MemberID == memberID && e.Status != model.WaitlistWithdrawn {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeWaitlistStore) Insert(_ context.Context, e *model.WaitlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.entries = append(s.entries, *e)
	return nil
}

func (s *fakeWaitlistStore) Withdraw(_ context.Context, id uint64) error {
	return s.setStatus(id, model.WaitlistWithdrawn)
}

func (s *fakeWaitlistStore) MarkPromoted(_ context.Context, id uint64) error {
	return s.setStatus(id, model.WaitlistPromoted)
}

func (s *fakeWaitlistStore) setStatus(id uint64, st model.WaitlistStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Status = st
			return nil
		}
	}
	return ErrNotWaiting
}

func (s *fakeWaitlistStore) ShiftDown(_ context.Context, sessionID uint64, date string, above int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		e := &s.entries[i]
		if e.SessionID == sessionID && e.Date == date && e.Status == model.WaitlistWaiting && e.Position > above {
			e.Position--
		}
	}
	return nil
}

func (s *fakeWaitlistStore) statusOf(memberID uint64) model.WaitlistStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].MemberID == memberID {
			return s.entries[i].Status
		}
	}
	return ""
}

const wlDate = "2026-03-14"

func testWaitlist(t *testing.T) (*Waitlist, *fakeWaitlistStore) {
	t.Helper()
	store := newFakeWaitlistStore()
	wl := NewWaitlist(store, lease.NewLocalProvider())
	wl.leaseWait = 2 * time.Second
	return wl, store
}

// requirePositions asserts the queue holds exactly these members in
// order, numbered densely from 1.
func requirePositions(t *testing.T, wl *Waitlist, members ...uint64) {
	t.Helper()
	entries, err := wl.Entries(context.Background(), 1, wlDate)
	require.NoError(t, err)
	require.Len(t, entries, len(members))
	for i, e := range entries {
		require.Equal(t, members[i], e.MemberID, "slot %d", i+1)
		require.Equal(t, i+1, e.Position, "member %d", e.MemberID)
	}
}

func TestWaitlistJoinAssignsDensePositions(t *testing.T) {
	wl, _ := testWaitlist(t)
	ctx := context.Background()

	for i, member := range []uint64{10, 20, 30} {
		entry, err := wl.Join(ctx, 1, wlDate, member)
		require.NoError(t, err)
		require.Equal(t, i+1, entry.Position)
		require.Equal(t, model.WaitlistWaiting, entry.Status)
	}
	requirePositions(t, wl, 10, 20, 30)
}

func TestWaitlistJoinDuplicate(t *testing.T) {
	wl, _ := testWaitlist(t)
	ctx := context.Background()

	_, err := wl.Join(ctx, 1, wlDate, 10)
	require.NoError(t, err)
	_, err = wl.Join(ctx, 1, wlDate, 10)
	require.ErrorIs(t, err, ErrAlreadyWaiting)
	requirePositions(t, wl, 10)

	// The same member may wait on a different occurrence.
	entry, err := wl.Join(ctx, 1, "2026-03-15", 10)
	require.NoError(t, err)
	require.Equal(t, 1, entry.Position)
}

func TestWaitlistLeaveRenumbers(t *testing.T) {
	wl, store := testWaitlist(t)
	ctx := context.Background()

	for _, member := range []uint64{10, 20, 30, 40} {
		_, err := wl.Join(ctx, 1, wlDate, member)
		require.NoError(t, err)
	}

	// A middle departure closes the gap behind it.
	require.NoError(t, wl.Leave(ctx, 1, wlDate, 20))
	requirePositions(t, wl, 10, 30, 40)
	require.Equal(t, model.WaitlistWithdrawn, store.statusOf(20))

	// Head departure: everyone moves up.
	require.NoError(t, wl.Leave(ctx, 1, wlDate, 10))
	requirePositions(t, wl, 30, 40)

	// Tail departure: nothing to shift.
	require.NoError(t, wl.Leave(ctx, 1, wlDate, 40))
	requirePositions(t, wl, 30)
}

func TestWaitlistLeaveAbsentIsNoOp(t *testing.T) {
	wl, _ := testWaitlist(t)
	ctx := context.Background()

	require.NoError(t, wl.Leave(ctx, 1, wlDate, 99))

	_, err := wl.Join(ctx, 1, wlDate, 10)
	require.NoError(t, err)
	require.NoError(t, wl.Leave(ctx, 1, wlDate, 99))
	requirePositions(t, wl, 10)
}

func TestWaitlistPromote(t *testing.T) {
	wl, store := testWaitlist(t)
	ctx := context.Background()

	for _, member := range []uint64{10, 20, 30} {
		_, err := wl.Join(ctx, 1, wlDate, member)
		require.NoError(t, err)
	}

	require.NoError(t, wl.Promote(ctx, 1, wlDate, 10))
	requirePositions(t, wl, 20, 30)
	require.Equal(t, model.WaitlistPromoted, store.statusOf(10))

	// Promoting a member who is not waiting is an error, unlike Leave.
	require.ErrorIs(t, wl.Promote(ctx, 1, wlDate, 10), ErrNotWaiting)
	require.ErrorIs(t, wl.Promote(ctx, 1, wlDate, 99), ErrNotWaiting)
}

func TestWaitlistRejoinAfterPromotion(t *testing.T) {
	wl, _ := testWaitlist(t)
	ctx := context.Background()

	_, err := wl.Join(ctx, 1, wlDate, 10)
	require.NoError(t, err)
	require.NoError(t, wl.Promote(ctx, 1, wlDate, 10))

	// A promoted entry is still non-withdrawn: the member was admitted
	// into the occurrence and may not re-queue for it.
	_, err = wl.Join(ctx, 1, wlDate, 10)
	require.ErrorIs(t, err, ErrAlreadyWaiting)

	// The next day is a fresh occurrence.
	entry, err := wl.Join(ctx, 1, "2026-03-15", 10)
	require.NoError(t, err)
	require.Equal(t, 1, entry.Position)
}

func TestWaitlistRejoinAfterLeave(t *testing.T) {
	wl, _ := testWaitlist(t)
	ctx := context.Background()

	_, err := wl.Join(ctx, 1, wlDate, 10)
	require.NoError(t, err)
	require.NoError(t, wl.Leave(ctx, 1, wlDate, 10))

	// Withdrawn entries do not block a fresh join.
	entry, err := wl.Join(ctx, 1, wlDate, 10)
	require.NoError(t, err)
	require.Equal(t, 1, entry.Position)
	requirePositions(t, wl, 10)
}

// TestWaitlistConcurrentJoins races many joins on one occurrence and
// checks the resulting positions are a permutation of 1..N.
func TestWaitlistConcurrentJoins(t *testing.T) {
	const joiners = 25
	wl, _ := testWaitlist(t)

	var wg sync.WaitGroup
	for i := 1; i <= joiners; i++ {
		wg.Add(1)
		go func(member uint64) {
			defer wg.Done()
			if _, err := wl.Join(context.Background(), 1, wlDate, member); err != nil {
				t.Errorf("join member %d: %v", member, err)
			}
		}(uint64(i))
	}
	wg.Wait()

	entries, err := wl.Entries(context.Background(), 1, wlDate)
	require.NoError(t, err)
	require.Len(t, entries, joiners)
	seen := make(map[int]bool)
	for _, e := range entries {
		require.GreaterOrEqual(t, e.Position, 1)
		require.LessOrEqual(t, e.Position, joiners)
		require.False(t, seen[e.Position], "position %d assigned twice", e.Position)
		seen[e.Position] = true
	}
}

func TestWaitlistJoinLeaseTimeout(t *testing.T) {
	store := newFakeWaitlistStore()
	leases := lease.NewLocalProvider()
	wl := NewWaitlist(store, leases)
	wl.leaseWait = 50 * time.Millisecond

	tok, err := leases.Acquire(context.Background(), occurrenceKey(1, wlDate), time.Second)
	require.NoError(t, err)
	defer leases.Release(context.Background(), tok)

	_, err = wl.Join(context.Background(), 1, wlDate, 10)
	require.ErrorIs(t, err, lease.ErrNotAcquired)
}
