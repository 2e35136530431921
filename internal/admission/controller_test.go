package admission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aquacenter/session-admission/internal/lease"
	"github.com/aquacenter/session-admission/internal/model"
)

// fakeLedger is an in-memory Ledger with injectable failures. It is
// deliberately unsynchronized beyond its own mutex: any interleaving
// bug in the controller shows up as a capacity or duplicate violation.
type fakeLedger struct {
	mu         sync.Mutex
	records    map[string][]model.AdmissionRecord
	nextID     uint64
	failRead   error
	failAppend error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string][]model.AdmissionRecord)}
}

func (l *fakeLedger) RecordsFor(_ context.Context, sessionID uint64, date string) ([]model.AdmissionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failRead != nil {
		return nil, l.failRead
	}
	src := l.records[occurrenceKey(sessionID, date)]
	out := make([]model.AdmissionRecord, len(src))
	copy(out, src)
	return out, nil
}

func (l *fakeLedger) Append(_ context.Context, rec *model.AdmissionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAppend != nil {
		return l.failAppend
	}
	l.nextID++
	rec.ID = l.nextID
	key := occurrenceKey(rec.SessionID, rec.Date)
	l.records[key] = append(l.records[key], *rec)
	return nil
}

func (l *fakeLedger) count(sessionID uint64, date string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records[occurrenceKey(sessionID, date)])
}

type fakeCatalog struct{ sessions []model.Session }

func (c *fakeCatalog) ListActive(context.Context) ([]model.Session, error) {
	return c.sessions, nil
}

type fakeProfiles struct{ members map[uint64]model.Member }

func (p *fakeProfiles) Profile(_ context.Context, id uint64) (*model.Member, error) {
	m, ok := p.members[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

type notice struct {
	occ      Occurrence
	rec      model.AdmissionRecord
	newCount int
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *fakeNotifier) CapacityChanged(occ Occurrence, rec model.AdmissionRecord, newCount int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{occ, rec, newCount})
}

func (n *fakeNotifier) all() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notice, len(n.notices))
	copy(out, n.notices)
	return out
}

// testController wires a controller over the in-memory fakes with a
// short lease wait so contention tests finish quickly.
func testController(t *testing.T, capacity uint32, memberCount int) (*Controller, *fakeLedger, *fakeNotifier, model.Session) {
	t.Helper()
	s := model.Session{
		ID:       1,
		Name:     "Morning Lap",
		StartsAt: mustTime(t, "09:00"),
		EndsAt:   mustTime(t, "10:00"),
		Capacity: capacity,
		IsActive: true,
	}
	members := make(map[uint64]model.Member, memberCount)
	for i := 1; i <= memberCount; i++ {
		members[uint64(i)] = model.Member{ID: uint64(i), Gender: model.GenderMale}
	}
	ledger := newFakeLedger()
	notifier := &fakeNotifier{}
	ctrl := NewController(&fakeCatalog{sessions: []model.Session{s}}, &fakeProfiles{members: members}, ledger, lease.NewLocalProvider(), notifier)
	ctrl.leaseWait = 2 * time.Second
	return ctrl, ledger, notifier, s
}

func TestAdmitCommits(t *testing.T) {
	ctrl, ledger, notifier, s := testController(t, 5, 3)
	now := at(t, "09:15")

	res := ctrl.Admit(context.Background(), 1, now, model.MethodScanned)
	require.Equal(t, OutcomeCommitted, res.Outcome)
	require.True(t, res.Committed())
	require.NotNil(t, res.Record)
	require.Equal(t, uint64(1), res.Record.MemberID)
	require.Equal(t, model.MethodScanned, res.Record.Method)
	require.Equal(t, "2026-03-14", res.Record.Date)
	require.Equal(t, 1, res.NewCount)
	require.Equal(t, 1, ledger.count(s.ID, "2026-03-14"))

	notices := notifier.all()
	require.Len(t, notices, 1)
	require.Equal(t, 1, notices[0].newCount)
	require.Equal(t, uint64(1), notices[0].rec.MemberID)
}

func TestAdmitDuplicateSameOccurrence(t *testing.T) {
	ctrl, ledger, _, s := testController(t, 5, 3)
	now := at(t, "09:15")

	res := ctrl.Admit(context.Background(), 1, now, model.MethodScanned)
	require.True(t, res.Committed())

	res = ctrl.Admit(context.Background(), 1, now.Add(5*time.Minute), model.MethodScanned)
	require.Equal(t, OutcomeAlreadyAdmitted, res.Outcome)
	require.False(t, res.Transient())
	require.Equal(t, 1, ledger.count(s.ID, "2026-03-14"))
}

func TestAdmitDifferentDatesIndependent(t *testing.T) {
	ctrl, ledger, _, s := testController(t, 5, 3)

	res := ctrl.Admit(context.Background(), 1, at(t, "09:15"), model.MethodScanned)
	require.True(t, res.Committed())

	// Same member, same session, next day: a fresh occurrence.
	res = ctrl.Admit(context.Background(), 1, at(t, "09:15").AddDate(0, 0, 1), model.MethodScanned)
	require.True(t, res.Committed())
	require.Equal(t, 1, ledger.count(s.ID, "2026-03-14"))
	require.Equal(t, 1, ledger.count(s.ID, "2026-03-15"))
}

func TestAdmitMissingProfile(t *testing.T) {
	ctrl, ledger, _, s := testController(t, 5, 3)

	res := ctrl.Admit(context.Background(), 99, at(t, "09:15"), model.MethodScanned)
	require.Equal(t, OutcomeMissingProfile, res.Outcome)
	require.Equal(t, 0, ledger.count(s.ID, "2026-03-14"))
}

func TestAdmitNotEligible(t *testing.T) {
	s := model.Session{
		ID: 1, Name: "Women Only",
		StartsAt: mustTime(t, "09:00"), EndsAt: mustTime(t, "10:00"),
		Restriction: model.RestrictionWomen, Capacity: 5, IsActive: true,
	}
	ledger := newFakeLedger()
	profiles := &fakeProfiles{members: map[uint64]model.Member{
		1: {ID: 1, Gender: model.GenderMale},
		2: {ID: 2}, // gender never recorded
	}}
	ctrl := NewController(&fakeCatalog{sessions: []model.Session{s}}, profiles, ledger, lease.NewLocalProvider(), nil)

	res := ctrl.Admit(context.Background(), 1, at(t, "09:15"), model.MethodScanned)
	require.Equal(t, OutcomeNotEligible, res.Outcome)

	// Missing attribute surfaces as the data-quality outcome, not as a
	// plain rejection.
	res = ctrl.Admit(context.Background(), 2, at(t, "09:15"), model.MethodScanned)
	require.Equal(t, OutcomeMissingProfile, res.Outcome)
	require.Equal(t, 0, ledger.count(s.ID, "2026-03-14"))
}

func TestAdmitResolutionOutcomes(t *testing.T) {
	ctrl, _, _, _ := testController(t, 5, 3)

	res := ctrl.Admit(context.Background(), 1, at(t, "12:00"), model.MethodScanned)
	require.Equal(t, OutcomePastLastSession, res.Outcome)

	empty := NewController(&fakeCatalog{}, &fakeProfiles{}, newFakeLedger(), lease.NewLocalProvider(), nil)
	res = empty.Admit(context.Background(), 1, at(t, "09:15"), model.MethodScanned)
	require.Equal(t, OutcomeNoSessions, res.Outcome)
}

// TestAdmitCapacityUnderContention is the core concurrency property:
// far more simultaneous attempts than seats must commit exactly
// capacity admissions, all distinct members, with everyone else turned
// away by capacity.
func TestAdmitCapacityUnderContention(t *testing.T) {
	const attempts = 40
	const capacity = 5
	ctrl, ledger, notifier, s := testController(t, capacity, attempts)
	now := at(t, "09:15")

	results := make([]*Result, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ctrl.Admit(context.Background(), uint64(i+1), now, model.MethodScanned)
		}(i)
	}
	wg.Wait()

	committed := 0
	for _, res := range results {
		switch res.Outcome {
		case OutcomeCommitted:
			committed++
		case OutcomeCapacityExceeded:
		default:
			t.Fatalf("unexpected outcome %s: %s", res.Outcome, res.Message)
		}
	}
	require.Equal(t, capacity, committed)
	require.Equal(t, capacity, ledger.count(s.ID, "2026-03-14"))

	// The admitted member IDs are distinct.
	recs, err := ledger.RecordsFor(context.Background(), s.ID, "2026-03-14")
	require.NoError(t, err)
	seen := make(map[uint64]bool)
	for _, r := range recs {
		require.False(t, seen[r.MemberID], "member %d admitted twice", r.MemberID)
		seen[r.MemberID] = true
	}

	// One event per commit, with new counts covering 1..capacity.
	notices := notifier.all()
	require.Len(t, notices, capacity)
	counts := make(map[int]bool)
	for _, n := range notices {
		counts[n.newCount] = true
	}
	for i := 1; i <= capacity; i++ {
		require.True(t, counts[i], "missing capacity event for count %d", i)
	}
}

// TestAdmitConcurrentSameMember hammers one member: however many
// attempts race, exactly one commits and the ledger holds one record.
func TestAdmitConcurrentSameMember(t *testing.T) {
	const attempts = 20
	ctrl, ledger, _, s := testController(t, 10, 1)
	now := at(t, "09:15")

	results := make([]*Result, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ctrl.Admit(context.Background(), 1, now, model.MethodScanned)
		}(i)
	}
	wg.Wait()

	committed := 0
	for _, res := range results {
		if res.Committed() {
			committed++
		} else {
			require.Equal(t, OutcomeAlreadyAdmitted, res.Outcome)
		}
	}
	require.Equal(t, 1, committed)
	require.Equal(t, 1, ledger.count(s.ID, "2026-03-14"))
}

func TestAdmitStorageFaultReleasesLease(t *testing.T) {
	ctrl, ledger, _, s := testController(t, 5, 3)
	now := at(t, "09:15")

	ledger.failRead = errors.New("connection reset")
	res := ctrl.Admit(context.Background(), 1, now, model.MethodScanned)
	require.Equal(t, OutcomeStorageFault, res.Outcome)
	require.Error(t, res.Err)

	// The lease must have been released on the fault path: with the
	// fault cleared the next attempt proceeds instead of timing out.
	ledger.failRead = nil
	ctrl.leaseWait = 100 * time.Millisecond
	res = ctrl.Admit(context.Background(), 1, now, model.MethodScanned)
	require.Equal(t, OutcomeCommitted, res.Outcome)
	require.Equal(t, 1, ledger.count(s.ID, "2026-03-14"))
}

func TestAdmitAppendFaultRecordsNothing(t *testing.T) {
	ctrl, ledger, notifier, s := testController(t, 5, 3)

	ledger.failAppend = errors.New("deadlock found")
	res := ctrl.Admit(context.Background(), 1, at(t, "09:15"), model.MethodScanned)
	require.Equal(t, OutcomeStorageFault, res.Outcome)
	require.Equal(t, 0, ledger.count(s.ID, "2026-03-14"))
	require.Empty(t, notifier.all())
}

func TestAdmitLeaseTimeout(t *testing.T) {
	ctrl, _, _, s := testController(t, 5, 3)
	ctrl.leaseWait = 50 * time.Millisecond

	// Hold the occurrence lease from outside the controller.
	occ := Occurrence{Session: s, Date: "2026-03-14"}
	tok, err := ctrl.leases.Acquire(context.Background(), occ.Key(), time.Second)
	require.NoError(t, err)
	defer ctrl.leases.Release(context.Background(), tok)

	res := ctrl.Admit(context.Background(), 1, at(t, "09:15"), model.MethodScanned)
	require.Equal(t, OutcomeLeaseTimeout, res.Outcome)
	require.True(t, res.Transient())
	require.ErrorIs(t, res.Err, lease.ErrNotAcquired)
}

// TestCapacityTwoWalkthrough runs the textbook sequence on a
// two-seat session: A and B get in, C is refused by capacity and
// joins the waitlist at position 1, then a second refusal for C's
// check-in attempt leaves both ledger and queue unchanged.
func TestCapacityTwoWalkthrough(t *testing.T) {
	ctrl, ledger, _, s := testController(t, 2, 3)
	now := at(t, "09:15")
	ctx := context.Background()

	store := newFakeWaitlistStore()
	wl := NewWaitlist(store, lease.NewLocalProvider())

	resA := ctrl.Admit(ctx, 1, now, model.MethodScanned)
	resB := ctrl.Admit(ctx, 2, now, model.MethodScanned)
	require.True(t, resA.Committed())
	require.True(t, resB.Committed())

	resC := ctrl.Admit(ctx, 3, now, model.MethodScanned)
	require.Equal(t, OutcomeCapacityExceeded, resC.Outcome)
	require.Equal(t, 2, ledger.count(s.ID, "2026-03-14"))

	entry, err := wl.Join(ctx, s.ID, "2026-03-14", 3)
	require.NoError(t, err)
	require.Equal(t, 1, entry.Position)

	// Retrying the check-in changes nothing.
	resC = ctrl.Admit(ctx, 3, now, model.MethodScanned)
	require.Equal(t, OutcomeCapacityExceeded, resC.Outcome)
	require.Equal(t, 2, ledger.count(s.ID, "2026-03-14"))
	entries, err := wl.Entries(ctx, s.ID, "2026-03-14")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
