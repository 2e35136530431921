package admission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aquacenter/session-admission/internal/lease"
	"github.com/aquacenter/session-admission/internal/model"
)

// ErrAlreadyWaiting is returned by Join when the member already has a
// live entry for the occurrence.
var ErrAlreadyWaiting = errors.New("already on the waitlist for this session")

// ErrNotWaiting is returned by Promote when the member has no live
// entry to promote. Leave swallows it: leaving a queue you are not in
// is a no-op.
var ErrNotWaiting = errors.New("member is not on the waitlist")

// WaitlistStore persists waitlist entries. Mutating methods are only
// called while the manager holds the occurrence lease, so they do not
// need their own cross-process coordination beyond transactional
// writes.
type WaitlistStore interface {
	// ActiveEntries returns the WAITING entries of an occurrence in
	// position order.
	ActiveEntries(ctx context.Context, sessionID uint64, date string) ([]model.WaitlistEntry, error)
	// HasLiveEntry reports whether the member has a non-withdrawn
	// (WAITING or PROMOTED) entry for the occurrence.
	HasLiveEntry(ctx context.Context, sessionID uint64, date string, memberID uint64) (bool, error)
	Insert(ctx context.Context, e *model.WaitlistEntry) error
	Withdraw(ctx context.Context, id uint64) error
	MarkPromoted(ctx context.Context, id uint64) error
	// ShiftDown decrements the position of every WAITING entry of the
	// occurrence whose position is greater than above.
	ShiftDown(ctx context.Context, sessionID uint64, date string, above int) error
}

// Waitlist manages the ordered fallback queue per occurrence. It
// shares the occurrence lease with the admission controller, so queue
// renumbering never interleaves with admissions or with other queue
// mutations for the same occurrence.
type Waitlist struct {
	store     WaitlistStore
	leases    lease.Provider
	leaseWait time.Duration
}

// NewWaitlist wires a waitlist manager.
func NewWaitlist(store WaitlistStore, leases lease.Provider) *Waitlist {
	if store == nil || leases == nil {
		panic("nil dependency passed to NewWaitlist")
	}
	return &Waitlist{store: store, leases: leases, leaseWait: LeaseWait}
}

// Join appends the member at the back of the occurrence queue and
// returns the new entry with its 1-based position. A member with a
// non-withdrawn entry — still waiting or already promoted into the
// occurrence — gets ErrAlreadyWaiting; lease contention surfaces as
// lease.ErrNotAcquired.
func (w *Waitlist) Join(ctx context.Context, sessionID uint64, date string, memberID uint64) (*model.WaitlistEntry, error) {
	tok, err := w.leases.Acquire(ctx, occurrenceKey(sessionID, date), w.leaseWait)
	if err != nil {
		return nil, err
	}
	defer w.release(tok)

	live, err := w.store.HasLiveEntry(ctx, sessionID, date, memberID)
	if err != nil {
		return nil, err
	}
	if live {
		return nil, ErrAlreadyWaiting
	}
	entries, err := w.store.ActiveEntries(ctx, sessionID, date)
	if err != nil {
		return nil, err
	}
	max := 0
	for _, e := range entries {
		if e.Position > max {
			max = e.Position
		}
	}
	entry := &model.WaitlistEntry{
		SessionID: sessionID,
		Date:      date,
		MemberID:  memberID,
		Position:  max + 1,
		Status:    model.WaitlistWaiting,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.store.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Leave removes the member's entry and closes the gap it leaves:
// every entry behind it moves up one position, keeping the queue
// dense from 1. Leaving a queue the member is not in is a no-op.
func (w *Waitlist) Leave(ctx context.Context, sessionID uint64, date string, memberID uint64) error {
	err := w.remove(ctx, sessionID, date, memberID, false)
	if errors.Is(err, ErrNotWaiting) {
		return nil
	}
	return err
}

// Promote marks the member's entry PROMOTED and renumbers the rest of
// the queue. It only does the bookkeeping; the actual admission is a
// separate Controller.AdmitTo call made by the promotion endpoint.
func (w *Waitlist) Promote(ctx context.Context, sessionID uint64, date string, memberID uint64) error {
	return w.remove(ctx, sessionID, date, memberID, true)
}

// Entries returns the live queue in position order. Reads are not
// serialized; a listing raced with a leave may be momentarily stale.
func (w *Waitlist) Entries(ctx context.Context, sessionID uint64, date string) ([]model.WaitlistEntry, error) {
	return w.store.ActiveEntries(ctx, sessionID, date)
}

// remove takes the member's entry out of the queue under the
// occurrence lease, marking it promoted or withdrawn, then shifts the
// entries behind it down one position.
func (w *Waitlist) remove(ctx context.Context, sessionID uint64, date string, memberID uint64, promote bool) error {
	tok, err := w.leases.Acquire(ctx, occurrenceKey(sessionID, date), w.leaseWait)
	if err != nil {
		return err
	}
	defer w.release(tok)

	entries, err := w.store.ActiveEntries(ctx, sessionID, date)
	if err != nil {
		return err
	}
	var found *model.WaitlistEntry
	for i := range entries {
		if entries[i].MemberID == memberID {
			found = &entries[i]
			break
		}
	}
	if found == nil {
		return ErrNotWaiting
	}
	if promote {
		err = w.store.MarkPromoted(ctx, found.ID)
	} else {
		err = w.store.Withdraw(ctx, found.ID)
	}
	if err != nil {
		return fmt.Errorf("remove waitlist entry: %w", err)
	}
	return w.store.ShiftDown(ctx, sessionID, date, found.Position)
}

// release frees an occurrence lease on a fresh context so a cancelled
// request cannot leave the key held until the provider's TTL.
func (w *Waitlist) release(tok *lease.Token) {
	rctx, cancel := context.WithTimeout(context.Background(), releaseBudget)
	defer cancel()
	if err := w.leases.Release(rctx, tok); err != nil {
		log.Printf("waitlist: release lease %s: %v", tok.Key(), err)
	}
}
