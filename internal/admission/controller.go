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

// LeaseWait bounds how long one admission attempt may block waiting
// for its occurrence lease before giving up with OutcomeLeaseTimeout.
const LeaseWait = 5 * time.Second

// releaseBudget is how long a deferred lease release may take. The
// release runs on a fresh context so a cancelled request cannot leave
// the key held until the provider's TTL.
const releaseBudget = 2 * time.Second

// Ledger is the persistent set of admission records per occurrence.
// The controller touches it only while holding the occurrence lease
// and always re-reads occupancy inside the lease; no count is ever
// cached across the lock boundary.
type Ledger interface {
	RecordsFor(ctx context.Context, sessionID uint64, date string) ([]model.AdmissionRecord, error)
	Append(ctx context.Context, rec *model.AdmissionRecord) error
}

// Catalog lists the defined sessions. It is read-only here; session
// administration happens elsewhere.
type Catalog interface {
	ListActive(ctx context.Context) ([]model.Session, error)
}

// Profiles resolves a member ID into the profile attributes the
// eligibility rules need. An unknown member is (nil, nil), not an
// error: the distinction between "lookup failed" and "nobody there"
// matters to the error taxonomy.
type Profiles interface {
	Profile(ctx context.Context, id uint64) (*model.Member, error)
}

// Notifier receives capacity-changed events after commits. Delivery
// is best-effort, happens outside the lease, and its failure never
// rolls back an admission.
type Notifier interface {
	CapacityChanged(occ Occurrence, rec model.AdmissionRecord, newCount int)
}

// Controller orchestrates slot resolution, eligibility validation and
// the lease-serialized ledger mutation that admits a member. It is
// safe for concurrent use; all per-occurrence coordination goes
// through the lease provider.
type Controller struct {
	catalog   Catalog
	profiles  Profiles
	ledger    Ledger
	leases    lease.Provider
	notifier  Notifier
	leaseWait time.Duration
}

// NewController wires a controller. notifier may be nil when no event
// sink is configured.
func NewController(catalog Catalog, profiles Profiles, ledger Ledger, leases lease.Provider, notifier Notifier) *Controller {
	if catalog == nil || profiles == nil || ledger == nil || leases == nil {
		panic("nil dependency passed to NewController")
	}
	return &Controller{
		catalog:   catalog,
		profiles:  profiles,
		ledger:    ledger,
		leases:    leases,
		notifier:  notifier,
		leaseWait: LeaseWait,
	}
}

// Admit runs one admission attempt for a member arriving at now. The
// occurrence is resolved from the catalog and the current time; use
// AdmitTo when the occurrence is already known (manual admission,
// waitlist promotion). Admit never returns a Go error: every terminal
// state, including faults, is a Result.
func (c *Controller) Admit(ctx context.Context, memberID uint64, now time.Time, method model.Method) *Result {
	sessions, err := c.catalog.ListActive(ctx)
	if err != nil {
		return storageFault("load session catalog", err, nil)
	}
	occ, err := Resolve(now, sessions)
	if err != nil {
		return resolutionResult(err)
	}
	return c.AdmitTo(ctx, *occ, memberID, now, method)
}

// AdmitTo admits a member into a known occurrence. Eligibility is
// checked before the lease so ineligible attempts stay cheap; the
// duplicate and capacity checks run inside the lease because a
// concurrent admitter could race between an early check and the
// write. On commit the capacity-changed event fires after the lease
// has been released.
func (c *Controller) AdmitTo(ctx context.Context, occ Occurrence, memberID uint64, now time.Time, method model.Method) *Result {
	member, err := c.profiles.Profile(ctx, memberID)
	if err != nil {
		return storageFault("load member profile", err, &occ)
	}
	if member == nil {
		return &Result{
			Outcome:    OutcomeMissingProfile,
			Occurrence: &occ,
			Message:    "no profile found for this member",
		}
	}
	if err := Validate(occ.Session, *member); err != nil {
		out := OutcomeNotEligible
		var elig *EligibilityError
		if errors.As(err, &elig) && elig.Missing {
			out = OutcomeMissingProfile
		}
		return &Result{Outcome: out, Occurrence: &occ, Message: err.Error()}
	}

	res := c.admitLocked(ctx, occ, memberID, now, method)
	if res.Committed() && c.notifier != nil {
		c.notifier.CapacityChanged(occ, *res.Record, res.NewCount)
	}
	return res
}

// admitLocked is the critical section for one occurrence. The lease
// is released on every exit path, including storage faults, before
// the result is returned.
func (c *Controller) admitLocked(ctx context.Context, occ Occurrence, memberID uint64, now time.Time, method model.Method) *Result {
	tok, err := c.leases.Acquire(ctx, occ.Key(), c.leaseWait)
	if err != nil {
		return &Result{
			Outcome:    OutcomeLeaseTimeout,
			Occurrence: &occ,
			Message:    "the session is busy handling other check-ins; please retry",
			Err:        err,
		}
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.Background(), releaseBudget)
		defer cancel()
		if rerr := c.leases.Release(rctx, tok); rerr != nil {
			log.Printf("admission: release lease %s: %v", occ.Key(), rerr)
		}
	}()

	records, err := c.ledger.RecordsFor(ctx, occ.Session.ID, occ.Date)
	if err != nil {
		return storageFault("read admission ledger", err, &occ)
	}
	for _, r := range records {
		if r.MemberID == memberID {
			return &Result{
				Outcome:    OutcomeAlreadyAdmitted,
				Occurrence: &occ,
				Message:    fmt.Sprintf("already admitted to %s today", occ.Session.Name),
			}
		}
	}
	if uint32(len(records)) >= occ.Session.Capacity {
		return &Result{
			Outcome:    OutcomeCapacityExceeded,
			Occurrence: &occ,
			Message: fmt.Sprintf("session %s is full (%d/%d); you can join the waitlist",
				occ.Session.Name, len(records), occ.Session.Capacity),
		}
	}
	rec := &model.AdmissionRecord{
		SessionID:  occ.Session.ID,
		Date:       occ.Date,
		MemberID:   memberID,
		AdmittedAt: now.UTC(),
		Method:     method,
	}
	if err := c.ledger.Append(ctx, rec); err != nil {
		return storageFault("append admission record", err, &occ)
	}
	newCount := len(records) + 1
	return &Result{
		Outcome:    OutcomeCommitted,
		Occurrence: &occ,
		Record:     rec,
		NewCount:   newCount,
		Message:    fmt.Sprintf("admitted to %s (%d/%d)", occ.Session.Name, newCount, occ.Session.Capacity),
	}
}

// storageFault wraps a collaborator failure. It is never reported as
// a business outcome so that occupancy statistics stay honest.
func storageFault(op string, err error, occ *Occurrence) *Result {
	return &Result{
		Outcome:    OutcomeStorageFault,
		Occurrence: occ,
		Message:    "a storage error prevented the admission; nothing was recorded",
		Err:        fmt.Errorf("%s: %w", op, err),
	}
}

// resolutionResult maps a Resolve sentinel onto its outcome.
func resolutionResult(err error) *Result {
	out := OutcomeNoMatchingSession
	switch {
	case errors.Is(err, ErrNoSessionsConfigured):
		out = OutcomeNoSessions
	case errors.Is(err, ErrPastLastSession):
		out = OutcomePastLastSession
	}
	return &Result{Outcome: out, Message: err.Error()}
}
