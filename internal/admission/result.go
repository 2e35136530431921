package admission

import "github.com/aquacenter/session-admission/internal/model"

// Outcome is the machine-readable kind of an admission attempt's
// terminal state. Handlers map outcomes onto HTTP statuses; logs and
// metrics key on them. OutcomeLeaseTimeout is the only transient
// kind and must never be conflated with OutcomeCapacityExceeded:
// its cause is lock contention, not occupancy.
type Outcome string

const (
	OutcomeCommitted         Outcome = "COMMITTED"
	OutcomeNoSessions        Outcome = "NO_SESSIONS_CONFIGURED"
	OutcomePastLastSession   Outcome = "PAST_LAST_SESSION"
	OutcomeNoMatchingSession Outcome = "NO_MATCHING_SESSION"
	OutcomeNotEligible       Outcome = "NOT_ELIGIBLE"
	OutcomeMissingProfile    Outcome = "MISSING_PROFILE"
	OutcomeAlreadyAdmitted   Outcome = "ALREADY_ADMITTED"
	OutcomeCapacityExceeded  Outcome = "CAPACITY_EXCEEDED"
	OutcomeLeaseTimeout      Outcome = "LEASE_TIMEOUT"
	OutcomeStorageFault      Outcome = "STORAGE_FAULT"
)

// Result is the terminal state of one admission attempt. Message is
// safe to show to the member. Occurrence is set whenever resolution
// succeeded, including rejections discovered afterwards. Record and
// NewCount are set only on commit. Err carries the underlying cause
// for storage faults and lease failures.
type Result struct {
	Outcome    Outcome                `json:"outcome"`
	Message    string                 `json:"message"`
	Occurrence *Occurrence            `json:"occurrence,omitempty"`
	Record     *model.AdmissionRecord `json:"record,omitempty"`
	NewCount   int                    `json:"new_count,omitempty"`
	Err        error                  `json:"-"`
}

// Committed reports whether the attempt admitted the member.
func (r *Result) Committed() bool { return r.Outcome == OutcomeCommitted }

// Transient reports whether retrying the same attempt can succeed.
// Only lease contention qualifies; every business rejection is
// permanent for its occurrence.
func (r *Result) Transient() bool { return r.Outcome == OutcomeLeaseTimeout }
