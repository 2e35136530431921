// Package admission implements the session admission core: slot
// resolution, eligibility validation, the lease-serialized admission
// controller and the waitlist manager. Everything here is
// transport-agnostic; HTTP handlers translate Results and sentinel
// errors into status codes.
package admission

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aquacenter/session-admission/internal/model"
)

// LookaheadWindow is how early a member may check in for an upcoming
// session. An arrival inside this margin before a start time resolves
// to that session instead of being turned away.
const LookaheadWindow = 10 * time.Minute

// Resolution faults. All three are permanent for the instant they
// were computed at; retrying without waiting cannot change them.
var (
	ErrNoSessionsConfigured = errors.New("no active sessions are configured")
	ErrPastLastSession      = errors.New("the last session of the day has ended")
	ErrNoMatchingSession    = errors.New("no session matches the current time")
)

// Occurrence pairs a session with a calendar date. Capacity, the
// ledger and the lease all apply per occurrence: the same session
// tomorrow has independent occupancy and its own lock.
type Occurrence struct {
	Session model.Session `json:"session"`
	Date    string        `json:"date"`
}

// Key returns the lease key for the occurrence.
func (o Occurrence) Key() string { return occurrenceKey(o.Session.ID, o.Date) }

func occurrenceKey(sessionID uint64, date string) string {
	return fmt.Sprintf("%d:%s", sessionID, date)
}

// Resolve picks the occurrence an arrival at now belongs to. It is a
// pure function of its inputs. The rules, applied in order against
// the active sessions sorted by start time:
//
//  1. no active sessions -> ErrNoSessionsConfigured
//  2. before the first session starts -> the first session
//     (early-arrival grace)
//  3. within LookaheadWindow of an upcoming start -> that session.
//     This outranks the running slot: during the final lookahead
//     minutes of a session, arrivals belong to the next one — they
//     came for it, not for the tail of the current slot.
//  4. inside some session's [start, end) -> that session; when
//     sessions overlap the earliest-starting match wins (stable sort,
//     catalog order breaks start-time ties)
//  5. after every session has ended -> ErrPastLastSession
//  6. otherwise (in a gap between sessions, outside the lookahead of
//     the next one) -> ErrNoMatchingSession
//
// Comparisons run at minute granularity, so an arrival at exactly an
// end time is already outside that slot.
func Resolve(now time.Time, catalog []model.Session) (*Occurrence, error) {
	active := make([]model.Session, 0, len(catalog))
	for _, s := range catalog {
		if s.IsActive {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoSessionsConfigured
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].StartsAt < active[j].StartsAt })

	date := model.DateOf(now)
	at := model.MinutesOfDay(now)

	if at < active[0].StartsAt {
		return &Occurrence{Session: active[0], Date: date}, nil
	}
	lookahead := model.TimeOfDay(LookaheadWindow / time.Minute)
	for _, s := range active {
		if s.StartsAt > at && s.StartsAt-at <= lookahead {
			return &Occurrence{Session: s, Date: date}, nil
		}
	}
	for _, s := range active {
		if at >= s.StartsAt && at < s.EndsAt {
			return &Occurrence{Session: s, Date: date}, nil
		}
	}
	// Sessions may overlap, so the latest end is not necessarily on
	// the last element.
	lastEnd := active[0].EndsAt
	for _, s := range active[1:] {
		if s.EndsAt > lastEnd {
			lastEnd = s.EndsAt
		}
	}
	if at >= lastEnd {
		return nil, ErrPastLastSession
	}
	return nil, ErrNoMatchingSession
}
