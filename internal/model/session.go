package model

import "time"

// Restriction limits who may be admitted to a session. The zero
// value means the session is open to every member. Gender
// restrictions are checked against Member.Gender; class restrictions
// against Member.Class. Restricted sessions admit only an exact
// category match.
type Restriction string

const (
	RestrictionNone     Restriction = ""         // open to everyone
	RestrictionMen      Restriction = "MEN"      // male members only
	RestrictionWomen    Restriction = "WOMEN"    // female members only
	RestrictionStaff    Restriction = "STAFF"    // staff class only
	RestrictionGraduate Restriction = "GRADUATE" // graduate class only
)

// Valid reports whether r is one of the known restriction values.
func (r Restriction) Valid() bool {
	switch r {
	case RestrictionNone, RestrictionMen, RestrictionWomen, RestrictionStaff, RestrictionGraduate:
		return true
	}
	return false
}

// Session is a recurring daily time slot of the facility. The slot
// itself carries the eligibility restriction and the hard capacity
// ceiling; occupancy is tracked per occurrence (session + date), not
// here. Sessions are defined by administrators and never mutated in
// the middle of an admission decision.
//
// Fields:
//
//	ID          – primary key identifier.
//	Name        – display name, e.g. "Morning lap swim".
//	StartsAt    – daily start time.
//	EndsAt      – daily end time (must be after StartsAt).
//	Restriction – who may enter; see Restriction.
//	Capacity    – maximum simultaneous admissions per occurrence.
//	IsActive    – inactive sessions are invisible to slot resolution.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type Session struct {
	ID          uint64      `json:"id"`
	Name        string      `json:"name"`
	StartsAt    TimeOfDay   `json:"starts_at"`
	EndsAt      TimeOfDay   `json:"ends_at"`
	Restriction Restriction `json:"restriction"`
	Capacity    uint32      `json:"capacity"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
