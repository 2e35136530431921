package model

import "time"

// Gender is the profile attribute checked by gender-restricted
// sessions. The zero value means the attribute was never recorded,
// which eligibility validation reports as a data-quality fault
// rather than a plain rejection.
type Gender string

const (
	GenderUnknown Gender = ""
	GenderMale    Gender = "MALE"
	GenderFemale  Gender = "FEMALE"
)

// MemberClass is the role-class attribute checked by class-restricted
// sessions (e.g. a staff-only lane hour).
type MemberClass string

const (
	ClassStudent  MemberClass = "STUDENT"
	ClassGraduate MemberClass = "GRADUATE"
	ClassStaff    MemberClass = "STAFF"
)

// API roles. MEMBER is the default for self-registration; STAFF and
// ADMIN are assigned out of band and unlock the /v1/admin surface.
const (
	RoleMember = "MEMBER"
	RoleStaff  = "STAFF"
	RoleAdmin  = "ADMIN"
)

// Member is a registered user of the facility together with the
// profile attributes the eligibility rules need.
//
// Fields:
//
//	ID           – primary key identifier.
//	Email        – unique login email, lower-cased.
//	PasswordHash – bcrypt hash; never serialized.
//	Role         – API role (MEMBER, STAFF, ADMIN).
//	Gender       – gender attribute; may be unrecorded.
//	Class        – role class attribute; may be unrecorded.
//	CreatedAt    – registration timestamp.
type Member struct {
	ID           uint64      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         string      `json:"role"`
	Gender       Gender      `json:"gender,omitempty"`
	Class        MemberClass `json:"class,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
