package model

import "time"

// Method records how an admission happened: scanned at the entrance
// terminal or entered manually by staff (front desk, waitlist
// promotion).
type Method string

const (
	MethodScanned Method = "SCANNED"
	MethodManual  Method = "MANUAL"
)

// DateLayout is the canonical occurrence date format. Occurrence
// dates are plain calendar dates; formatting through a string avoids
// dragging a time zone into comparisons and lease keys.
const DateLayout = "2006-01-02"

// DateOf returns the occurrence date of an instant.
func DateOf(t time.Time) string { return t.Format(DateLayout) }

// AdmissionRecord is one member's entry into one occurrence. Records
// are created exactly once per successful admission and form the
// permanent history of the facility: they are never updated and never
// deleted, and there is no checkout. Occupancy of an occurrence is
// always the count of its records, re-read under the occurrence
// lease.
//
// Fields:
//
//	ID         – primary key identifier.
//	SessionID  – session the member entered.
//	Date       – occurrence date (DateLayout).
//	MemberID   – admitted member.
//	AdmittedAt – commit timestamp, UTC.
//	Method     – how the admission was made.
type AdmissionRecord struct {
	ID         uint64    `json:"id"`
	SessionID  uint64    `json:"session_id"`
	Date       string    `json:"date"`
	MemberID   uint64    `json:"member_id"`
	AdmittedAt time.Time `json:"admitted_at"`
	Method     Method    `json:"method"`
}
