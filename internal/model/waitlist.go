package model

import "time"

// WaitlistStatus is the lifecycle state of a waitlist entry. Only
// WAITING entries count toward the queue; the other two states keep
// a historical trace of how the entry left it.
type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "WAITING"
	WaitlistPromoted  WaitlistStatus = "PROMOTED"
	WaitlistWithdrawn WaitlistStatus = "WITHDRAWN"
)

// WaitlistEntry is one member's place in the ordered queue for a
// full occurrence. Positions are 1-based and dense: the WAITING
// entries of an occurrence always hold positions 1..N with no gaps,
// so "you are number 3 in line" stays truthful. When an earlier
// entry leaves, every entry behind it moves up one position.
//
// Fields:
//
//	ID        – primary key identifier.
//	SessionID – session of the occurrence.
//	Date      – occurrence date (DateLayout).
//	MemberID  – waiting member.
//	Position  – 1-based place in line among WAITING entries.
//	Status    – lifecycle state.
//	CreatedAt – when the member joined the queue.
type WaitlistEntry struct {
	ID        uint64         `json:"id"`
	SessionID uint64         `json:"session_id"`
	Date      string         `json:"date"`
	MemberID  uint64         `json:"member_id"`
	Position  int            `json:"position"`
	Status    WaitlistStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}
