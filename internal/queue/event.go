// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// CapacityChangedEvent is published after every committed admission.
// It carries enough for downstream consumers — occupancy displays,
// analytics, notification fan-out — to act without querying the
// primary database. Delivery is best-effort and happens outside the
// occurrence lease; the admission stands whether or not the event
// makes it to the broker.
type CapacityChangedEvent struct {
	SessionID   uint64 `json:"session_id"`
	SessionName string `json:"session_name"`
	Date        string `json:"date"`
	MemberID    uint64 `json:"member_id"`
	Method      string `json:"method"`
	NewCount    int    `json:"new_count"`
	Capacity    uint32 `json:"capacity"`
	AdmittedAt  string `json:"admitted_at"`
}
