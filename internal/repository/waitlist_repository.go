package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/aquacenter/session-admission/internal/model"
)

// WaitlistRepo provides data access to the waitlist_entries table.
// It implements the store interface consumed by the waitlist manager,
// which calls the mutating methods only while holding the occurrence
// lease — the renumbering update therefore never races another
// mutation of the same occurrence.
type WaitlistRepo struct {
	db *sql.DB
}

// NewWaitlistRepo returns a WaitlistRepo bound to the database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

// ActiveEntries returns the WAITING entries of an occurrence in
// position order.
func (r *WaitlistRepo) ActiveEntries(ctx context.Context, sessionID uint64, date string) ([]model.WaitlistEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, date, member_id, position, status, created_at
		 FROM waitlist_entries
		 WHERE session_id = ? AND date = ? AND status = ?
		 ORDER BY position`,
		sessionID, date, string(model.WaitlistWaiting))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WaitlistEntry
	for rows.Next() {
		var (
			e      model.WaitlistEntry
			day    time.Time
			status string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &day, &e.MemberID, &e.Position, &status, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Date = day.Format(model.DateLayout)
		e.Status = model.WaitlistStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

// HasLiveEntry reports whether the member has a non-withdrawn entry
// for the occurrence. Both WAITING and PROMOTED count: a promoted
// member was admitted and has no business re-queuing for the same
// occurrence.
func (r *WaitlistRepo) HasLiveEntry(ctx context.Context, sessionID uint64, date string, memberID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM waitlist_entries
		 WHERE session_id = ? AND date = ? AND member_id = ? AND status <> ?`,
		sessionID, date, memberID, string(model.WaitlistWithdrawn)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert stores a new entry and populates its ID. The manager has
// already computed the dense position under the occurrence lease.
func (r *WaitlistRepo) Insert(ctx context.Context, e *model.WaitlistEntry) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO waitlist_entries (session_id, date, member_id, position, status)
		 VALUES (?, ?, ?, ?, ?)`,
		e.SessionID, e.Date, e.MemberID, e.Position, string(e.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// Withdraw marks an entry WITHDRAWN. The row is kept rather than
// deleted so the queue history survives.
func (r *WaitlistRepo) Withdraw(ctx context.Context, id uint64) error {
	return r.setStatus(ctx, id, model.WaitlistWithdrawn)
}

// MarkPromoted marks an entry PROMOTED after its member was admitted
// through the promotion endpoint.
func (r *WaitlistRepo) MarkPromoted(ctx context.Context, id uint64) error {
	return r.setStatus(ctx, id, model.WaitlistPromoted)
}

func (r *WaitlistRepo) setStatus(ctx context.Context, id uint64, status model.WaitlistStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// ShiftDown closes the gap a removed entry leaves: every WAITING
// entry of the occurrence behind the removed position moves up one.
func (r *WaitlistRepo) ShiftDown(ctx context.Context, sessionID uint64, date string, above int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE waitlist_entries
		 SET position = position - 1
		 WHERE session_id = ? AND date = ? AND status = ? AND position > ?`,
		sessionID, date, string(model.WaitlistWaiting), above)
	return err
}
