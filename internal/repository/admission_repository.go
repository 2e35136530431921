package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/aquacenter/session-admission/internal/model"
)

// AdmissionRepo provides data access to the admissions table, the
// ledger of who entered which occurrence. Rows are append-only: the
// table is the permanent admission history and nothing ever updates
// or deletes it. A UNIQUE(session_id, date, member_id) index backs
// the no-duplicate invariant as a last line of defence; the real
// enforcement happens under the occurrence lease.
type AdmissionRepo struct {
	db *sql.DB
}

// NewAdmissionRepo returns an AdmissionRepo bound to the database.
func NewAdmissionRepo(db *sql.DB) *AdmissionRepo { return &AdmissionRepo{db: db} }

// RecordsFor returns every admission record of one occurrence. The
// admission controller calls this inside the occurrence lease to
// derive occupancy and detect duplicates; occupancy is never cached
// across the lock boundary.
func (r *AdmissionRepo) RecordsFor(ctx context.Context, sessionID uint64, date string) ([]model.AdmissionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, date, member_id, admitted_at, method
		 FROM admissions WHERE session_id = ? AND date = ? ORDER BY admitted_at, id`,
		sessionID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AdmissionRecord
	for rows.Next() {
		rec, err := scanAdmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Append inserts one admission record and populates its ID. Only the
// admission controller calls this, and only while holding the
// occurrence lease.
func (r *AdmissionRepo) Append(ctx context.Context, rec *model.AdmissionRecord) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO admissions (session_id, date, member_id, admitted_at, method)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Date, rec.MemberID,
		rec.AdmittedAt.UTC().Format("2006-01-02 15:04:05"), string(rec.Method))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// CountFor returns the occupancy of one occurrence. Informational
// only — admission decisions re-read the full record set under the
// lease instead of trusting this number.
func (r *AdmissionRepo) CountFor(ctx context.Context, sessionID uint64, date string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admissions WHERE session_id = ? AND date = ?`,
		sessionID, date).Scan(&n)
	return n, err
}

// CountsForDate returns occupancy per session for one date, used by
// the schedule view to decorate each slot with its live count.
func (r *AdmissionRepo) CountsForDate(ctx context.Context, date string) (map[uint64]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, COUNT(*) FROM admissions WHERE date = ? GROUP BY session_id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[uint64]int)
	for rows.Next() {
		var (
			sid uint64
			n   int
		)
		if err := rows.Scan(&sid, &n); err != nil {
			return nil, err
		}
		counts[sid] = n
	}
	return counts, rows.Err()
}

// MemberAdmission is an admission record joined with the session it
// belongs to, for history listings.
type MemberAdmission struct {
	model.AdmissionRecord
	SessionName string          `json:"session_name"`
	StartsAt    model.TimeOfDay `json:"starts_at"`
	EndsAt      model.TimeOfDay `json:"ends_at"`
}

// ListByMember returns a member's admission history, newest first.
func (r *AdmissionRepo) ListByMember(ctx context.Context, memberID uint64) ([]MemberAdmission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.session_id, a.date, a.member_id, a.admitted_at, a.method,
		        s.name, s.starts_at, s.ends_at
		 FROM admissions a JOIN sessions s ON s.id = a.session_id
		 WHERE a.member_id = ? ORDER BY a.admitted_at DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MemberAdmission
	for rows.Next() {
		var (
			m      MemberAdmission
			date   time.Time
			method string
			starts string
			ends   string
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &date, &m.MemberID, &m.AdmittedAt, &method,
			&m.SessionName, &starts, &ends); err != nil {
			return nil, err
		}
		m.Date = date.Format(model.DateLayout)
		m.Method = model.Method(method)
		if m.StartsAt, err = model.ParseTimeOfDay(starts); err != nil {
			return nil, err
		}
		if m.EndsAt, err = model.ParseTimeOfDay(ends); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// scanAdmission reads one admissions row. DATE columns scan as
// time.Time under parseTime=true and are reduced to the date string.
func scanAdmission(scan func(dest ...any) error) (*model.AdmissionRecord, error) {
	var (
		rec    model.AdmissionRecord
		date   time.Time
		method string
	)
	if err := scan(&rec.ID, &rec.SessionID, &date, &rec.MemberID, &rec.AdmittedAt, &method); err != nil {
		return nil, err
	}
	rec.Date = date.Format(model.DateLayout)
	rec.Method = model.Method(method)
	return &rec, nil
}
