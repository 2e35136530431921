package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/aquacenter/session-admission/internal/model"
)

// SessionRepo provides data access to the sessions table, which is
// the session catalog: daily time slots with restriction, capacity
// and active flag. The admission controller only reads it
// (ListActive); the mutating methods back the admin CRUD surface.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = `id, name, starts_at, ends_at, restriction, capacity, is_active, created_at, updated_at`

// scanSession reads one sessions row. TIME columns arrive as strings
// ("15:04:05") and are parsed into model.TimeOfDay.
func scanSession(scan func(dest ...any) error) (*model.Session, error) {
	var (
		s          model.Session
		starts     string
		ends       string
		restr      string
		active     bool
	)
	if err := scan(&s.ID, &s.Name, &starts, &ends, &restr, &s.Capacity, &active, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	st, err := model.ParseTimeOfDay(starts)
	if err != nil {
		return nil, err
	}
	en, err := model.ParseTimeOfDay(ends)
	if err != nil {
		return nil, err
	}
	s.StartsAt = st
	s.EndsAt = en
	s.Restriction = model.Restriction(restr)
	s.IsActive = active
	return &s, nil
}

// querySessions runs a query returning full session rows.
func (r *SessionRepo) querySessions(ctx context.Context, q string, args ...any) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Session
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// ListActive returns the active sessions ordered by start time. This
// is the catalog view the slot resolver consumes.
func (r *SessionRepo) ListActive(ctx context.Context) ([]model.Session, error) {
	return r.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE is_active = 1 ORDER BY starts_at, id`)
}

// List returns every session, active or not, for administration.
func (r *SessionRepo) List(ctx context.Context) ([]model.Session, error) {
	return r.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY starts_at, id`)
}

// GetByID returns one session or ErrSessionNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// overlapsActive reports whether an active session other than
// excludeID overlaps the half-open range [starts, ends).
func (r *SessionRepo) overlapsActive(ctx context.Context, starts, ends model.TimeOfDay, excludeID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions
		 WHERE is_active = 1 AND id <> ? AND starts_at < ? AND ends_at > ?`,
		excludeID, ends.SQL(), starts.SQL()).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts a session after checking the no-overlap precondition
// for active sessions. The ID and timestamps are populated on the
// passed struct.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	if s.IsActive {
		overlap, err := r.overlapsActive(ctx, s.StartsAt, s.EndsAt, 0)
		if err != nil {
			return err
		}
		if overlap {
			return ErrSessionOverlap
		}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (name, starts_at, ends_at, restriction, capacity, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.Name, s.StartsAt.SQL(), s.EndsAt.SQL(), string(s.Restriction), s.Capacity, s.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// Update rewrites a session's definition, rechecking the no-overlap
// precondition against the other active sessions. Returns
// ErrSessionNotFound when the ID does not exist.
func (r *SessionRepo) Update(ctx context.Context, s *model.Session) error {
	if s.IsActive {
		overlap, err := r.overlapsActive(ctx, s.StartsAt, s.EndsAt, s.ID)
		if err != nil {
			return err
		}
		if overlap {
			return ErrSessionOverlap
		}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET name = ?, starts_at = ?, ends_at = ?, restriction = ?, capacity = ?, is_active = ?
		 WHERE id = ?`,
		s.Name, s.StartsAt.SQL(), s.EndsAt.SQL(), string(s.Restriction), s.Capacity, s.IsActive, s.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either absent or unchanged; disambiguate with a lookup.
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a session that has no admission history. Sessions
// with recorded admissions return ErrConflict: the ledger is
// permanent, so such sessions are deactivated instead. The history
// check and the delete run in one transaction so an admission
// committed in between cannot orphan its session.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admissions WHERE session_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
