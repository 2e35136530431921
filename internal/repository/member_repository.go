package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/aquacenter/session-admission/internal/model"
	"github.com/aquacenter/session-admission/internal/utils"
)

// MemberRepo provides data access to the members table. Besides the
// auth lookups it is the identity/profile provider for eligibility
// validation: Profile resolves a member ID into the gender and class
// attributes the restriction rules compare against.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo returns a MemberRepo bound to the database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

const memberColumns = `id, email, password_hash, role, gender, class, created_at`

func scanMember(scan func(dest ...any) error) (*model.Member, error) {
	var (
		m      model.Member
		gender string
		class  string
	)
	if err := scan(&m.ID, &m.Email, &m.PasswordHash, &m.Role, &gender, &class, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Gender = model.Gender(gender)
	m.Class = model.MemberClass(class)
	return &m, nil
}

// Create registers a member, hashing the password with bcrypt at the
// given cost. Duplicate emails surface as ErrEmailExists.
func (r *MemberRepo) Create(ctx context.Context, email, password, role string, gender model.Gender, class model.MemberClass, bcryptCost int) (uint64, error) {
	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO members (email, password_hash, role, gender, class)
		 VALUES (?, ?, ?, ?, ?)`,
		email, hash, role, string(gender), string(class))
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 { // duplicate key
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail returns the member with the given email or
// ErrMemberNotFound.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (*model.Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE email = ?`, email)
	m, err := scanMember(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetByID returns the member with the given ID or ErrMemberNotFound.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (*model.Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Profile is the eligibility lookup used by the admission controller.
// Unlike GetByID it reports an unknown member as (nil, nil): the
// controller separates "no such profile" from a storage fault.
func (r *MemberRepo) Profile(ctx context.Context, id uint64) (*model.Member, error) {
	m, err := r.GetByID(ctx, id)
	if errors.Is(err, ErrMemberNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
