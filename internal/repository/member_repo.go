package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"member-auth/internal/domain"
)

// MemberRepository define el contrato de persistencia para socios verificados.
type MemberRepository interface {
	Create(ctx context.Context, member domain.Member) error
	GetByID(ctx context.Context, id string) (domain.Member, error)
	GetByEmail(ctx context.Context, email string) (domain.Member, error)
}

// PgMemberRepository implementa MemberRepository usando pgx.
type PgMemberRepository struct {
	pool pgxIface
}

func NewPgMemberRepository(pool pgxIface) *PgMemberRepository {
	return &PgMemberRepository{pool: pool}
}

// Create inserta el socio. Una violacion de unicidad se traduce a
// ErrMemberIDTaken o ErrEmailTaken segun la restriccion.
func (r *PgMemberRepository) Create(ctx context.Context, member domain.Member) error {
	const query = `
		INSERT INTO members (member_id, full_name, email, contact, date_of_birth, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		member.ID,
		member.FullName,
		member.Email,
		member.Contact,
		member.DateOfBirth,
		member.CreatedAt,
	)
	if err == nil {
		return nil
	}
	if pgErr, ok := uniqueViolation(err); ok {
		if pgErr.ConstraintName == "members_email_key" {
			return ErrEmailTaken
		}
		return ErrMemberIDTaken
	}
	return oops.With("operation", "create member").With("member_id", member.ID).Wrap(err)
}

func (r *PgMemberRepository) GetByID(ctx context.Context, id string) (domain.Member, error) {
	const query = `
		SELECT member_id, full_name, email, contact, date_of_birth, created_at
		FROM members
		WHERE member_id = $1
	`
	return r.scanOne(ctx, "get member by id", query, id)
}

func (r *PgMemberRepository) GetByEmail(ctx context.Context, email string) (domain.Member, error) {
	const query = `
		SELECT member_id, full_name, email, contact, date_of_birth, created_at
		FROM members
		WHERE email = $1
	`
	return r.scanOne(ctx, "get member by email", query, email)
}

func (r *PgMemberRepository) scanOne(ctx context.Context, op, query string, arg string) (domain.Member, error) {
	var m domain.Member
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&m.ID,
		&m.FullName,
		&m.Email,
		&m.Contact,
		&m.DateOfBirth,
		&m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Member{}, err
	}
	if err != nil {
		return domain.Member{}, oops.With("operation", op).Wrap(err)
	}
	return m, nil
}
