package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"member-auth/internal/domain"
)

// PendingRegistrationRepository guarda registros sin verificar, uno por email.
type PendingRegistrationRepository interface {
	Save(ctx context.Context, pending domain.PendingRegistration) error
	GetByEmail(ctx context.Context, email string) (domain.PendingRegistration, error)
	Delete(ctx context.Context, email string) error
}

type PgPendingRegistrationRepository struct {
	pool pgxIface
}

func NewPgPendingRegistrationRepository(pool pgxIface) *PgPendingRegistrationRepository {
	return &PgPendingRegistrationRepository{pool: pool}
}

// Save hace upsert por email; un segundo registro reemplaza al anterior en una sola sentencia.
func (r *PgPendingRegistrationRepository) Save(ctx context.Context, p domain.PendingRegistration) error {
	const query = `
		INSERT INTO pending_registrations (email, full_name, contact, date_of_birth, otp_hash, otp_expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			contact = EXCLUDED.contact,
			date_of_birth = EXCLUDED.date_of_birth,
			otp_hash = EXCLUDED.otp_hash,
			otp_expires_at = EXCLUDED.otp_expires_at,
			created_at = EXCLUDED.created_at
	`
	_, err := r.pool.Exec(ctx, query,
		p.Email,
		p.FullName,
		p.Contact,
		p.DateOfBirth,
		p.OtpHash,
		p.OtpExpiresAt,
		p.CreatedAt,
	)
	if err != nil {
		return oops.With("operation", "save pending registration").Wrap(err)
	}
	return nil
}

func (r *PgPendingRegistrationRepository) GetByEmail(ctx context.Context, email string) (domain.PendingRegistration, error) {
	const query = `
		SELECT email, full_name, contact, date_of_birth, otp_hash, otp_expires_at, created_at
		FROM pending_registrations
		WHERE email = $1
	`
	var p domain.PendingRegistration
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&p.Email,
		&p.FullName,
		&p.Contact,
		&p.DateOfBirth,
		&p.OtpHash,
		&p.OtpExpiresAt,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PendingRegistration{}, err
	}
	if err != nil {
		return domain.PendingRegistration{}, oops.With("operation", "get pending registration").Wrap(err)
	}
	return p, nil
}

func (r *PgPendingRegistrationRepository) Delete(ctx context.Context, email string) error {
	const query = `DELETE FROM pending_registrations WHERE email = $1`
	if _, err := r.pool.Exec(ctx, query, email); err != nil {
		return oops.With("operation", "delete pending registration").Wrap(err)
	}
	return nil
}
