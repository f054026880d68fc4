package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"member-auth/internal/domain"
)

// LoginChallengeRepository guarda el OTP de login activo por socio.
type LoginChallengeRepository interface {
	Upsert(ctx context.Context, challenge domain.LoginChallenge) error
	GetByMemberID(ctx context.Context, memberID string) (domain.LoginChallenge, error)
	// Consume borra el challenge solo si sigue siendo el mismo hash; devuelve false
	// si otra peticion ya lo consumio o lo reemplazo.
	Consume(ctx context.Context, memberID, otpHash string) (bool, error)
}

type PgLoginChallengeRepository struct {
	pool pgxIface
}

func NewPgLoginChallengeRepository(pool pgxIface) *PgLoginChallengeRepository {
	return &PgLoginChallengeRepository{pool: pool}
}

func (r *PgLoginChallengeRepository) Upsert(ctx context.Context, c domain.LoginChallenge) error {
	const query = `
		INSERT INTO login_challenges (member_id, otp_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (member_id) DO UPDATE SET
			otp_hash = EXCLUDED.otp_hash,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
	`
	if _, err := r.pool.Exec(ctx, query, c.MemberID, c.OtpHash, c.ExpiresAt, c.CreatedAt); err != nil {
		return oops.With("operation", "upsert login challenge").With("member_id", c.MemberID).Wrap(err)
	}
	return nil
}

func (r *PgLoginChallengeRepository) GetByMemberID(ctx context.Context, memberID string) (domain.LoginChallenge, error) {
	const query = `
		SELECT member_id, otp_hash, expires_at, created_at
		FROM login_challenges
		WHERE member_id = $1
	`
	var c domain.LoginChallenge
	err := r.pool.QueryRow(ctx, query, memberID).Scan(&c.MemberID, &c.OtpHash, &c.ExpiresAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LoginChallenge{}, err
	}
	if err != nil {
		return domain.LoginChallenge{}, oops.With("operation", "get login challenge").Wrap(err)
	}
	return c, nil
}

func (r *PgLoginChallengeRepository) Consume(ctx context.Context, memberID, otpHash string) (bool, error) {
	const query = `DELETE FROM login_challenges WHERE member_id = $1 AND otp_hash = $2`
	tag, err := r.pool.Exec(ctx, query, memberID, otpHash)
	if err != nil {
		return false, oops.With("operation", "consume login challenge").With("member_id", memberID).Wrap(err)
	}
	return tag.RowsAffected() == 1, nil
}
