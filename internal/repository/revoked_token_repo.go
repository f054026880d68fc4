package repository

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// RevokedTokenRepository persiste la lista de tokens revocados.
type RevokedTokenRepository interface {
	Insert(ctx context.Context, digest string, expiresAt time.Time) error
	Exists(ctx context.Context, digest string, now time.Time) (bool, error)
	Purge(ctx context.Context, now time.Time) (int64, error)
}

type PgRevokedTokenRepository struct {
	pool pgxIface
}

func NewPgRevokedTokenRepository(pool pgxIface) *PgRevokedTokenRepository {
	return &PgRevokedTokenRepository{pool: pool}
}

// Insert nunca acorta una entrada existente.
func (r *PgRevokedTokenRepository) Insert(ctx context.Context, digest string, expiresAt time.Time) error {
	const query = `
		INSERT INTO revoked_tokens (token_digest, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token_digest) DO UPDATE SET
			expires_at = GREATEST(revoked_tokens.expires_at, EXCLUDED.expires_at)
	`
	if _, err := r.pool.Exec(ctx, query, digest, expiresAt); err != nil {
		return oops.With("operation", "insert revoked token").Wrap(err)
	}
	return nil
}

// Exists ignora entradas vencidas aunque todavia no se hayan purgado.
func (r *PgRevokedTokenRepository) Exists(ctx context.Context, digest string, now time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM revoked_tokens WHERE token_digest = $1 AND expires_at > $2
		)
	`
	var found bool
	if err := r.pool.QueryRow(ctx, query, digest, now).Scan(&found); err != nil {
		return false, oops.With("operation", "check revoked token").Wrap(err)
	}
	return found, nil
}

func (r *PgRevokedTokenRepository) Purge(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM revoked_tokens WHERE expires_at <= $1`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, oops.With("operation", "purge revoked tokens").Wrap(err)
	}
	return tag.RowsAffected(), nil
}
