package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"member-auth/internal/domain"
)

func TestPgPendingRegistrationRepository_SaveUpserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	p := domain.PendingRegistration{
		Email:        "a@x.com",
		FullName:     "Jane Doe",
		Contact:      "+1555",
		DateOfBirth:  time.Date(1990, 2, 1, 0, 0, 0, 0, time.UTC),
		OtpHash:      "hash",
		OtpExpiresAt: now.Add(5 * time.Minute),
		CreatedAt:    now,
	}
	mock.ExpectExec(`ON CONFLICT \(email\) DO UPDATE`).
		WithArgs(p.Email, p.FullName, p.Contact, p.DateOfBirth, p.OtpHash, p.OtpExpiresAt, p.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPgPendingRegistrationRepository(mock).Save(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgPendingRegistrationRepository_GetByEmail(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantEmail string
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				now := time.Now().UTC()
				rows := pgxmock.NewRows([]string{"email", "full_name", "contact", "date_of_birth", "otp_hash", "otp_expires_at", "created_at"}).
					AddRow("a@x.com", "Jane Doe", "+1555", time.Date(1990, 2, 1, 0, 0, 0, 0, time.UTC), "hash", now.Add(time.Minute), now)
				mock.ExpectQuery(`FROM pending_registrations`).WithArgs("a@x.com").WillReturnRows(rows)
			},
			wantEmail: "a@x.com",
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM pending_registrations`).WithArgs("a@x.com").WillReturnError(pgx.ErrNoRows)
			},
			wantErr: pgx.ErrNoRows,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setupMock(mock)

			got, err := NewPgPendingRegistrationRepository(mock).GetByEmail(context.Background(), "a@x.com")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantEmail, got.Email)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPgPendingRegistrationRepository_DeleteWrapsErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM pending_registrations`).WithArgs("a@x.com").WillReturnError(errors.New("timeout"))

	err = NewPgPendingRegistrationRepository(mock).Delete(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	require.NoError(t, mock.ExpectationsWereMet())
}
