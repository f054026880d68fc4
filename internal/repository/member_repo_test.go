package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"member-auth/internal/domain"
)

func sampleMember() domain.Member {
	return domain.Member{
		ID:          "JD9002K7",
		FullName:    "Jane Doe",
		Email:       "a@x.com",
		Contact:     "+1555",
		DateOfBirth: time.Date(1990, 2, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:   time.Now().UTC(),
	}
}

func TestPgMemberRepository_Create(t *testing.T) {
	tests := []struct {
		name    string
		execErr error
		wantErr error
		anyErr  bool
	}{
		{name: "inserted"},
		{
			name:    "member id collision",
			execErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "members_pkey"},
			wantErr: ErrMemberIDTaken,
		},
		{
			name:    "email collision",
			execErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "members_email_key"},
			wantErr: ErrEmailTaken,
		},
		{
			name:    "driver error is wrapped",
			execErr: errors.New("connection refused"),
			anyErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			m := sampleMember()
			exp := mock.ExpectExec(`INSERT INTO members`).
				WithArgs(m.ID, m.FullName, m.Email, m.Contact, m.DateOfBirth, m.CreatedAt)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			err = NewPgMemberRepository(mock).Create(context.Background(), m)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "connection refused")
			default:
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPgMemberRepository_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	m := sampleMember()
	rows := pgxmock.NewRows([]string{"member_id", "full_name", "email", "contact", "date_of_birth", "created_at"}).
		AddRow(m.ID, m.FullName, m.Email, m.Contact, m.DateOfBirth, m.CreatedAt)
	mock.ExpectQuery(`FROM members\s+WHERE email = \$1`).WithArgs("a@x.com").WillReturnRows(rows)

	got, err := NewPgMemberRepository(mock).GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, m, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgMemberRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM members\s+WHERE member_id = \$1`).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err = NewPgMemberRepository(mock).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
