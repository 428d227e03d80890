package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabcalendar/internal/domain"
)

var userCols = []string{"id", "email", "display_name", "password_hash", "salt", "created_at", "updated_at"}

func TestUserRepository_GetByEmail(t *testing.T) {
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.User
		wantErr bool
		errIs   error
	}{
		{
			name: "found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`WHERE lower\(email\) = lower\(\$1\)`).
					WithArgs("Alice@Example.com").
					WillReturnRows(sqlmock.NewRows(userCols).
						AddRow("user-1", "alice@example.com", "Alice", "hash", "salt", now, now))
			},
			want: &domain.User{
				ID: "user-1", Email: "alice@example.com", DisplayName: "Alice",
				PasswordHash: "hash", Salt: "salt", CreatedAt: now, UpdatedAt: now,
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users`).
					WithArgs("Alice@Example.com").
					WillReturnRows(sqlmock.NewRows(userCols))
			},
			wantErr: true,
			errIs:   domain.ErrNotFound,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewUserRepository(db).GetByEmail(context.Background(), "Alice@Example.com")
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("user-1", "alice@example.com", "Alice", "hash", "salt", now, now))

	u, err := NewUserRepository(db).GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM calendars`).
		WithArgs("cal-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "visibility"}).
			AddRow("cal-1", "user-1", "Team", "private"))
	mock.ExpectQuery(`FROM calendars`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	repo := NewCalendarRepository(db)
	c, err := repo.GetByID(context.Background(), "cal-1")
	require.NoError(t, err)
	assert.Equal(t, &domain.Calendar{ID: "cal-1", OwnerID: "user-1", Name: "Team", Visibility: "private"}, c)

	_, err = repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
