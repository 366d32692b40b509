package identity

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
)

var userCols = []string{"id", "username", "email", "password_hash", "role", "is_verified", "created_at", "updated_at"}

const testUserID = "01HZY7K2Q5J7T3V9W8X6Y4Z2AB"

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)

	st, err := NewPostgresStore(mock)
	require.NoError(t, err)
	return st, mock
}

func TestNewPostgresStore_Options(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresStore(mock, WithSchema(`campus"; DROP TABLE users; --`))
	require.Error(t, err)

	_, err = NewPostgresStore(mock, WithSchema("  "))
	require.Error(t, err)

	_, err = NewPostgresStore(nil)
	require.Error(t, err)

	st, err := NewPostgresStore(mock, WithSchema("tenant_a"))
	require.NoError(t, err)
	assert.Equal(t, `"tenant_a"."users"`, st.users())
}

func TestPostgresStore_CreateUser(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   func(t *testing.T, err error)
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO "campus"."users"`).
					WithArgs(pgxmock.AnyArg(), "alice", "Alice@X.com", "alice@x.com", "hash", "user", false, now).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate email",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO "campus"."users"`).
					WithArgs(pgxmock.AnyArg(), "alice", "Alice@X.com", "alice@x.com", "hash", "user", false, now).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "uq_users_email_norm"})
			},
			wantErr: func(t *testing.T, err error) {
				var ce ConflictError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, "email", ce.Field)
			},
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO "campus"."users"`).
					WithArgs(pgxmock.AnyArg(), "alice", "Alice@X.com", "alice@x.com", "hash", "user", false, now).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "connection refused")
				assert.False(t, IsConflict(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, mock := newMockStore(t)
			tt.setupMock(mock)

			u, err := st.CreateUser(context.Background(), CreateUserInput{
				Username:     "alice",
				Email:        "Alice@X.com",
				PasswordHash: "hash",
				Now:          now,
			})
			if tt.wantErr != nil {
				tt.wantErr(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, u.ID, 26)
				assert.Equal(t, RoleUser, u.Role)
				assert.Equal(t, now, u.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPostgresStore_CreateUser_InvalidInputSkipsDB(t *testing.T) {
	st, mock := newMockStore(t)

	_, err := st.CreateUser(context.Background(), CreateUserInput{Username: "alice", Email: "bad", PasswordHash: "h"})
	assert.True(t, IsInvalidInput(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetUserByID(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectQuery(`FROM "campus"."users" WHERE id = \$1`).
			WithArgs(testUserID).
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(testUserID, "alice", "alice@x.com", "hash", "admin", true, now, now))

		u, err := st.GetUserByID(context.Background(), testUserID)
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, u.Role)
		assert.True(t, u.IsVerified)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectQuery(`FROM "campus"."users" WHERE id = \$1`).
			WithArgs(testUserID).
			WillReturnError(pgx.ErrNoRows)

		_, err := st.GetUserByID(context.Background(), testUserID)
		assert.True(t, IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id never reaches the database", func(t *testing.T) {
		st, mock := newMockStore(t)

		_, err := st.GetUserByID(context.Background(), "64b7f0c2a1b2c3d4e5f60718")
		assert.True(t, IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_FindUserByLogin(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	st, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE email_norm = \$1 OR username = \$2`).
		WithArgs("alice@x.com", "Alice@X.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(testUserID, "alice", "alice@x.com", "hash", "user", false, now, now))

	u, err := st.FindUserByLogin(context.Background(), " Alice@X.com ")
	require.NoError(t, err)
	assert.Equal(t, testUserID, u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListUsers(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "campus"."users" WHERE role = \$1`).
		WithArgs("user").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(`WHERE role = \$1 ORDER BY created_at ASC, id ASC LIMIT \$2 OFFSET \$3`).
		WithArgs("user", 2, 1).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow("01HZY7K2Q5J7T3V9W8X6Y4Z2AC", "u2", "u2@x.com", "h", "user", false, now, now).
			AddRow("01HZY7K2Q5J7T3V9W8X6Y4Z2AD", "u3", "u3@x.com", "h", "user", true, now, now))

	page, total, err := st.ListUsers(context.Background(), ListFilter{Role: "user", Skip: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "u2", page[0].Username)
	assert.Equal(t, "u3", page[1].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListUsers_ClampsLimit(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "campus"."users"`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`LIMIT \$1 OFFSET \$2`).
		WithArgs(MaxListLimit, 0).
		WillReturnRows(pgxmock.NewRows(userCols))

	page, total, err := st.ListUsers(context.Background(), ListFilter{Skip: -5, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, page)
	assert.Empty(t, page)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateUser(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	t.Run("sets only provided fields", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectQuery(`UPDATE "campus"."users" SET email = \$1, email_norm = \$2, updated_at = \$3 WHERE id = \$4 RETURNING`).
			WithArgs("New@X.com", "new@x.com", later, testUserID).
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(testUserID, "alice", "New@X.com", "hash", "user", false, now, later))

		email := "New@X.com"
		u, err := st.UpdateUser(context.Background(), testUserID, UserPatch{Email: &email}, later)
		require.NoError(t, err)
		assert.Equal(t, "New@X.com", u.Email)
		assert.Equal(t, later, u.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectQuery(`UPDATE "campus"."users" SET email = \$1, email_norm = \$2, updated_at = \$3 WHERE id = \$4`).
			WithArgs("taken@x.com", "taken@x.com", later, testUserID).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "uq_users_email_norm"})

		email := "taken@x.com"
		_, err := st.UpdateUser(context.Background(), testUserID, UserPatch{Email: &email}, later)
		assert.True(t, IsConflict(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectQuery(`UPDATE "campus"."users" SET is_verified = \$1, updated_at = \$2 WHERE id = \$3`).
			WithArgs(true, later, testUserID).
			WillReturnError(pgx.ErrNoRows)

		v := true
		_, err := st.UpdateUser(context.Background(), testUserID, UserPatch{IsVerified: &v}, later)
		assert.True(t, IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty patch", func(t *testing.T) {
		st, mock := newMockStore(t)

		_, err := st.UpdateUser(context.Background(), testUserID, UserPatch{}, later)
		assert.True(t, IsInvalidInput(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_DeleteUser(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		notFound bool
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, mock := newMockStore(t)
			mock.ExpectExec(`DELETE FROM "campus"."users" WHERE id = \$1`).
				WithArgs(testUserID).
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			err := st.DeleteUser(context.Background(), testUserID)
			if tt.notFound {
				assert.True(t, IsNotFound(err))
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPgClassifyUniqueViolation(t *testing.T) {
	cases := []struct {
		err   error
		field string
		ok    bool
	}{
		{err: &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "uq_users_email_norm"}, field: "email", ok: true},
		{err: &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_key"}, field: "username", ok: true},
		{err: &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "pk"}, field: "unique", ok: true},
		{err: &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, ok: false},
		{err: errors.New("boom"), ok: false},
	}
	for _, c := range cases {
		field, ok := pgClassifyUniqueViolation(c.err)
		assert.Equal(t, c.ok, ok)
		assert.Equal(t, c.field, field)
	}
}
