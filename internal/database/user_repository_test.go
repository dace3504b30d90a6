package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsight/coinsight-go/internal/models"
	"github.com/coinsight/coinsight-go/internal/utils"
)

func TestCreateUser_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	user := &models.User{
		ID:           "11111111-1111-1111-1111-111111111111",
		Username:     "satoshi",
		Email:        "satoshi@example.com",
		PasswordHash: "hash",
	}
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(user.ID, user.Username, user.Email, user.PasswordHash).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewUserRepository(mock, quietLogger())
	require.NoError(t, repo.CreateUser(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	repo := NewUserRepository(mock, quietLogger())
	err = repo.CreateUser(context.Background(), &models.User{ID: "id", Username: "u", Email: "e", PasswordHash: "h"})
	require.Error(t, err)

	var conflict *utils.CredentialConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	repo := NewUserRepository(mock, quietLogger())
	err = repo.CreateUser(context.Background(), &models.User{ID: "id", Username: "u", Email: "e", PasswordHash: "h"})

	var conflict *utils.CredentialConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "username", conflict.Field)
}

func TestGetByUsername_Found(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE username = $1`)).
		WithArgs("satoshi").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}).
			AddRow("id-1", "satoshi", "satoshi@example.com", "hash", now, now))

	repo := NewUserRepository(mock, quietLogger())
	user, err := repo.GetByUsername(context.Background(), "satoshi")
	require.NoError(t, err)

	assert.Equal(t, "satoshi", user.Username)
	assert.Equal(t, "hash", user.PasswordHash)
}

func TestGetByUsername_UnknownUserIsAuthError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("nobody").
		WillReturnError(pgx.ErrNoRows)

	repo := NewUserRepository(mock, quietLogger())
	_, err = repo.GetByUsername(context.Background(), "nobody")

	var authErr *utils.AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}

func TestUpdateUsername_NoRowIsAuthError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE users SET username`).
		WithArgs("new", "old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewUserRepository(mock, quietLogger())
	err = repo.UpdateUsername(context.Background(), "old", "new")

	var authErr *utils.AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}

func TestUpdatePasswordHash_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE users SET password_hash`).
		WithArgs("newhash", "satoshi").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewUserRepository(mock, quietLogger())
	assert.NoError(t, repo.UpdatePasswordHash(context.Background(), "satoshi", "newhash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
