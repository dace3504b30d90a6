package database

import (
	"context"
	"errors"
	"strings"

	"github.com/coinsight/coinsight-go/internal/models"
	"github.com/coinsight/coinsight-go/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// UserRepository manages credential rows in the users table.
type UserRepository struct {
	db     Querier
	logger *logrus.Logger
}

func NewUserRepository(db Querier, logger *logrus.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

const userColumns = `id, username, email, password_hash, created_at, updated_at`

// CreateUser inserts a new credential row. Duplicate usernames or emails
// surface as CredentialConflictError naming the colliding field.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		if field, ok := conflictField(err); ok {
			return utils.NewCredentialConflictError(field)
		}
		return utils.NewDataQueryError("create_user", "failed to insert user", err)
	}
	return nil
}

// GetByUsername loads a user for authentication. A missing row surfaces
// as AuthenticationError so handlers cannot leak which part failed.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var user models.User
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NewAuthenticationError("invalid username or password")
		}
		return nil, utils.NewDataQueryError("get_user", "failed to load user", err)
	}
	return &user, nil
}

// UpdateUsername renames an account.
func (r *UserRepository) UpdateUsername(ctx context.Context, oldUsername, newUsername string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET username = $1, updated_at = NOW() WHERE username = $2`,
		newUsername, oldUsername)
	if err != nil {
		if field, ok := conflictField(err); ok {
			return utils.NewCredentialConflictError(field)
		}
		return utils.NewDataQueryError("update_username", "failed to update username", err)
	}
	if tag.RowsAffected() == 0 {
		return utils.NewAuthenticationError("unknown user")
	}
	return nil
}

// UpdateEmail changes the account email.
func (r *UserRepository) UpdateEmail(ctx context.Context, username, newEmail string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET email = $1, updated_at = NOW() WHERE username = $2`,
		newEmail, username)
	if err != nil {
		if field, ok := conflictField(err); ok {
			return utils.NewCredentialConflictError(field)
		}
		return utils.NewDataQueryError("update_email", "failed to update email", err)
	}
	if tag.RowsAffected() == 0 {
		return utils.NewAuthenticationError("unknown user")
	}
	return nil
}

// UpdatePasswordHash stores a freshly hashed password.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, username, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE username = $2`,
		passwordHash, username)
	if err != nil {
		return utils.NewDataQueryError("update_password", "failed to update password", err)
	}
	if tag.RowsAffected() == 0 {
		return utils.NewAuthenticationError("unknown user")
	}
	return nil
}

func conflictField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return "", false
	}
	if strings.Contains(pgErr.ConstraintName, "email") {
		return "email", true
	}
	return "username", true
}
