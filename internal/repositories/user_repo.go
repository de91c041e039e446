package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vsai-vivek/DataVionAuthentication/internal/database"
	"github.com/vsai-vivek/DataVionAuthentication/internal/models"
)

const userColumns = `id, username, email, password_hash, email_verified, account_locked, locked_at,
	failed_login_attempts, last_login_at, created_at, updated_at, deleted_at`

// UserRepository persists identities. Every query excludes soft-deleted rows;
// a deleted identity is invisible to the whole authentication core.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning user rows (single row or rows iteration)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.EmailVerified, &user.AccountLocked, &user.LockedAt,
		&user.FailedLoginAttempts, &user.LastLoginAt,
		&user.CreatedAt, &user.UpdatedAt, &user.DeletedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE id = $1 AND deleted_at IS NULL
	`

	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

// GetByUsernameOrEmail resolves a login identifier against either identity
// field. caseInsensitive folds both sides; the exact-match behavior is a
// deployment configuration choice.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, identifier string, caseInsensitive bool) (*models.User, error) {
	var query string
	if caseInsensitive {
		query = `
			SELECT ` + userColumns + `
			FROM users
			WHERE (LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)) AND deleted_at IS NULL
		`
	} else {
		query = `
			SELECT ` + userColumns + `
			FROM users
			WHERE (username = $1 OR email = $1) AND deleted_at IS NULL
		`
	}

	return scanUserRow(r.pool.QueryRow(ctx, query, identifier))
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string, caseInsensitive bool) (bool, error) {
	var query string
	if caseInsensitive {
		query = `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1) AND deleted_at IS NULL)`
	} else {
		query = `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND deleted_at IS NULL)`
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, database.MapPostgresError(err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string, caseInsensitive bool) (bool, error) {
	var query string
	if caseInsensitive {
		query = `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL)`
	} else {
		query = `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, database.MapPostgresError(err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, username, email, password_hash, email_verified, account_locked,
			failed_login_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, 0, $6, $7)
		RETURNING ` + userColumns + `
	`

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.EmailVerified, user.CreatedAt, user.UpdatedAt,
	))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE deleted_at IS NULL
		ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

// RecordLoginFailure increments the failed-attempt counter and, when the
// incremented value reaches threshold, locks the account in the same
// statement. The single UPDATE makes concurrent failures count correctly;
// a read-then-write here would lose updates and delay lockout.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id string, threshold int) (*models.User, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
			account_locked = account_locked OR (failed_login_attempts + 1 >= $2),
			locked_at = CASE
				WHEN NOT account_locked AND failed_login_attempts + 1 >= $2 THEN NOW()
				ELSE locked_at
			END,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns + `
	`

	return scanUserRow(r.pool.QueryRow(ctx, query, id, threshold))
}

// RecordLoginSuccess resets the failure counter and stamps last_login_at.
// It never touches the lock fields; only Unlock clears a lock.
func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, last_login_at = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Unlock is the administrative transition back to the active state.
func (r *UserRepository) Unlock(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET account_locked = FALSE, locked_at = NULL, failed_login_attempts = 0, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
