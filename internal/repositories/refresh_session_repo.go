package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vsai-vivek/DataVionAuthentication/internal/database"
	"github.com/vsai-vivek/DataVionAuthentication/internal/models"
)

const sessionColumns = `id, user_id, token_digest, expires_at, revoked, created_at`

// RefreshSessionRepository is the single source of truth for refresh
// session validity. All rotation happens inside transactions so concurrent
// requests cannot both mint a second generation of tokens.
type RefreshSessionRepository struct {
	db *database.DB
}

func NewRefreshSessionRepository(db *database.DB) *RefreshSessionRepository {
	return &RefreshSessionRepository{db: db}
}

func scanSessionRow(scanner rowScanner) (*models.RefreshSession, error) {
	var s models.RefreshSession
	err := scanner.Scan(&s.ID, &s.UserID, &s.TokenDigest, &s.ExpiresAt, &s.Revoked, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTokenNotFound
		}
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

// GetByDigest looks up a session by token digest. Validity classification
// (revoked, expired) is left to the caller; lookup never mutates state.
func (r *RefreshSessionRepository) GetByDigest(ctx context.Context, digest string) (*models.RefreshSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM refresh_sessions WHERE token_digest = $1`
	return scanSessionRow(r.db.Pool.QueryRow(ctx, query, digest))
}

func insertSessionTx(ctx context.Context, tx pgx.Tx, userID, digest string, ttl time.Duration) (*models.RefreshSession, error) {
	query := `
		INSERT INTO refresh_sessions (id, user_id, token_digest, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		RETURNING ` + sessionColumns + `
	`

	now := time.Now()
	return scanSessionRow(tx.QueryRow(ctx, query,
		uuid.New().String(), userID, digest, now.Add(ttl), now,
	))
}

func revokeAllForUserTx(ctx context.Context, tx pgx.Tx, userID string) error {
	query := `UPDATE refresh_sessions SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`
	if _, err := tx.Exec(ctx, query, userID); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// Replace atomically revokes every live session for the user and creates the
// replacement. Used by login and registration so at most one live session
// exists per identity.
func (r *RefreshSessionRepository) Replace(ctx context.Context, userID, digest string, ttl time.Duration) (*models.RefreshSession, error) {
	var session *models.RefreshSession

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := revokeAllForUserTx(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		session, err = insertSessionTx(ctx, tx, userID, digest, ttl)
		return err
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Rotate validates the presented digest and exchanges it for a new session
// in one transaction. The SELECT ... FOR UPDATE serializes concurrent
// rotations of the same token: the loser blocks on the row lock and then
// observes the winner's revocation.
func (r *RefreshSessionRepository) Rotate(ctx context.Context, oldDigest, newDigest string, ttl time.Duration) (*models.RefreshSession, error) {
	var session *models.RefreshSession

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		old, err := scanSessionRow(tx.QueryRow(ctx, `
			SELECT `+sessionColumns+`
			FROM refresh_sessions
			WHERE token_digest = $1
			FOR UPDATE
		`, oldDigest))
		if err != nil {
			return err
		}

		if old.Revoked {
			return models.ErrTokenRevoked
		}
		if old.IsExpired(time.Now()) {
			return models.ErrTokenExpired
		}

		if err := revokeAllForUserTx(ctx, tx, old.UserID); err != nil {
			return err
		}

		session, err = insertSessionTx(ctx, tx, old.UserID, newDigest, ttl)
		return err
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Revoke marks a single session revoked (logout). Revoking an unknown or
// already-revoked session is not an error.
func (r *RefreshSessionRepository) Revoke(ctx context.Context, sessionID string) error {
	query := `UPDATE refresh_sessions SET revoked = TRUE WHERE id = $1`
	if _, err := r.db.Pool.Exec(ctx, query, sessionID); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// RevokeAllForUser marks every live session for the identity revoked.
func (r *RefreshSessionRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `UPDATE refresh_sessions SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`
	if _, err := r.db.Pool.Exec(ctx, query, userID); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// SweepExpired deletes sessions whose expiry has passed. Pure storage
// reclamation; validation already rejects expired rows.
func (r *RefreshSessionRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM refresh_sessions WHERE expires_at < $1`

	result, err := r.db.Pool.Exec(ctx, query, now)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
