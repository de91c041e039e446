package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/vsai-vivek/DataVionAuthentication/internal/database"
	"github.com/vsai-vivek/DataVionAuthentication/internal/models"
)

// DefaultRoleName is assigned to every newly registered identity.
const DefaultRoleName = "USER"

// RoleRepository resolves the authority set for an identity. The core treats
// authorities as opaque strings; role and permission semantics live here.
type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(db *database.DB) *RoleRepository {
	return &RoleRepository{pool: db.Pool}
}

// GetAuthorities returns the union of role names and role permissions for
// the user, as a flat string set.
func (r *RoleRepository) GetAuthorities(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT ARRAY(
			SELECT r.name
			FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = $1
			UNION
			SELECT rp.permission
			FROM user_roles ur
			JOIN role_permissions rp ON rp.role_id = ur.role_id
			WHERE ur.user_id = $1
			ORDER BY 1
		)
	`

	var authorities []string
	if err := r.pool.QueryRow(ctx, query, userID).Scan(pq.Array(&authorities)); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return authorities, nil
}

// AssignRole grants the named role to the user. Granting an already-held
// role is a no-op.
func (r *RoleRepository) AssignRole(ctx context.Context, userID, roleName string) error {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
		ON CONFLICT DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, userID, roleName)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		// Either the role does not exist or the grant already existed.
		// Distinguish by checking the role.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM roles WHERE name = $1)`, roleName).Scan(&exists); err != nil {
			return database.MapPostgresError(err)
		}
		if !exists {
			return models.ErrNotFound
		}
	}
	return nil
}
