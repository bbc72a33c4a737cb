package users

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users with their effective role.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.display_name, u.tenant_key, u.is_superuser, u.is_staff, u.is_active,
		       u.created_at, u.updated_at, ur.role
		FROM users u
		LEFT JOIN user_role ur ON ur.user_id = u.id
		ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []User
	for rows.Next() {
		var (
			user User
			role *string
		)
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.TenantKey, &user.IsRoot, &user.IsStaff,
			&user.IsActive, &user.CreatedAt, &user.UpdatedAt, &role); err != nil {
			return nil, err
		}
		user.Role = resolveRole(role, user.IsRoot, user.IsStaff)
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func resolveRole(bound *string, isRoot, isStaff bool) rbac.Role {
	if isRoot {
		return rbac.RoleSuperadmin
	}
	if bound != nil {
		if parsed, err := rbac.ParseRole(*bound); err == nil {
			return parsed
		}
	}
	if isStaff {
		return rbac.RoleStaff
	}
	return rbac.RoleCustomer
}
