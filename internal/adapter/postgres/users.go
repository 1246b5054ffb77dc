package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saucecodee/praise/internal/domain"
)

const userColumns = `id, name, roles, deactivated, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var roles []string
	if err := row.Scan(&u.ID, &u.Name, &roles, &u.Deactivated, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Roles = make([]domain.Role, 0, len(roles))
	for _, r := range roles {
		u.Roles = append(u.Roles, domain.Role(r))
	}
	return &u, nil
}

func roleNames(roles []domain.Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func (r *UserRepo) Create(ctx context.Context, name string, roles []domain.Role) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, roles)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns, uuid.New(), name, roleNames(roles)))
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE $1 = ANY(roles)
		ORDER BY id`, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepo) AddRole(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.User, error) {
	return r.updateRoles(ctx, `
		UPDATE users
		SET roles = ARRAY(SELECT DISTINCT unnest(array_append(roles, $2)) ORDER BY 1), updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, userID, string(role))
}

func (r *UserRepo) RemoveRole(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.User, error) {
	return r.updateRoles(ctx, `
		UPDATE users
		SET roles = array_remove(roles, $2), updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, userID, string(role))
}

func (r *UserRepo) updateRoles(ctx context.Context, query string, userID uuid.UUID, role string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, userID, role))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user roles: %w", err)
	}
	return u, nil
}

func (r *UserRepo) SetDeactivated(ctx context.Context, userID uuid.UUID, deactivated bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET deactivated = $2, updated_at = now() WHERE id = $1`, userID, deactivated)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
