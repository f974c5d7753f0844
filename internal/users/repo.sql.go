package users

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-shop/meridian-backoffice/internal/authz"
	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

const userColumns = `id, email, name, role, permissions, is_active, created_at, updated_at`

// ListUsers returns all users ordered by creation time.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one user by ID.
func (r *Repository) GetUser(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := r.scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdatePermissions writes the role and the sparse override layer. Only the
// overrides are persisted; the effective matrix is always derived.
func (r *Repository) UpdatePermissions(ctx context.Context, id string, role string, overrides authz.Overrides) error {
	data, err := json.Marshal(overrides)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $2, permissions = $3, updated_at = NOW() WHERE id = $1`,
		id, role, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanUser(row rowScanner) (User, error) {
	var (
		user     User
		rawPerms []byte
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &rawPerms, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, err
	}
	if len(rawPerms) > 0 {
		var overrides authz.Overrides
		if err := json.Unmarshal(rawPerms, &overrides); err != nil {
			// Structurally unexpected override data is treated as absent;
			// resolution falls back to role defaults.
			if r.logger != nil {
				r.logger.Warn("discarding malformed permission overrides",
					slog.String("user_id", user.ID), slog.Any("error", err))
			}
		} else {
			user.Overrides = overrides
		}
	}
	return user, nil
}
