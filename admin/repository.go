package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairflow/auth"
)

// ErrNotFound signals the user does not exist.
var ErrNotFound = errors.New("admin: user not found")

// Repository handles data access for user administration. Role changes are
// the only write this package performs.
type Repository interface {
	ListUsers(ctx context.Context) ([]Account, error)
	UpdateRole(ctx context.Context, userID int64, role auth.Role) error
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed admin repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListUsers returns every user account, ordered by role then name.
func (r *PGRepository) ListUsers(ctx context.Context) ([]Account, error) {
	const query = `
		SELECT user_id, login, role, fio, phone_number
		FROM users
		ORDER BY role, fio
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("admin: list users: %w", err)
	}
	defer rows.Close()

	out := make([]Account, 0, 16)
	for rows.Next() {
		var acc Account
		if err := rows.Scan(&acc.ID, &acc.Login, &acc.Role, &acc.FullName, &acc.Phone); err != nil {
			return nil, fmt.Errorf("admin: scan user: %w", err)
		}
		out = append(out, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("admin: iterate users: %w", err)
	}
	return out, nil
}

// UpdateRole sets a user's role.
func (r *PGRepository) UpdateRole(ctx context.Context, userID int64, role auth.Role) error {
	const updateSQL = `
		UPDATE users
		SET role = $2
		WHERE user_id = $1
		RETURNING user_id
	`

	var id int64
	err := r.pool.QueryRow(ctx, updateSQL, userID, role).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("admin: update role: %w", err)
	}
	return nil
}
