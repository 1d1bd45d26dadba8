package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUserNotFound signals that the user does not exist.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrDuplicateLogin signals that the login is already registered.
	ErrDuplicateLogin = errors.New("auth: login already exists")
)

// User identifiers are allocated as max(user_id)+1 under this advisory lock,
// so two concurrent registrations cannot pick the same id.
const userAllocationLockKey = 7211001

// Repository handles data access for identity and registration.
type Repository interface {
	GetByLogin(ctx context.Context, login string) (User, error)
	CreateClient(ctx context.Context, params CreateClientParams) (int64, error)
}

// CreateClientParams contains write parameters for client registration.
// The same identifier is used for the user row and the client row.
type CreateClientParams struct {
	Login        string
	PasswordHash string
	FullName     string
	Phone        string
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed auth repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetByLogin retrieves a user by login.
func (r *PGRepository) GetByLogin(ctx context.Context, login string) (User, error) {
	const selectSQL = `
		SELECT user_id, login, password_hash, role, fio, phone_number
		FROM users
		WHERE login = $1
	`

	user, err := scanUser(r.pool.QueryRow(ctx, selectSQL, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("auth: get user by login: %w", err)
	}

	return user, nil
}

// CreateClient allocates the next user identifier and inserts the user row
// (role client) together with its client row in a single transaction.
func (r *PGRepository) CreateClient(ctx context.Context, params CreateClientParams) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("auth: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, userAllocationLockKey); err != nil {
		return 0, fmt.Errorf("auth: acquire allocation lock: %w", err)
	}

	var newID int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(user_id), 0) + 1 FROM users`).Scan(&newID); err != nil {
		return 0, fmt.Errorf("auth: allocate user id: %w", err)
	}

	const insertUserSQL = `
		INSERT INTO users (user_id, login, password_hash, role, fio, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, insertUserSQL,
		newID, params.Login, params.PasswordHash, RoleClient, params.FullName, params.Phone,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateLogin
		}
		return 0, fmt.Errorf("auth: insert user: %w", err)
	}

	const insertClientSQL = `
		INSERT INTO clients (client_id, full_name, phone_number)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.Exec(ctx, insertClientSQL, newID, params.FullName, params.Phone); err != nil {
		return 0, fmt.Errorf("auth: insert client: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("auth: commit registration: %w", err)
	}

	return newID, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user  User
		phone *string
	)
	err := row.Scan(
		&user.ID,
		&user.Login,
		&user.PasswordHash,
		&user.Role,
		&user.FullName,
		&phone,
	)
	if err != nil {
		return User{}, err
	}

	user.Phone = phone
	return user, nil
}
