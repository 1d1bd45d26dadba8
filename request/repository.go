package request

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals the request does not exist.
	ErrNotFound = errors.New("request: not found")
	// ErrAlreadyAssigned signals a self-assignment attempt on a request that
	// already has a master.
	ErrAlreadyAssigned = errors.New("request: master already assigned")
	// ErrCreateFailed signals that creation failed even after the one-shot
	// sequence recovery. Callers must treat this as a hard failure.
	ErrCreateFailed = errors.New("request: create failed after sequence recovery")
	// ErrStatusUnknown signals a status name that has no reference row.
	ErrStatusUnknown = errors.New("request: unknown status name")
)

// The sequence fix and its retried insert run under this advisory lock so two
// concurrent recoveries cannot advance the sequence to the same value.
const sequenceFixLockKey = 7211002

// Repository handles data access for the request lifecycle.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (int64, error)
	AssignMaster(ctx context.Context, requestID, masterID int64) error
	ClaimForMaster(ctx context.Context, requestID, masterID int64) error
	Complete(ctx context.Context, params CompleteParams) error
	UpdateDescription(ctx context.Context, requestID int64, description string) error
	UpdateStatus(ctx context.Context, requestID, statusID int64) error
	StatusInfo(ctx context.Context, requestID int64) (StatusInfo, error)
	StatusIDByName(ctx context.Context, name StatusName) (int64, error)
	StatusNameByID(ctx context.Context, statusID int64) (StatusName, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed request repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, letting the
// insert run standalone or inside the recovery transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const insertRequestSQL = `
	INSERT INTO requests (client_id, type_id, model, description, serial_number, status_id)
	VALUES ($1, $2, $3, $4, $5, (SELECT status_id FROM statuses WHERE status_name = $6))
	RETURNING request_id
`

// Create inserts a new request with the initial status resolved by name.
//
// If the insert collides on the primary key, the backing sequence has fallen
// behind externally inserted rows. The repository performs exactly one
// corrective pass: inside a single transaction, and under an advisory lock
// serializing concurrent recoveries, it forces the sequence to max+1 and
// retries the identical insert once. A second failure surfaces
// ErrCreateFailed; callers must not retry further.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (int64, error) {
	id, err := r.insertRequest(ctx, r.pool, params)
	if err == nil {
		return id, nil
	}
	if !isUniqueViolation(err) {
		return 0, fmt.Errorf("request: insert: %w", err)
	}

	tx, txErr := r.pool.Begin(ctx)
	if txErr != nil {
		return 0, fmt.Errorf("request: begin recovery tx: %w", txErr)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, sequenceFixLockKey); err != nil {
		return 0, fmt.Errorf("request: acquire sequence lock: %w", err)
	}

	const fixSequenceSQL = `
		SELECT setval('requests_request_id_seq', COALESCE((SELECT MAX(request_id) FROM requests), 0) + 1, false)
	`
	if _, err := tx.Exec(ctx, fixSequenceSQL); err != nil {
		return 0, fmt.Errorf("request: fix sequence: %w", err)
	}

	id, err = r.insertRequest(ctx, tx, params)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("request: commit recovery: %w", err)
	}

	return id, nil
}

func (r *PGRepository) insertRequest(ctx context.Context, q rowQuerier, params CreateParams) (int64, error) {
	initial := params.InitialStatus
	if initial == "" {
		initial = StatusNew
	}

	var id int64
	err := q.QueryRow(ctx, insertRequestSQL,
		params.ClientID,
		params.TypeID,
		params.Model,
		params.Description,
		params.SerialNumber,
		initial,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AssignMaster sets the master unconditionally, moves the request to
// In Progress, and stamps date_start_work. Repeated calls keep advancing
// the start timestamp; this path carries no guard on the current master.
func (r *PGRepository) AssignMaster(ctx context.Context, requestID, masterID int64) error {
	const updateSQL = `
		UPDATE requests
		SET master_id = $2,
		    status_id = (SELECT status_id FROM statuses WHERE status_name = $3),
		    date_start_work = now()
		WHERE request_id = $1
		RETURNING request_id
	`

	var id int64
	err := r.pool.QueryRow(ctx, updateSQL, requestID, masterID, StatusInProgress).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("request: assign master: %w", err)
	}
	return nil
}

// ClaimForMaster is the guarded self-assignment path: a single conditional
// update so that under concurrent masters targeting the same request the
// first writer wins and everyone else observes ErrAlreadyAssigned.
func (r *PGRepository) ClaimForMaster(ctx context.Context, requestID, masterID int64) error {
	const claimSQL = `
		UPDATE requests
		SET master_id = $2,
		    status_id = (SELECT status_id FROM statuses WHERE status_name = $3),
		    date_start_work = now()
		WHERE request_id = $1
		  AND master_id IS NULL
		RETURNING request_id
	`

	var id int64
	err := r.pool.QueryRow(ctx, claimSQL, requestID, masterID, StatusInProgress).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("request: claim: %w", err)
	}

	// No row was claimed: either the request is gone or someone beat us to it.
	var assigned *int64
	if err := r.pool.QueryRow(ctx, `SELECT master_id FROM requests WHERE request_id = $1`, requestID).Scan(&assigned); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("request: claim fetch: %w", err)
	}
	if assigned != nil {
		return ErrAlreadyAssigned
	}
	return ErrNotFound
}

// Complete moves the request to an explicit status and records completion
// time, cost, and parts used.
func (r *PGRepository) Complete(ctx context.Context, params CompleteParams) error {
	const updateSQL = `
		UPDATE requests
		SET status_id = $2,
		    date_completed = now(),
		    cost = $3,
		    repair_parts = $4
		WHERE request_id = $1
		RETURNING request_id
	`

	var id int64
	err := r.pool.QueryRow(ctx, updateSQL, params.RequestID, params.StatusID, params.Cost, params.RepairParts).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("request: complete: %w", err)
	}
	return nil
}

// UpdateDescription replaces the request description.
func (r *PGRepository) UpdateDescription(ctx context.Context, requestID int64, description string) error {
	const updateSQL = `
		UPDATE requests
		SET description = $2
		WHERE request_id = $1
		RETURNING request_id
	`

	var id int64
	err := r.pool.QueryRow(ctx, updateSQL, requestID, description).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("request: update description: %w", err)
	}
	return nil
}

// UpdateStatus sets the status unconditionally.
func (r *PGRepository) UpdateStatus(ctx context.Context, requestID, statusID int64) error {
	const updateSQL = `
		UPDATE requests
		SET status_id = $2
		WHERE request_id = $1
		RETURNING request_id
	`

	var id int64
	err := r.pool.QueryRow(ctx, updateSQL, requestID, statusID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("request: update status: %w", err)
	}
	return nil
}

// StatusInfo returns the current status and master of a request.
func (r *PGRepository) StatusInfo(ctx context.Context, requestID int64) (StatusInfo, error) {
	const selectSQL = `
		SELECT r.status_id, s.status_name, r.master_id
		FROM requests r
		JOIN statuses s ON s.status_id = r.status_id
		WHERE r.request_id = $1
	`

	var info StatusInfo
	err := r.pool.QueryRow(ctx, selectSQL, requestID).Scan(&info.StatusID, &info.StatusName, &info.MasterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StatusInfo{}, ErrNotFound
		}
		return StatusInfo{}, fmt.Errorf("request: status info: %w", err)
	}
	return info, nil
}

// StatusIDByName resolves a status reference row by its canonical name.
func (r *PGRepository) StatusIDByName(ctx context.Context, name StatusName) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT status_id FROM statuses WHERE status_name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrStatusUnknown
		}
		return 0, fmt.Errorf("request: status id by name: %w", err)
	}
	return id, nil
}

// StatusNameByID resolves the canonical name of a status reference row.
func (r *PGRepository) StatusNameByID(ctx context.Context, statusID int64) (StatusName, error) {
	var name StatusName
	err := r.pool.QueryRow(ctx, `SELECT status_name FROM statuses WHERE status_id = $1`, statusID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrStatusUnknown
		}
		return "", fmt.Errorf("request: status name by id: %w", err)
	}
	return name, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
