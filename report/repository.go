package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested record does not exist.
var ErrNotFound = errors.New("report: not found")

// Repository provides read-only access to the reporting queries. Nothing in
// this package writes to storage.
type Repository interface {
	CompletedIntervals(ctx context.Context, start, end *time.Time) ([]Interval, error)
	StatusCounts(ctx context.Context) ([]StatusCount, error)
	MasterLoads(ctx context.Context) ([]MasterLoad, error)
	MasterPerformance(ctx context.Context) ([]PerformanceRow, error)
	RequestDetails(ctx context.Context, requestID int64) (Details, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed reporting repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CompletedIntervals returns the work timestamps of Completed requests whose
// completion date falls within the optional [start, end] range.
func (r *PGRepository) CompletedIntervals(ctx context.Context, start, end *time.Time) ([]Interval, error) {
	query := `
		SELECT date_start_work, date_completed
		FROM requests
		WHERE status_id = (SELECT status_id FROM statuses WHERE status_name = 'Completed')
	`
	args := []any{}

	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(" AND date_completed >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(" AND date_completed <= $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("report: completed intervals: %w", err)
	}
	defer rows.Close()

	out := make([]Interval, 0, 16)
	for rows.Next() {
		var iv Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("report: scan interval: %w", err)
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report: iterate intervals: %w", err)
	}
	return out, nil
}

// StatusCounts returns the request count per status. Statuses with no
// requests appear with count 0; ordering is count descending.
func (r *PGRepository) StatusCounts(ctx context.Context) ([]StatusCount, error) {
	const query = `
		SELECT s.status_name, COUNT(r.request_id)
		FROM statuses s
		LEFT JOIN requests r ON r.status_id = s.status_id
		GROUP BY s.status_name
		ORDER BY COUNT(r.request_id) DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("report: status counts: %w", err)
	}
	defer rows.Close()

	out := make([]StatusCount, 0, 8)
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.StatusName, &sc.Count); err != nil {
			return nil, fmt.Errorf("report: scan status count: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report: iterate status counts: %w", err)
	}
	return out, nil
}

// MasterLoads returns the number of requests assigned to each master,
// including masters with zero assignments, ordered by count descending.
func (r *PGRepository) MasterLoads(ctx context.Context) ([]MasterLoad, error) {
	const query = `
		SELECT m.full_name, COUNT(r.request_id) AS assigned_requests
		FROM masters m
		LEFT JOIN requests r ON r.master_id = m.master_id
		GROUP BY m.full_name
		ORDER BY assigned_requests DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("report: master loads: %w", err)
	}
	defer rows.Close()

	out := make([]MasterLoad, 0, 8)
	for rows.Next() {
		var ml MasterLoad
		if err := rows.Scan(&ml.MasterName, &ml.AssignedCount); err != nil {
			return nil, fmt.Errorf("report: scan master load: %w", err)
		}
		out = append(out, ml)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report: iterate master loads: %w", err)
	}
	return out, nil
}

// MasterPerformance returns one detailed row per assigned request, ordered
// by master name, then creation date descending.
func (r *PGRepository) MasterPerformance(ctx context.Context) ([]PerformanceRow, error) {
	const query = `
		SELECT m.full_name,
		       r.request_id,
		       c.full_name,
		       et.type_name || ' (' || r.model || ')',
		       s.status_name,
		       r.date_created,
		       r.date_start_work,
		       r.date_completed,
		       r.cost
		FROM requests r
		JOIN clients c ON c.client_id = r.client_id
		JOIN equipment_types et ON et.type_id = r.type_id
		JOIN statuses s ON s.status_id = r.status_id
		JOIN masters m ON m.master_id = r.master_id
		WHERE r.master_id IS NOT NULL
		ORDER BY m.full_name, r.date_created DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("report: master performance: %w", err)
	}
	defer rows.Close()

	out := make([]PerformanceRow, 0, 16)
	for rows.Next() {
		var row PerformanceRow
		if err := rows.Scan(
			&row.MasterName,
			&row.RequestID,
			&row.ClientName,
			&row.Equipment,
			&row.StatusName,
			&row.DateCreated,
			&row.DateStartWork,
			&row.DateCompleted,
			&row.Cost,
		); err != nil {
			return nil, fmt.Errorf("report: scan performance row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report: iterate performance rows: %w", err)
	}
	return out, nil
}

// RequestDetails returns the denormalized view of a single request. The
// master name defaults to UnassignedMasterName while no master is set.
func (r *PGRepository) RequestDetails(ctx context.Context, requestID int64) (Details, error) {
	const query = `
		SELECT r.request_id,
		       c.full_name,
		       et.type_name || ' (' || r.model || ')',
		       r.description,
		       COALESCE(m.full_name, $2),
		       s.status_name,
		       r.date_created
		FROM requests r
		JOIN clients c ON c.client_id = r.client_id
		JOIN equipment_types et ON et.type_id = r.type_id
		JOIN statuses s ON s.status_id = r.status_id
		LEFT JOIN masters m ON m.master_id = r.master_id
		WHERE r.request_id = $1
	`

	var d Details
	err := r.pool.QueryRow(ctx, query, requestID, UnassignedMasterName).Scan(
		&d.RequestID,
		&d.ClientName,
		&d.Equipment,
		&d.Description,
		&d.MasterName,
		&d.StatusName,
		&d.DateCreated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Details{}, ErrNotFound
		}
		return Details{}, fmt.Errorf("report: request details: %w", err)
	}
	return d, nil
}
