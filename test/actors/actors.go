package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairflow/request"
)

// Creator files new requests through the repository so primary key allocation
// and sequence recovery run under contention.
func Creator(ctx context.Context, pool *pgxpool.Pool, clientID, typeID int64, stop <-chan struct{}) error {
	repo := request.NewRepository(pool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := repo.Create(ctx, request.CreateParams{
			ClientID:    clientID,
			TypeID:      typeID,
			Model:       fmt.Sprintf("Model-%d", rand.Intn(100)),
			Description: "stress load",
		})
		if err != nil {
			return fmt.Errorf("creator: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Claimer picks unassigned requests and races to claim them. Losing a race or
// picking a request that vanished is expected under contention.
func Claimer(ctx context.Context, pool *pgxpool.Pool, masterID int64, stop <-chan struct{}) error {
	repo := request.NewRepository(pool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		var requestID int64
		err := pool.QueryRow(ctx,
			`SELECT request_id FROM requests WHERE master_id IS NULL ORDER BY request_id DESC LIMIT 1`,
		).Scan(&requestID)
		if err == nil {
			err = repo.ClaimForMaster(ctx, requestID, masterID)
		}
		if err != nil &&
			!errors.Is(err, pgx.ErrNoRows) &&
			!errors.Is(err, request.ErrAlreadyAssigned) &&
			!errors.Is(err, request.ErrNotFound) {
			return fmt.Errorf("claimer: %w", err)
		}
		time.Sleep(time.Duration(15+rand.Intn(30)) * time.Millisecond)
	}
}

// Completer closes out requests the master has claimed.
func Completer(ctx context.Context, pool *pgxpool.Pool, masterID, completedStatusID int64, stop <-chan struct{}) error {
	repo := request.NewRepository(pool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		var requestID int64
		err := pool.QueryRow(ctx,
			`SELECT r.request_id FROM requests r
			 JOIN statuses s ON s.status_id = r.status_id
			 WHERE r.master_id = $1 AND s.status_name = 'In Progress'
			 LIMIT 1`, masterID,
		).Scan(&requestID)
		if err == nil {
			err = repo.Complete(ctx, request.CompleteParams{
				RequestID:   requestID,
				StatusID:    completedStatusID,
				Cost:        float64(50 + rand.Intn(500)),
				RepairParts: "stress parts",
			})
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) && !errors.Is(err, request.ErrNotFound) {
			return fmt.Errorf("completer: %w", err)
		}
		time.Sleep(time.Duration(25+rand.Intn(50)) * time.Millisecond)
	}
}
