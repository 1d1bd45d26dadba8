package request

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestRepository_Integration connects to a real PostgreSQL via DATABASE_URL
// and exercises the creation, claim, and sequence-recovery paths end to end.
func TestRepository_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	if !tableExists(ctx, t, pool, "requests") || !tableExists(ctx, t, pool, "statuses") {
		t.Skip("database schema missing; apply migrations/ first")
	}

	clientID, typeID := seedClientAndType(ctx, t, pool)
	masterA := seedMaster(ctx, t, pool, "Sergey Volkov")
	masterB := seedMaster(ctx, t, pool, "Dmitry Orlov")

	repo := NewRepository(pool)

	t.Run("create starts new and unassigned", func(t *testing.T) {
		id, err := repo.Create(ctx, CreateParams{
			ClientID:      clientID,
			TypeID:        typeID,
			Model:         "DX-200",
			Description:   "does not power on",
			InitialStatus: StatusNew,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		info, err := repo.StatusInfo(ctx, id)
		if err != nil {
			t.Fatalf("status info: %v", err)
		}
		if info.StatusName != StatusNew {
			t.Fatalf("expected %q got %q", StatusNew, info.StatusName)
		}
		if info.MasterID != nil {
			t.Fatalf("expected unassigned request, master=%d", *info.MasterID)
		}
	})

	t.Run("claim is first writer wins", func(t *testing.T) {
		id, err := repo.Create(ctx, CreateParams{
			ClientID:      clientID,
			TypeID:        typeID,
			Model:         "DX-200",
			Description:   "screen cracked",
			InitialStatus: StatusNew,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		if err := repo.ClaimForMaster(ctx, id, masterA); err != nil {
			t.Fatalf("first claim: %v", err)
		}
		if err := repo.ClaimForMaster(ctx, id, masterB); !errors.Is(err, ErrAlreadyAssigned) {
			t.Fatalf("second claim: expected ErrAlreadyAssigned, got %v", err)
		}

		info, err := repo.StatusInfo(ctx, id)
		if err != nil {
			t.Fatalf("status info: %v", err)
		}
		if info.MasterID == nil || *info.MasterID != masterA {
			t.Fatalf("expected master %d to keep the request, got %v", masterA, info.MasterID)
		}
	})

	t.Run("claim on missing request", func(t *testing.T) {
		if err := repo.ClaimForMaster(ctx, int64(1<<40), masterA); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("create recovers from sequence desync", func(t *testing.T) {
		// Drag the sequence behind the stored maximum, as a manual data load
		// would, then verify creation still yields a fresh identifier.
		var maxID int64
		if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(request_id), 0) FROM requests`).Scan(&maxID); err != nil {
			t.Fatalf("max id: %v", err)
		}
		if _, err := pool.Exec(ctx, `SELECT setval('requests_request_id_seq', 1, false)`); err != nil {
			t.Fatalf("desync sequence: %v", err)
		}

		id, err := repo.Create(ctx, CreateParams{
			ClientID:      clientID,
			TypeID:        typeID,
			Model:         "DX-200",
			Description:   "after sequence desync",
			InitialStatus: StatusNew,
		})
		if err != nil {
			t.Fatalf("create after desync: %v", err)
		}
		if id <= maxID {
			t.Fatalf("expected identifier above %d, got %d", maxID, id)
		}
	})

	t.Run("assign overwrites and advances start time", func(t *testing.T) {
		id, err := repo.Create(ctx, CreateParams{
			ClientID:      clientID,
			TypeID:        typeID,
			Model:         "DX-200",
			Description:   "noisy fan",
			InitialStatus: StatusNew,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		if err := repo.AssignMaster(ctx, id, masterA); err != nil {
			t.Fatalf("assign: %v", err)
		}
		first := startWork(ctx, t, pool, id)

		if err := repo.AssignMaster(ctx, id, masterB); err != nil {
			t.Fatalf("reassign: %v", err)
		}
		second := startWork(ctx, t, pool, id)

		if second.Before(first) {
			t.Fatalf("date_start_work went backwards: %v then %v", first, second)
		}
	})

	t.Run("create fails hard when the retried insert also collides", func(t *testing.T) {
		// A trigger raising unique_violation on every insert simulates a
		// generator that cannot be brought back in sync: the initial insert
		// and the single retried insert both fail.
		if _, err := pool.Exec(ctx, `CREATE SEQUENCE reject_insert_attempts`); err != nil {
			t.Fatalf("create attempt counter: %v", err)
		}
		defer pool.Exec(ctx, `DROP SEQUENCE IF EXISTS reject_insert_attempts`)

		if _, err := pool.Exec(ctx, `
			CREATE OR REPLACE FUNCTION reject_request_insert() RETURNS trigger AS $$
			BEGIN
				PERFORM nextval('reject_insert_attempts');
				RAISE EXCEPTION 'duplicate key value' USING ERRCODE = 'unique_violation';
			END;
			$$ LANGUAGE plpgsql
		`); err != nil {
			t.Fatalf("create reject function: %v", err)
		}
		defer pool.Exec(ctx, `DROP FUNCTION IF EXISTS reject_request_insert()`)

		if _, err := pool.Exec(ctx, `
			CREATE TRIGGER reject_requests BEFORE INSERT ON requests
			FOR EACH ROW EXECUTE FUNCTION reject_request_insert()
		`); err != nil {
			t.Fatalf("create reject trigger: %v", err)
		}
		defer pool.Exec(ctx, `DROP TRIGGER IF EXISTS reject_requests ON requests`)

		_, err := repo.Create(ctx, CreateParams{
			ClientID:      clientID,
			TypeID:        typeID,
			Model:         "DX-200",
			Description:   "never inserted",
			InitialStatus: StatusNew,
		})
		if !errors.Is(err, ErrCreateFailed) {
			t.Fatalf("expected ErrCreateFailed, got %v", err)
		}

		// Sequence advances survive the rolled-back transactions, so the
		// counter records every insert attempt: the original plus exactly
		// one retry, never a loop.
		var attempts int64
		var called bool
		if err := pool.QueryRow(ctx, `SELECT last_value, is_called FROM reject_insert_attempts`).Scan(&attempts, &called); err != nil {
			t.Fatalf("read attempt counter: %v", err)
		}
		if !called || attempts != 2 {
			t.Fatalf("expected exactly 2 insert attempts, got %d (called=%v)", attempts, called)
		}
	})
}

func seedClientAndType(ctx context.Context, t *testing.T, pool *pgxpool.Pool) (int64, int64) {
	t.Helper()

	var userID int64
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(user_id), 0) + 1 FROM users`).Scan(&userID); err != nil {
		t.Fatalf("allocate user id: %v", err)
	}
	login := fmt.Sprintf("itest-%d", time.Now().UnixNano())
	if _, err := pool.Exec(ctx, `
		INSERT INTO users (user_id, login, password_hash, role, fio, phone_number)
		VALUES ($1, $2, 'x', 'client', 'Integration Client', NULL)
	`, userID, login); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO clients (client_id, full_name, phone_number)
		VALUES ($1, 'Integration Client', NULL)
	`, userID); err != nil {
		t.Fatalf("seed client: %v", err)
	}

	var typeID int64
	if err := pool.QueryRow(ctx, `
		INSERT INTO equipment_types (type_name) VALUES ('Laptop') RETURNING type_id
	`).Scan(&typeID); err != nil {
		t.Fatalf("seed equipment type: %v", err)
	}

	return userID, typeID
}

func seedMaster(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) int64 {
	t.Helper()

	var id int64
	if err := pool.QueryRow(ctx, `INSERT INTO masters (full_name) VALUES ($1) RETURNING master_id`, name).Scan(&id); err != nil {
		t.Fatalf("seed master: %v", err)
	}
	return id
}

func startWork(ctx context.Context, t *testing.T, pool *pgxpool.Pool, requestID int64) time.Time {
	t.Helper()

	var ts time.Time
	if err := pool.QueryRow(ctx, `SELECT date_start_work FROM requests WHERE request_id = $1`, requestID).Scan(&ts); err != nil {
		t.Fatalf("fetch date_start_work: %v", err)
	}
	return ts
}

func tableExists(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()

	var exists bool
	if err := pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, name).Scan(&exists); err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return exists
}
