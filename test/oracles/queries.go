package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_unique_request_ids",
			SQL: `SELECT request_id, COUNT(*) FROM requests
                  GROUP BY request_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_sequence_ahead_of_max",
			SQL: `SELECT last_value, (SELECT COALESCE(MAX(request_id),0) FROM requests) AS max_id
                  FROM requests_request_id_seq
                  WHERE is_called AND last_value < (SELECT COALESCE(MAX(request_id),0) FROM requests)`,
		},
		{
			Name: "O3_in_progress_has_master",
			SQL: `SELECT r.request_id FROM requests r
                  JOIN statuses s ON s.status_id = r.status_id
                  WHERE s.status_name = 'In Progress' AND r.master_id IS NULL`,
		},
		{
			Name: "O4_completed_has_timestamps",
			SQL: `SELECT r.request_id FROM requests r
                  JOIN statuses s ON s.status_id = r.status_id
                  WHERE s.status_name = 'Completed'
                    AND (r.date_completed IS NULL OR r.cost IS NULL)`,
		},
		{
			Name: "O5_work_not_before_creation",
			SQL: `SELECT request_id FROM requests
                  WHERE date_start_work IS NOT NULL AND date_start_work < date_created`,
		},
		{
			Name: "O6_completion_not_before_start",
			SQL: `SELECT request_id FROM requests
                  WHERE date_completed IS NOT NULL AND date_start_work IS NOT NULL
                    AND date_completed < date_start_work`,
		},
		{
			Name: "O7_no_negative_cost",
			SQL:  `SELECT request_id FROM requests WHERE cost IS NOT NULL AND cost < 0`,
		},
		{
			Name: "O8_unique_logins",
			SQL: `SELECT LOWER(login), COUNT(*) FROM users
                  GROUP BY LOWER(login) HAVING COUNT(*) > 1`,
		},
		{
			Name: "O9_known_roles_only",
			SQL: `SELECT user_id, role FROM users
                  WHERE role NOT IN ('administrator','manager','operator','master','client')`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
