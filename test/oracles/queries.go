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

// All returns invariant checks. Each query selects violating rows; an empty
// result means the invariant holds.
func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_single_accepted_quote",
			SQL: `SELECT service_request_id, COUNT(*) FROM quotes
                  WHERE status = 'ACCEPTED'
                  GROUP BY service_request_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_assigned_request_consistent",
			SQL: `SELECT sr.id, sr.status FROM service_requests sr
                  WHERE sr.status IN ('IN_PROGRESS','COMPLETED')
                    AND (sr.professional_id IS NULL
                         OR sr.final_price IS NULL
                         OR sr.started_at IS NULL
                         OR NOT EXISTS (
                             SELECT 1 FROM quotes q
                             WHERE q.service_request_id = sr.id
                               AND q.status = 'ACCEPTED'
                               AND q.professional_id = sr.professional_id
                               AND q.price = sr.final_price))`,
		},
		{
			Name: "O3_no_accepted_quote_on_pending",
			SQL: `SELECT q.id, q.service_request_id FROM quotes q
                  JOIN service_requests sr ON sr.id = q.service_request_id
                  WHERE q.status = 'ACCEPTED' AND sr.status = 'PENDING'`,
		},
		{
			Name: "O4_rating_matches_reviews",
			SQL: `SELECT p.id, p.rating, p.review_count, agg.n, agg.avg FROM professionals p
                  LEFT JOIN LATERAL (
                      SELECT COUNT(*) AS n, COALESCE(AVG(r.rating), 0)::float8 AS avg
                      FROM reviews r WHERE r.target_id = p.user_id) agg ON true
                  WHERE p.review_count <> agg.n OR abs(p.rating - agg.avg) > 0.0001`,
		},
		{
			Name: "O5_reviews_only_completed",
			SQL: `SELECT r.id, sr.status FROM reviews r
                  JOIN service_requests sr ON sr.id = r.service_request_id
                  WHERE sr.status <> 'COMPLETED'`,
		},
		{
			Name: "O6_accept_notified",
			SQL: `SELECT q.id FROM quotes q
                  JOIN professionals p ON p.id = q.professional_id
                  WHERE q.status = 'ACCEPTED'
                    AND NOT EXISTS (
                        SELECT 1 FROM notifications n
                        WHERE n.user_id = p.user_id
                          AND n.type = 'QUOTE_ACCEPTED'
                          AND n.data->>'quoteId' = q.id::text)`,
		},
		{
			Name: "O7_cancelled_pending_has_no_open_quotes",
			SQL: `SELECT q.id FROM quotes q
                  JOIN service_requests sr ON sr.id = q.service_request_id
                  WHERE sr.status = 'CANCELLED' AND sr.professional_id IS NULL
                    AND q.status = 'PENDING'`,
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
