// Package pgindex mirrors iteration history into Postgres for
// cross-evaluation SQL queries ("which instruction file correlates with
// the biggest F1 regression"). The filesystem remains the source of
// truth per §5; this is an optional, best-effort secondary index — the
// improvement loop still functions with TITLE24_POSTGRES_DSN unset.
// Grounded on arx-backend/repository/pipeline_repository.go's
// sqlx.DB-wrapping repository shape.
package pgindex

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/abudker/takeoff24/internal/takeoff/store"
)

// Index wraps a Postgres connection used to mirror iteration history.
type Index struct {
	db *sqlx.DB
}

// Open connects to Postgres at dsn and ensures the mirror table exists.
func Open(ctx context.Context, dsn string) (*Index, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	idx := &Index{db: db}
	if err := idx.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) ensureSchema(ctx context.Context) error {
	_, err := idx.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS iteration_history (
			eval_id    TEXT NOT NULL,
			iteration  INTEGER NOT NULL,
			f1         DOUBLE PRECISION NOT NULL,
			precision  DOUBLE PRECISION NOT NULL,
			recall     DOUBLE PRECISION NOT NULL,
			trend      DOUBLE PRECISION NOT NULL,
			timestamp  TEXT NOT NULL,
			PRIMARY KEY (eval_id, iteration)
		)
	`)
	if err != nil {
		return fmt.Errorf("ensuring iteration_history schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// MirrorEntry upserts one HistoryEntry into iteration_history. Best
// effort: the caller should log and continue on error rather than treat
// a mirror failure as fatal to the improvement loop.
func (idx *Index) MirrorEntry(ctx context.Context, evalID string, entry store.HistoryEntry) error {
	_, err := idx.db.ExecContext(ctx, `
		INSERT INTO iteration_history (eval_id, iteration, f1, precision, recall, trend, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (eval_id, iteration) DO UPDATE SET
			f1 = EXCLUDED.f1,
			precision = EXCLUDED.precision,
			recall = EXCLUDED.recall,
			trend = EXCLUDED.trend,
			timestamp = EXCLUDED.timestamp
	`, evalID, entry.Iteration, entry.F1, entry.Precision, entry.Recall, entry.Trend, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("mirroring iteration %s/%d: %w", evalID, entry.Iteration, err)
	}
	return nil
}

// BiggestRegression returns the eval_id/iteration pair with the most
// negative trend recorded, the query this mirror exists to serve.
func (idx *Index) BiggestRegression(ctx context.Context) (evalID string, iteration int, trend float64, err error) {
	row := idx.db.QueryRowxContext(ctx, `
		SELECT eval_id, iteration, trend FROM iteration_history
		ORDER BY trend ASC LIMIT 1
	`)
	if scanErr := row.Scan(&evalID, &iteration, &trend); scanErr != nil {
		return "", 0, 0, fmt.Errorf("querying biggest regression: %w", scanErr)
	}
	return evalID, iteration, trend, nil
}

// MirrorAggregate mirrors every entry in aggregate's history, continuing
// past individual failures and returning the first error encountered (if
// any) after attempting all of them.
func (idx *Index) MirrorAggregate(ctx context.Context, aggregate *store.Aggregate) error {
	var firstErr error
	for _, entry := range aggregate.Iterations {
		if err := idx.MirrorEntry(ctx, aggregate.EvalID, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
