package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lueurxax/ad-library-intel/internal/core/domain"
)

// CollectionRun is one recorded pipeline run.
type CollectionRun struct {
	ID         string
	QueryKind  string
	QueryTerm  string
	Fetched    int
	Inserted   int
	Updated    int
	Unchanged  int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// SaveRun records a run summary so scheduled history stays queryable.
func (db *DB) SaveRun(ctx context.Context, summary domain.RunSummary) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO collection_runs (
			id, query_kind, query_term, fetched, inserted, updated, unchanged,
			error, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.NewString(),
		string(summary.Query.Kind),
		summary.Query.Term,
		summary.Fetched,
		summary.Inserted,
		summary.Updated,
		summary.Unchanged,
		summary.Error,
		summary.StartedAt,
		summary.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save collection run: %w", err)
	}

	return nil
}

// RecentRuns returns the latest recorded runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]CollectionRun, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, query_kind, query_term, fetched, inserted, updated,
		        unchanged, error, started_at, finished_at
		 FROM collection_runs
		 ORDER BY started_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query collection runs: %w", err)
	}
	defer rows.Close()

	var runs []CollectionRun

	for rows.Next() {
		var r CollectionRun

		if err := rows.Scan(
			&r.ID,
			&r.QueryKind,
			&r.QueryTerm,
			&r.Fetched,
			&r.Inserted,
			&r.Updated,
			&r.Unchanged,
			&r.Error,
			&r.StartedAt,
			&r.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan collection run: %w", err)
		}

		runs = append(runs, r)
	}

	return runs, rows.Err()
}
