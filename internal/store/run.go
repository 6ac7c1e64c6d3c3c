package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// runRepo implements RunRepo with raw SQL.
type runRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *runRepo) Save(ctx context.Context, run *Run) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	seq, err := r.seq.Next(ctx, tx)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, sequence, created_at, bundle_name, bundle_source, capability, item_count, failed_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, seq, createdAt.Format(time.RFC3339Nano), run.BundleName, run.BundleSource,
		run.Capability, len(run.Results), run.Failed(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, position, text, label, confidence, error) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, res := range run.Results {
		var confidence sql.NullFloat64
		if res.Confidence != nil {
			confidence = sql.NullFloat64{Float64: *res.Confidence, Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, id, i, res.Text, res.Label, confidence, res.Error); err != nil {
			return fmt.Errorf("insert result %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}

	run.ID = id
	run.Sequence = seq
	run.CreatedAt = createdAt
	return nil
}

func (r *runRepo) Get(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sequence, created_at, bundle_name, bundle_source, capability
		 FROM runs WHERE id = ? OR id LIKE ? ORDER BY id = ? DESC LIMIT 2`,
		id, stripLikeWildcards(id)+"%", id)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	var matches []*Run
	for rows.Next() {
		var (
			run       Run
			createdAt string
		)
		if err := rows.Scan(&run.ID, &run.Sequence, &createdAt, &run.BundleName, &run.BundleSource, &run.Capability); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse run time: %w", err)
		}
		matches = append(matches, &run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	rows.Close()

	switch {
	case len(matches) == 0:
		return nil, nil
	case len(matches) > 1 && matches[0].ID != id:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousID, id)
	}

	run := matches[0]
	run.Results, err = r.results(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *runRepo) results(ctx context.Context, runID string) ([]RunResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT text, label, confidence, error FROM results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []RunResult
	for rows.Next() {
		var (
			res        RunResult
			confidence sql.NullFloat64
		)
		if err := rows.Scan(&res.Text, &res.Label, &confidence, &res.Error); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if confidence.Valid {
			c := confidence.Float64
			res.Confidence = &c
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

func (r *runRepo) List(ctx context.Context, opts ListOpts) ([]RunSummary, error) {
	query := `SELECT id, sequence, created_at, bundle_name, capability, item_count, failed_count
		FROM runs ORDER BY sequence DESC`
	var args []any
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var (
			s         RunSummary
			createdAt string
		)
		if err := rows.Scan(&s.ID, &s.Sequence, &createdAt, &s.BundleName, &s.Capability, &s.Items, &s.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse run time: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return summaries, nil
}

func (r *runRepo) LabelTotals(ctx context.Context) ([]LabelTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT label, COUNT(*) AS n FROM results
		 WHERE error = '' GROUP BY label ORDER BY n DESC, label ASC`)
	if err != nil {
		return nil, fmt.Errorf("query label totals: %w", err)
	}
	defer rows.Close()

	var totals []LabelTotal
	for rows.Next() {
		var lt LabelTotal
		if err := rows.Scan(&lt.Label, &lt.Count); err != nil {
			return nil, fmt.Errorf("scan label total: %w", err)
		}
		totals = append(totals, lt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate label totals: %w", err)
	}
	return totals, nil
}

func (r *runRepo) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative, got %d", keep)
	}

	// Find the sequence threshold: the newest run past the keep window.
	var threshold int64
	err := r.db.QueryRowContext(ctx,
		`SELECT sequence FROM runs ORDER BY sequence DESC LIMIT 1 OFFSET ?`, keep,
	).Scan(&threshold)
	if err == sql.ErrNoRows {
		return 0, nil // fewer than keep runs exist
	}
	if err != nil {
		return 0, fmt.Errorf("query runs for prune: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE sequence <= ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return int(n), nil
}

// stripLikeWildcards drops LIKE wildcards from a user-supplied prefix. Run
// ids never contain them.
func stripLikeWildcards(s string) string {
	return strings.NewReplacer(`%`, ``, `_`, ``).Replace(s)
}
