package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ RunRepository = (*SQLRunRepository)(nil)

// SQLRunRepository handles database operations for run history
type SQLRunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *SQLRunRepository {
	return &SQLRunRepository{db: db}
}

func (r *SQLRunRepository) CreateRun(trigger string, asOf time.Time) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO runs (triggered_by, as_of, status, started_at)
		VALUES (?, ?, ?, ?)
	`, trigger, asOf.Format(timeLayout), RunStatusRunning, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	return id, nil
}

func (r *SQLRunRepository) FinishRun(runID int64, status string, selected, processed, skipped int, runErr error) error {
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}

	_, err := r.db.Exec(`
		UPDATE runs
		SET status = ?, selected = ?, processed = ?, skipped = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, status, selected, processed, skipped, errText, time.Now().UTC().Format(timeLayout), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	return nil
}

func (r *SQLRunRepository) AddRunItems(runID int64, items []RunItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO run_items (run_id, source_label, post_url, state, reason, error, field_count, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare run item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.Exec(runID, item.SourceLabel, item.PostURL, item.State, item.Reason,
			item.Error, item.FieldCount, item.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("failed to insert run item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run items: %w", err)
	}

	return nil
}

const runColumns = `id, triggered_by, as_of, status, selected, processed, skipped, error, started_at, finished_at`

func (r *SQLRunRepository) GetRun(runID int64) (*Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

func (r *SQLRunRepository) GetRunItems(runID int64) ([]RunItem, error) {
	rows, err := r.db.Query(`
		SELECT run_id, source_label, post_url, state, reason, error, field_count, duration_ms
		FROM run_items
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run items: %w", err)
	}
	defer rows.Close()

	items := []RunItem{}
	for rows.Next() {
		var item RunItem
		var durationMs int64
		err := rows.Scan(&item.RunID, &item.SourceLabel, &item.PostURL, &item.State,
			&item.Reason, &item.Error, &item.FieldCount, &durationMs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run item row: %w", err)
		}
		item.Duration = time.Duration(durationMs) * time.Millisecond
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run item rows: %w", err)
	}

	return items, nil
}

func (r *SQLRunRepository) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := r.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}

func (r *SQLRunRepository) GetRunStats() (RunStats, error) {
	var stats RunStats

	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(processed), 0),
			COALESCE(SUM(skipped), 0)
		FROM runs
	`, RunStatusFailed).Scan(&stats.Runs, &stats.FailedRuns, &stats.Appended, &stats.Skipped)
	if err != nil {
		return stats, fmt.Errorf("failed to get run stats: %w", err)
	}

	recent, err := r.GetRecentRuns(1)
	if err != nil {
		return stats, err
	}
	if len(recent) == 1 {
		stats.LastRunAt = &recent[0].StartedAt
		stats.LastRunStatus = recent[0].Status
	}

	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var asOf, startedAt string
	var finishedAt sql.NullString

	err := s.Scan(&run.ID, &run.Trigger, &asOf, &run.Status, &run.Selected, &run.Processed,
		&run.Skipped, &run.Error, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	if run.AsOf, err = time.Parse(timeLayout, asOf); err != nil {
		return nil, fmt.Errorf("invalid as_of %q: %w", asOf, err)
	}
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid finished_at %q: %w", finishedAt.String, err)
		}
		run.FinishedAt = &t
	}

	return &run, nil
}
