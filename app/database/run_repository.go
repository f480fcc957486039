package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

// fixed width so that lexical order matches chronological order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunRepository stores digest runs and the ranked records they produced.
// The archive is write-mostly: pipeline runs never read it back.
type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun inserts the run and its records in one transaction
func (r *RunRepository) SaveRun(run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			id, started_at, finished_at, collected_count, record_count,
			sources, digest, report_path, dry_run
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		run.CollectedCount, len(run.Records), strings.Join(run.Sources, ","),
		run.Digest, run.ReportPath, run.DryRun)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_records (run_id, position, url, source, title, engagement_score, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range run.Records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record %s: %w", rec.URL, err)
		}
		if _, err := stmt.Exec(run.ID, i, rec.URL, string(rec.Source), rec.Title, rec.EngagementScore(), string(data)); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// GetRun returns the run with its records, or nil if it does not exist
func (r *RunRepository) GetRun(id string) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`
		SELECT id, started_at, finished_at, collected_count, record_count,
		       sources, digest, report_path, dry_run
		FROM runs
		WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if run.Records, err = r.getRecords(run.ID); err != nil {
		return nil, err
	}

	return run, nil
}

// GetLatestRun returns the most recent run with its records, or nil if the
// archive is empty
func (r *RunRepository) GetLatestRun() (*Run, error) {
	var id string
	err := r.db.QueryRow(`SELECT id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return r.GetRun(id)
}

// ListRuns returns run summaries, newest first, without records
func (r *RunRepository) ListRuns(limit int) ([]Run, error) {
	rows, err := r.db.Query(`
		SELECT id, started_at, finished_at, collected_count, record_count,
		       sources, digest, report_path, dry_run
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
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

func (r *RunRepository) GetRunCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get run count: %w", err)
	}
	return count, nil
}

// DeleteRunsBefore removes runs started before cutoff and returns how many were deleted
func (r *RunRepository) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	return result.RowsAffected()
}

func (r *RunRepository) getRecords(runID string) ([]record.Record, error) {
	rows, err := r.db.Query(`
		SELECT data FROM run_records
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run records: %w", err)
	}
	defer rows.Close()

	records := []record.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		var rec record.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run                 Run
		startedAt, finished string
		sources             string
	)
	err := row.Scan(&run.ID, &startedAt, &finished, &run.CollectedCount, &run.RecordCount,
		&sources, &run.Digest, &run.ReportPath, &run.DryRun)
	if err != nil {
		return nil, err
	}

	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("failed to parse finished_at: %w", err)
	}
	if sources != "" {
		run.Sources = strings.Split(sources, ",")
	}

	return &run, nil
}
