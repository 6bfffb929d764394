package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status describes the outcome of a recorded run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record captures one finished render run.
type Record struct {
	ID              int64
	RunID           string
	JobID           string
	BundlePath      string
	OutputPath      string
	Quality         string
	SlideCount      int
	TransitionCount int
	Status          Status
	FailedStage     string
	FailedSlides    string
	DurationSeconds float64
	GPU             string
	RateUSDPerHour  *float64
	RateSource      string
	CostUSD         *float64
	CreatedAt       time.Time
}

const recordColumns = "id, run_id, job_id, bundle_path, output_path, quality, slide_count, transition_count, status, failed_stage, failed_slides, duration_seconds, gpu, gpu_rate_usd_per_hour, gpu_rate_source, cost_usd, created_at"

// Record inserts a run into the history. The record's ID is assigned on
// success; CreatedAt is stamped with the current time when zero.
func (s *Store) Record(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	if rec.RunID == "" {
		return errors.New("record run id is empty")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO render_history (
            run_id, job_id, bundle_path, output_path, quality,
            slide_count, transition_count, status, failed_stage, failed_slides,
            duration_seconds, gpu, gpu_rate_usd_per_hour, gpu_rate_source, cost_usd,
            created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.JobID,
		nullableString(rec.BundlePath),
		nullableString(rec.OutputPath),
		nullableString(rec.Quality),
		rec.SlideCount,
		rec.TransitionCount,
		string(rec.Status),
		nullableString(rec.FailedStage),
		nullableString(rec.FailedSlides),
		rec.DurationSeconds,
		nullableString(rec.GPU),
		nullableFloat(rec.RateUSDPerHour),
		nullableString(rec.RateSource),
		nullableFloat(rec.CostUSD),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// List returns the most recent records, newest first. A limit <= 0 returns
// every record.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM render_history ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// GetByRunID fetches a record by its run identifier. Missing records return
// nil without error.
func (s *Store) GetByRunID(ctx context.Context, runID string) (*Record, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+recordColumns+` FROM render_history WHERE run_id = ?`,
		runID,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get history record: %w", err)
	}
	return rec, nil
}

// Prune deletes records older than the retention window and reports how many
// rows were removed. A retention of <= 0 days keeps everything.
func (s *Store) Prune(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM render_history WHERE datetime(created_at) < datetime(?)`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id              int64
		runID           string
		jobID           string
		bundlePath      sql.NullString
		outputPath      sql.NullString
		quality         sql.NullString
		slideCount      sql.NullInt64
		transitionCount sql.NullInt64
		statusStr       string
		failedStage     sql.NullString
		failedSlides    sql.NullString
		durationSeconds sql.NullFloat64
		gpu             sql.NullString
		rate            sql.NullFloat64
		rateSource      sql.NullString
		costUSD         sql.NullFloat64
		createdRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&runID,
		&jobID,
		&bundlePath,
		&outputPath,
		&quality,
		&slideCount,
		&transitionCount,
		&statusStr,
		&failedStage,
		&failedSlides,
		&durationSeconds,
		&gpu,
		&rate,
		&rateSource,
		&costUSD,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:              id,
		RunID:           runID,
		JobID:           jobID,
		BundlePath:      bundlePath.String,
		OutputPath:      outputPath.String,
		Quality:         quality.String,
		SlideCount:      int(slideCount.Int64),
		TransitionCount: int(transitionCount.Int64),
		Status:          Status(statusStr),
		FailedStage:     failedStage.String,
		FailedSlides:    failedSlides.String,
		DurationSeconds: durationSeconds.Float64,
		GPU:             gpu.String,
		RateSource:      rateSource.String,
	}
	if rate.Valid {
		v := rate.Float64
		rec.RateUSDPerHour = &v
	}
	if costUSD.Valid {
		v := costUSD.Float64
		rec.CostUSD = &v
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		rec.CreatedAt = created
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
