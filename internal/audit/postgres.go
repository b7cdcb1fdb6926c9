package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"vigil/internal/constants"
	"vigil/internal/quality"
	pkgerrors "vigil/pkg/errors"
	"vigil/pkg/metrics"
)

const backendPostgres = "postgres"

const resultColumns = "run_id, run_time, table_name, check_name, status, actual_value, expected_value, details"

// PostgresSink appends runs to the quality_check_results table. Each
// batch is written in one transaction, so a failed append leaves no
// rows behind.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Append(ctx context.Context, batch quality.Batch) (err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.IncAuditAppend(backendPostgres, status)
		metrics.ObserveAuditAppendDuration(backendPostgres, time.Since(start))
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, constants.ResultsTable, resultColumns)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, result := range batch.Results {
		if _, err = stmt.ExecContext(ctx,
			result.RunID,
			result.RunTime,
			result.TableName,
			result.CheckName,
			result.Status,
			result.ActualValue,
			result.ExpectedValue,
			result.Details,
		); err != nil {
			return fmt.Errorf("failed to insert result %s.%s: %w", result.TableName, result.CheckName, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	metrics.AddAuditRecordsWritten(backendPostgres, len(batch.Results))
	return nil
}

func (s *PostgresSink) Results(ctx context.Context, filter quality.Filter) ([]quality.CheckResult, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	addCondition := func(column, value string) {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if filter.RunID != "" {
		addCondition("run_id", filter.RunID)
	}
	if filter.TableName != "" {
		addCondition("table_name", filter.TableName)
	}
	if filter.CheckName != "" {
		addCondition("check_name", filter.CheckName)
	}
	if filter.Status != "" {
		addCondition("status", string(filter.Status))
	}

	query := fmt.Sprintf("SELECT %s FROM %s", resultColumns, constants.ResultsTable)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY run_time DESC, run_id, table_name, check_name"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []quality.CheckResult
	for rows.Next() {
		var result quality.CheckResult
		if err := rows.Scan(
			&result.RunID,
			&result.RunTime,
			&result.TableName,
			&result.CheckName,
			&result.Status,
			&result.ActualValue,
			&result.ExpectedValue,
			&result.Details,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return results, nil
}

func (s *PostgresSink) Runs(ctx context.Context, limit int) ([]quality.RunInfo, error) {
	if limit <= 0 {
		limit = constants.DefaultLimit
	}

	query := fmt.Sprintf(`
		SELECT run_id,
		       MIN(run_time) AS run_time,
		       COUNT(*) AS total_checks,
		       COUNT(*) FILTER (WHERE status = 'PASS') AS passed_checks,
		       COUNT(*) FILTER (WHERE status = 'FAIL') AS failed_checks
		FROM %s
		GROUP BY run_id
		ORDER BY MIN(run_time) DESC
		LIMIT $1
	`, constants.ResultsTable)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []quality.RunInfo
	for rows.Next() {
		var run quality.RunInfo
		if err := rows.Scan(&run.RunID, &run.RunTime, &run.Total, &run.Passed, &run.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return runs, nil
}

func (s *PostgresSink) LatestRun(ctx context.Context) (*quality.RunInfo, error) {
	runs, err := s.Runs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, pkgerrors.ErrNotFound.WithDetail("message", "no validation runs recorded")
	}
	return &runs[0], nil
}
