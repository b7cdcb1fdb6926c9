package integration

import (
	"database/sql"
	"testing"
	"time"

	"vigil/internal/logger"
	"vigil/internal/quality"
)

const (
	containerStartupTimeout = 60
	timestampDelay          = 10 * time.Millisecond
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

// seedCustomers loads silver.customers with a fixed quality profile:
// six rows, one NULL id, the id c3 duplicated and two missing names
// (one NULL, one empty). Against the built-in catalog that is a PASS
// for row_count and a FAIL for missing_id, duplicate_id and
// null_name_pct (2 of 6 rows, 33.33%).
func seedCustomers(t *testing.T, db *sql.DB) {
	t.Helper()

	execSQL(t, db, `CREATE TABLE IF NOT EXISTS silver.customers (
		id TEXT,
		name TEXT,
		email TEXT
	)`)
	execSQL(t, db, `TRUNCATE silver.customers`)
	execSQL(t, db, `INSERT INTO silver.customers (id, name, email) VALUES
		('c1', 'Ada', 'ada@example.com'),
		('c2', NULL, 'grace@example.com'),
		('c3', 'Edsger', 'edsger@example.com'),
		('c3', 'Tony', 'tony@example.com'),
		('c5', '', 'barbara@example.com'),
		(NULL, 'Donald', 'donald@example.com')`)
}

// seedProducts loads silver.products with three clean rows so every
// built-in product check passes.
func seedProducts(t *testing.T, db *sql.DB) {
	t.Helper()

	execSQL(t, db, `CREATE TABLE IF NOT EXISTS silver.products (
		id TEXT,
		product_name TEXT,
		category TEXT,
		price NUMERIC
	)`)
	execSQL(t, db, `TRUNCATE silver.products`)
	execSQL(t, db, `INSERT INTO silver.products (id, product_name, category, price) VALUES
		('p1', 'Keyboard', 'electronics', 49.90),
		('p2', 'Novel', 'books', 12.00),
		('p3', 'Blocks', 'toys', 25.50)`)
}

func execSQL(t *testing.T, db *sql.DB, query string) {
	t.Helper()
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("failed to execute %q: %v", query, err)
	}
}

func testResult(runID string, runTime time.Time, table, check string, status quality.Status, actual string) quality.CheckResult {
	return quality.CheckResult{
		RunID:       runID,
		RunTime:     runTime,
		TableName:   table,
		CheckName:   check,
		Status:      status,
		ActualValue: actual,
	}
}

func testBatch(runID string, runTime time.Time) quality.Batch {
	expected := "0"
	details := "1 values of id appear more than once"

	failed := testResult(runID, runTime, "customers", "duplicate_id", quality.StatusFail, "1")
	failed.ExpectedValue = &expected
	failed.Details = &details

	return quality.Batch{
		RunID:   runID,
		RunTime: runTime,
		Elapsed: 25 * time.Millisecond,
		Results: []quality.CheckResult{
			testResult(runID, runTime, "customers", "row_count", quality.StatusPass, "6"),
			failed,
			testResult(runID, runTime, "sales", "row_count", quality.StatusPass, "20"),
		},
	}
}
