package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"vigil/pkg/metrics"
)

// PostgresDataset reads one warehouse table through database/sql. All
// metric primitives are single aggregate queries so a rule evaluation is
// one bounded round-trip.
type PostgresDataset struct {
	db     *sql.DB
	schema string
	name   string
}

func NewPostgresDataset(db *sql.DB, schema, name string) *PostgresDataset {
	return &PostgresDataset{db: db, schema: schema, name: name}
}

func (d *PostgresDataset) Name() string {
	return d.name
}

func (d *PostgresDataset) RowCount(ctx context.Context) (count int64, err error) {
	defer d.observe("row_count", time.Now(), &err)

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", d.relation())
	if err = d.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", d.name, err)
	}
	return count, nil
}

func (d *PostgresDataset) MissingCount(ctx context.Context, column string) (count int64, err error) {
	defer d.observe("missing_count", time.Now(), &err)

	col := pq.QuoteIdentifier(column)
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE %s IS NULL OR %s::text = ''",
		d.relation(), col, col,
	)
	if err = d.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count missing %s.%s: %w", d.name, column, err)
	}
	return count, nil
}

func (d *PostgresDataset) DuplicateCount(ctx context.Context, column string) (count int64, err error) {
	defer d.observe("duplicate_count", time.Now(), &err)

	col := pq.QuoteIdentifier(column)
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM (SELECT %s FROM %s WHERE %s IS NOT NULL GROUP BY %s HAVING COUNT(*) > 1) AS dupes",
		col, d.relation(), col, col,
	)
	if err = d.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count duplicates of %s.%s: %w", d.name, column, err)
	}
	return count, nil
}

func (d *PostgresDataset) OutOfSetCount(ctx context.Context, column string, allowed []string) (count int64, err error) {
	defer d.observe("out_of_set_count", time.Now(), &err)

	col := pq.QuoteIdentifier(column)
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND NOT (%s::text = ANY($1))",
		d.relation(), col, col,
	)
	if err = d.db.QueryRowContext(ctx, query, pq.Array(allowed)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count out-of-set %s.%s: %w", d.name, column, err)
	}
	return count, nil
}

func (d *PostgresDataset) Rows(ctx context.Context, columns []string, fn func(row map[string]interface{}) error) (err error) {
	defer d.observe("rows", time.Now(), &err)

	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = pq.QuoteIdentifier(c)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), d.relation())
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query rows of %s: %w", d.name, err)
	}
	defer rows.Close()

	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err = rows.Scan(pointers...); err != nil {
			return fmt.Errorf("failed to scan row of %s: %w", d.name, err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, c := range columns {
			row[c] = normalizeValue(values[i])
		}

		if err = fn(row); err != nil {
			return err
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("rows iteration error on %s: %w", d.name, err)
	}
	return nil
}

func (d *PostgresDataset) relation() string {
	if d.schema == "" {
		return pq.QuoteIdentifier(d.name)
	}
	return pq.QuoteIdentifier(d.schema) + "." + pq.QuoteIdentifier(d.name)
}

func (d *PostgresDataset) observe(operation string, start time.Time, err *error) {
	status := "success"
	if *err != nil {
		status = "error"
	}
	metrics.IncDatasetQuery(d.name, operation, status)
	metrics.ObserveDatasetQueryDuration(d.name, operation, time.Since(start))
}

// normalizeValue maps driver values onto types the expression evaluator
// understands. lib/pq hands text and numeric columns back as raw bytes;
// numeric-looking bytes become float64 so arithmetic predicates work.
func normalizeValue(v interface{}) interface{} {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	s := string(b)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
