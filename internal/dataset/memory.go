package dataset

import (
	"context"
	"fmt"
)

// MemoryDataset serves rows from a fixed in-memory slice. Its counting
// semantics mirror PostgresDataset: a nil cell is NULL, everything else
// compares by its text form.
type MemoryDataset struct {
	name string
	rows []map[string]interface{}
}

func NewMemoryDataset(name string, rows []map[string]interface{}) *MemoryDataset {
	return &MemoryDataset{name: name, rows: rows}
}

func (d *MemoryDataset) Name() string {
	return d.name
}

func (d *MemoryDataset) RowCount(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(d.rows)), nil
}

func (d *MemoryDataset) MissingCount(ctx context.Context, column string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	for _, row := range d.rows {
		v, ok := row[column]
		if !ok || v == nil || v == "" {
			count++
		}
	}
	return count, nil
}

func (d *MemoryDataset) DuplicateCount(ctx context.Context, column string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	seen := make(map[string]int)
	for _, row := range d.rows {
		v, ok := row[column]
		if !ok || v == nil {
			continue
		}
		seen[fmt.Sprint(v)]++
	}

	var count int64
	for _, occurrences := range seen {
		if occurrences > 1 {
			count++
		}
	}
	return count, nil
}

func (d *MemoryDataset) OutOfSetCount(ctx context.Context, column string, allowed []string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	members := make(map[string]bool, len(allowed))
	for _, v := range allowed {
		members[v] = true
	}

	var count int64
	for _, row := range d.rows {
		v, ok := row[column]
		if !ok || v == nil {
			continue
		}
		if !members[fmt.Sprint(v)] {
			count++
		}
	}
	return count, nil
}

func (d *MemoryDataset) Rows(ctx context.Context, columns []string, fn func(row map[string]interface{}) error) error {
	for _, stored := range d.rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		row := make(map[string]interface{}, len(columns))
		for _, c := range columns {
			row[c] = stored[c]
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}
