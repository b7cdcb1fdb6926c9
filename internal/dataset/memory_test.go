package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerRows() []map[string]interface{} {
	return []map[string]interface{}{
		{"id": 1, "name": "A", "tier": "gold"},
		{"id": 2, "name": nil, "tier": "silver"},
		{"id": 2, "name": "B", "tier": "platinum"},
	}
}

func TestMemoryDatasetRowCount(t *testing.T) {
	ds := NewMemoryDataset("customers", customerRows())

	count, err := ds.RowCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestMemoryDatasetRowCountEmpty(t *testing.T) {
	ds := NewMemoryDataset("customers", nil)

	count, err := ds.RowCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMemoryDatasetMissingCount(t *testing.T) {
	tests := []struct {
		name   string
		rows   []map[string]interface{}
		column string
		want   int64
	}{
		{
			name:   "nil value counts",
			rows:   customerRows(),
			column: "name",
			want:   1,
		},
		{
			name: "empty string counts",
			rows: []map[string]interface{}{
				{"name": ""},
				{"name": "ok"},
			},
			column: "name",
			want:   1,
		},
		{
			name: "absent key counts",
			rows: []map[string]interface{}{
				{"other": 1},
				{"name": "ok"},
			},
			column: "name",
			want:   1,
		},
		{
			name:   "no missing values",
			rows:   customerRows(),
			column: "id",
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := NewMemoryDataset("test", tt.rows)

			count, err := ds.MissingCount(context.Background(), tt.column)
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestMemoryDatasetDuplicateCount(t *testing.T) {
	tests := []struct {
		name   string
		rows   []map[string]interface{}
		column string
		want   int64
	}{
		{
			name:   "one key twice counts once",
			rows:   customerRows(),
			column: "id",
			want:   1,
		},
		{
			name: "key three times still counts once",
			rows: []map[string]interface{}{
				{"id": 7}, {"id": 7}, {"id": 7}, {"id": 8},
			},
			column: "id",
			want:   1,
		},
		{
			name: "two duplicated keys count twice",
			rows: []map[string]interface{}{
				{"id": 1}, {"id": 1}, {"id": 2}, {"id": 2}, {"id": 3},
			},
			column: "id",
			want:   2,
		},
		{
			name: "nulls never count as duplicates",
			rows: []map[string]interface{}{
				{"id": nil}, {"id": nil}, {"id": 1},
			},
			column: "id",
			want:   0,
		},
		{
			name:   "all unique",
			rows:   customerRows(),
			column: "tier",
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := NewMemoryDataset("test", tt.rows)

			count, err := ds.DuplicateCount(context.Background(), tt.column)
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestMemoryDatasetOutOfSetCount(t *testing.T) {
	rows := []map[string]interface{}{
		{"category": "books"},
		{"category": "games"},
		{"category": "n/a"},
		{"category": nil},
	}
	ds := NewMemoryDataset("products", rows)

	count, err := ds.OutOfSetCount(context.Background(), "category", []string{"books", "toys", "n/a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "only games is outside the set; nil is not a member")
}

func TestMemoryDatasetRows(t *testing.T) {
	ds := NewMemoryDataset("customers", customerRows())

	var names []interface{}
	err := ds.Rows(context.Background(), []string{"name"}, func(row map[string]interface{}) error {
		names = append(names, row["name"])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"A", nil, "B"}, names)
}

func TestMemoryDatasetRowsStopsOnError(t *testing.T) {
	ds := NewMemoryDataset("customers", customerRows())
	boom := errors.New("boom")

	visited := 0
	err := ds.Rows(context.Background(), []string{"id"}, func(row map[string]interface{}) error {
		visited++
		if visited == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, visited)
}

func TestMemoryDatasetHonorsContext(t *testing.T) {
	ds := NewMemoryDataset("customers", customerRows())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ds.RowCount(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	err = ds.Rows(ctx, []string{"id"}, func(map[string]interface{}) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistryOrderAndLookup(t *testing.T) {
	r := NewRegistry(
		NewMemoryDataset("customers", nil),
		NewMemoryDataset("products", nil),
		NewMemoryDataset("sales", nil),
	)

	assert.Equal(t, []string{"customers", "products", "sales"}, r.Names())
	assert.Equal(t, 3, r.Len())

	ds, err := r.Get("products")
	require.NoError(t, err)
	assert.Equal(t, "products", ds.Name())

	_, err = r.Get("orders")
	assert.Error(t, err)
}

func TestRegistryReplaceKeepsPosition(t *testing.T) {
	r := NewRegistry(
		NewMemoryDataset("customers", nil),
		NewMemoryDataset("products", nil),
	)

	replacement := NewMemoryDataset("customers", customerRows())
	r.Register(replacement)

	assert.Equal(t, []string{"customers", "products"}, r.Names())

	ds, err := r.Get("customers")
	require.NoError(t, err)

	count, err := ds.RowCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
