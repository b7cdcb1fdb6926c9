package dataset

import (
	"context"
	"fmt"
)

// Dataset is a read-only handle over one validated silver table. The
// executor computes every rule metric through these primitives; none of
// them mutates the underlying data.
type Dataset interface {
	// Name is the logical dataset name, recorded as table_name on results.
	Name() string

	// RowCount returns the total number of rows.
	RowCount(ctx context.Context) (int64, error)

	// MissingCount returns the number of rows where column is NULL or an
	// empty string.
	MissingCount(ctx context.Context, column string) (int64, error)

	// DuplicateCount returns the number of distinct non-NULL values of
	// column that occur more than once. A value appearing twice counts as
	// one duplicate, not two.
	DuplicateCount(ctx context.Context, column string) (int64, error)

	// OutOfSetCount returns the number of rows whose non-NULL value of
	// column is outside allowed. NULLs are not set members and belong to
	// MissingCount.
	OutOfSetCount(ctx context.Context, column string, allowed []string) (int64, error)

	// Rows streams the named columns of every row to fn, stopping on the
	// first error fn returns. A NULL cell is a nil map value.
	Rows(ctx context.Context, columns []string, fn func(row map[string]interface{}) error) error
}

// Registry holds datasets in their declared order. Runs iterate datasets
// in this order so reports stay deterministic.
type Registry struct {
	names    []string
	datasets map[string]Dataset
}

func NewRegistry(datasets ...Dataset) *Registry {
	r := &Registry{datasets: make(map[string]Dataset)}
	for _, ds := range datasets {
		r.Register(ds)
	}
	return r
}

// Register adds or replaces a dataset. Re-registering a name keeps its
// original position.
func (r *Registry) Register(ds Dataset) {
	if _, ok := r.datasets[ds.Name()]; !ok {
		r.names = append(r.names, ds.Name())
	}
	r.datasets[ds.Name()] = ds
}

func (r *Registry) Get(name string) (Dataset, error) {
	ds, ok := r.datasets[name]
	if !ok {
		return nil, fmt.Errorf("dataset %q is not registered", name)
	}
	return ds, nil
}

// Names returns the dataset names in declared order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Registry) Len() int {
	return len(r.names)
}
