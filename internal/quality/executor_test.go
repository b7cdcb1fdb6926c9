package quality

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/dataset"
	"vigil/internal/logger"
	"vigil/pkg/cel"
)

func newTestExecutor(t *testing.T, timeout time.Duration) *Executor {
	t.Helper()
	evaluator, err := cel.NewEvaluator()
	require.NoError(t, err)
	return NewExecutor(evaluator, timeout, logger.NopLogger())
}

// brokenDataset fails every read, standing in for an unreadable table.
type brokenDataset struct {
	name string
	err  error
}

func (d *brokenDataset) Name() string { return d.name }

func (d *brokenDataset) RowCount(context.Context) (int64, error) { return 0, d.err }

func (d *brokenDataset) MissingCount(context.Context, string) (int64, error) {
	return 0, d.err
}
func (d *brokenDataset) DuplicateCount(context.Context, string) (int64, error) {
	return 0, d.err
}

func (d *brokenDataset) OutOfSetCount(context.Context, string, []string) (int64, error) {
	return 0, d.err
}

func (d *brokenDataset) Rows(context.Context, []string, func(map[string]interface{}) error) error {
	return d.err
}

// stalledDataset blocks until the per-check deadline fires.
type stalledDataset struct {
	name string
}

func (d *stalledDataset) Name() string { return d.name }

func (d *stalledDataset) RowCount(ctx context.Context) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (d *stalledDataset) MissingCount(ctx context.Context, _ string) (int64, error) {
	return d.RowCount(ctx)
}

func (d *stalledDataset) DuplicateCount(ctx context.Context, _ string) (int64, error) {
	return d.RowCount(ctx)
}

func (d *stalledDataset) OutOfSetCount(ctx context.Context, _ string, _ []string) (int64, error) {
	return d.RowCount(ctx)
}

func (d *stalledDataset) Rows(ctx context.Context, _ []string, _ func(map[string]interface{}) error) error {
	<-ctx.Done()
	return ctx.Err()
}

// panickyDataset panics on read, standing in for a programming error in
// a dataset implementation.
type panickyDataset struct {
	name string
}

func (d *panickyDataset) Name() string { return d.name }

func (d *panickyDataset) RowCount(context.Context) (int64, error) { panic("corrupted handle") }

func (d *panickyDataset) MissingCount(context.Context, string) (int64, error) {
	panic("corrupted handle")
}

func (d *panickyDataset) DuplicateCount(context.Context, string) (int64, error) {
	panic("corrupted handle")
}

func (d *panickyDataset) OutOfSetCount(context.Context, string, []string) (int64, error) {
	panic("corrupted handle")
}

func (d *panickyDataset) Rows(context.Context, []string, func(map[string]interface{}) error) error {
	panic("corrupted handle")
}

func TestEvaluateRowCount(t *testing.T) {
	exec := newTestExecutor(t, 0)

	tests := []struct {
		name string
		rows []map[string]interface{}
		want string
	}{
		{
			name: "populated dataset",
			rows: []map[string]interface{}{{"id": 1}, {"id": 2}, {"id": 3}},
			want: "3",
		},
		{
			name: "empty dataset still passes",
			rows: nil,
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := dataset.NewMemoryDataset("customers", tt.rows)
			rule := Rule{Dataset: "customers", Name: "row_count", Kind: KindRowCount}

			result := exec.Evaluate(context.Background(), ds, rule)

			assert.Equal(t, StatusPass, result.Status)
			assert.Equal(t, tt.want, result.ActualValue)
			assert.Nil(t, result.ExpectedValue, "informational checks carry no threshold")
			assert.Equal(t, "customers", result.TableName)
			assert.Equal(t, "row_count", result.CheckName)
		})
	}
}

func TestEvaluateNotNull(t *testing.T) {
	exec := newTestExecutor(t, 0)

	tests := []struct {
		name       string
		rows       []map[string]interface{}
		wantStatus Status
		wantActual string
	}{
		{
			name:       "no missing values",
			rows:       []map[string]interface{}{{"id": 1}, {"id": 2}},
			wantStatus: StatusPass,
			wantActual: "0",
		},
		{
			name:       "nulls and empty strings fail",
			rows:       []map[string]interface{}{{"id": 1}, {"id": nil}, {"id": ""}},
			wantStatus: StatusFail,
			wantActual: "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := dataset.NewMemoryDataset("customers", tt.rows)
			rule := Rule{Dataset: "customers", Name: "missing_id", Kind: KindNotNull, Params: RuleParams{Column: "id"}}

			result := exec.Evaluate(context.Background(), ds, rule)

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantActual, result.ActualValue)
			require.NotNil(t, result.ExpectedValue)
			assert.Equal(t, "0", *result.ExpectedValue)
			if tt.wantStatus == StatusFail {
				require.NotNil(t, result.Details)
				assert.Contains(t, *result.Details, "null or empty id")
			}
		})
	}
}

func TestEvaluateUniqueCountsDuplicatedKeysOnce(t *testing.T) {
	exec := newTestExecutor(t, 0)

	// One key appearing twice is one duplicate, not two occurrences.
	rows := []map[string]interface{}{
		{"id": 1}, {"id": 2}, {"id": 2}, {"id": 3}, {"id": 4},
	}
	ds := dataset.NewMemoryDataset("customers", rows)
	rule := Rule{Dataset: "customers", Name: "duplicate_id", Kind: KindUnique, Params: RuleParams{Column: "id"}}

	result := exec.Evaluate(context.Background(), ds, rule)

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, "1", result.ActualValue)
	require.NotNil(t, result.Details)
	assert.Contains(t, *result.Details, "appear more than once")
}

func TestEvaluateUniquePassesOnUniqueKeys(t *testing.T) {
	exec := newTestExecutor(t, 0)

	rows := []map[string]interface{}{{"id": 1}, {"id": 2}, {"id": nil}, {"id": nil}}
	ds := dataset.NewMemoryDataset("customers", rows)
	rule := Rule{Dataset: "customers", Name: "duplicate_id", Kind: KindUnique, Params: RuleParams{Column: "id"}}

	result := exec.Evaluate(context.Background(), ds, rule)

	assert.Equal(t, StatusPass, result.Status, "nulls are excluded from the duplicate search")
	assert.Equal(t, "0", result.ActualValue)
}

func TestEvaluateAllowedValues(t *testing.T) {
	exec := newTestExecutor(t, 0)

	rows := []map[string]interface{}{
		{"category": "books"},
		{"category": "n/a"},
		{"category": "weapons"},
	}
	ds := dataset.NewMemoryDataset("products", rows)
	rule := Rule{
		Dataset: "products",
		Name:    "valid_category",
		Kind:    KindAllowedValues,
		Params:  RuleParams{Column: "category", Allowed: DefaultAllowedCategories},
	}

	result := exec.Evaluate(context.Background(), ds, rule)

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, "1", result.ActualValue, "the n/a sentinel is an allowed member")
	require.NotNil(t, result.Details)
	assert.Contains(t, *result.Details, "category outside")
}

func TestEvaluateMaxMissingPctBoundary(t *testing.T) {
	// 1 missing value in 20 rows is exactly 5.00%.
	rows := make([]map[string]interface{}, 0, 20)
	rows = append(rows, map[string]interface{}{"name": nil})
	for i := 1; i < 20; i++ {
		rows = append(rows, map[string]interface{}{"name": "ok"})
	}
	ds := dataset.NewMemoryDataset("customers", rows)

	tests := []struct {
		name       string
		ceiling    float64
		wantStatus Status
	}{
		{name: "passes at a 5 percent ceiling", ceiling: 5, wantStatus: StatusPass},
		{name: "fails at a 1 percent ceiling", ceiling: 1, wantStatus: StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newTestExecutor(t, 0)
			rule := Rule{
				Dataset: "customers",
				Name:    "null_name_pct",
				Kind:    KindMaxMissingPct,
				Params:  RuleParams{Column: "name", CeilingPct: tt.ceiling},
			}

			result := exec.Evaluate(context.Background(), ds, rule)

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, "5.00%", result.ActualValue)
			require.NotNil(t, result.ExpectedValue)
		})
	}
}

func TestEvaluateMaxMissingPctRounding(t *testing.T) {
	exec := newTestExecutor(t, 0)

	// 1 of 3 missing rounds half up to 33.33%.
	rows := []map[string]interface{}{
		{"name": "A"}, {"name": nil}, {"name": "B"},
	}
	ds := dataset.NewMemoryDataset("customers", rows)
	rule := Rule{
		Dataset: "customers",
		Name:    "null_name_pct",
		Kind:    KindMaxMissingPct,
		Params:  RuleParams{Column: "name", CeilingPct: 5},
	}

	result := exec.Evaluate(context.Background(), ds, rule)

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, "33.33%", result.ActualValue)
	require.NotNil(t, result.ExpectedValue)
	assert.Equal(t, "<= 5.00%", *result.ExpectedValue)
}

func TestEvaluateMaxMissingPctEmptyDataset(t *testing.T) {
	exec := newTestExecutor(t, 0)

	ds := dataset.NewMemoryDataset("customers", nil)
	rule := Rule{
		Dataset: "customers",
		Name:    "null_name_pct",
		Kind:    KindMaxMissingPct,
		Params:  RuleParams{Column: "name", CeilingPct: 5},
	}

	result := exec.Evaluate(context.Background(), ds, rule)

	assert.Equal(t, StatusPass, result.Status, "an empty dataset is 0 percent, not a division fault")
	assert.Equal(t, "0.00%", result.ActualValue)
}

func TestEvaluateMaxMissingPctWithProblemPredicate(t *testing.T) {
	exec := newTestExecutor(t, 0)

	rows := []map[string]interface{}{
		{"age": 17}, {"age": 34}, {"age": 51}, {"age": 16},
	}
	ds := dataset.NewMemoryDataset("customers", rows)
	rule := Rule{
		Dataset: "customers",
		Name:    "underage_pct",
		Kind:    KindMaxMissingPct,
		Params: RuleParams{
			Columns:    []string{"age"},
			Expression: "double(row.age) < 18.0",
			CeilingPct: 10,
		},
	}

	result := exec.Evaluate(context.Background(), ds, rule)

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, "50.00%", result.ActualValue)
}

func TestEvaluateExpressionArithmeticIdentity(t *testing.T) {
	rule := Rule{
		Dataset: "sales",
		Name:    "sales_consistency",
		Kind:    KindExpression,
		Params: RuleParams{
			Columns:    []string{"sales", "quantity", "price"},
			Expression: "double(row.sales) != double(row.quantity) * math.abs(double(row.price))",
		},
	}

	tests := []struct {
		name       string
		rows       []map[string]interface{}
		wantStatus Status
		wantActual string
	}{
		{
			name:       "identity holds with a negative price",
			rows:       []map[string]interface{}{{"quantity": 3, "price": -10, "sales": 30}},
			wantStatus: StatusPass,
			wantActual: "0",
		},
		{
			name:       "identity broken by one row",
			rows:       []map[string]interface{}{{"quantity": 3, "price": -10, "sales": 31}},
			wantStatus: StatusFail,
			wantActual: "1",
		},
		{
			name: "null participant is a violation",
			rows: []map[string]interface{}{
				{"quantity": nil, "price": -10, "sales": 30},
				{"quantity": 2, "price": 5, "sales": 10},
			},
			wantStatus: StatusFail,
			wantActual: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newTestExecutor(t, 0)
			ds := dataset.NewMemoryDataset("sales", tt.rows)

			result := exec.Evaluate(context.Background(), ds, rule)

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantActual, result.ActualValue)
		})
	}
}

func TestEvaluateFaultBecomesFailResult(t *testing.T) {
	exec := newTestExecutor(t, 0)

	ds := &brokenDataset{name: "customers", err: errors.New("relation does not exist")}
	rule := Rule{Dataset: "customers", Name: "missing_id", Kind: KindNotNull, Params: RuleParams{Column: "id"}}

	result := exec.Evaluate(context.Background(), ds, rule)

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, "error", result.ActualValue)
	require.NotNil(t, result.Details)
	assert.Contains(t, *result.Details, "relation does not exist")
}

func TestEvaluateTimeoutBecomesFailResult(t *testing.T) {
	exec := newTestExecutor(t, 20*time.Millisecond)

	ds := &stalledDataset{name: "customers"}
	rule := Rule{Dataset: "customers", Name: "row_count", Kind: KindRowCount}

	result := exec.Evaluate(context.Background(), ds, rule)

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, "error", result.ActualValue)
	require.NotNil(t, result.Details)
	assert.Contains(t, *result.Details, "timed out")
}

func TestEvaluateRecoversPanicAsFailResult(t *testing.T) {
	exec := newTestExecutor(t, 0)

	ds := &panickyDataset{name: "customers"}
	rule := Rule{Dataset: "customers", Name: "row_count", Kind: KindRowCount}

	result := exec.Evaluate(context.Background(), ds, rule)

	assert.Equal(t, StatusFail, result.Status)
	require.NotNil(t, result.Details)
	assert.Contains(t, *result.Details, "panicked")
}

func TestEvaluateExpressionFaultBecomesFailResult(t *testing.T) {
	exec := newTestExecutor(t, 0)

	// The predicate references a column the rows do not carry numeric
	// values for, so evaluation errors instead of deciding.
	rows := []map[string]interface{}{{"price": "not-a-number", "sales": 5, "quantity": 1}}
	ds := dataset.NewMemoryDataset("sales", rows)
	rule := Rule{
		Dataset: "sales",
		Name:    "sales_consistency",
		Kind:    KindExpression,
		Params: RuleParams{
			Columns:    []string{"sales", "quantity", "price"},
			Expression: "double(row.sales) != double(row.quantity) * math.abs(double(row.price))",
		},
	}

	result := exec.Evaluate(context.Background(), ds, rule)

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, "error", result.ActualValue)
	require.NotNil(t, result.Details)
	assert.Contains(t, *result.Details, "evaluation error")
}
