package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	assert.NotNil(t, eval)
}

func TestValidateExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name:      "valid simple expression",
			expr:      `row.status == "closed"`,
			wantError: false,
		},
		{
			name:      "valid numeric comparison",
			expr:      `double(row.amount) > 100.0`,
			wantError: false,
		},
		{
			name:      "invalid expression",
			expr:      `invalid syntax here!!!`,
			wantError: true,
		},
		{
			name:      "undefined variable",
			expr:      `undefinedVar == "test"`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateViolationExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name:      "valid bool expression",
			expr:      `double(row.sales) != double(row.quantity) * math.abs(double(row.price))`,
			wantError: false,
		},
		{
			name:      "non-bool expression",
			expr:      `row.amount`,
			wantError: true,
		},
		{
			name:      "valid contains",
			expr:      `string(row.email).contains("@")`,
			wantError: false,
		},
		{
			name:      "valid matches",
			expr:      `!string(row.country_code).matches("^[A-Z]{2}$")`,
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateViolationExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvaluateViolation(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	ctx := context.Background()

	tests := []struct {
		name      string
		expr      string
		row       map[string]interface{}
		want      bool
		wantError bool
	}{
		{
			name: "consistent sales row is not a violation",
			expr: `double(row.sales) != double(row.quantity) * math.abs(double(row.price))`,
			row: map[string]interface{}{
				"quantity": int64(3),
				"price":    -10.0,
				"sales":    30.0,
			},
			want: false,
		},
		{
			name: "inconsistent sales row is a violation",
			expr: `double(row.sales) != double(row.quantity) * math.abs(double(row.price))`,
			row: map[string]interface{}{
				"quantity": int64(3),
				"price":    -10.0,
				"sales":    31.0,
			},
			want: true,
		},
		{
			name: "uncast arithmetic over uniform float columns",
			expr: `row.sales != row.quantity * math.abs(row.price)`,
			row: map[string]interface{}{
				"quantity": 2.0,
				"price":    -5.5,
				"sales":    11.0,
			},
			want: false,
		},
		{
			name: "date order violation",
			expr: `row.shipped_at < row.ordered_at`,
			row: map[string]interface{}{
				"ordered_at": "2026-05-02",
				"shipped_at": "2026-05-01",
			},
			want: true,
		},
		{
			name: "eval error on missing key",
			expr: `double(row.sales) != double(row.quantity) * math.abs(double(row.price))`,
			row: map[string]interface{}{
				"quantity": int64(3),
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateViolation(ctx, tt.expr, tt.row)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEvaluateViolationCachesPrograms(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	ctx := context.Background()
	expr := `row.net + row.tax != row.gross`

	for i := 0; i < 3; i++ {
		got, err := eval.EvaluateViolation(ctx, expr, map[string]interface{}{
			"net":   int64(100),
			"tax":   int64(20),
			"gross": int64(120),
		})
		require.NoError(t, err)
		assert.False(t, got)
	}

	eval.mu.RLock()
	defer eval.mu.RUnlock()
	assert.Len(t, eval.programs, 1)
}

func TestEvaluateViolationRejectsNonBool(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	_, err = eval.EvaluateViolation(context.Background(), `row.amount`, map[string]interface{}{
		"amount": int64(5),
	})
	assert.Error(t, err)
}

func TestViolationExpressionExamplesCompile(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	for name, expr := range ViolationExpressionExamples {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, eval.ValidateViolationExpression(expr))
		})
	}
}
