package quality

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"vigil/internal/dataset"
	"vigil/internal/logger"
	"vigil/pkg/cel"
	pkgerrors "vigil/pkg/errors"
	"vigil/pkg/metrics"
)

// Executor evaluates one rule against one dataset. It never returns an
// error: query faults, expression faults, timeouts and panics all come
// back as FAIL results carrying the reason in Details, so one broken
// rule cannot abort a batch.
type Executor struct {
	evaluator *cel.Evaluator
	timeout   time.Duration
	log       logger.Logger
}

func NewExecutor(evaluator *cel.Evaluator, timeout time.Duration, log logger.Logger) *Executor {
	return &Executor{evaluator: evaluator, timeout: timeout, log: log}
}

func (e *Executor) Evaluate(ctx context.Context, ds dataset.Dataset, rule Rule) (result CheckResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := pkgerrors.RecoverPanic(r)
			e.log.ErrorwCtx(ctx, "check evaluation panicked",
				"check_name", rule.Name,
				"error", err,
			)
			result = faultResult(rule, fmt.Sprintf("evaluation panicked: %v", r))
		}
		metrics.ObserveCheckDuration(string(rule.Kind), time.Since(start))
	}()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	switch rule.Kind {
	case KindRowCount:
		return e.evaluateRowCount(ctx, ds, rule)
	case KindNotNull:
		return e.evaluateNotNull(ctx, ds, rule)
	case KindUnique:
		return e.evaluateUnique(ctx, ds, rule)
	case KindAllowedValues:
		return e.evaluateAllowedValues(ctx, ds, rule)
	case KindMaxMissingPct:
		return e.evaluateMaxMissingPct(ctx, ds, rule)
	case KindExpression:
		return e.evaluateExpression(ctx, ds, rule)
	default:
		return faultResult(rule, fmt.Sprintf("unknown rule kind %q", rule.Kind))
	}
}

func (e *Executor) evaluateRowCount(ctx context.Context, ds dataset.Dataset, rule Rule) CheckResult {
	count, err := ds.RowCount(ctx)
	if err != nil {
		return e.fault(ctx, rule, err)
	}

	// Informational: a row count has no threshold to fail against.
	return CheckResult{
		TableName:   rule.Dataset,
		CheckName:   rule.Name,
		Status:      StatusPass,
		ActualValue: strconv.FormatInt(count, 10),
	}
}

func (e *Executor) evaluateNotNull(ctx context.Context, ds dataset.Dataset, rule Rule) CheckResult {
	count, err := ds.MissingCount(ctx, rule.Params.Column)
	if err != nil {
		return e.fault(ctx, rule, err)
	}

	details := ""
	if count > 0 {
		details = fmt.Sprintf("%d rows have a null or empty %s", count, rule.Params.Column)
	}
	return countResult(rule, count, details)
}

func (e *Executor) evaluateUnique(ctx context.Context, ds dataset.Dataset, rule Rule) CheckResult {
	count, err := ds.DuplicateCount(ctx, rule.Params.Column)
	if err != nil {
		return e.fault(ctx, rule, err)
	}

	details := ""
	if count > 0 {
		details = fmt.Sprintf("%d values of %s appear more than once", count, rule.Params.Column)
	}
	return countResult(rule, count, details)
}

func (e *Executor) evaluateAllowedValues(ctx context.Context, ds dataset.Dataset, rule Rule) CheckResult {
	count, err := ds.OutOfSetCount(ctx, rule.Params.Column, rule.Params.Allowed)
	if err != nil {
		return e.fault(ctx, rule, err)
	}

	details := ""
	if count > 0 {
		details = fmt.Sprintf("%d rows have %s outside [%s]",
			count, rule.Params.Column, strings.Join(rule.Params.Allowed, ", "))
	}
	return countResult(rule, count, details)
}

func (e *Executor) evaluateMaxMissingPct(ctx context.Context, ds dataset.Dataset, rule Rule) CheckResult {
	total, err := ds.RowCount(ctx)
	if err != nil {
		return e.fault(ctx, rule, err)
	}

	var problems int64
	if rule.Params.Expression != "" {
		problems, err = e.violationCount(ctx, ds, rule)
	} else {
		problems, err = ds.MissingCount(ctx, rule.Params.Column)
	}
	if err != nil {
		return e.fault(ctx, rule, err)
	}

	pct := percentage(problems, total)
	ceiling := decimal.NewFromFloat(rule.Params.CeilingPct)

	result := CheckResult{
		TableName:     rule.Dataset,
		CheckName:     rule.Name,
		Status:        StatusPass,
		ActualValue:   pct.StringFixed(2) + "%",
		ExpectedValue: stringPtr("<= " + ceiling.StringFixed(2) + "%"),
	}
	if pct.GreaterThan(ceiling) {
		result.Status = StatusFail
		result.Details = stringPtr(fmt.Sprintf("%d of %d rows (%s%%) exceed the %s%% ceiling",
			problems, total, pct.StringFixed(2), ceiling.StringFixed(2)))
	}
	return result
}

func (e *Executor) evaluateExpression(ctx context.Context, ds dataset.Dataset, rule Rule) CheckResult {
	violations, err := e.violationCount(ctx, ds, rule)
	if err != nil {
		return e.fault(ctx, rule, err)
	}

	details := ""
	if violations > 0 {
		details = fmt.Sprintf("%d rows violate %s", violations, rule.Params.Expression)
	}
	return countResult(rule, violations, details)
}

// violationCount streams the participating columns and counts rows for
// which the predicate is true. A NULL in any participating column is a
// violation on its own; the predicate never sees those rows.
func (e *Executor) violationCount(ctx context.Context, ds dataset.Dataset, rule Rule) (int64, error) {
	var count int64
	err := ds.Rows(ctx, rule.Params.Columns, func(row map[string]interface{}) error {
		for _, column := range rule.Params.Columns {
			if v, ok := row[column]; !ok || v == nil {
				count++
				return nil
			}
		}

		violated, err := e.evaluator.EvaluateViolation(ctx, rule.Params.Expression, row)
		if err != nil {
			return err
		}
		if violated {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (e *Executor) fault(ctx context.Context, rule Rule, err error) CheckResult {
	details := fmt.Sprintf("evaluation error: %v", err)
	if errors.Is(err, context.DeadlineExceeded) {
		details = fmt.Sprintf("check timed out after %s", e.timeout)
	}

	e.log.WarnwCtx(ctx, "check evaluation failed",
		"check_name", rule.Name,
		"kind", rule.Kind,
		"error", err,
	)
	return faultResult(rule, details)
}

// faultResult classifies an unevaluable rule as FAIL: an unreadable
// metric is itself a quality signal, not an engine fault.
func faultResult(rule Rule, details string) CheckResult {
	return CheckResult{
		TableName:   rule.Dataset,
		CheckName:   rule.Name,
		Status:      StatusFail,
		ActualValue: "error",
		Details:     stringPtr(details),
	}
}

// countResult classifies a zero-tolerance count metric: PASS iff the
// offending count is zero.
func countResult(rule Rule, count int64, details string) CheckResult {
	result := CheckResult{
		TableName:     rule.Dataset,
		CheckName:     rule.Name,
		Status:        StatusPass,
		ActualValue:   strconv.FormatInt(count, 10),
		ExpectedValue: stringPtr("0"),
	}
	if count > 0 {
		result.Status = StatusFail
		result.Details = stringPtr(details)
	}
	return result
}

// percentage computes problems/total as a percent with two decimals,
// rounding half up. An empty dataset is 0.00%, never a division fault.
func percentage(problems, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(problems).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(2)
}

func stringPtr(s string) *string {
	return &s
}
