package quality

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// RuleKind selects the metric a rule computes. The executor dispatches
// purely on the kind; adding a rule of an existing kind never touches
// execution code.
type RuleKind string

const (
	KindRowCount      RuleKind = "row_count"
	KindNotNull       RuleKind = "not_null"
	KindUnique        RuleKind = "unique"
	KindAllowedValues RuleKind = "allowed_values"
	KindMaxMissingPct RuleKind = "max_missing_pct"
	KindExpression    RuleKind = "expression"
)

// RuleParams carries the per-kind knobs. Which fields are required
// depends on the kind; the catalog validates that at build time.
type RuleParams struct {
	Column     string   `json:"column,omitempty"`
	Columns    []string `json:"columns,omitempty"`
	Allowed    []string `json:"allowed_values,omitempty"`
	CeilingPct float64  `json:"ceiling_pct,omitempty"`
	Expression string   `json:"expression,omitempty"`
}

// Rule is one declarative check against one dataset. Rules are static
// configuration, identified by (Dataset, Name), and never persisted.
type Rule struct {
	Dataset string     `json:"dataset"`
	Name    string     `json:"check_name"`
	Kind    RuleKind   `json:"kind"`
	Params  RuleParams `json:"params"`
	Details string     `json:"details,omitempty"`
}

func (r Rule) Key() string {
	return fmt.Sprintf("%s.%s", r.Dataset, r.Name)
}

// CheckResult is the immutable outcome of evaluating one rule within one
// run. The audit log appends these and never mutates them.
type CheckResult struct {
	RunID         string    `json:"run_id" db:"run_id"`
	RunTime       time.Time `json:"run_time" db:"run_time"`
	TableName     string    `json:"table_name" db:"table_name"`
	CheckName     string    `json:"check_name" db:"check_name"`
	Status        Status    `json:"status" db:"status"`
	ActualValue   string    `json:"actual_value" db:"actual_value"`
	ExpectedValue *string   `json:"expected_value,omitempty" db:"expected_value"`
	Details       *string   `json:"details,omitempty" db:"details"`
}

func (r CheckResult) Failed() bool {
	return r.Status == StatusFail
}

// Batch groups every result of one run. It exists only in memory; the
// run_id is its identity in the audit log.
type Batch struct {
	RunID   string        `json:"run_id"`
	RunTime time.Time     `json:"run_time"`
	Elapsed time.Duration `json:"elapsed"`
	Results []CheckResult `json:"results"`
}

func (b *Batch) FailedCount() int {
	count := 0
	for _, r := range b.Results {
		if r.Failed() {
			count++
		}
	}
	return count
}

func (b *Batch) PassedCount() int {
	return len(b.Results) - b.FailedCount()
}

// Info collapses the batch into its run aggregate.
func (b *Batch) Info() RunInfo {
	failed := b.FailedCount()
	return RunInfo{
		RunID:   b.RunID,
		RunTime: b.RunTime,
		Total:   len(b.Results),
		Passed:  len(b.Results) - failed,
		Failed:  failed,
	}
}
