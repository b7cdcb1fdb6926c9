package quality

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"
)

// Sorted returns a copy of results ordered by (table_name, check_name),
// the canonical report order. Stable so results from different runs keep
// their relative recency.
func Sorted(results []CheckResult) []CheckResult {
	out := make([]CheckResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TableName != out[j].TableName {
			return out[i].TableName < out[j].TableName
		}
		return out[i].CheckName < out[j].CheckName
	})
	return out
}

// FailedOnly keeps the FAIL results, preserving order.
func FailedOnly(results []CheckResult) []CheckResult {
	var out []CheckResult
	for _, r := range results {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}

type Summary struct {
	RunID   string        `json:"run_id"`
	RunTime time.Time     `json:"run_time"`
	Total   int           `json:"total_checks"`
	Passed  int           `json:"passed_checks"`
	Failed  int           `json:"failed_checks"`
	Elapsed time.Duration `json:"elapsed"`
}

func Summarize(batch *Batch) Summary {
	return Summary{
		RunID:   batch.RunID,
		RunTime: batch.RunTime,
		Total:   len(batch.Results),
		Passed:  batch.PassedCount(),
		Failed:  batch.FailedCount(),
		Elapsed: batch.Elapsed,
	}
}

// WriteReport renders results as a plain-text table in canonical order.
func WriteReport(w io.Writer, results []CheckResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "TABLE\tCHECK\tSTATUS\tACTUAL\tEXPECTED\tDETAILS")
	for _, r := range Sorted(results) {
		expected := "-"
		if r.ExpectedValue != nil {
			expected = *r.ExpectedValue
		}
		details := ""
		if r.Details != nil {
			details = *r.Details
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.TableName, r.CheckName, r.Status, r.ActualValue, expected, details)
	}

	return tw.Flush()
}

// WriteSummary renders the one-line run verdict that follows the table.
func WriteSummary(w io.Writer, s Summary) error {
	verdict := "all checks passed"
	if s.Failed > 0 {
		verdict = fmt.Sprintf("%d checks failed", s.Failed)
	}
	_, err := fmt.Fprintf(w, "run %s at %s: %d checks, %d passed, %s (took %s)\n",
		s.RunID, s.RunTime.Format(time.RFC3339), s.Total, s.Passed, verdict, s.Elapsed.Round(time.Millisecond))
	return err
}
