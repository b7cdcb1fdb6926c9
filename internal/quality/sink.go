package quality

import (
	"context"
	"time"
)

// Sink receives the finished batch of a run. Implementations append the
// whole batch or nothing; the audit log never sees a partial run and is
// never updated or pruned.
type Sink interface {
	Append(ctx context.Context, batch Batch) error
}

// Filter narrows a history query. Zero fields match everything; Limit
// and Offset page through the log newest-first.
type Filter struct {
	RunID     string `json:"run_id,omitempty"`
	TableName string `json:"table_name,omitempty"`
	CheckName string `json:"check_name,omitempty"`
	Status    Status `json:"status,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// RunInfo is the per-run aggregate the history can reconstruct from its
// results.
type RunInfo struct {
	RunID   string    `json:"run_id"`
	RunTime time.Time `json:"run_time"`
	Total   int       `json:"total_checks"`
	Passed  int       `json:"passed_checks"`
	Failed  int       `json:"failed_checks"`
}

// LatestRunView is the denormalized newest-run payload: the aggregate
// plus the failures a caller acts on.
type LatestRunView struct {
	Run      RunInfo       `json:"run"`
	Failures []CheckResult `json:"failures,omitempty"`
}

// History is a sink that can also be queried, backing the reporter and
// the API. Reads are projections; nothing here mutates the log.
type History interface {
	Sink

	// Results returns matching results ordered by run recency first,
	// then (table_name, check_name) within a run.
	Results(ctx context.Context, filter Filter) ([]CheckResult, error)

	// Runs returns the most recent run aggregates, newest first.
	Runs(ctx context.Context, limit int) ([]RunInfo, error)

	// LatestRun returns the aggregate of the newest run, or ErrNotFound
	// when the log is empty.
	LatestRun(ctx context.Context) (*RunInfo, error)
}
