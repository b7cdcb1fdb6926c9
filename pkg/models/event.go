package models

import "time"

const (
	EventTypeLoadCompleted = "silver.load.completed"
	EventTypeRunCompleted  = "quality.run.completed"
)

// LoadCompletedEvent is published by the warehouse loader when a silver
// table finishes loading. Consuming one triggers a validation run for
// the named dataset.
type LoadCompletedEvent struct {
	EventType string                 `json:"event_type"`
	Dataset   string                 `json:"dataset"`
	Table     string                 `json:"table,omitempty"`
	RunID     string                 `json:"run_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RowCount  int64                  `json:"row_count,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// RunCompletedEvent summarizes a finished validation run for downstream
// consumers such as alerting or pipeline gates. Dataset names the
// triggering dataset when the run was started by a load event and is
// empty for full-catalog runs.
type RunCompletedEvent struct {
	EventType    string         `json:"event_type"`
	RunID        string         `json:"run_id"`
	Dataset      string         `json:"dataset,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	TotalChecks  int            `json:"total_checks"`
	PassedChecks int            `json:"passed_checks"`
	FailedChecks int            `json:"failed_checks"`
	Failures     []CheckFailure `json:"failures,omitempty"`
}

type CheckFailure struct {
	TableName string `json:"table_name"`
	CheckName string `json:"check_name"`
	Actual    string `json:"actual_value"`
	Expected  string `json:"expected_value,omitempty"`
}

func NewLoadCompletedEvent(dataset, table string, rowCount int64) *LoadCompletedEvent {
	return &LoadCompletedEvent{
		EventType: EventTypeLoadCompleted,
		Dataset:   dataset,
		Table:     table,
		RowCount:  rowCount,
		Timestamp: time.Now().UTC(),
	}
}

func NewRunCompletedEvent(runID, dataset string, runTime time.Time, total, passed, failed int) *RunCompletedEvent {
	return &RunCompletedEvent{
		EventType:    EventTypeRunCompleted,
		RunID:        runID,
		Dataset:      dataset,
		Timestamp:    runTime,
		TotalChecks:  total,
		PassedChecks: passed,
		FailedChecks: failed,
	}
}

func (e *RunCompletedEvent) AddFailure(tableName, checkName, actual, expected string) {
	e.Failures = append(e.Failures, CheckFailure{
		TableName: tableName,
		CheckName: checkName,
		Actual:    actual,
		Expected:  expected,
	})
}
