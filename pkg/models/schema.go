package models

import "fmt"

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateLoadCompletedEvent(event *LoadCompletedEvent) error {
	if event == nil {
		return &ValidationError{
			Field:   "event",
			Message: "event cannot be nil",
		}
	}

	if event.EventType != EventTypeLoadCompleted {
		return &ValidationError{
			Field:   "event_type",
			Message: fmt.Sprintf("expected %q, got %q", EventTypeLoadCompleted, event.EventType),
		}
	}

	if event.Dataset == "" {
		return &ValidationError{
			Field:   "dataset",
			Message: "dataset is required",
		}
	}

	if event.Timestamp.IsZero() {
		return &ValidationError{
			Field:   "timestamp",
			Message: "timestamp is required",
		}
	}

	return nil
}

func ValidateRunCompletedEvent(event *RunCompletedEvent) error {
	if event == nil {
		return &ValidationError{
			Field:   "event",
			Message: "event cannot be nil",
		}
	}

	if event.RunID == "" {
		return &ValidationError{
			Field:   "run_id",
			Message: "run_id is required",
		}
	}

	if event.TotalChecks != event.PassedChecks+event.FailedChecks {
		return &ValidationError{
			Field:   "total_checks",
			Message: "total_checks must equal passed_checks plus failed_checks",
		}
	}

	return nil
}
