package audit

import (
	"context"
	"sync"
	"time"

	"vigil/internal/quality"
	pkgerrors "vigil/pkg/errors"
	"vigil/pkg/metrics"
)

const backendMemory = "memory"

// MemorySink keeps the audit history in process memory. Ephemeral runs
// and tests use it; the log is gone when the process exits.
type MemorySink struct {
	mu      sync.RWMutex
	batches []quality.Batch
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(ctx context.Context, batch quality.Batch) error {
	if err := ctx.Err(); err != nil {
		metrics.IncAuditAppend(backendMemory, "error")
		return err
	}

	start := time.Now()

	// Copy the results so later mutations by the caller cannot reach
	// into the stored history.
	stored := batch
	stored.Results = make([]quality.CheckResult, len(batch.Results))
	copy(stored.Results, batch.Results)

	s.mu.Lock()
	s.batches = append(s.batches, stored)
	s.mu.Unlock()

	metrics.IncAuditAppend(backendMemory, "success")
	metrics.ObserveAuditAppendDuration(backendMemory, time.Since(start))
	metrics.AddAuditRecordsWritten(backendMemory, len(stored.Results))
	return nil
}

func (s *MemorySink) Results(ctx context.Context, filter quality.Filter) ([]quality.CheckResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []quality.CheckResult
	for i := len(s.batches) - 1; i >= 0; i-- {
		for _, result := range quality.Sorted(s.batches[i].Results) {
			if matchesFilter(filter, result) {
				matched = append(matched, result)
			}
		}
	}

	return pageResults(matched, filter.Limit, filter.Offset), nil
}

func (s *MemorySink) Runs(ctx context.Context, limit int) ([]quality.RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []quality.RunInfo
	for i := len(s.batches) - 1; i >= 0; i-- {
		runs = append(runs, s.batches[i].Info())
		if limit > 0 && len(runs) == limit {
			break
		}
	}

	return runs, nil
}

func (s *MemorySink) LatestRun(ctx context.Context) (*quality.RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.batches) == 0 {
		return nil, pkgerrors.ErrNotFound.WithDetail("message", "no validation runs recorded")
	}

	info := s.batches[len(s.batches)-1].Info()
	return &info, nil
}

func matchesFilter(f quality.Filter, r quality.CheckResult) bool {
	if f.RunID != "" && r.RunID != f.RunID {
		return false
	}
	if f.TableName != "" && r.TableName != f.TableName {
		return false
	}
	if f.CheckName != "" && r.CheckName != f.CheckName {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

func pageResults(results []quality.CheckResult, limit, offset int) []quality.CheckResult {
	if offset > 0 {
		if offset >= len(results) {
			return nil
		}
		results = results[offset:]
	}
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results
}
