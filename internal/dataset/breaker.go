package dataset

import (
	"context"
	"fmt"

	"vigil/internal/config"
	"vigil/pkg/circuitbreaker"
)

// BreakerDataset guards every warehouse read behind a circuit breaker so
// a dead database fails rules fast instead of stalling each one until
// its timeout.
type BreakerDataset struct {
	inner Dataset
	cb    *circuitbreaker.Wrapper
}

func NewBreakerDataset(inner Dataset, cfg config.CircuitBreakerConfig) *BreakerDataset {
	if !cfg.Enabled {
		return &BreakerDataset{inner: inner, cb: nil}
	}

	cbConfig := circuitbreaker.DefaultConfig("warehouse-" + inner.Name())
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 {
		cbConfig.FailureRatio = cfg.FailureRatio
	}
	if cfg.MinRequests > 0 {
		cbConfig.MinRequests = cfg.MinRequests
	}

	return &BreakerDataset{
		inner: inner,
		cb:    circuitbreaker.NewWrapper(cbConfig),
	}
}

func (d *BreakerDataset) Name() string {
	return d.inner.Name()
}

func (d *BreakerDataset) RowCount(ctx context.Context) (int64, error) {
	return d.executeCount(ctx, func() (int64, error) {
		return d.inner.RowCount(ctx)
	})
}

func (d *BreakerDataset) MissingCount(ctx context.Context, column string) (int64, error) {
	return d.executeCount(ctx, func() (int64, error) {
		return d.inner.MissingCount(ctx, column)
	})
}

func (d *BreakerDataset) DuplicateCount(ctx context.Context, column string) (int64, error) {
	return d.executeCount(ctx, func() (int64, error) {
		return d.inner.DuplicateCount(ctx, column)
	})
}

func (d *BreakerDataset) OutOfSetCount(ctx context.Context, column string, allowed []string) (int64, error) {
	return d.executeCount(ctx, func() (int64, error) {
		return d.inner.OutOfSetCount(ctx, column, allowed)
	})
}

func (d *BreakerDataset) Rows(ctx context.Context, columns []string, fn func(row map[string]interface{}) error) error {
	if d.cb == nil {
		return d.inner.Rows(ctx, columns, fn)
	}

	_, err := d.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, d.inner.Rows(ctx, columns, fn)
	})

	d.cb.RecordRequest(err == nil)

	if err != nil && d.cb.IsOpen() {
		return fmt.Errorf("circuit breaker is open for %s: %w", d.cb.Name(), err)
	}
	return err
}

func (d *BreakerDataset) State() string {
	if d.cb == nil {
		return "disabled"
	}
	return d.cb.State().String()
}

func (d *BreakerDataset) IsOpen() bool {
	if d.cb == nil {
		return false
	}
	return d.cb.IsOpen()
}

func (d *BreakerDataset) executeCount(ctx context.Context, fn func() (int64, error)) (int64, error) {
	if d.cb == nil {
		return fn()
	}

	result, err := d.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return fn()
	})

	d.cb.RecordRequest(err == nil)

	if err != nil {
		if d.cb.IsOpen() {
			return 0, fmt.Errorf("circuit breaker is open for %s: %w", d.cb.Name(), err)
		}
		return 0, err
	}

	count, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("dataset returned invalid result type")
	}
	return count, nil
}
