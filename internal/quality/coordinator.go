package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vigil/internal/constants"
	"vigil/internal/dataset"
	"vigil/internal/logger"
	pkgerrors "vigil/pkg/errors"
	"vigil/pkg/logging"
	"vigil/pkg/metrics"
)

// RunOptions tunes a single validation run. A zero value runs the whole
// catalog under a fresh run id.
type RunOptions struct {
	// RunID correlates the run with an external job when supplied.
	RunID string
	// Datasets restricts the run to the named datasets; empty means all.
	Datasets []string
}

// Coordinator drives one validation run: it stamps the run identity,
// fans rules out to a bounded worker pool, collects exactly one result
// per rule in declared order, and hands the finished batch to the sink
// in a single append.
type Coordinator struct {
	catalog     *Catalog
	registry    *dataset.Registry
	executor    *Executor
	sink        Sink
	concurrency int
	log         logger.Logger
}

func NewCoordinator(catalog *Catalog, registry *dataset.Registry, executor *Executor, sink Sink, concurrency int, log logger.Logger) *Coordinator {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrency
	}
	return &Coordinator{
		catalog:     catalog,
		registry:    registry,
		executor:    executor,
		sink:        sink,
		concurrency: concurrency,
		log:         log,
	}
}

func (c *Coordinator) Run(ctx context.Context, opts RunOptions) (*Batch, error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	runTime := time.Now().UTC()
	ctx = logging.WithRunID(ctx, runID)

	rules := c.catalog.RulesFor(opts.Datasets)
	if len(rules) == 0 {
		return nil, pkgerrors.ErrValidation.WithDetail("datasets", opts.Datasets).
			WithCause(fmt.Errorf("no catalog rules match the requested datasets"))
	}

	c.log.InfowCtx(ctx, "starting validation run",
		"rules", len(rules),
		"concurrency", c.concurrency,
	)
	metrics.SetActiveRules(len(rules))

	start := time.Now()
	results := make([]CheckResult, len(rules))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, rule := range rules {
		ds, err := c.registry.Get(rule.Dataset)
		if err != nil {
			results[i] = faultResult(rule, fmt.Sprintf("dataset unavailable: %v", err))
			results[i].RunID = runID
			results[i].RunTime = runTime
			continue
		}

		g.Go(func() error {
			rctx := logging.WithDataset(gctx, rule.Dataset)
			results[i] = c.executor.Evaluate(rctx, ds, rule)
			results[i].RunID = runID
			results[i].RunTime = runTime
			return nil
		})
	}

	// Workers convert every failure into a FAIL result, so Wait only
	// reflects context cancellation.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		metrics.IncRun("canceled")
		c.log.WarnwCtx(ctx, "validation run canceled, discarding results", "error", err)
		return nil, fmt.Errorf("validation run canceled: %w", err)
	}

	batch := &Batch{
		RunID:   runID,
		RunTime: runTime,
		Elapsed: time.Since(start),
		Results: results,
	}

	for _, result := range batch.Results {
		metrics.IncCheck(result.TableName, string(result.Status))
	}
	metrics.SetLastRunFailedChecks(batch.FailedCount())
	metrics.ObserveRunDuration(batch.Elapsed)

	if err := c.sink.Append(ctx, *batch); err != nil {
		metrics.IncRun("fault")
		c.log.ErrorwCtx(ctx, "failed to persist check results",
			"results", len(batch.Results),
			"error", err,
		)
		return batch, pkgerrors.Wrap(err, pkgerrors.ErrPersistence)
	}

	outcome := "passed"
	if batch.FailedCount() > 0 {
		outcome = "failed"
	}
	metrics.IncRun(outcome)

	c.log.InfowCtx(ctx, "validation run complete",
		"total", len(batch.Results),
		"failed", batch.FailedCount(),
		"elapsed", batch.Elapsed.String(),
	)
	return batch, nil
}
