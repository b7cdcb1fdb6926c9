package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/audit"
	"vigil/internal/config"
	"vigil/internal/dataset"
	"vigil/internal/quality"
	"vigil/pkg/cel"
	pkgerrors "vigil/pkg/errors"
)

// buildTestEngine wires the real stack end to end: CEL evaluator,
// built-in catalog scoped to the seeded tables, postgres datasets and
// the postgres audit sink.
func buildTestEngine(t *testing.T, infra *TestInfra, datasets []string) (*quality.Coordinator, *audit.PostgresSink) {
	t.Helper()

	evaluator, err := cel.NewEvaluator()
	require.NoError(t, err)

	catalog, err := quality.BuildCatalog(config.ChecksConfig{Datasets: datasets}, evaluator)
	require.NoError(t, err)

	registry := dataset.NewRegistry()
	for _, name := range catalog.Datasets() {
		registry.Register(dataset.NewPostgresDataset(infra.WarehouseDB, "silver", name))
	}

	sink := audit.NewPostgresSink(infra.WarehouseDB)
	executor := quality.NewExecutor(evaluator, 10*time.Second, createTestLogger())
	coordinator := quality.NewCoordinator(catalog, registry, executor, sink, 2, createTestLogger())
	return coordinator, sink
}

func TestEngine_RunAgainstSeededWarehouse(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	seedCustomers(t, infra.WarehouseDB)
	seedProducts(t, infra.WarehouseDB)

	coordinator, sink := buildTestEngine(t, infra, []string{"customers", "products"})
	ctx := context.Background()

	batch, err := coordinator.Run(ctx, quality.RunOptions{RunID: "run-seeded"})
	require.NoError(t, err)
	require.NotNil(t, batch)

	assert.Equal(t, "run-seeded", batch.RunID)
	require.Len(t, batch.Results, 9)

	// Results come back in catalog order regardless of which worker
	// finished first.
	assert.Equal(t, "customers", batch.Results[0].TableName)
	assert.Equal(t, "row_count", batch.Results[0].CheckName)

	statuses := map[string]quality.Status{}
	actuals := map[string]string{}
	for _, r := range batch.Results {
		assert.Equal(t, "run-seeded", r.RunID)
		assert.True(t, r.RunTime.Equal(batch.RunTime))
		key := r.TableName + "." + r.CheckName
		statuses[key] = r.Status
		actuals[key] = r.ActualValue
	}

	assert.Equal(t, quality.StatusPass, statuses["customers.row_count"])
	assert.Equal(t, "6", actuals["customers.row_count"])

	assert.Equal(t, quality.StatusFail, statuses["customers.missing_id"])
	assert.Equal(t, "1", actuals["customers.missing_id"])

	assert.Equal(t, quality.StatusFail, statuses["customers.duplicate_id"])
	assert.Equal(t, "1", actuals["customers.duplicate_id"])

	assert.Equal(t, quality.StatusFail, statuses["customers.null_name_pct"])
	assert.Equal(t, "33.33%", actuals["customers.null_name_pct"])

	for _, check := range []string{"row_count", "missing_name", "duplicate_id", "valid_category", "negative_price"} {
		assert.Equal(t, quality.StatusPass, statuses["products."+check], check)
	}

	assert.Equal(t, 4, batch.FailedCount())
	assert.Equal(t, 5, batch.PassedCount())

	persisted, err := sink.Results(ctx, quality.Filter{RunID: "run-seeded"})
	require.NoError(t, err)
	assert.Len(t, persisted, 9)
}

func TestEngine_RunScopedToOneDataset(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	seedCustomers(t, infra.WarehouseDB)
	seedProducts(t, infra.WarehouseDB)

	coordinator, _ := buildTestEngine(t, infra, []string{"customers", "products"})

	batch, err := coordinator.Run(context.Background(), quality.RunOptions{
		Datasets: []string{"products"},
	})
	require.NoError(t, err)
	require.Len(t, batch.Results, 5)

	for _, r := range batch.Results {
		assert.Equal(t, "products", r.TableName)
		assert.Equal(t, quality.StatusPass, r.Status)
	}
	assert.NotEmpty(t, batch.RunID, "a run id is generated when none is given")
}

func TestEngine_RunUnknownDatasetIsValidationError(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	seedCustomers(t, infra.WarehouseDB)

	coordinator, _ := buildTestEngine(t, infra, []string{"customers"})

	_, err := coordinator.Run(context.Background(), quality.RunOptions{
		Datasets: []string{"no_such_dataset"},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestEngine_ReplayedRunIDFailsPersistenceButReturnsBatch(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	seedCustomers(t, infra.WarehouseDB)

	coordinator, sink := buildTestEngine(t, infra, []string{"customers"})
	ctx := context.Background()

	_, err := coordinator.Run(ctx, quality.RunOptions{RunID: "run-replay"})
	require.NoError(t, err)

	batch, err := coordinator.Run(ctx, quality.RunOptions{RunID: "run-replay"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsPersistence(err))
	require.NotNil(t, batch, "the evaluated batch is returned even when the append fails")
	assert.Len(t, batch.Results, 4)

	persisted, err := sink.Results(ctx, quality.Filter{RunID: "run-replay"})
	require.NoError(t, err)
	assert.Len(t, persisted, 4, "the replayed batch must not add rows")
}

func TestEngine_MissingTableFailsChecksWithoutError(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	// silver.customers is never created; every check against it must
	// come back FAIL rather than aborting the run.
	coordinator, _ := buildTestEngine(t, infra, []string{"customers"})

	batch, err := coordinator.Run(context.Background(), quality.RunOptions{RunID: "run-absent"})
	require.NoError(t, err)
	require.Len(t, batch.Results, 4)

	for _, r := range batch.Results {
		assert.Equal(t, quality.StatusFail, r.Status)
		assert.Equal(t, "error", r.ActualValue)
		require.NotNil(t, r.Details)
	}
}
