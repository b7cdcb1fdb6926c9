package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/audit"
	"vigil/internal/quality"
	pkgerrors "vigil/pkg/errors"
	"vigil/pkg/migrations"
)

func setupMongoSink(t *testing.T) (*audit.MongoSink, context.Context) {
	t.Helper()

	infra := SetupTestInfraWithOptions(t, false, true, false)
	ctx := context.Background()

	err := migrations.EnsureMongoCollection(ctx, infra.MongoDB)
	require.NoError(t, err)

	return audit.NewMongoSink(infra.MongoDB), ctx
}

func TestMongoSink_AppendAndResults(t *testing.T) {
	sink, ctx := setupMongoSink(t)

	runTime := time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC)
	require.NoError(t, sink.Append(ctx, testBatch("run-1", runTime)))

	results, err := sink.Results(ctx, quality.Filter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	byCheck := map[string]quality.CheckResult{}
	for _, r := range results {
		assert.Equal(t, "run-1", r.RunID)
		byCheck[r.TableName+"."+r.CheckName] = r
	}

	dup := byCheck["customers.duplicate_id"]
	assert.Equal(t, quality.StatusFail, dup.Status)
	assert.Equal(t, "1", dup.ActualValue)
	require.NotNil(t, dup.ExpectedValue)
	assert.Equal(t, "0", *dup.ExpectedValue)

	rowCount := byCheck["customers.row_count"]
	assert.Equal(t, quality.StatusPass, rowCount.Status)
	assert.Nil(t, rowCount.ExpectedValue)
}

func TestMongoSink_ResultsFilters(t *testing.T) {
	sink, ctx := setupMongoSink(t)

	first := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, sink.Append(ctx, testBatch("run-1", first)))
	require.NoError(t, sink.Append(ctx, testBatch("run-2", first.Add(time.Hour))))

	failed, err := sink.Results(ctx, quality.Filter{Status: quality.StatusFail})
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, "run-2", failed[0].RunID)
	assert.Equal(t, "run-1", failed[1].RunID)

	byTable, err := sink.Results(ctx, quality.Filter{TableName: "sales", RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, byTable, 1)
	assert.Equal(t, "row_count", byTable[0].CheckName)

	paged, err := sink.Results(ctx, quality.Filter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 2)
}

func TestMongoSink_RunsNewestFirst(t *testing.T) {
	sink, ctx := setupMongoSink(t)

	first := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, sink.Append(ctx, testBatch("run-1", first)))
	require.NoError(t, sink.Append(ctx, testBatch("run-2", first.Add(time.Hour))))
	require.NoError(t, sink.Append(ctx, testBatch("run-3", first.Add(2*time.Hour))))

	runs, err := sink.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-3", runs[0].RunID)
	assert.Equal(t, "run-2", runs[1].RunID)
	assert.Equal(t, 3, runs[0].Total)
	assert.Equal(t, 2, runs[0].Passed)
	assert.Equal(t, 1, runs[0].Failed)
}

func TestMongoSink_LatestRun(t *testing.T) {
	sink, ctx := setupMongoSink(t)

	_, err := sink.LatestRun(ctx)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))

	first := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, sink.Append(ctx, testBatch("run-1", first)))
	require.NoError(t, sink.Append(ctx, testBatch("run-2", first.Add(time.Hour))))

	latest, err := sink.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
	assert.Equal(t, 1, latest.Failed)
}
