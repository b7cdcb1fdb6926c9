package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vigil/internal/constants"
	"vigil/internal/quality"
	pkgerrors "vigil/pkg/errors"
	"vigil/pkg/metrics"
)

const backendMongo = "mongodb"

// resultDocument is the stored shape of one check result. Pointer
// fields stay out of the document when empty, mirroring NULL columns
// on the relational backend.
type resultDocument struct {
	RunID         string    `bson:"run_id"`
	RunTime       time.Time `bson:"run_time"`
	TableName     string    `bson:"table_name"`
	CheckName     string    `bson:"check_name"`
	Status        string    `bson:"status"`
	ActualValue   string    `bson:"actual_value"`
	ExpectedValue *string   `bson:"expected_value,omitempty"`
	Details       *string   `bson:"details,omitempty"`
}

type runDocument struct {
	RunID   string    `bson:"_id"`
	RunTime time.Time `bson:"run_time"`
	Total   int       `bson:"total_checks"`
	Passed  int       `bson:"passed_checks"`
}

// MongoSink appends runs to a quality_check_results collection, one
// document per result. The insert is ordered; a failure part way
// through surfaces as a hard append error and the run is not treated
// as committed.
type MongoSink struct {
	collection *mongo.Collection
}

func NewMongoSink(db *mongo.Database) *MongoSink {
	return &MongoSink{collection: db.Collection(constants.MongoResultsCollection)}
}

func (s *MongoSink) Append(ctx context.Context, batch quality.Batch) (err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.IncAuditAppend(backendMongo, status)
		metrics.ObserveAuditAppendDuration(backendMongo, time.Since(start))
	}()

	documents := make([]interface{}, 0, len(batch.Results))
	for _, result := range batch.Results {
		documents = append(documents, resultDocument{
			RunID:         result.RunID,
			RunTime:       result.RunTime,
			TableName:     result.TableName,
			CheckName:     result.CheckName,
			Status:        string(result.Status),
			ActualValue:   result.ActualValue,
			ExpectedValue: result.ExpectedValue,
			Details:       result.Details,
		})
	}

	if len(documents) == 0 {
		return nil
	}

	if _, err = s.collection.InsertMany(ctx, documents, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to insert results: %w", err)
	}

	metrics.AddAuditRecordsWritten(backendMongo, len(documents))
	return nil
}

func (s *MongoSink) Results(ctx context.Context, filter quality.Filter) ([]quality.CheckResult, error) {
	query := bson.M{}
	if filter.RunID != "" {
		query["run_id"] = filter.RunID
	}
	if filter.TableName != "" {
		query["table_name"] = filter.TableName
	}
	if filter.CheckName != "" {
		query["check_name"] = filter.CheckName
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "run_time", Value: -1},
		{Key: "run_id", Value: 1},
		{Key: "table_name", Value: 1},
		{Key: "check_name", Value: 1},
	})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find results: %w", err)
	}
	defer cursor.Close(ctx)

	var documents []resultDocument
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}

	results := make([]quality.CheckResult, 0, len(documents))
	for _, doc := range documents {
		results = append(results, quality.CheckResult{
			RunID:         doc.RunID,
			RunTime:       doc.RunTime,
			TableName:     doc.TableName,
			CheckName:     doc.CheckName,
			Status:        quality.Status(doc.Status),
			ActualValue:   doc.ActualValue,
			ExpectedValue: doc.ExpectedValue,
			Details:       doc.Details,
		})
	}

	return results, nil
}

func (s *MongoSink) Runs(ctx context.Context, limit int) ([]quality.RunInfo, error) {
	if limit <= 0 {
		limit = constants.DefaultLimit
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$run_id"},
			{Key: "run_time", Value: bson.D{{Key: "$min", Value: "$run_time"}}},
			{Key: "total_checks", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "passed_checks", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$eq", Value: bson.A{"$status", string(quality.StatusPass)}}},
					1,
					0,
				}},
			}}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "run_time", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate runs: %w", err)
	}
	defer cursor.Close(ctx)

	var documents []runDocument
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("failed to decode runs: %w", err)
	}

	runs := make([]quality.RunInfo, 0, len(documents))
	for _, doc := range documents {
		runs = append(runs, quality.RunInfo{
			RunID:   doc.RunID,
			RunTime: doc.RunTime,
			Total:   doc.Total,
			Passed:  doc.Passed,
			Failed:  doc.Total - doc.Passed,
		})
	}

	return runs, nil
}

func (s *MongoSink) LatestRun(ctx context.Context) (*quality.RunInfo, error) {
	runs, err := s.Runs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, pkgerrors.ErrNotFound.WithDetail("message", "no validation runs recorded")
	}
	return &runs[0], nil
}
