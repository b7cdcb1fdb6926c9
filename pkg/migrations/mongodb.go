package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vigil/internal/constants"
)

// EnsureMongoCollection provisions the audit history collection and its
// indexes. The compound unique index enforces one result per
// (run_id, table_name, check_name), matching the relational schema.
func EnsureMongoCollection(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(constants.MongoResultsCollection)

	collections, err := db.ListCollectionNames(ctx, map[string]interface{}{"name": constants.MongoResultsCollection})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	collectionExists := false
	for _, name := range collections {
		if name == constants.MongoResultsCollection {
			collectionExists = true
			break
		}
	}

	if !collectionExists {
		if err := db.CreateCollection(ctx, constants.MongoResultsCollection); err != nil {
			if !strings.Contains(err.Error(), "already exists") {
				return fmt.Errorf("failed to create collection: %w", err)
			}
		}
	}

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "run_id", Value: 1}, {Key: "table_name", Value: 1}, {Key: "check_name", Value: 1}},
			Options: options.Index().
				SetName("idx_quality_check_results_run_table_check").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "run_time", Value: -1}},
			Options: options.Index().SetName("idx_quality_check_results_run_time"),
		},
		{
			Keys:    bson.D{{Key: "table_name", Value: 1}, {Key: "check_name", Value: 1}},
			Options: options.Index().SetName("idx_quality_check_results_table_check"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "run_time", Value: -1}},
			Options: options.Index().SetName("idx_quality_check_results_status_run_time"),
		},
	}

	_, err = collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	return nil
}
