package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vigil/internal/config"
	"vigil/internal/logger"
	"vigil/pkg/retry"
)

type DatabaseConnector struct {
	Config *config.Config
	Logger logger.Logger
}

func NewDatabaseConnector(cfg *config.Config, log logger.Logger) *DatabaseConnector {
	return &DatabaseConnector{
		Config: cfg,
		Logger: log,
	}
}

func (dc *DatabaseConnector) InitRedis(ctx context.Context) (*redis.Client, error) {
	if dc.Config.Database.Redis.Host == "" {
		return nil, nil // Redis is optional
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", dc.Config.Database.Redis.Host, dc.Config.Database.Redis.Port),
		Password: dc.Config.Database.Redis.Password,
		DB:       dc.Config.Database.Redis.DB,
	})

	if err := dc.pingWithRetry(ctx, "redis", func() error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	dc.Logger.Info("Redis connected successfully")
	return rdb, nil
}

// InitWarehouse opens the read-side pool over the silver tables.
func (dc *DatabaseConnector) InitWarehouse(ctx context.Context) (*sql.DB, error) {
	if dc.Config.Database.Warehouse.IsZero() {
		return nil, nil // Warehouse is optional for API-only deployments
	}

	db, err := dc.openPostgres(ctx, "warehouse", dc.Config.Database.Warehouse)
	if err != nil {
		return nil, err
	}

	dc.Logger.Info("Warehouse PostgreSQL connected successfully")
	return db, nil
}

// InitAudit opens the pool the result sink writes to. An empty audit
// block falls back to the warehouse connection so small deployments can
// keep history next to the data.
func (dc *DatabaseConnector) InitAudit(ctx context.Context, warehouse *sql.DB) (*sql.DB, error) {
	if dc.Config.Database.Audit.IsZero() {
		return warehouse, nil
	}

	db, err := dc.openPostgres(ctx, "audit", dc.Config.Database.Audit)
	if err != nil {
		return nil, err
	}

	dc.Logger.Info("Audit PostgreSQL connected successfully")
	return db, nil
}

func (dc *DatabaseConnector) openPostgres(ctx context.Context, name string, cfg config.PostgresConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", name, err)
	}

	if err := dc.pingWithRetry(ctx, name, func() error {
		return db.PingContext(ctx)
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", name, err)
	}

	return db, nil
}

func (dc *DatabaseConnector) InitMongoDB(ctx context.Context) (*mongo.Client, error) {
	if dc.Config.Database.MongoDB.URI == "" {
		return nil, nil // MongoDB is optional
	}

	mongoOpts := options.Client().ApplyURI(dc.Config.Database.MongoDB.URI)
	mongoClient, err := mongo.Connect(ctx, mongoOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := dc.pingWithRetry(ctx, "mongodb", func() error {
		return mongoClient.Ping(ctx, nil)
	}); err != nil {
		mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dc.Logger.Info("MongoDB connected successfully")
	return mongoClient, nil
}

func (dc *DatabaseConnector) pingWithRetry(ctx context.Context, name string, ping func() error) error {
	return retry.RetryWithCallback(ctx, retry.ConnectPolicy(), ping,
		func(attempt int, err error, nextDelay time.Duration) {
			dc.Logger.Warnw("Dependency not ready, retrying",
				"dependency", name,
				"attempt", attempt,
				"next_delay", nextDelay,
				"error", err,
			)
		})
}

func (dc *DatabaseConnector) ShutdownDatabases(ctx context.Context, redis *redis.Client, warehouse, audit *sql.DB, mongo *mongo.Client) []error {
	var errs []error

	if redis != nil {
		if err := redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close error: %w", err))
		}
	}

	if warehouse != nil {
		if err := warehouse.Close(); err != nil {
			errs = append(errs, fmt.Errorf("warehouse close error: %w", err))
		}
	}

	// The audit pool may alias the warehouse pool.
	if audit != nil && audit != warehouse {
		if err := audit.Close(); err != nil {
			errs = append(errs, fmt.Errorf("audit close error: %w", err))
		}
	}

	if mongo != nil {
		if err := mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb disconnect error: %w", err))
		}
	}

	return errs
}
