package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq" // PostgreSQL driver

	"vigil/internal/audit"
	"vigil/internal/broker"
	"vigil/internal/config"
	"vigil/internal/constants"
	"vigil/internal/dataset"
	"vigil/internal/logger"
	"vigil/internal/quality"
	"vigil/pkg/bootstrap"
	"vigil/pkg/cel"
	"vigil/pkg/health"
	"vigil/pkg/metrics"
	"vigil/pkg/middleware"
	"vigil/pkg/migrations"
	"vigil/pkg/models"
	"vigil/pkg/ratelimit"
	"vigil/pkg/tracing"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	warehouseDB    *sql.DB
	auditDB        *sql.DB
	redisClient    *redis.Client
	mongoClient    *mongo.Client
	history        quality.History
	summaryCache   *audit.SummaryCache
	coordinator    *quality.Coordinator
	catalog        *quality.Catalog
	runner         quality.Runner
	server         *http.Server
	router         *gin.Engine
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceName)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initEngine(ctx); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	if a.Config.Broker.Type != "" {
		if err := a.InitBroker(constants.ServiceName); err != nil {
			return fmt.Errorf("failed to initialize broker: %w", err)
		}
	}

	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	a.runner = &announcingRunner{
		inner:       a.coordinator,
		cache:       a.summaryCache,
		producer:    a.Producer,
		publish:     a.Config.Audit.PublishSummary,
		outputTopic: outputTopic(a.Config),
		log:         a.Logger,
	}

	a.registerMetrics()

	if err := a.initRouter(); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	if err := a.initServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	warehouse, err := a.dbConnector.InitWarehouse(ctx)
	if err != nil {
		return err
	}
	if warehouse == nil {
		return fmt.Errorf("database.warehouse is required")
	}
	a.warehouseDB = warehouse

	history, auditDB, mongoClient, err := buildAuditBackend(ctx, a.Config, a.dbConnector, warehouse, a.Config.Audit.Backend)
	if err != nil {
		return err
	}
	a.history = history
	a.auditDB = auditDB
	a.mongoClient = mongoClient

	redisClient, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		a.Logger.WarnwCtx(ctx, "Redis connection failed, latest-run cache disabled", "error", err)
	} else if redisClient != nil {
		a.redisClient = redisClient
		if a.Config.Audit.CacheSummary {
			ttl := time.Duration(a.Config.Database.Redis.TTLSeconds) * time.Second
			a.summaryCache = audit.NewSummaryCache(redisClient, ttl)
		}
	}

	return nil
}

func (a *App) initEngine(ctx context.Context) error {
	coordinator, catalog, err := buildEngine(a.Config, a.warehouseDB, a.history, a.Logger)
	if err != nil {
		return err
	}
	a.coordinator = coordinator
	a.catalog = catalog

	a.Logger.InfowCtx(ctx, "Check catalog loaded",
		"rules", catalog.Len(),
		"datasets", catalog.Datasets(),
	)
	return nil
}

func (a *App) registerMetrics() {
	metrics.RegisterQualityMetrics()
	metrics.RegisterDatasetMetrics()
	metrics.RegisterAuditMetrics()
	metrics.RegisterAPIMetrics()
	if a.Config.Broker.Type != "" {
		metrics.RegisterBrokerMetrics()
	}
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}
}

func (a *App) initRouter() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(constants.ServiceName))
	}

	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.LoggerMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())

	if a.Config.API.RateLimit.Enabled {
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             a.Config.API.RateLimit.RPS,
			Burst:           a.Config.API.RateLimit.Burst,
			CleanupInterval: time.Duration(a.Config.API.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(a.Config.API.RateLimit.MaxAge) * time.Second,
		}
		router.Use(ratelimit.RateLimitMiddleware(rateLimitConfig))
		a.Logger.InfowCtx(context.Background(), "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	var cache quality.LatestCache
	if a.summaryCache != nil {
		cache = a.summaryCache
	}
	handler := quality.NewHandler(a.runner, a.history, a.catalog, cache, a.Logger)
	handler.RegisterRoutes(router)

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker("warehouse", a.warehouseDB))
	if a.auditDB != nil && a.auditDB != a.warehouseDB {
		healthRegistry.Register(health.NewPostgreSQLChecker("audit", a.auditDB))
	}
	if a.redisClient != nil {
		// The cache is best effort; a dead Redis degrades but does not
		// take the service out of rotation.
		healthRegistry.RegisterOptional(health.NewRedisChecker(a.redisClient))
	}
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
	return nil
}

func (a *App) initServer() error {
	if a.Config.Server.Port == 0 {
		return fmt.Errorf("server.port is required in serve mode")
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// ListenAndServe does not watch the context, so a dedicated goroutine
	// turns cancellation into a server shutdown.
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if a.Consumer != nil {
		inputTopic := a.Config.Broker.Kafka.InputTopic
		if inputTopic == "" {
			inputTopic = constants.DefaultInputTopic
		}

		g.Go(func() error {
			a.Logger.InfowCtx(gCtx, "Starting load event consumer", "topic", inputTopic)
			return a.Consumer.Consume(gCtx, inputTopic, a.handleLoadEvent())
		})
	}

	runErr := g.Wait()
	if runErr == context.Canceled {
		runErr = nil
	}

	if err := a.Shutdown(ctx); err != nil {
		if runErr == nil {
			runErr = err
		} else {
			a.Logger.ErrorwCtx(ctx, "Shutdown error", "error", err)
		}
	}
	return runErr
}

// handleLoadEvent validates the dataset a load event announces. The
// consumer retries handler errors and dead-letters what keeps failing.
func (a *App) handleLoadEvent() broker.HandlerFunc {
	return func(ctx context.Context, event models.LoadCompletedEvent) error {
		a.Logger.InfowCtx(ctx, "Load event received",
			"table", event.Table,
			"row_count", event.RowCount,
		)

		_, err := a.runner.Run(ctx, quality.RunOptions{
			RunID:    event.RunID,
			Datasets: []string{event.Dataset},
		})
		return err
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("Shutting down quality service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.warehouseDB, a.auditDB, a.mongoClient)...)

		return errs
	}

	return a.Base.Shutdown(shutdownCtx, additionalShutdown)
}

// announcingRunner decorates the coordinator so every completed run,
// whether triggered over HTTP or by a load event, refreshes the
// latest-run cache and publishes its summary. Cache and producer are
// optional; announcement failures are logged, never returned, because
// the batch is already in the audit history.
type announcingRunner struct {
	inner       quality.Runner
	cache       *audit.SummaryCache
	producer    broker.Producer
	publish     bool
	outputTopic string
	log         logger.Logger
}

func (r *announcingRunner) Run(ctx context.Context, opts quality.RunOptions) (*quality.Batch, error) {
	batch, err := r.inner.Run(ctx, opts)
	if err != nil || batch == nil {
		return batch, err
	}

	if r.cache != nil {
		if cacheErr := r.cache.StoreLatest(ctx, batch); cacheErr != nil {
			r.log.WarnwCtx(ctx, "Failed to cache run summary", "error", cacheErr)
		}
	}

	if r.publish && r.producer != nil {
		dataset := ""
		if len(opts.Datasets) == 1 {
			dataset = opts.Datasets[0]
		}
		event := runCompletedEvent(batch, dataset)
		if pubErr := r.producer.Publish(ctx, r.outputTopic, batch.RunID, event); pubErr != nil {
			r.log.ErrorwCtx(ctx, "Failed to publish run event",
				"error", pubErr,
				"output_topic", r.outputTopic,
			)
		} else {
			r.log.InfowCtx(ctx, "Run event published",
				"output_topic", r.outputTopic,
				"failed_checks", batch.FailedCount(),
			)
		}
	}

	return batch, nil
}

func runCompletedEvent(batch *quality.Batch, dataset string) *models.RunCompletedEvent {
	event := models.NewRunCompletedEvent(batch.RunID, dataset, batch.RunTime,
		len(batch.Results), batch.PassedCount(), batch.FailedCount())

	for _, r := range quality.Sorted(quality.FailedOnly(batch.Results)) {
		expected := ""
		if r.ExpectedValue != nil {
			expected = *r.ExpectedValue
		}
		event.AddFailure(r.TableName, r.CheckName, r.ActualValue, expected)
	}
	return event
}

func outputTopic(cfg *config.Config) string {
	if cfg.Broker.Kafka.OutputTopic != "" {
		return cfg.Broker.Kafka.OutputTopic
	}
	return constants.DefaultOutputTopic
}

// buildAuditBackend opens the configured result sink. It returns the
// pool or client it opened so the caller can close them; the postgres
// pool may alias the warehouse pool.
func buildAuditBackend(ctx context.Context, cfg *config.Config, connector *bootstrap.DatabaseConnector, warehouse *sql.DB, backend string) (quality.History, *sql.DB, *mongo.Client, error) {
	switch strings.ToLower(backend) {
	case "memory":
		return audit.NewMemorySink(), nil, nil, nil

	case "mongodb":
		client, err := connector.InitMongoDB(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		if client == nil {
			return nil, nil, nil, fmt.Errorf("audit backend mongodb requires database.mongodb.uri")
		}

		dbName := cfg.Database.MongoDB.Database
		if dbName == "" {
			dbName = constants.DefaultMongoDBName
		}
		db := client.Database(dbName)

		if err := migrations.EnsureMongoCollection(ctx, db); err != nil {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
			return nil, nil, nil, err
		}
		return audit.NewMongoSink(db), nil, client, nil

	default: // postgres, or results beside the warehouse data
		db, err := connector.InitAudit(ctx, warehouse)
		if err != nil {
			return nil, nil, nil, err
		}

		if cfg.Database.RunMigrations {
			if err := bootstrap.RunMigrations(db, constants.DefaultMigrationsPath); err != nil {
				if db != warehouse {
					db.Close()
				}
				return nil, nil, nil, fmt.Errorf("failed to run audit migrations: %w", err)
			}
		}
		return audit.NewPostgresSink(db), db, nil, nil
	}
}

// buildEngine assembles the catalog, the dataset registry over the
// warehouse and the run coordinator feeding the given sink.
func buildEngine(cfg *config.Config, warehouse *sql.DB, sink quality.Sink, log logger.Logger) (*quality.Coordinator, *quality.Catalog, error) {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create expression evaluator: %w", err)
	}

	catalog, err := quality.BuildCatalog(cfg.Checks, evaluator)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build check catalog: %w", err)
	}

	schema := cfg.Checks.Schema
	if schema == "" {
		schema = constants.DefaultWarehouseSchema
	}

	registry := dataset.NewRegistry()
	for _, name := range catalog.Datasets() {
		var ds dataset.Dataset = dataset.NewPostgresDataset(warehouse, schema, name)
		if cfg.CircuitBreaker.Enabled {
			ds = dataset.NewBreakerDataset(ds, cfg.CircuitBreaker)
		}
		registry.Register(ds)
	}

	timeout := cfg.Engine.CheckTimeoutSeconds
	if timeout <= 0 {
		timeout = constants.DefaultCheckTimeout
	}

	executor := quality.NewExecutor(evaluator, timeout, log)
	coordinator := quality.NewCoordinator(catalog, registry, executor, sink, cfg.Engine.Concurrency, log)
	return coordinator, catalog, nil
}
