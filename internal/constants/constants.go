package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultInputTopic  = "silver.load.completed"
	DefaultOutputTopic = "quality.run.completed"
)

const (
	DefaultMongoDBName         = "vigil"
	MongoResultsCollection     = "quality_check_results"
	DefaultWarehouseSchema     = "silver"
	ResultsTable               = "quality_check_results"
	SummaryCacheKeyPrefix      = "quality:latest:"
	DefaultSummaryCacheTTLSecs = 86400
	DefaultMigrationsPath      = "migrations/postgres"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

const (
	DefaultConcurrency  = 4
	DefaultCheckTimeout = 30 * time.Second
)

const (
	ServiceName = "quality-service"
)

const (
	ExitAllPassed    = 0
	ExitChecksFailed = 1
	ExitEngineFault  = 2
)
