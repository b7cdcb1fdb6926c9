package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Broker         BrokerConfig
	Logging        LoggingConfig
	Engine         EngineConfig
	Checks         ChecksConfig
	Audit          AuditConfig
	CircuitBreaker CircuitBreakerConfig
	Tracing        TracingConfig
	API            APIConfig
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

// DatabaseConfig carries two postgres blocks: warehouse is where the
// validated silver tables live, audit is where check results are written.
// An empty audit block means results go to the warehouse connection.
type DatabaseConfig struct {
	Warehouse     PostgresConfig `mapstructure:"warehouse"`
	Audit         PostgresConfig `mapstructure:"audit"`
	Redis         RedisConfig    `mapstructure:"redis"`
	MongoDB       MongoDBConfig  `mapstructure:"mongodb"`
	RunMigrations bool           `mapstructure:"run_migrations"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c PostgresConfig) IsZero() bool {
	return c.Host == "" && c.Port == 0 && c.User == "" && c.DBName == ""
}

type RedisConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type BrokerConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers     []string    `mapstructure:"brokers"`
	GroupID     string      `mapstructure:"group_id"`
	InputTopic  string      `mapstructure:"input_topic"`
	OutputTopic string      `mapstructure:"output_topic"`
	DLQTopic    string      `mapstructure:"dlq_topic"`
	Retry       RetryConfig `mapstructure:"retry"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type EngineConfig struct {
	Concurrency         int           `mapstructure:"concurrency"`
	CheckTimeoutSeconds time.Duration `mapstructure:"check_timeout_seconds"`
}

// ChecksConfig narrows which datasets run and lets deployments tune the
// built-in catalog without code changes.
type ChecksConfig struct {
	Schema    string         `mapstructure:"schema"`
	Datasets  []string       `mapstructure:"datasets"`
	Overrides []RuleOverride `mapstructure:"overrides"`
	Custom    []CustomRule   `mapstructure:"custom"`
}

// RuleOverride adjusts a single catalog rule by check name. Dataset is
// optional; when empty the override applies to every dataset carrying a
// check of that name.
type RuleOverride struct {
	Dataset  string   `mapstructure:"dataset"`
	Name     string   `mapstructure:"name"`
	Disabled bool     `mapstructure:"disabled"`
	Ceiling  *float64 `mapstructure:"ceiling"`
	Values   []string `mapstructure:"values"`
}

// CustomRule declares an extra rule appended after the built-in catalog.
type CustomRule struct {
	Name       string   `mapstructure:"name"`
	Dataset    string   `mapstructure:"dataset"`
	Kind       string   `mapstructure:"kind"`
	Column     string   `mapstructure:"column"`
	Columns    []string `mapstructure:"columns"`
	Values     []string `mapstructure:"values"`
	Ceiling    float64  `mapstructure:"ceiling"`
	Expression string   `mapstructure:"expression"`
	Details    string   `mapstructure:"details"`
}

type AuditConfig struct {
	Backend        string `mapstructure:"backend"`
	PublishSummary bool   `mapstructure:"publish_summary"`
	CacheSummary   bool   `mapstructure:"cache_summary"`
}

type APIConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
