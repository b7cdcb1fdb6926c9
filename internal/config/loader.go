package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func bindEnvVariables() {
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.group_id", "BROKER_KAFKA_GROUP_ID")
	viper.BindEnv("broker.kafka.input_topic", "BROKER_KAFKA_INPUT_TOPIC")
	viper.BindEnv("broker.kafka.output_topic", "BROKER_KAFKA_OUTPUT_TOPIC")
	viper.BindEnv("broker.kafka.dlq_topic", "BROKER_KAFKA_DLQ_TOPIC")

	viper.BindEnv("database.warehouse.host", "DATABASE_WAREHOUSE_HOST")
	viper.BindEnv("database.warehouse.port", "DATABASE_WAREHOUSE_PORT")
	viper.BindEnv("database.warehouse.user", "DATABASE_WAREHOUSE_USER")
	viper.BindEnv("database.warehouse.password", "DATABASE_WAREHOUSE_PASSWORD")
	viper.BindEnv("database.warehouse.dbname", "DATABASE_WAREHOUSE_DBNAME")
	viper.BindEnv("database.warehouse.sslmode", "DATABASE_WAREHOUSE_SSLMODE")

	viper.BindEnv("database.audit.host", "DATABASE_AUDIT_HOST")
	viper.BindEnv("database.audit.port", "DATABASE_AUDIT_PORT")
	viper.BindEnv("database.audit.user", "DATABASE_AUDIT_USER")
	viper.BindEnv("database.audit.password", "DATABASE_AUDIT_PASSWORD")
	viper.BindEnv("database.audit.dbname", "DATABASE_AUDIT_DBNAME")
	viper.BindEnv("database.audit.sslmode", "DATABASE_AUDIT_SSLMODE")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("database.mongodb.uri", "DATABASE_MONGODB_URI")
	viper.BindEnv("database.mongodb.database", "DATABASE_MONGODB_DATABASE")

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout_seconds", "SERVER_READ_TIMEOUT_SECONDS")
	viper.BindEnv("server.write_timeout_seconds", "SERVER_WRITE_TIMEOUT_SECONDS")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("engine.concurrency", "ENGINE_CONCURRENCY")
	viper.BindEnv("engine.check_timeout_seconds", "ENGINE_CHECK_TIMEOUT_SECONDS")

	viper.BindEnv("checks.schema", "CHECKS_SCHEMA")
	viper.BindEnv("checks.datasets", "CHECKS_DATASETS")

	viper.BindEnv("audit.backend", "AUDIT_BACKEND")
	viper.BindEnv("audit.publish_summary", "AUDIT_PUBLISH_SUMMARY")
	viper.BindEnv("audit.cache_summary", "AUDIT_CACHE_SUMMARY")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	if datasetsEnv := viper.GetString("CHECKS_DATASETS"); datasetsEnv != "" {
		datasets := strings.Split(datasetsEnv, ",")
		for i := range datasets {
			datasets[i] = strings.TrimSpace(datasets[i])
		}
		if len(datasets) > 0 && datasets[0] != "" {
			cfg.Checks.Datasets = datasets
		}
	}

	if otlpEndpoint := viper.GetString("TRACING_OTLP_ENDPOINT"); otlpEndpoint != "" {
		cfg.Tracing.OTLP.Endpoint = otlpEndpoint
	}

	return nil
}
