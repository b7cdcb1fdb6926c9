package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ruleKinds mirrors the kinds the check executor understands. The catalog
// performs the full semantic validation; this only rejects obvious typos
// before the process gets that far.
var ruleKinds = map[string]bool{
	"row_count":       true,
	"not_null":        true,
	"unique":          true,
	"allowed_values":  true,
	"max_missing_pct": true,
	"expression":      true,
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateBroker(cfg.Broker); err != nil {
		errors = append(errors, err)
	}

	if err := validateDatabase(cfg.Database); err != nil {
		errors = append(errors, err)
	}

	if err := validateEngine(cfg.Engine); err != nil {
		errors = append(errors, err)
	}

	if err := validateChecks(cfg.Checks); err != nil {
		errors = append(errors, err)
	}

	if err := validateAudit(cfg.Audit); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

// validateServer accepts a zero port: one-shot runs never open a listener,
// so the server block is only required for serve mode.
func validateServer(cfg ServerConfig) error {
	if cfg.Port == 0 {
		return nil
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateBroker(cfg BrokerConfig) error {
	if cfg.Type == "" {
		return nil
	}

	switch cfg.Type {
	case "kafka":
		return validateKafka(cfg.Kafka)
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: kafka)", cfg.Type),
		}
	}
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.GroupID == "" {
		return &ValidationError{
			Field:   "broker.kafka.group_id",
			Message: "Kafka consumer group ID is required",
		}
	}

	if cfg.Retry.MaxAttempts < 0 {
		return &ValidationError{
			Field:   "broker.kafka.retry.max_attempts",
			Message: "max_attempts must be non-negative",
		}
	}

	if cfg.Retry.InitialInterval < 0 {
		return &ValidationError{
			Field:   "broker.kafka.retry.initial_interval",
			Message: "initial_interval must be non-negative",
		}
	}

	if cfg.Retry.MaxInterval < 0 {
		return &ValidationError{
			Field:   "broker.kafka.retry.max_interval",
			Message: "max_interval must be non-negative",
		}
	}

	if cfg.Retry.MaxInterval > 0 && cfg.Retry.InitialInterval > 0 && cfg.Retry.MaxInterval < cfg.Retry.InitialInterval {
		return &ValidationError{
			Field:   "broker.kafka.retry.max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	if cfg.Retry.Multiplier <= 0 {
		return &ValidationError{
			Field:   "broker.kafka.retry.multiplier",
			Message: "multiplier must be positive",
		}
	}

	return nil
}

func validateDatabase(cfg DatabaseConfig) error {
	if !cfg.Warehouse.IsZero() {
		if err := validatePostgres("database.warehouse", cfg.Warehouse); err != nil {
			return err
		}
	}

	if !cfg.Audit.IsZero() {
		if err := validatePostgres("database.audit", cfg.Audit); err != nil {
			return err
		}
	}

	if cfg.Redis.Host != "" || cfg.Redis.Port > 0 {
		if err := validateRedis(cfg.Redis); err != nil {
			return err
		}
	}

	if cfg.MongoDB.URI != "" {
		if err := validateMongoDB(cfg.MongoDB); err != nil {
			return err
		}
	}

	return nil
}

func validatePostgres(field string, cfg PostgresConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   field + ".host",
			Message: "PostgreSQL host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   field + ".port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.User == "" {
		return &ValidationError{
			Field:   field + ".user",
			Message: "PostgreSQL user is required",
		}
	}

	if cfg.DBName == "" {
		return &ValidationError{
			Field:   field + ".dbname",
			Message: "PostgreSQL database name is required",
		}
	}

	validSSLModes := map[string]bool{
		"disable": true, "allow": true, "prefer": true,
		"require": true, "verify-ca": true, "verify-full": true,
	}
	if cfg.SSLMode != "" && !validSSLModes[strings.ToLower(cfg.SSLMode)] {
		return &ValidationError{
			Field:   field + ".sslmode",
			Message: fmt.Sprintf("invalid SSL mode: %s (valid: disable, allow, prefer, require, verify-ca, verify-full)", cfg.SSLMode),
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.TTLSeconds < 0 {
		return &ValidationError{
			Field:   "database.redis.ttl_seconds",
			Message: "TTL must be non-negative",
		}
	}

	return nil
}

func validateMongoDB(cfg MongoDBConfig) error {
	if cfg.URI == "" {
		return &ValidationError{
			Field:   "database.mongodb.uri",
			Message: "MongoDB URI is required",
		}
	}

	if !strings.HasPrefix(cfg.URI, "mongodb://") && !strings.HasPrefix(cfg.URI, "mongodb+srv://") {
		return &ValidationError{
			Field:   "database.mongodb.uri",
			Message: "MongoDB URI must start with mongodb:// or mongodb+srv://",
		}
	}

	if cfg.Database == "" {
		return &ValidationError{
			Field:   "database.mongodb.database",
			Message: "MongoDB database name is required",
		}
	}

	return nil
}

func validateEngine(cfg EngineConfig) error {
	if cfg.Concurrency < 0 {
		return &ValidationError{
			Field:   "engine.concurrency",
			Message: "concurrency must be non-negative",
		}
	}

	if cfg.CheckTimeoutSeconds < 0 {
		return &ValidationError{
			Field:   "engine.check_timeout_seconds",
			Message: "check timeout must be non-negative",
		}
	}

	return nil
}

func validateChecks(cfg ChecksConfig) error {
	for i, name := range cfg.Datasets {
		if name == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("checks.datasets[%d]", i),
				Message: "dataset name cannot be empty",
			}
		}
	}

	for i, override := range cfg.Overrides {
		if override.Name == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("checks.overrides[%d].name", i),
				Message: "override rule name is required",
			}
		}

		if override.Ceiling != nil && (*override.Ceiling < 0 || *override.Ceiling > 100) {
			return &ValidationError{
				Field:   fmt.Sprintf("checks.overrides[%d].ceiling", i),
				Message: fmt.Sprintf("ceiling must be between 0 and 100, got %v", *override.Ceiling),
			}
		}
	}

	for i, rule := range cfg.Custom {
		if rule.Name == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("checks.custom[%d].name", i),
				Message: "custom rule name is required",
			}
		}

		if rule.Dataset == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("checks.custom[%d].dataset", i),
				Message: "custom rule dataset is required",
			}
		}

		if !ruleKinds[rule.Kind] {
			return &ValidationError{
				Field:   fmt.Sprintf("checks.custom[%d].kind", i),
				Message: fmt.Sprintf("unknown rule kind: %s", rule.Kind),
			}
		}

		switch rule.Kind {
		case "not_null", "unique":
			if rule.Column == "" {
				return &ValidationError{
					Field:   fmt.Sprintf("checks.custom[%d].column", i),
					Message: fmt.Sprintf("%s rules require a column", rule.Kind),
				}
			}
		case "allowed_values":
			if rule.Column == "" {
				return &ValidationError{
					Field:   fmt.Sprintf("checks.custom[%d].column", i),
					Message: "allowed_values rules require a column",
				}
			}
			if len(rule.Values) == 0 {
				return &ValidationError{
					Field:   fmt.Sprintf("checks.custom[%d].values", i),
					Message: "allowed_values rules require at least one value",
				}
			}
		case "max_missing_pct":
			if rule.Column == "" {
				return &ValidationError{
					Field:   fmt.Sprintf("checks.custom[%d].column", i),
					Message: "max_missing_pct rules require a column",
				}
			}
			if rule.Ceiling < 0 || rule.Ceiling > 100 {
				return &ValidationError{
					Field:   fmt.Sprintf("checks.custom[%d].ceiling", i),
					Message: fmt.Sprintf("ceiling must be between 0 and 100, got %v", rule.Ceiling),
				}
			}
		case "expression":
			if rule.Expression == "" {
				return &ValidationError{
					Field:   fmt.Sprintf("checks.custom[%d].expression", i),
					Message: "expression rules require an expression",
				}
			}
		}
	}

	return nil
}

func validateAudit(cfg AuditConfig) error {
	validBackends := map[string]bool{
		"": true, "memory": true, "postgres": true, "mongodb": true,
	}
	if !validBackends[strings.ToLower(cfg.Backend)] {
		return &ValidationError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("invalid audit backend: %s (valid: memory, postgres, mongodb)", cfg.Backend),
		}
	}

	return nil
}
