package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                8080,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 15,
		},
		Database: DatabaseConfig{
			Warehouse: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				User:    "vigil",
				DBName:  "warehouse",
				SSLMode: "disable",
			},
		},
		Broker: BrokerConfig{
			Type: "kafka",
			Kafka: KafkaConfig{
				Brokers:     []string{"localhost:9092"},
				GroupID:     "quality-service",
				InputTopic:  "silver.load.completed",
				OutputTopic: "quality.run.completed",
				Retry: RetryConfig{
					MaxAttempts:     3,
					InitialInterval: time.Second,
					MaxInterval:     30 * time.Second,
					Multiplier:      2.0,
				},
			},
		},
		Engine: EngineConfig{
			Concurrency:         4,
			CheckTimeoutSeconds: 30,
		},
		Audit: AuditConfig{
			Backend: "postgres",
		},
	}
}

func TestValidateStatic(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(cfg *Config) {},
		},
		{
			name: "one-shot config without server or broker",
			mutate: func(cfg *Config) {
				cfg.Server = ServerConfig{}
				cfg.Broker = BrokerConfig{}
			},
		},
		{
			name: "invalid server port",
			mutate: func(cfg *Config) {
				cfg.Server.Port = 70000
			},
			wantErr: "server.port",
		},
		{
			name: "missing read timeout",
			mutate: func(cfg *Config) {
				cfg.Server.ReadTimeoutSeconds = 0
			},
			wantErr: "server.read_timeout_seconds",
		},
		{
			name: "unknown broker type",
			mutate: func(cfg *Config) {
				cfg.Broker.Type = "rabbitmq"
			},
			wantErr: "broker.type",
		},
		{
			name: "kafka without brokers",
			mutate: func(cfg *Config) {
				cfg.Broker.Kafka.Brokers = nil
			},
			wantErr: "broker.kafka.brokers",
		},
		{
			name: "kafka without group id",
			mutate: func(cfg *Config) {
				cfg.Broker.Kafka.GroupID = ""
			},
			wantErr: "broker.kafka.group_id",
		},
		{
			name: "warehouse without user",
			mutate: func(cfg *Config) {
				cfg.Database.Warehouse.User = ""
			},
			wantErr: "database.warehouse.user",
		},
		{
			name: "audit block validated when present",
			mutate: func(cfg *Config) {
				cfg.Database.Audit = PostgresConfig{Host: "localhost", Port: 5432, User: "vigil"}
			},
			wantErr: "database.audit.dbname",
		},
		{
			name: "invalid sslmode",
			mutate: func(cfg *Config) {
				cfg.Database.Warehouse.SSLMode = "sometimes"
			},
			wantErr: "database.warehouse.sslmode",
		},
		{
			name: "negative concurrency",
			mutate: func(cfg *Config) {
				cfg.Engine.Concurrency = -1
			},
			wantErr: "engine.concurrency",
		},
		{
			name: "invalid audit backend",
			mutate: func(cfg *Config) {
				cfg.Audit.Backend = "cassandra"
			},
			wantErr: "audit.backend",
		},
		{
			name: "override ceiling out of range",
			mutate: func(cfg *Config) {
				ceiling := 140.0
				cfg.Checks.Overrides = []RuleOverride{{Name: "age_missing_pct", Ceiling: &ceiling}}
			},
			wantErr: "checks.overrides[0].ceiling",
		},
		{
			name: "custom rule without dataset",
			mutate: func(cfg *Config) {
				cfg.Checks.Custom = []CustomRule{{Name: "orphan", Kind: "not_null", Column: "id"}}
			},
			wantErr: "checks.custom[0].dataset",
		},
		{
			name: "custom rule with unknown kind",
			mutate: func(cfg *Config) {
				cfg.Checks.Custom = []CustomRule{{Name: "bad", Dataset: "orders", Kind: "regex"}}
			},
			wantErr: "checks.custom[0].kind",
		},
		{
			name: "custom allowed_values without values",
			mutate: func(cfg *Config) {
				cfg.Checks.Custom = []CustomRule{{Name: "status_values", Dataset: "orders", Kind: "allowed_values", Column: "status"}}
			},
			wantErr: "checks.custom[0].values",
		},
		{
			name: "custom expression without predicate",
			mutate: func(cfg *Config) {
				cfg.Checks.Custom = []CustomRule{{Name: "sales_math", Dataset: "sales", Kind: "expression"}}
			},
			wantErr: "checks.custom[0].expression",
		},
		{
			name: "empty dataset filter entry",
			mutate: func(cfg *Config) {
				cfg.Checks.Datasets = []string{"customers", ""}
			},
			wantErr: "checks.datasets[1]",
		},
		{
			name: "valid custom expression rule",
			mutate: func(cfg *Config) {
				cfg.Checks.Custom = []CustomRule{{
					Name:       "sales_math",
					Dataset:    "sales",
					Kind:       "expression",
					Columns:    []string{"sales", "quantity", "price"},
					Expression: "row.sales != row.quantity * math.abs(row.price)",
				}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateStatic(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
