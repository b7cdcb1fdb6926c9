package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quality_checks_total",
			Help: "Total number of quality checks executed (count)",
		},
		[]string{"dataset", "status"},
	)

	CheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quality_check_duration_ms",
			Help:    "Duration of a single quality check in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"kind"},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quality_runs_total",
			Help: "Total number of validation runs (count)",
		},
		[]string{"outcome"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quality_run_duration_ms",
			Help:    "Duration of a full validation run in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
	)

	ActiveRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quality_active_rules",
			Help: "Number of rules in the active catalog (count)",
		},
	)

	LastRunFailedChecks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quality_last_run_failed_checks",
			Help: "Number of FAIL checks in the most recent run (count)",
		},
	)

	AuditAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_appends_total",
			Help: "Total number of audit sink append batches (count)",
		},
		[]string{"backend", "status"},
	)

	AuditAppendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_append_duration_ms",
			Help:    "Duration of audit sink append batches in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"backend"},
	)

	AuditRecordsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_records_written_total",
			Help: "Total number of check results written to the audit history (count)",
		},
		[]string{"backend"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "topic"},
	)

	DLQMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_total",
			Help: "Total number of messages sent to DLQ (count)",
		},
		[]string{"service", "topic", "reason"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaReadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_read_duration_ms",
			Help:    "Duration of reading messages from Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	DatasetQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_queries_total",
			Help: "Total number of warehouse dataset queries (count)",
		},
		[]string{"dataset", "operation", "status"},
	)

	DatasetQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataset_query_duration_ms",
			Help:    "Duration of warehouse dataset queries in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"dataset", "operation"},
	)

	CacheWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summary_cache_writes_total",
			Help: "Total number of run summary cache writes (count)",
		},
		[]string{"status"},
	)
)

func RegisterQualityMetrics() {
	prometheus.MustRegister(ChecksTotal)
	prometheus.MustRegister(CheckDuration)
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(ActiveRules)
	prometheus.MustRegister(LastRunFailedChecks)
}

func RegisterAuditMetrics() {
	prometheus.MustRegister(AuditAppendsTotal)
	prometheus.MustRegister(AuditAppendDuration)
	prometheus.MustRegister(AuditRecordsWrittenTotal)
	prometheus.MustRegister(CacheWritesTotal)
}

func RegisterDatasetMetrics() {
	prometheus.MustRegister(DatasetQueriesTotal)
	prometheus.MustRegister(DatasetQueryDuration)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(RetryAttemptsTotal)
	prometheus.MustRegister(DLQMessagesTotal)
	prometheus.MustRegister(KafkaMessagesReadTotal)
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
	prometheus.MustRegister(KafkaReadDuration)
	prometheus.MustRegister(KafkaWriteDuration)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterAPIMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func IncCheck(dataset, status string) {
	ChecksTotal.WithLabelValues(dataset, status).Inc()
}

func ObserveCheckDuration(kind string, duration time.Duration) {
	CheckDuration.WithLabelValues(kind).Observe(float64(duration.Milliseconds()))
}

func IncRun(outcome string) {
	RunsTotal.WithLabelValues(outcome).Inc()
}

func ObserveRunDuration(duration time.Duration) {
	RunDuration.Observe(float64(duration.Milliseconds()))
}

func SetActiveRules(count int) {
	ActiveRules.Set(float64(count))
}

func SetLastRunFailedChecks(count int) {
	LastRunFailedChecks.Set(float64(count))
}

func IncAuditAppend(backend, status string) {
	AuditAppendsTotal.WithLabelValues(backend, status).Inc()
}

func ObserveAuditAppendDuration(backend string, duration time.Duration) {
	AuditAppendDuration.WithLabelValues(backend).Observe(float64(duration.Milliseconds()))
}

func AddAuditRecordsWritten(backend string, count int) {
	AuditRecordsWrittenTotal.WithLabelValues(backend).Add(float64(count))
}

func IncDatasetQuery(dataset, operation, status string) {
	DatasetQueriesTotal.WithLabelValues(dataset, operation, status).Inc()
}

func ObserveDatasetQueryDuration(dataset, operation string, duration time.Duration) {
	DatasetQueryDuration.WithLabelValues(dataset, operation).Observe(float64(duration.Milliseconds()))
}

func IncKafkaMessagesRead(service, topic string) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaReadDuration(service, topic string, duration time.Duration) {
	KafkaReadDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

func ObserveKafkaWriteDuration(service, topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

func IncCacheWrite(status string) {
	CacheWritesTotal.WithLabelValues(status).Inc()
}
