package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/pkg/models"
)

const (
	kafkaBroker        = "localhost:29092"
	inputTopic         = "silver.load.completed"
	outputTopic        = "quality.run.completed"
	messageWaitTimeout = 60 * time.Second
)

func requireKafka(t *testing.T) {
	t.Helper()

	conn, err := kafka.DialContext(context.Background(), "tcp", kafkaBroker)
	if err != nil {
		t.Skipf("kafka not reachable at %s: %v", kafkaBroker, err)
	}
	conn.Close()
}

// TestLoadEventTriggersValidationRun drives the full event path: a load
// event on the input topic must produce a run summary on the output
// topic and a correlated batch in the audit history.
func TestLoadEventTriggersValidationRun(t *testing.T) {
	requireKafka(t)
	requireService(t)

	runID := uuid.New().String()

	event := models.NewLoadCompletedEvent("customers", "silver.customers", 6)
	event.RunID = runID

	err := sendLoadEvent(t, event)
	require.NoError(t, err, "failed to send load event")

	runEvent := waitForRunEvent(t, runID)
	require.NotNil(t, runEvent, "run summary should arrive on the output topic")

	assert.Equal(t, models.EventTypeRunCompleted, runEvent.EventType)
	assert.Equal(t, runID, runEvent.RunID)
	assert.Equal(t, "customers", runEvent.Dataset)
	assert.Greater(t, runEvent.TotalChecks, 0)
	assert.Equal(t, runEvent.TotalChecks, runEvent.PassedChecks+runEvent.FailedChecks)
	assert.Len(t, runEvent.Failures, runEvent.FailedChecks)

	results := getRunResults(t, runID, "")
	assert.Len(t, results, runEvent.TotalChecks)
	for _, r := range results {
		assert.Equal(t, "customers", r.TableName)
	}

	latest := getLatestRun(t)
	assert.Equal(t, runID, latest.Run.RunID)
}

// TestMalformedLoadEventIsSkipped sends junk on the input topic and then
// a valid event, proving the consumer drops what it cannot decode
// instead of stalling the group.
func TestMalformedLoadEventIsSkipped(t *testing.T) {
	requireKafka(t)
	requireService(t)

	writer := newTopicWriter(inputTopic)
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte("junk"),
		Value: []byte("{not json"),
	}))

	runID := uuid.New().String()
	event := models.NewLoadCompletedEvent("customers", "silver.customers", 6)
	event.RunID = runID
	require.NoError(t, sendLoadEvent(t, event))

	runEvent := waitForRunEvent(t, runID)
	require.NotNil(t, runEvent, "valid event after junk should still be processed")
	assert.Equal(t, runID, runEvent.RunID)
}

func sendLoadEvent(t *testing.T, event *models.LoadCompletedEvent) error {
	t.Helper()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	writer := newTopicWriter(inputTopic)
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(event.Dataset),
			Value: payload,
		},
	)
}

func newTopicWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(kafkaBroker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

func waitForRunEvent(t *testing.T, runID string) *models.RunCompletedEvent {
	t.Helper()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          outputTopic,
		GroupID:        fmt.Sprintf("e2e-test-%s", uuid.New().String()),
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), messageWaitTimeout)
	defer cancel()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			t.Logf("stopped waiting for run event: %v", err)
			return nil
		}

		var event models.RunCompletedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			continue
		}

		if event.RunID == runID {
			return &event
		}
	}
}
