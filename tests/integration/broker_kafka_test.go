package integration

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkacontainer "github.com/testcontainers/testcontainers-go/modules/kafka"

	"vigil/internal/broker"
	"vigil/internal/config"
	"vigil/pkg/models"
)

func setupKafka(t *testing.T) []string {
	t.Helper()

	ctx := context.Background()

	container, err := kafkacontainer.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkacontainer.WithClusterID("test-cluster"),
	)
	if err != nil {
		t.Fatalf("failed to start kafka container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(ctx)
	})

	brokers, err := container.Brokers(ctx)
	if err != nil {
		t.Fatalf("failed to get kafka brokers: %v", err)
	}

	return brokers
}

func createTopic(t *testing.T, brokers []string, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	require.NoError(t, err)
}

func TestKafkaProducer_PublishRunEvent(t *testing.T) {
	brokers := setupKafka(t)
	const topic = "quality.run.completed.test"
	createTopic(t, brokers, topic)

	cfg := config.BrokerConfig{
		Type: "kafka",
		Kafka: config.KafkaConfig{
			Brokers: brokers,
			GroupID: "quality-test",
		},
	}

	producer, err := broker.NewProducer(cfg, createTestLogger())
	require.NoError(t, err)
	defer producer.Close()

	ctx := context.Background()

	event := models.NewRunCompletedEvent("run-1", "customers", time.Now().UTC(), 4, 1, 3)
	event.AddFailure("customers", "duplicate_id", "1", "0")

	err = producer.Publish(ctx, topic, event.RunID, event)
	require.NoError(t, err)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MaxWait:   time.Second,
	})
	defer reader.Close()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", string(msg.Key))

	var received models.RunCompletedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &received))
	assert.Equal(t, models.EventTypeRunCompleted, received.EventType)
	assert.Equal(t, "run-1", received.RunID)
	assert.Equal(t, "customers", received.Dataset)
	assert.Equal(t, 4, received.TotalChecks)
	assert.Equal(t, 3, received.FailedChecks)
	require.Len(t, received.Failures, 1)
	assert.Equal(t, "duplicate_id", received.Failures[0].CheckName)
}

func TestKafkaConsumer_DeliversLoadEvents(t *testing.T) {
	brokers := setupKafka(t)
	const topic = "silver.load.completed.test"
	createTopic(t, brokers, topic)

	cfg := config.BrokerConfig{
		Type: "kafka",
		Kafka: config.KafkaConfig{
			Brokers: brokers,
			GroupID: "quality-test",
		},
	}

	consumer, err := broker.NewConsumer(cfg, createTestLogger())
	require.NoError(t, err)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan models.LoadCompletedEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- consumer.Consume(ctx, topic, func(ctx context.Context, event models.LoadCompletedEvent) error {
			events <- event
			return nil
		})
	}()

	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafkago.LeastBytes{},
	}
	defer writer.Close()

	event := models.NewLoadCompletedEvent("customers", "silver.customers", 6)
	event.RunID = "run-kafka-1"
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	writeCtx, writeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer writeCancel()
	require.NoError(t, writer.WriteMessages(writeCtx, kafkago.Message{
		Key:   []byte(event.Dataset),
		Value: payload,
	}))

	select {
	case received := <-events:
		assert.Equal(t, "customers", received.Dataset)
		assert.Equal(t, "silver.customers", received.Table)
		assert.Equal(t, "run-kafka-1", received.RunID)
		assert.Equal(t, int64(6), received.RowCount)
	case <-time.After(60 * time.Second):
		t.Fatal("timed out waiting for the load event")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
}
