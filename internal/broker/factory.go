package broker

import (
	"fmt"
	"strings"

	"vigil/internal/config"
	"vigil/internal/logger"
)

func NewProducer(cfg config.BrokerConfig, log logger.Logger) (Producer, error) {
	switch strings.ToLower(cfg.Type) {
	case "kafka":
		return NewKafkaProducer(cfg.Kafka, log), nil
	default:
		return nil, fmt.Errorf("unsupported broker type %q, only kafka is supported", cfg.Type)
	}
}

func NewConsumer(cfg config.BrokerConfig, log logger.Logger) (Consumer, error) {
	switch strings.ToLower(cfg.Type) {
	case "kafka":
		return NewKafkaConsumer(cfg.Kafka, log), nil
	default:
		return nil, fmt.Errorf("unsupported broker type %q, only kafka is supported", cfg.Type)
	}
}
