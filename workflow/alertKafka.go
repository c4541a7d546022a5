package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/segmentio/kafka-go"
)

// KafkaAlertSink publishes alerts to a Kafka topic, for deployments that fan
// notifications out through a broker instead of Pub/Sub.
type KafkaAlertSink struct {
	writer *kafka.Writer
}

func NewKafkaAlertSink(brokers []string, topic string) *KafkaAlertSink {
	return &KafkaAlertSink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

type kafkaAlertPayload struct {
	Severity   string         `json:"severity"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (s *KafkaAlertSink) Send(ctx context.Context, severity models.AnomalySeverity, message string, details map[string]any) error {
	data, err := json.Marshal(kafkaAlertPayload{
		Severity:   string(severity),
		Message:    message,
		Details:    details,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{Value: data})
}

func (s *KafkaAlertSink) Channel() string { return "kafka" }
