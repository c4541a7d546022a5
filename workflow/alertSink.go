package workflow

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/abiru/kikaku-os-sub000/appctx"
	"github.com/abiru/kikaku-os-sub000/config"
	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/sirupsen/logrus"
)

// AlertSink delivers anomaly notifications to an external channel. Delivery is
// best-effort everywhere this is called: a Send error is logged and recorded,
// never propagated into the caller's outcome.
type AlertSink interface {
	Send(ctx context.Context, severity models.AnomalySeverity, message string, details map[string]any) error
	Channel() string
}

// LogAlertSink writes alerts to the structured log. Default sink for local
// development and tests.
type LogAlertSink struct {
	Logger *logrus.Logger
}

func (s *LogAlertSink) Send(ctx context.Context, severity models.AnomalySeverity, message string, details map[string]any) error {
	s.Logger.WithFields(logrus.Fields{
		"module":   "alertSink",
		"severity": severity,
		"details":  details,
	}).Warn(message)
	return nil
}

func (s *LogAlertSink) Channel() string { return "log" }

// PubSubAlertSink publishes alerts to the ALERT_PUBSUB_TOPIC topic.
type PubSubAlertSink struct{}

func (s *PubSubAlertSink) Send(ctx context.Context, severity models.AnomalySeverity, message string, details map[string]any) error {
	cid, _ := appctx.GetString(ctx, appctx.ContextKeyCorrelationId)
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := config.PublishAlert(sendCtx, config.AlertMessage{
		Severity:      string(severity),
		Message:       message,
		Details:       details,
		OccurredAt:    time.Now().UTC(),
		CorrelationId: cid,
	})
	return err
}

func (s *PubSubAlertSink) Channel() string { return "pubsub" }

// NewAlertSinkFromEnv picks the delivery channel:
//
//	ALERT_SINK=pubsub  -> Google Pub/Sub (ALERT_PUBSUB_TOPIC)
//	ALERT_SINK=kafka   -> Kafka (ALERT_KAFKA_BROKERS, ALERT_KAFKA_TOPIC)
//	otherwise          -> structured log
func NewAlertSinkFromEnv(logger *logrus.Logger) AlertSink {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ALERT_SINK"))) {
	case "pubsub":
		return &PubSubAlertSink{}
	case "kafka":
		brokers := strings.Split(os.Getenv("ALERT_KAFKA_BROKERS"), ",")
		topic := os.Getenv("ALERT_KAFKA_TOPIC")
		if topic == "" {
			topic = "daily_close_alerts"
		}
		return NewKafkaAlertSink(brokers, topic)
	default:
		return &LogAlertSink{Logger: logger}
	}
}
