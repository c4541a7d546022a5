package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abiru/kikaku-os-sub000/config"
	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/sirupsen/logrus"
)

// AnomalyEnqueuer creates deduplicated alert rows and fans out best-effort
// notifications. The (kind, close_date) unique constraint is the dedup
// guarantee: at most one alert per kind per date, regardless of how many times
// the pipeline runs for that date.
type AnomalyEnqueuer struct {
	store  AlertStore
	sink   AlertSink
	logger *logrus.Logger
}

func NewAnomalyEnqueuer(store AlertStore, sink AlertSink, logger *logrus.Logger) *AnomalyEnqueuer {
	return &AnomalyEnqueuer{store: store, sink: sink, logger: logger}
}

// Enqueue records the daily-close reconciliation anomaly, if any.
//
// Level ok is a no-op. Otherwise one alert keyed (daily_close_anomaly, date)
// is inserted; a constraint hit means "already alerted today" and returns
// false without error. Any other storage error propagates.
func (e *AnomalyEnqueuer) Enqueue(ctx context.Context, report *models.DailyReport, artifactKeys []string) (bool, error) {
	if report.Anomalies.Level == models.AnomalyLevelOk {
		return false, nil
	}

	severity := models.SeverityWarning
	if report.Anomalies.Level == models.AnomalyLevelCritical {
		severity = models.SeverityCritical
	}

	body := map[string]any{
		"date":      report.Date,
		"level":     report.Anomalies.Level,
		"diff":      report.Anomalies.Diff,
		"message":   report.Anomalies.Message,
		"artifacts": artifactKeys,
	}
	return e.EnqueueAlert(ctx, models.AlertKindDailyCloseAnomaly, report.Date, severity, report.Anomalies.Message, body)
}

// EnqueueAlert inserts one deduplicated alert and, for severities above info,
// fires a best-effort notification whose outcome lands in the delivery log.
// Notification failure never fails the alert creation.
func (e *AnomalyEnqueuer) EnqueueAlert(ctx context.Context, kind, date string, severity models.AnomalySeverity, message string, body any) (bool, error) {
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("marshal alert body for %s: %w", kind, err)
	}

	alert := models.AnomalyAlert{
		Kind:      kind,
		CloseDate: date,
		Severity:  severity,
		Body:      bodyJSON,
	}
	if err := e.store.InsertAlert(ctx, &alert); err != nil {
		if errors.Is(err, ErrDuplicateAlert) {
			return false, nil
		}
		return false, err
	}

	if severity != models.SeverityInfo {
		e.notify(ctx, kind, date, severity, message, body)
	}
	return true, nil
}

func (e *AnomalyEnqueuer) notify(ctx context.Context, kind, date string, severity models.AnomalySeverity, message string, body any) {
	details := map[string]any{
		"kind": kind,
		"date": date,
		"body": body,
	}
	sendErr := e.sink.Send(ctx, severity, message, details)

	entry := models.NotificationLog{
		AlertKind: kind,
		CloseDate: date,
		Channel:   e.sink.Channel(),
		Ok:        sendErr == nil,
	}
	if sendErr != nil {
		msg := sendErr.Error()
		entry.Error = &msg
		config.LogError(e.logger, "anomalyAlerts", "notify", "alert delivery failed", details, sendErr)
	}
	if logErr := e.store.LogDelivery(ctx, &entry); logErr != nil {
		config.LogError(e.logger, "anomalyAlerts", "notify", "delivery log write failed", details, logErr)
	}
}

// ListAlerts is a read projection of the date's alerts.
func (e *AnomalyEnqueuer) ListAlerts(ctx context.Context, date string) ([]models.AnomalyAlert, error) {
	return e.store.ListAlerts(ctx, date)
}
