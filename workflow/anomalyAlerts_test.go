package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/shopspring/decimal"
)

// recordSink captures sends and optionally fails every delivery.
type recordSink struct {
	mu    sync.Mutex
	sends int
	fail  error
}

func (s *recordSink) Send(ctx context.Context, severity models.AnomalySeverity, message string, details map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends++
	return s.fail
}

func (s *recordSink) Channel() string { return "record" }

func (s *recordSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sends
}

func anomalyReport(level models.AnomalyLevel) *models.DailyReport {
	return &models.DailyReport{
		Date: "2026-08-30",
		Anomalies: models.ReportAnomalyBlock{
			Level:   level,
			Diff:    decimal.NewFromInt(120),
			Message: "payments diverge from order totals",
		},
	}
}

func TestEnqueueOkLevelIsNoop(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores()
	sink := &recordSink{}
	enq := NewAnomalyEnqueuer(stores, sink, newTestLogger())

	created, err := enq.Enqueue(ctx, anomalyReport(models.AnomalyLevelOk), nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if created {
		t.Fatal("ok level must not create an alert")
	}
	alerts, _ := stores.ListAlerts(ctx, "2026-08-30")
	if len(alerts) != 0 {
		t.Fatalf("expected no rows, got %d", len(alerts))
	}
	if sink.count() != 0 {
		t.Fatal("ok level must not notify")
	}
}

func TestEnqueueDedupsPerDate(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores()
	enq := NewAnomalyEnqueuer(stores, &recordSink{}, newTestLogger())
	report := anomalyReport(models.AnomalyLevelWarning)

	created, err := enq.Enqueue(ctx, report, []string{"daily-close/2026-08-30/report.json"})
	if err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if !created {
		t.Fatal("first enqueue should create the alert")
	}

	created, err = enq.Enqueue(ctx, report, nil)
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if created {
		t.Fatal("second enqueue for the same date must dedup")
	}

	alerts, _ := stores.ListAlerts(ctx, "2026-08-30")
	if len(alerts) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(alerts))
	}
	if alerts[0].Kind != models.AlertKindDailyCloseAnomaly || alerts[0].Severity != models.SeverityWarning {
		t.Fatalf("alert row wrong: %+v", alerts[0])
	}
}

func TestEnqueueCriticalSeverity(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores()
	enq := NewAnomalyEnqueuer(stores, &recordSink{}, newTestLogger())

	if _, err := enq.Enqueue(ctx, anomalyReport(models.AnomalyLevelCritical), nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	alerts, _ := stores.ListAlerts(ctx, "2026-08-30")
	if len(alerts) != 1 || alerts[0].Severity != models.SeverityCritical {
		t.Fatalf("expected one critical alert, got %+v", alerts)
	}
}

func TestNotificationFailureDoesNotFailEnqueue(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores()
	sink := &recordSink{fail: errors.New("broker unreachable")}
	enq := NewAnomalyEnqueuer(stores, sink, newTestLogger())

	created, err := enq.Enqueue(ctx, anomalyReport(models.AnomalyLevelWarning), nil)
	if err != nil {
		t.Fatalf("enqueue must swallow delivery failures: %v", err)
	}
	if !created {
		t.Fatal("alert should still be created")
	}

	deliveries := stores.Deliveries()
	if len(deliveries) != 1 {
		t.Fatalf("expected one delivery log entry, got %d", len(deliveries))
	}
	if deliveries[0].Ok || deliveries[0].Error == nil {
		t.Fatalf("delivery failure not recorded: %+v", deliveries[0])
	}
	if deliveries[0].Channel != "record" {
		t.Fatalf("channel = %q", deliveries[0].Channel)
	}
}

func TestEnqueueAlertInfoSkipsNotification(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores()
	sink := &recordSink{}
	enq := NewAnomalyEnqueuer(stores, sink, newTestLogger())

	created, err := enq.EnqueueAlert(ctx, "inventory_snapshot", "2026-08-30", models.SeverityInfo, "snapshot recorded", nil)
	if err != nil {
		t.Fatalf("enqueue alert: %v", err)
	}
	if !created {
		t.Fatal("info alert should insert a row")
	}
	if sink.count() != 0 {
		t.Fatal("info severity must not notify")
	}
	if len(stores.Deliveries()) != 0 {
		t.Fatal("info severity must not log a delivery")
	}
}
