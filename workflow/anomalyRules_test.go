package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/shopspring/decimal"
)

type stubMetrics struct {
	lowStock    []models.ProductVariant
	lowStockErr error
	negStock    []models.ProductVariant

	payments PaymentDayStats
	refunds  decimal.Decimal
	webhooks int64
	aged     int64
	today    OrderDayStats
	rolling  OrderDayStats
}

func (s *stubMetrics) LowStockVariants(ctx context.Context) ([]models.ProductVariant, error) {
	return s.lowStock, s.lowStockErr
}

func (s *stubMetrics) NegativeStockVariants(ctx context.Context) ([]models.ProductVariant, error) {
	return s.negStock, nil
}

func (s *stubMetrics) PaymentStats(ctx context.Context, date string) (PaymentDayStats, error) {
	return s.payments, nil
}

func (s *stubMetrics) RefundTotal(ctx context.Context, date string) (decimal.Decimal, error) {
	return s.refunds, nil
}

func (s *stubMetrics) WebhookFailureCount(ctx context.Context, date string) (int64, error) {
	return s.webhooks, nil
}

func (s *stubMetrics) AgedUnfulfilledCount(ctx context.Context, date string, olderThanHours int) (int64, error) {
	return s.aged, nil
}

func (s *stubMetrics) OrderStats(ctx context.Context, date string) (OrderDayStats, error) {
	return s.today, nil
}

func (s *stubMetrics) RollingOrderStats(ctx context.Context, date string, days int) (OrderDayStats, error) {
	return s.rolling, nil
}

func newRuleHarness(metrics *stubMetrics) (*RuleEngine, *MemoryStores) {
	stores := NewMemoryStores()
	logger := newTestLogger()
	enq := NewAnomalyEnqueuer(stores, &recordSink{}, logger)
	return NewRuleEngine(metrics, enq, logger), stores
}

func alertByKind(t *testing.T, alerts []models.AnomalyAlert, kind string) models.AnomalyAlert {
	t.Helper()
	for _, a := range alerts {
		if a.Kind == kind {
			return a
		}
	}
	t.Fatalf("no alert with kind %q in %+v", kind, alerts)
	return models.AnomalyAlert{}
}

func TestLowStockPerVariantTiers(t *testing.T) {
	metrics := &stubMetrics{
		lowStock: []models.ProductVariant{
			{ID: 7, Sku: "MUG-BLUE", StockQty: decimal.NewFromInt(9), ReorderPoint: decimal.NewFromInt(10)},
			{ID: 8, Sku: "MUG-RED", StockQty: decimal.NewFromInt(4), ReorderPoint: decimal.NewFromInt(10)},
		},
	}
	engine, stores := newRuleHarness(metrics)

	created := engine.RunAll(context.Background(), "2026-08-30")
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	alerts, _ := stores.ListAlerts(context.Background(), "2026-08-30")
	if got := alertByKind(t, alerts, "low_stock_7"); got.Severity != models.SeverityWarning {
		t.Errorf("low_stock_7 severity = %s, want warning", got.Severity)
	}
	if got := alertByKind(t, alerts, "low_stock_8"); got.Severity != models.SeverityCritical {
		t.Errorf("low_stock_8 severity = %s, want critical", got.Severity)
	}
}

func TestNegativeStockIsCritical(t *testing.T) {
	metrics := &stubMetrics{
		negStock: []models.ProductVariant{
			{ID: 3, Sku: "SHIRT-S", StockQty: decimal.NewFromInt(-2)},
		},
	}
	engine, stores := newRuleHarness(metrics)

	engine.RunAll(context.Background(), "2026-08-30")

	alerts, _ := stores.ListAlerts(context.Background(), "2026-08-30")
	if got := alertByKind(t, alerts, "negative_stock_3"); got.Severity != models.SeverityCritical {
		t.Errorf("severity = %s, want critical", got.Severity)
	}
}

func TestDetectorFailureDoesNotBlockOthers(t *testing.T) {
	metrics := &stubMetrics{
		lowStockErr: errors.New("stock table unavailable"),
		negStock: []models.ProductVariant{
			{ID: 1, Sku: "SHIRT-M", StockQty: decimal.NewFromInt(-1)},
		},
	}
	engine, stores := newRuleHarness(metrics)

	created := engine.RunAll(context.Background(), "2026-08-30")
	if created != 1 {
		t.Fatalf("created = %d, want the surviving detector's alert", created)
	}
	alerts, _ := stores.ListAlerts(context.Background(), "2026-08-30")
	alertByKind(t, alerts, "negative_stock_1")
}

func TestRefundRateTiers(t *testing.T) {
	cases := []struct {
		name     string
		refunds  int64
		severity models.AnomalySeverity
	}{
		{"warning past five percent", 600, models.SeverityWarning},
		{"critical past ten percent", 1200, models.SeverityCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := &stubMetrics{
				payments: PaymentDayStats{TotalAmount: decimal.NewFromInt(10000)},
				refunds:  decimal.NewFromInt(tc.refunds),
			}
			engine, stores := newRuleHarness(metrics)
			engine.RunAll(context.Background(), "2026-08-30")

			alerts, _ := stores.ListAlerts(context.Background(), "2026-08-30")
			got := alertByKind(t, alerts, models.AlertKindRefundRateSpike)
			if got.Severity != tc.severity {
				t.Errorf("severity = %s, want %s", got.Severity, tc.severity)
			}
		})
	}
}

func TestRefundRateBelowThresholdIsQuiet(t *testing.T) {
	metrics := &stubMetrics{
		payments: PaymentDayStats{TotalAmount: decimal.NewFromInt(10000)},
		refunds:  decimal.NewFromInt(300),
	}
	engine, stores := newRuleHarness(metrics)

	if created := engine.RunAll(context.Background(), "2026-08-30"); created != 0 {
		t.Fatalf("created = %d, want 0", created)
	}
	alerts, _ := stores.ListAlerts(context.Background(), "2026-08-30")
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", alerts)
	}
}

func TestPaymentFailureRateNeedsMinimumAttempts(t *testing.T) {
	metrics := &stubMetrics{
		payments: PaymentDayStats{Succeeded: 2, Failed: 2, TotalAmount: decimal.NewFromInt(200)},
	}
	engine, stores := newRuleHarness(metrics)
	engine.RunAll(context.Background(), "2026-08-30")

	alerts, _ := stores.ListAlerts(context.Background(), "2026-08-30")
	for _, a := range alerts {
		if a.Kind == models.AlertKindPaymentFailureRate {
			t.Fatalf("rule fired below the attempt floor: %+v", a)
		}
	}
}

func TestPaymentFailureRateCritical(t *testing.T) {
	metrics := &stubMetrics{
		payments: PaymentDayStats{Succeeded: 15, Failed: 5, TotalAmount: decimal.NewFromInt(1500)},
	}
	engine, stores := newRuleHarness(metrics)
	engine.RunAll(context.Background(), "2026-08-30")

	alerts, _ := stores.ListAlerts(context.Background(), "2026-08-30")
	got := alertByKind(t, alerts, models.AlertKindPaymentFailureRate)
	if got.Severity != models.SeverityCritical {
		t.Errorf("severity = %s, want critical", got.Severity)
	}
}

func TestOrderVolumeSpikeAgainstRollingAverage(t *testing.T) {
	metrics := &stubMetrics{
		today:   OrderDayStats{Count: decimal.NewFromInt(30)},
		rolling: OrderDayStats{Count: decimal.NewFromInt(10)},
	}
	engine, stores := newRuleHarness(metrics)
	engine.RunAll(context.Background(), "2026-08-30")

	alerts, _ := stores.ListAlerts(context.Background(), "2026-08-30")
	got := alertByKind(t, alerts, models.AlertKindOrderVolumeSpike)
	if got.Severity != models.SeverityCritical {
		t.Errorf("severity = %s, want critical at 3x", got.Severity)
	}
}

func TestAOVDeviationWarning(t *testing.T) {
	metrics := &stubMetrics{
		today:   OrderDayStats{Count: decimal.NewFromInt(20), AverageValue: decimal.NewFromInt(160)},
		rolling: OrderDayStats{Count: decimal.NewFromInt(18), AverageValue: decimal.NewFromInt(100)},
	}
	engine, stores := newRuleHarness(metrics)
	engine.RunAll(context.Background(), "2026-08-30")

	alerts, _ := stores.ListAlerts(context.Background(), "2026-08-30")
	got := alertByKind(t, alerts, models.AlertKindAOVDeviation)
	if got.Severity != models.SeverityWarning {
		t.Errorf("severity = %s, want warning at 60%% deviation", got.Severity)
	}
}

func TestWebhookFailureSpike(t *testing.T) {
	metrics := &stubMetrics{webhooks: 25}
	engine, stores := newRuleHarness(metrics)
	engine.RunAll(context.Background(), "2026-08-30")

	alerts, _ := stores.ListAlerts(context.Background(), "2026-08-30")
	got := alertByKind(t, alerts, models.AlertKindWebhookFailureSpike)
	if got.Severity != models.SeverityCritical {
		t.Errorf("severity = %s, want critical at 25 failures", got.Severity)
	}
}

func TestAgedUnfulfilledWarning(t *testing.T) {
	metrics := &stubMetrics{aged: 7}
	engine, stores := newRuleHarness(metrics)
	engine.RunAll(context.Background(), "2026-08-30")

	alerts, _ := stores.ListAlerts(context.Background(), "2026-08-30")
	got := alertByKind(t, alerts, models.AlertKindAgedUnfulfilled)
	if got.Severity != models.SeverityWarning {
		t.Errorf("severity = %s, want warning", got.Severity)
	}
}
