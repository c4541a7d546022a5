package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/abiru/kikaku-os-sub000/config"
	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Detector thresholds. Warning fires past the base threshold, critical past
// the rule's critical multiple.
const (
	RefundRateWarn = 0.05
	RefundRateCrit = 0.10

	WebhookFailuresWarn = 10
	WebhookFailuresCrit = 20

	AgedUnfulfilledHours = 48
	AgedUnfulfilledWarn  = 5
	AgedUnfulfilledCrit  = 25

	OrderVolumeRatioWarn = 2.0
	OrderVolumeRatioCrit = 3.0
	OrderVolumeMinCount  = 10

	PaymentFailureRateWarn = 0.10
	PaymentFailureRateCrit = 0.25
	PaymentFailureMinTries = 10

	AOVDeviationWarn    = 0.50
	AOVDeviationCrit    = 0.80
	AOVDeviationMinOrds = 5

	rollingWindowDays = 7
)

// PaymentDayStats aggregates one date's payment attempts.
type PaymentDayStats struct {
	Succeeded   int64
	Failed      int64
	TotalAmount decimal.Decimal
}

// OrderDayStats aggregates paid-order volume for a date (or a rolling average).
type OrderDayStats struct {
	Count        decimal.Decimal
	AverageValue decimal.Decimal
}

// MetricSource provides the measurements the detectors compare against their
// thresholds. The production implementation queries MySQL; tests use a stub.
type MetricSource interface {
	LowStockVariants(ctx context.Context) ([]models.ProductVariant, error)
	NegativeStockVariants(ctx context.Context) ([]models.ProductVariant, error)
	PaymentStats(ctx context.Context, date string) (PaymentDayStats, error)
	RefundTotal(ctx context.Context, date string) (decimal.Decimal, error)
	WebhookFailureCount(ctx context.Context, date string) (int64, error)
	AgedUnfulfilledCount(ctx context.Context, date string, olderThanHours int) (int64, error)
	OrderStats(ctx context.Context, date string) (OrderDayStats, error)
	// RollingOrderStats averages the window of days ending the day before date.
	RollingOrderStats(ctx context.Context, date string, days int) (OrderDayStats, error)
}

type finding struct {
	kind     string
	severity models.AnomalySeverity
	message  string
	body     any
}

// RuleEngine runs the fixed set of independent threshold detectors and turns
// their findings into deduplicated alerts. Detectors fan out concurrently and
// are wrapped independently so one failing detector never blocks the rest.
type RuleEngine struct {
	metrics  MetricSource
	enqueuer *AnomalyEnqueuer
	logger   *logrus.Logger
}

func NewRuleEngine(metrics MetricSource, enqueuer *AnomalyEnqueuer, logger *logrus.Logger) *RuleEngine {
	return &RuleEngine{metrics: metrics, enqueuer: enqueuer, logger: logger}
}

// RunAll executes every detector for the date and returns how many alerts
// were newly created (dedup hits and detector failures are not counted).
func (e *RuleEngine) RunAll(ctx context.Context, date string) int {
	type namedRule struct {
		name   string
		detect func(ctx context.Context, date string) ([]finding, error)
	}
	rules := []namedRule{
		{"low_stock", e.detectLowStock},
		{"negative_stock", e.detectNegativeStock},
		{"refund_rate_spike", e.detectRefundRateSpike},
		{"webhook_failure_spike", e.detectWebhookFailureSpike},
		{"aged_unfulfilled_orders", e.detectAgedUnfulfilled},
		{"order_volume_spike", e.detectOrderVolumeSpike},
		{"payment_failure_rate", e.detectPaymentFailureRate},
		{"aov_deviation", e.detectAOVDeviation},
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for _, r := range rules {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			findings, err := r.detect(ctx, date)
			if err != nil {
				config.LogError(e.logger, "anomalyRules", r.name, "detector failed", date, err)
				return
			}
			for _, f := range findings {
				ok, err := e.enqueuer.EnqueueAlert(ctx, f.kind, date, f.severity, f.message, f.body)
				if err != nil {
					config.LogError(e.logger, "anomalyRules", r.name, "enqueue failed", f.kind, err)
					continue
				}
				if ok {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return created
}

func (e *RuleEngine) detectLowStock(ctx context.Context, date string) ([]finding, error) {
	variants, err := e.metrics.LowStockVariants(ctx)
	if err != nil {
		return nil, err
	}
	var out []finding
	for _, v := range variants {
		severity := models.SeverityWarning
		half := v.ReorderPoint.Div(decimal.NewFromInt(2))
		if v.StockQty.LessThanOrEqual(half) {
			severity = models.SeverityCritical
		}
		out = append(out, finding{
			kind:     fmt.Sprintf("%s%d", models.AlertKindLowStockPrefix, v.ID),
			severity: severity,
			message:  fmt.Sprintf("low stock: %s at %s (reorder point %s)", v.Sku, v.StockQty, v.ReorderPoint),
			body: map[string]any{
				"variant_id":    v.ID,
				"sku":           v.Sku,
				"stock_qty":     v.StockQty,
				"reorder_point": v.ReorderPoint,
			},
		})
	}
	return out, nil
}

func (e *RuleEngine) detectNegativeStock(ctx context.Context, date string) ([]finding, error) {
	variants, err := e.metrics.NegativeStockVariants(ctx)
	if err != nil {
		return nil, err
	}
	var out []finding
	for _, v := range variants {
		out = append(out, finding{
			kind:     fmt.Sprintf("%s%d", models.AlertKindNegativeStockPrefix, v.ID),
			severity: models.SeverityCritical,
			message:  fmt.Sprintf("negative stock: %s at %s", v.Sku, v.StockQty),
			body: map[string]any{
				"variant_id": v.ID,
				"sku":        v.Sku,
				"stock_qty":  v.StockQty,
			},
		})
	}
	return out, nil
}

func (e *RuleEngine) detectRefundRateSpike(ctx context.Context, date string) ([]finding, error) {
	refunds, err := e.metrics.RefundTotal(ctx, date)
	if err != nil {
		return nil, err
	}
	payments, err := e.metrics.PaymentStats(ctx, date)
	if err != nil {
		return nil, err
	}
	if !payments.TotalAmount.IsPositive() {
		return nil, nil
	}
	rate, _ := refunds.Div(payments.TotalAmount).Float64()
	if rate < RefundRateWarn {
		return nil, nil
	}
	severity := models.SeverityWarning
	if rate >= RefundRateCrit {
		severity = models.SeverityCritical
	}
	return []finding{{
		kind:     models.AlertKindRefundRateSpike,
		severity: severity,
		message:  fmt.Sprintf("refund rate %.1f%% of payment volume on %s", rate*100, date),
		body: map[string]any{
			"refund_total":  refunds,
			"payment_total": payments.TotalAmount,
			"rate":          rate,
		},
	}}, nil
}

func (e *RuleEngine) detectWebhookFailureSpike(ctx context.Context, date string) ([]finding, error) {
	failures, err := e.metrics.WebhookFailureCount(ctx, date)
	if err != nil {
		return nil, err
	}
	if failures < WebhookFailuresWarn {
		return nil, nil
	}
	severity := models.SeverityWarning
	if failures >= WebhookFailuresCrit {
		severity = models.SeverityCritical
	}
	return []finding{{
		kind:     models.AlertKindWebhookFailureSpike,
		severity: severity,
		message:  fmt.Sprintf("%d webhook failures on %s", failures, date),
		body:     map[string]any{"failures": failures},
	}}, nil
}

func (e *RuleEngine) detectAgedUnfulfilled(ctx context.Context, date string) ([]finding, error) {
	count, err := e.metrics.AgedUnfulfilledCount(ctx, date, AgedUnfulfilledHours)
	if err != nil {
		return nil, err
	}
	if count < AgedUnfulfilledWarn {
		return nil, nil
	}
	severity := models.SeverityWarning
	if count >= AgedUnfulfilledCrit {
		severity = models.SeverityCritical
	}
	return []finding{{
		kind:     models.AlertKindAgedUnfulfilled,
		severity: severity,
		message:  fmt.Sprintf("%d paid orders unfulfilled for over %dh", count, AgedUnfulfilledHours),
		body:     map[string]any{"count": count, "older_than_hours": AgedUnfulfilledHours},
	}}, nil
}

func (e *RuleEngine) detectOrderVolumeSpike(ctx context.Context, date string) ([]finding, error) {
	today, err := e.metrics.OrderStats(ctx, date)
	if err != nil {
		return nil, err
	}
	rolling, err := e.metrics.RollingOrderStats(ctx, date, rollingWindowDays)
	if err != nil {
		return nil, err
	}
	count, _ := today.Count.Float64()
	avg, _ := rolling.Count.Float64()
	if avg <= 0 || count < OrderVolumeMinCount {
		return nil, nil
	}
	ratio := count / avg
	if ratio < OrderVolumeRatioWarn {
		return nil, nil
	}
	severity := models.SeverityWarning
	if ratio >= OrderVolumeRatioCrit {
		severity = models.SeverityCritical
	}
	return []finding{{
		kind:     models.AlertKindOrderVolumeSpike,
		severity: severity,
		message:  fmt.Sprintf("order volume %.0f is %.1fx the %d-day average on %s", count, ratio, rollingWindowDays, date),
		body:     map[string]any{"count": count, "rolling_average": avg, "ratio": ratio},
	}}, nil
}

func (e *RuleEngine) detectPaymentFailureRate(ctx context.Context, date string) ([]finding, error) {
	stats, err := e.metrics.PaymentStats(ctx, date)
	if err != nil {
		return nil, err
	}
	attempts := stats.Succeeded + stats.Failed
	if attempts < PaymentFailureMinTries {
		return nil, nil
	}
	rate := float64(stats.Failed) / float64(attempts)
	if rate < PaymentFailureRateWarn {
		return nil, nil
	}
	severity := models.SeverityWarning
	if rate >= PaymentFailureRateCrit {
		severity = models.SeverityCritical
	}
	return []finding{{
		kind:     models.AlertKindPaymentFailureRate,
		severity: severity,
		message:  fmt.Sprintf("payment failure rate %.1f%% (%d/%d) on %s", rate*100, stats.Failed, attempts, date),
		body:     map[string]any{"failed": stats.Failed, "attempts": attempts, "rate": rate},
	}}, nil
}

func (e *RuleEngine) detectAOVDeviation(ctx context.Context, date string) ([]finding, error) {
	today, err := e.metrics.OrderStats(ctx, date)
	if err != nil {
		return nil, err
	}
	rolling, err := e.metrics.RollingOrderStats(ctx, date, rollingWindowDays)
	if err != nil {
		return nil, err
	}
	minOrders := decimal.NewFromInt(AOVDeviationMinOrds)
	if today.Count.LessThan(minOrders) || !rolling.AverageValue.IsPositive() {
		return nil, nil
	}
	deviation, _ := today.AverageValue.Sub(rolling.AverageValue).Abs().
		Div(rolling.AverageValue).Float64()
	if deviation < AOVDeviationWarn {
		return nil, nil
	}
	severity := models.SeverityWarning
	if deviation >= AOVDeviationCrit {
		severity = models.SeverityCritical
	}
	return []finding{{
		kind:     models.AlertKindAOVDeviation,
		severity: severity,
		message:  fmt.Sprintf("average order value %s deviates %.0f%% from the %d-day average %s", today.AverageValue, deviation*100, rollingWindowDays, rolling.AverageValue),
		body: map[string]any{
			"aov":             today.AverageValue,
			"rolling_average": rolling.AverageValue,
			"deviation":       deviation,
		},
	}}, nil
}
