package reports

import (
	"context"
	"time"

	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/abiru/kikaku-os-sub000/utils"
	"github.com/abiru/kikaku-os-sub000/workflow"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormMetricSource backs the anomaly rule engine with MySQL queries.
type GormMetricSource struct {
	DB *gorm.DB
}

var _ workflow.MetricSource = (*GormMetricSource)(nil)

func NewGormMetricSource(db *gorm.DB) *GormMetricSource {
	return &GormMetricSource{DB: db}
}

func dayBounds(date string) (time.Time, time.Time, error) {
	start, err := utils.ParseBusinessDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}

func (m *GormMetricSource) LowStockVariants(ctx context.Context) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := m.DB.WithContext(ctx).
		Where("reorder_point > 0").
		Where("stock_qty >= 0 AND stock_qty <= reorder_point").
		Order("id ASC").
		Find(&variants).Error
	return variants, err
}

func (m *GormMetricSource) NegativeStockVariants(ctx context.Context) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := m.DB.WithContext(ctx).
		Where("stock_qty < 0").
		Order("id ASC").
		Find(&variants).Error
	return variants, err
}

// PaymentStats looks at attempts created on the date: failed rows never get a
// paid_at, so created_at is the only window both outcomes share.
func (m *GormMetricSource) PaymentStats(ctx context.Context, date string) (workflow.PaymentDayStats, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return workflow.PaymentDayStats{}, err
	}
	var row struct {
		Succeeded   int64
		Failed      int64
		TotalAmount decimal.Decimal
	}
	err = m.DB.WithContext(ctx).Model(&models.Payment{}).
		Select(`COALESCE(SUM(status = ?), 0) AS succeeded,
			COALESCE(SUM(status = ?), 0) AS failed,
			COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0) AS total_amount`,
			models.PaymentStatusSucceeded, models.PaymentStatusFailed, models.PaymentStatusSucceeded).
		Where("created_at >= ? AND created_at < ?", start, end).
		Scan(&row).Error
	if err != nil {
		return workflow.PaymentDayStats{}, err
	}
	return workflow.PaymentDayStats{
		Succeeded:   row.Succeeded,
		Failed:      row.Failed,
		TotalAmount: row.TotalAmount,
	}, nil
}

func (m *GormMetricSource) RefundTotal(ctx context.Context, date string) (decimal.Decimal, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return decimal.Zero, err
	}
	var row struct {
		TotalAmount decimal.Decimal
	}
	err = m.DB.WithContext(ctx).Model(&models.Refund{}).
		Select("COALESCE(SUM(amount), 0) AS total_amount").
		Where("refunded_at >= ? AND refunded_at < ?", start, end).
		Scan(&row).Error
	return row.TotalAmount, err
}

func (m *GormMetricSource) WebhookFailureCount(ctx context.Context, date string) (int64, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return 0, err
	}
	var count int64
	err = m.DB.WithContext(ctx).Model(&models.WebhookEvent{}).
		Where("ok = ?", false).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error
	return count, err
}

func (m *GormMetricSource) AgedUnfulfilledCount(ctx context.Context, date string, olderThanHours int) (int64, error) {
	_, end, err := dayBounds(date)
	if err != nil {
		return 0, err
	}
	cutoff := end.Add(-time.Duration(olderThanHours) * time.Hour)
	var count int64
	err = m.DB.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", models.OrderStatusPaid).
		Where("fulfillment_status = ?", models.FulfillmentUnfulfilled).
		Where("paid_at < ?", cutoff).
		Count(&count).Error
	return count, err
}

func (m *GormMetricSource) OrderStats(ctx context.Context, date string) (workflow.OrderDayStats, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return workflow.OrderDayStats{}, err
	}
	return m.orderStatsBetween(ctx, start, end, 1)
}

func (m *GormMetricSource) RollingOrderStats(ctx context.Context, date string, days int) (workflow.OrderDayStats, error) {
	start, _, err := dayBounds(date)
	if err != nil {
		return workflow.OrderDayStats{}, err
	}
	return m.orderStatsBetween(ctx, start.AddDate(0, 0, -days), start, days)
}

// orderStatsBetween averages paid-order volume over the window; Count comes
// back as per-day volume so a single day and a rolling window compare directly.
func (m *GormMetricSource) orderStatsBetween(ctx context.Context, start, end time.Time, days int) (workflow.OrderDayStats, error) {
	var row struct {
		Count      int64
		GrossTotal decimal.Decimal
	}
	err := m.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_net + tax_amount), 0) AS gross_total").
		Where("status IN ?", []models.OrderStatus{models.OrderStatusPaid, models.OrderStatusRefunded}).
		Where("paid_at >= ? AND paid_at < ?", start, end).
		Scan(&row).Error
	if err != nil {
		return workflow.OrderDayStats{}, err
	}

	stats := workflow.OrderDayStats{
		Count:        decimal.NewFromInt(row.Count).Div(decimal.NewFromInt(int64(days))),
		AverageValue: decimal.Zero,
	}
	if row.Count > 0 {
		stats.AverageValue = row.GrossTotal.Div(decimal.NewFromInt(row.Count))
	}
	return stats, nil
}
