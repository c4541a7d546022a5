package reports

import (
	"context"
	"fmt"

	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/abiru/kikaku-os-sub000/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reconciliation tolerances for the anomaly verdict. Diff is payment captures
// minus gross order totals for the day; an absolute diff inside the ok band is
// rounding noise, inside one percent of captures is a warning, above that is
// critical.
var (
	reconcileOkBand   = decimal.NewFromInt(1)
	reconcileWarnRate = decimal.NewFromFloat(0.01)
)

// Aggregator builds the DailyReport straight from the source tables. Orders
// count when they were paid on the date, payments when captured, refunds when
// refunded; rows without the relevant timestamp never appear in any day.
type Aggregator struct {
	DB *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{DB: db}
}

func (a *Aggregator) Generate(ctx context.Context, date string) (*models.DailyReport, error) {
	start, err := utils.ParseBusinessDate(date)
	if err != nil {
		return nil, err
	}
	end := start.AddDate(0, 0, 1)

	var orders struct {
		Count    int
		TotalNet decimal.Decimal
		TotalFee decimal.Decimal
		TotalTax decimal.Decimal
	}
	err = a.DB.WithContext(ctx).Model(&models.Order{}).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(total_net), 0) AS total_net,
			COALESCE(SUM(total_fee), 0) AS total_fee,
			COALESCE(SUM(tax_amount), 0) AS total_tax`).
		Where("status IN ?", []models.OrderStatus{models.OrderStatusPaid, models.OrderStatusRefunded}).
		Where("paid_at >= ? AND paid_at < ?", start, end).
		Scan(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate orders for %s: %w", date, err)
	}

	var payments struct {
		Count       int
		TotalAmount decimal.Decimal
		TotalFee    decimal.Decimal
	}
	err = a.DB.WithContext(ctx).Model(&models.Payment{}).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(amount), 0) AS total_amount,
			COALESCE(SUM(fee), 0) AS total_fee`).
		Where("status = ?", models.PaymentStatusSucceeded).
		Where("paid_at >= ? AND paid_at < ?", start, end).
		Scan(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate payments for %s: %w", date, err)
	}

	var refunds struct {
		Count       int
		TotalAmount decimal.Decimal
	}
	err = a.DB.WithContext(ctx).Model(&models.Refund{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount").
		Where("refunded_at >= ? AND refunded_at < ?", start, end).
		Scan(&refunds).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate refunds for %s: %w", date, err)
	}

	report := &models.DailyReport{
		Date: date,
		Orders: models.ReportOrderTotals{
			Count:    orders.Count,
			TotalNet: orders.TotalNet,
			TotalFee: orders.TotalFee,
			TotalTax: orders.TotalTax,
		},
		Payments: models.ReportPaymentTotals{
			Count:       payments.Count,
			TotalAmount: payments.TotalAmount,
			TotalFee:    payments.TotalFee,
		},
		Refunds: models.ReportRefundTotals{
			Count:       refunds.Count,
			TotalAmount: refunds.TotalAmount,
		},
	}
	report.Anomalies = Reconcile(report)
	return report, nil
}

// Reconcile compares payment captures against gross order totals (net plus
// tax) and grades the difference.
func Reconcile(report *models.DailyReport) models.ReportAnomalyBlock {
	expected := report.Orders.TotalNet.Add(report.Orders.TotalTax)
	diff := report.Payments.TotalAmount.Sub(expected)
	abs := diff.Abs()

	switch {
	case abs.LessThanOrEqual(reconcileOkBand):
		return models.ReportAnomalyBlock{
			Level: models.AnomalyLevelOk,
			Diff:  diff,
		}
	case abs.LessThanOrEqual(report.Payments.TotalAmount.Mul(reconcileWarnRate)):
		return models.ReportAnomalyBlock{
			Level:   models.AnomalyLevelWarning,
			Diff:    diff,
			Message: fmt.Sprintf("payments diverge from order totals by %s on %s", diff, report.Date),
		}
	default:
		return models.ReportAnomalyBlock{
			Level:   models.AnomalyLevelCritical,
			Diff:    diff,
			Message: fmt.Sprintf("payments diverge from order totals by %s on %s", diff, report.Date),
		}
	}
}
