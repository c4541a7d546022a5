package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/abiru/kikaku-os-sub000/utils"
	"gorm.io/gorm"
)

// Collector snapshots the raw payment and refund rows backing one date's
// report. The snapshot is published next to the report so a diverging total
// can be traced to individual provider rows without querying production.
type Collector struct {
	DB *gorm.DB
}

func NewCollector(db *gorm.DB) *Collector {
	return &Collector{DB: db}
}

func (c *Collector) Collect(ctx context.Context, date string) (*models.DailyEvidence, error) {
	start, err := utils.ParseBusinessDate(date)
	if err != nil {
		return nil, err
	}
	end := start.AddDate(0, 0, 1)

	var payments []models.Payment
	err = c.DB.WithContext(ctx).
		Where("paid_at >= ? AND paid_at < ?", start, end).
		Order("id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("collect payments for %s: %w", date, err)
	}

	var refunds []models.Refund
	err = c.DB.WithContext(ctx).
		Where("refunded_at >= ? AND refunded_at < ?", start, end).
		Order("id ASC").
		Find(&refunds).Error
	if err != nil {
		return nil, fmt.Errorf("collect refunds for %s: %w", date, err)
	}

	evidence := &models.DailyEvidence{
		Date:     date,
		Payments: make([]models.EvidencePayment, 0, len(payments)),
		Refunds:  make([]models.EvidenceRefund, 0, len(refunds)),
	}
	for _, p := range payments {
		evidence.Payments = append(evidence.Payments, models.EvidencePayment{
			ID:       p.ID,
			Provider: p.Provider,
			Amount:   p.Amount,
			Fee:      p.Fee,
			Status:   p.Status,
			PaidAt:   formatStamp(p.PaidAt),
		})
	}
	for _, r := range refunds {
		evidence.Refunds = append(evidence.Refunds, models.EvidenceRefund{
			ID:         r.ID,
			Amount:     r.Amount,
			RefundedAt: formatStamp(r.RefundedAt),
		})
	}
	return evidence, nil
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
