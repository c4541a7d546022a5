package models

import "github.com/shopspring/decimal"

// DailyReport is the immutable aggregate for one business date. It is produced
// by the report aggregator and consumed by journalizing and alerting; it is
// never stored as a table, only published as an artifact.
type DailyReport struct {
	Date      string              `json:"date"`
	Orders    ReportOrderTotals   `json:"orders"`
	Payments  ReportPaymentTotals `json:"payments"`
	Refunds   ReportRefundTotals  `json:"refunds"`
	Anomalies ReportAnomalyBlock  `json:"anomalies"`
}

type ReportOrderTotals struct {
	Count    int             `json:"count"`
	TotalNet decimal.Decimal `json:"total_net"`
	TotalFee decimal.Decimal `json:"total_fee"`
	TotalTax decimal.Decimal `json:"total_tax"`
}

type ReportPaymentTotals struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalFee    decimal.Decimal `json:"total_fee"`
}

type ReportRefundTotals struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// ReportAnomalyBlock is the reconciliation verdict for the date: level ok means
// payment captures and order totals agree within tolerance.
type ReportAnomalyBlock struct {
	Level   AnomalyLevel    `json:"level"`
	Diff    decimal.Decimal `json:"diff"`
	Message string          `json:"message"`
}

// DailyEvidence is the raw payment/refund snapshot published next to the report.
type DailyEvidence struct {
	Date     string            `json:"date"`
	Payments []EvidencePayment `json:"payments"`
	Refunds  []EvidenceRefund  `json:"refunds"`
}

type EvidencePayment struct {
	ID       int             `json:"id"`
	Provider string          `json:"provider"`
	Amount   decimal.Decimal `json:"amount"`
	Fee      decimal.Decimal `json:"fee"`
	Status   PaymentStatus   `json:"status"`
	PaidAt   string          `json:"paid_at"`
}

type EvidenceRefund struct {
	ID         int             `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	RefundedAt string          `json:"refunded_at"`
}
