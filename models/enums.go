package models

// RunStatus is the lifecycle state of one daily-close attempt.
// running -> success | failed; both end states are terminal. A forced retry
// creates a new row instead of reopening a terminal one.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// AnomalySeverity is the alert tier recorded on anomaly_alerts rows.
type AnomalySeverity string

const (
	SeverityInfo     AnomalySeverity = "info"
	SeverityWarning  AnomalySeverity = "warning"
	SeverityCritical AnomalySeverity = "critical"
)

// AnomalyLevel is the reconciliation level computed on a DailyReport.
type AnomalyLevel string

const (
	AnomalyLevelOk       AnomalyLevel = "ok"
	AnomalyLevelWarning  AnomalyLevel = "warning"
	AnomalyLevelCritical AnomalyLevel = "critical"
)

// Ledger reference types. Daily-close legs are keyed ref_type=daily_close,
// ref_id=<YYYY-MM-DD>.
const (
	LedgerRefTypeDailyClose = "daily_close"
)

// Posting accounts used by the daily-close journalizer.
const (
	AccountBank       = "acct_bank"
	AccountSales      = "acct_sales"
	AccountTaxPayable = "acct_tax_payable"
	AccountFees       = "acct_fees"
	AccountRefunds    = "acct_refunds"
)

// Alert kinds. Rule kinds parameterized per entity append the entity id,
// e.g. low_stock_<variantId>.
const (
	AlertKindDailyCloseAnomaly  = "daily_close_anomaly"
	AlertKindLowStockPrefix     = "low_stock_"
	AlertKindNegativeStockPrefix = "negative_stock_"
	AlertKindRefundRateSpike    = "refund_rate_spike"
	AlertKindWebhookFailureSpike = "webhook_failure_spike"
	AlertKindAgedUnfulfilled    = "aged_unfulfilled_orders"
	AlertKindOrderVolumeSpike   = "order_volume_spike"
	AlertKindPaymentFailureRate = "payment_failure_rate"
	AlertKindAOVDeviation       = "aov_deviation"
)

// Order lifecycle statuses used by the aggregator and cleanup worker.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentFulfilled   FulfillmentStatus = "fulfilled"
)

type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusPending   PaymentStatus = "pending"
)

type QuoteStatus string

const (
	QuoteStatusOpen    QuoteStatus = "open"
	QuoteStatusExpired QuoteStatus = "expired"
)
