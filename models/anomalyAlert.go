package models

import "time"

// AnomalyAlert is one deduplicated alert row.
//
// The unique index on (kind, close_date) is the only true exclusivity guarantee
// in this system: a duplicate-key error on insert means "already alerted today"
// and is handled as control flow, never surfaced as an error.
type AnomalyAlert struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Kind      string          `gorm:"size:100;not null;uniqueIndex:uniq_alert_kind_date,priority:1" json:"kind"`
	CloseDate string          `gorm:"size:10;not null;uniqueIndex:uniq_alert_kind_date,priority:2;index" json:"close_date"`
	Severity  AnomalySeverity `gorm:"size:20;not null" json:"severity"`

	// Body is a JSON snapshot of whatever the detector saw at alert time.
	Body []byte `gorm:"type:json" json:"body"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NotificationLog records the outcome of each best-effort alert delivery.
// A failed delivery is logged here and never fails the enclosing alert creation.
type NotificationLog struct {
	ID        int       `gorm:"primary_key" json:"id"`
	AlertKind string    `gorm:"size:100;not null;index" json:"alert_kind"`
	CloseDate string    `gorm:"size:10;not null;index" json:"close_date"`
	Channel   string    `gorm:"size:30;not null" json:"channel"`
	Ok        bool      `gorm:"not null" json:"ok"`
	Error     *string   `gorm:"type:text" json:"error"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
