package models

import "time"

type Quote struct {
	ID        int         `gorm:"primary_key" json:"id"`
	Status    QuoteStatus `gorm:"size:20;not null;index" json:"status"`
	ExpiresAt time.Time   `gorm:"index" json:"expires_at"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}
