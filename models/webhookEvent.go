package models

import "time"

type WebhookEvent struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Source    string    `gorm:"size:30;not null;default:'stripe'" json:"source"`
	EventType string    `gorm:"size:100" json:"event_type"`
	Ok        bool      `gorm:"not null;index" json:"ok"`
	Error     *string   `gorm:"type:text" json:"error"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
