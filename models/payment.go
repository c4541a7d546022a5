package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID       int             `gorm:"primary_key" json:"id"`
	OrderId  int             `gorm:"index" json:"order_id"`
	Provider string          `gorm:"size:30;not null;default:'stripe'" json:"provider"`
	Amount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Fee      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"fee"`
	Status   PaymentStatus   `gorm:"size:20;not null;index" json:"status"`

	PaidAt    *time.Time `gorm:"index" json:"paid_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
