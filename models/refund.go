package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Refund struct {
	ID        int             `gorm:"primary_key" json:"id"`
	OrderId   int             `gorm:"index" json:"order_id"`
	PaymentId int             `gorm:"index" json:"payment_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Status    string          `gorm:"size:20;not null;default:'succeeded'" json:"status"`

	RefundedAt *time.Time `gorm:"index" json:"refunded_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
