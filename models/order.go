package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID                int               `gorm:"primary_key" json:"id"`
	OrderNumber       string            `gorm:"size:64;not null;uniqueIndex" json:"order_number"`
	Status            OrderStatus       `gorm:"size:20;not null;index" json:"status"`
	FulfillmentStatus FulfillmentStatus `gorm:"size:20;not null;default:'unfulfilled'" json:"fulfillment_status"`

	TotalNet  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_net"`
	TotalFee  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_fee"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`

	PaidAt    *time.Time `gorm:"index" json:"paid_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
