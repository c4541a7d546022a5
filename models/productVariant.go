package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductVariant struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Sku          string          `gorm:"size:64;not null;uniqueIndex" json:"sku"`
	Name         string          `gorm:"size:255" json:"name"`
	StockQty     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock_qty"`
	ReorderPoint decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reorder_point"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
