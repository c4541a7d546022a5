package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one debit or credit leg of a double-entry posting.
//
// Daily-close legs are keyed ref_type=daily_close, ref_id=<YYYY-MM-DD>.
// Invariant: for a fixed ref_id, sum(debit) == sum(credit).
//
// The unique index over the full row tuple backs insert-or-ignore posting:
// re-inserting an identical leg is silently skipped, so entriesCreated must be
// counted from rows actually inserted, not from the number of built legs.
type LedgerEntry struct {
	ID      int    `gorm:"primary_key" json:"id"`
	RefType string `gorm:"size:50;not null;uniqueIndex:uniq_ledger_leg,priority:1;index:idx_ledger_ref,priority:1" json:"ref_type"`
	RefID   string `gorm:"size:64;not null;uniqueIndex:uniq_ledger_leg,priority:2;index:idx_ledger_ref,priority:2" json:"ref_id"`

	AccountID string          `gorm:"size:64;not null;uniqueIndex:uniq_ledger_leg,priority:3" json:"account_id"`
	Debit     decimal.Decimal `gorm:"type:decimal(20,4);default:0;uniqueIndex:uniq_ledger_leg,priority:4" json:"debit"`
	Credit    decimal.Decimal `gorm:"type:decimal(20,4);default:0;uniqueIndex:uniq_ledger_leg,priority:5" json:"credit"`
	Memo      string          `gorm:"size:255;uniqueIndex:uniq_ledger_leg,priority:6" json:"memo"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
