package workflow

import (
	"context"
	"fmt"

	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// JournalizeResult reports what one journalize call did.
type JournalizeResult struct {
	EntriesCreated int  `json:"entries_created"`
	Skipped        bool `json:"skipped"`
}

// LedgerJournal converts a daily report into balanced debit/credit legs,
// idempotently: an existing posting for the date is left untouched unless the
// caller forces a wholesale replace.
type LedgerJournal struct {
	store  LedgerStore
	logger *logrus.Logger
}

func NewLedgerJournal(store LedgerStore, logger *logrus.Logger) *LedgerJournal {
	return &LedgerJournal{store: store, logger: logger}
}

// Journalize posts the report's legs for the date.
//
// If any legs already exist for the date and force is false, the call is a
// no-op returning Skipped=true. With force, existing legs are deleted and the
// posting is rebuilt wholesale; legs are never partially patched.
//
// The existence check and the inserts are not one atomic step: two concurrent
// calls for the same date can both pass the check. That window is accepted;
// closing it (unique constraint at the batch level, or a per-date advisory
// lock) is a known open question, not an oversight to quietly fix here.
func (j *LedgerJournal) Journalize(ctx context.Context, date string, report *models.DailyReport, force bool) (JournalizeResult, error) {
	existing, err := j.store.CountLegs(ctx, models.LedgerRefTypeDailyClose, date)
	if err != nil {
		return JournalizeResult{}, err
	}
	if existing > 0 {
		if !force {
			return JournalizeResult{EntriesCreated: 0, Skipped: true}, nil
		}
		if err := j.store.DeleteLegs(ctx, models.LedgerRefTypeDailyClose, date); err != nil {
			return JournalizeResult{}, err
		}
		j.logger.WithFields(logrus.Fields{
			"module": "ledgerJournal",
			"date":   date,
			"legs":   existing,
		}).Warn("forced replay: deleted existing daily-close legs")
	}

	legs := BuildCloseLegs(date, report)
	created := 0
	for i := range legs {
		inserted, err := j.store.InsertLegIgnore(ctx, &legs[i])
		if err != nil {
			return JournalizeResult{}, fmt.Errorf("insert leg %s: %w", legs[i].AccountID, err)
		}
		if inserted {
			created++
		}
	}
	return JournalizeResult{EntriesCreated: created, Skipped: false}, nil
}

// ListEntries is a pure read projection of the date's legs.
func (j *LedgerJournal) ListEntries(ctx context.Context, date string) ([]models.LedgerEntry, error) {
	return j.store.ListLegs(ctx, models.LedgerRefTypeDailyClose, date)
}

// BuildCloseLegs derives the balanced posting for one date:
//
//	net        = payments.totalAmount - payments.totalFee
//	taxTotal   = orders.totalTax (tax collected over paid orders)
//	salesExTax = net - taxTotal
//
// Every branch contributes one debit and one matching credit, so for any
// report the inserted legs satisfy sum(debit) == sum(credit). A day with no
// activity yields zero legs, which is not an error.
func BuildCloseLegs(date string, report *models.DailyReport) []models.LedgerEntry {
	net := report.Payments.TotalAmount.Sub(report.Payments.TotalFee)
	taxTotal := report.Orders.TotalTax
	salesExTax := net.Sub(taxTotal)
	orderFee := report.Orders.TotalFee
	refundTotal := report.Refunds.TotalAmount

	leg := func(account string, debit, credit decimal.Decimal, memo string) models.LedgerEntry {
		return models.LedgerEntry{
			RefType:   models.LedgerRefTypeDailyClose,
			RefID:     date,
			AccountID: account,
			Debit:     debit,
			Credit:    credit,
			Memo:      memo,
		}
	}

	zero := decimal.Zero
	var legs []models.LedgerEntry

	if !net.IsZero() {
		legs = append(legs, leg(models.AccountBank, net, zero, "daily close "+date+" net receipts"))
	}
	if !salesExTax.IsZero() {
		legs = append(legs, leg(models.AccountSales, zero, salesExTax, "daily close "+date+" sales ex tax"))
	}
	if taxTotal.IsPositive() {
		legs = append(legs, leg(models.AccountTaxPayable, zero, taxTotal, "daily close "+date+" tax payable"))
	}
	if orderFee.IsPositive() {
		legs = append(legs,
			leg(models.AccountFees, orderFee, zero, "daily close "+date+" order fees"),
			leg(models.AccountSales, zero, orderFee, "daily close "+date+" order fee income"),
		)
	}
	if refundTotal.IsPositive() {
		legs = append(legs,
			leg(models.AccountRefunds, refundTotal, zero, "daily close "+date+" refunds"),
			leg(models.AccountBank, zero, refundTotal, "daily close "+date+" refund payouts"),
		)
	}
	return legs
}
