package workflow

import (
	"context"
	"io"
	"testing"

	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func testReport(t *testing.T, date, payAmount, payFee, orderTax, orderFee, refunds string) *models.DailyReport {
	t.Helper()
	return &models.DailyReport{
		Date: date,
		Orders: models.ReportOrderTotals{
			TotalTax: dec(t, orderTax),
			TotalFee: dec(t, orderFee),
		},
		Payments: models.ReportPaymentTotals{
			TotalAmount: dec(t, payAmount),
			TotalFee:    dec(t, payFee),
		},
		Refunds: models.ReportRefundTotals{
			TotalAmount: dec(t, refunds),
		},
	}
}

func TestBuildCloseLegsNetReceipts(t *testing.T) {
	report := testReport(t, "2026-08-30", "25000", "750", "0", "0", "0")

	legs := BuildCloseLegs("2026-08-30", report)
	if len(legs) != 2 {
		t.Fatalf("expected 2 legs, got %d: %+v", len(legs), legs)
	}

	want := dec(t, "24250")
	if legs[0].AccountID != models.AccountBank || !legs[0].Debit.Equal(want) || !legs[0].Credit.IsZero() {
		t.Errorf("bank leg wrong: %+v", legs[0])
	}
	if legs[1].AccountID != models.AccountSales || !legs[1].Credit.Equal(want) || !legs[1].Debit.IsZero() {
		t.Errorf("sales leg wrong: %+v", legs[1])
	}
}

func TestBuildCloseLegsBalanced(t *testing.T) {
	cases := []struct {
		name                                        string
		payAmount, payFee, orderTax, orderFee, refs string
	}{
		{"net only", "25000", "750", "0", "0", "0"},
		{"with tax", "11000", "0", "1000", "0", "0"},
		{"with order fees", "5000", "150", "0", "200", "0"},
		{"with refunds", "8000", "240", "0", "0", "500"},
		{"everything", "100000", "2900", "9000", "1200", "3500"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := testReport(t, "2026-08-30", tc.payAmount, tc.payFee, tc.orderTax, tc.orderFee, tc.refs)
			legs := BuildCloseLegs("2026-08-30", report)

			debit, credit := decimal.Zero, decimal.Zero
			for _, leg := range legs {
				debit = debit.Add(leg.Debit)
				credit = credit.Add(leg.Credit)
			}
			if !debit.Equal(credit) {
				t.Errorf("unbalanced posting: debit %s credit %s, legs %+v", debit, credit, legs)
			}
		})
	}
}

func TestBuildCloseLegsNoActivity(t *testing.T) {
	report := testReport(t, "2026-08-30", "0", "0", "0", "0", "0")
	if legs := BuildCloseLegs("2026-08-30", report); len(legs) != 0 {
		t.Fatalf("expected no legs for an empty day, got %d", len(legs))
	}
}

func TestJournalizeIdempotent(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores()
	journal := NewLedgerJournal(stores, newTestLogger())
	report := testReport(t, "2026-08-30", "25000", "750", "0", "0", "0")

	first, err := journal.Journalize(ctx, "2026-08-30", report, false)
	if err != nil {
		t.Fatalf("first journalize: %v", err)
	}
	if first.Skipped || first.EntriesCreated != 2 {
		t.Fatalf("first journalize = %+v, want 2 created", first)
	}

	second, err := journal.Journalize(ctx, "2026-08-30", report, false)
	if err != nil {
		t.Fatalf("second journalize: %v", err)
	}
	if !second.Skipped || second.EntriesCreated != 0 {
		t.Fatalf("second journalize = %+v, want skipped with 0 created", second)
	}

	legs, err := journal.ListEntries(ctx, "2026-08-30")
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("table changed by replay: %d legs", len(legs))
	}
}

func TestJournalizeForceReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores()
	journal := NewLedgerJournal(stores, newTestLogger())

	if _, err := journal.Journalize(ctx, "2026-08-30", testReport(t, "2026-08-30", "25000", "750", "0", "0", "0"), false); err != nil {
		t.Fatalf("initial journalize: %v", err)
	}

	corrected := testReport(t, "2026-08-30", "26000", "780", "0", "0", "0")
	res, err := journal.Journalize(ctx, "2026-08-30", corrected, true)
	if err != nil {
		t.Fatalf("forced journalize: %v", err)
	}
	if res.Skipped || res.EntriesCreated != 2 {
		t.Fatalf("forced journalize = %+v, want 2 created", res)
	}

	legs, err := journal.ListEntries(ctx, "2026-08-30")
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("expected wholesale replace, got %d legs", len(legs))
	}
	want := dec(t, "25220")
	for _, leg := range legs {
		if leg.AccountID == models.AccountBank && !leg.Debit.Equal(want) {
			t.Errorf("bank leg kept stale amount: %+v", leg)
		}
	}
}

func TestJournalizeIgnoreDoesNotOvercount(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores()
	journal := NewLedgerJournal(stores, newTestLogger())
	report := testReport(t, "2026-08-30", "25000", "750", "0", "0", "0")

	// Pre-insert one of the legs the builder will produce; the journalize call
	// must report only the rows it actually inserted.
	legs := BuildCloseLegs("2026-08-30", report)
	if _, err := stores.InsertLegIgnore(ctx, &legs[0]); err != nil {
		t.Fatalf("seed leg: %v", err)
	}

	res, err := journal.Journalize(ctx, "2026-08-30", report, true)
	if err != nil {
		t.Fatalf("journalize: %v", err)
	}
	// Force deletes the seeded leg first, so both legs are fresh inserts.
	if res.EntriesCreated != 2 {
		t.Fatalf("entries created = %d, want 2", res.EntriesCreated)
	}
}
