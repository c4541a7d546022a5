package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/xuri/excelize/v2"
)

// WriteLedgerWorkbook streams the date's ledger legs as an xlsx workbook.
func WriteLedgerWorkbook(w io.Writer, date string, legs []models.LedgerEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Ledger"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"RefType", "RefID", "Account", "Debit", "Credit", "Memo", "CreatedAt"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, leg := range legs {
		row := i + 2
		values := []any{
			leg.RefType,
			leg.RefID,
			leg.AccountID,
			leg.Debit.InexactFloat64(),
			leg.Credit.InexactFloat64(),
			leg.Memo,
			leg.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write ledger workbook for %s: %w", date, err)
	}
	return nil
}
