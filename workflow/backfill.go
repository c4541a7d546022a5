package workflow

import (
	"context"
	"fmt"

	"github.com/abiru/kikaku-os-sub000/config"
	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/abiru/kikaku-os-sub000/utils"
)

// BackfillMaxDays caps one backfill invocation. Larger windows must be split
// by the caller so a typo'd range cannot hammer the source tables for hours.
const BackfillMaxDays = 90

type BackfillOptions struct {
	Force        bool `json:"force"`
	SkipExisting bool `json:"skip_existing"`
}

type BackfillDateResult struct {
	Date   string `json:"date"`
	Status string `json:"status"` // success, failed, skipped
	RunID  string `json:"run_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

type BackfillSummary struct {
	Total   int                  `json:"total"`
	Success int                  `json:"success"`
	Failed  int                  `json:"failed"`
	Skipped int                  `json:"skipped"`
	Results []BackfillDateResult `json:"results"`
}

// Backfill runs the close sequentially over the inclusive date range. Dates
// are processed oldest first; one failing date is recorded and the walk
// continues. With SkipExisting a date that already has a successful run is
// skipped without touching the source tables, unless Force is also set.
func (w *DailyCloseWorkflow) Backfill(ctx context.Context, from, to string, opts BackfillOptions) (*BackfillSummary, error) {
	dates, err := utils.BusinessDateRange(from, to)
	if err != nil {
		return nil, err
	}
	if len(dates) > BackfillMaxDays {
		return nil, fmt.Errorf("backfill range %s..%s spans %d days, limit is %d", from, to, len(dates), BackfillMaxDays)
	}

	summary := &BackfillSummary{Total: len(dates)}
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if opts.SkipExisting && !opts.Force {
			done, err := w.Tracker.HasSuccessful(ctx, date)
			if err != nil {
				summary.Failed++
				summary.Results = append(summary.Results, BackfillDateResult{Date: date, Status: "failed", Error: err.Error()})
				continue
			}
			if done {
				summary.Skipped++
				summary.Results = append(summary.Results, BackfillDateResult{Date: date, Status: "skipped"})
				continue
			}
		}

		res, err := w.Run(ctx, date, opts.Force)
		if err != nil {
			config.LogError(w.Logger, "backfill", "Backfill", "date failed", date, err)
			summary.Failed++
			summary.Results = append(summary.Results, BackfillDateResult{Date: date, Status: "failed", Error: err.Error()})
			continue
		}
		summary.Success++
		summary.Results = append(summary.Results, BackfillDateResult{
			Date:   date,
			Status: string(models.RunStatusSuccess),
			RunID:  res.RunID,
		})
	}
	return summary, nil
}
