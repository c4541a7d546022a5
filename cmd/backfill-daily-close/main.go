package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abiru/kikaku-os-sub000/appctx"
	"github.com/abiru/kikaku-os-sub000/config"
	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/abiru/kikaku-os-sub000/reports"
	"github.com/abiru/kikaku-os-sub000/utils"
	"github.com/abiru/kikaku-os-sub000/workflow"
)

func main() {
	from := flag.String("from", "", "Start date (YYYY-MM-DD). Defaults to yesterday (UTC).")
	to := flag.String("to", "", "End date (YYYY-MM-DD), inclusive. Defaults to -from.")
	force := flag.Bool("force", false, "Delete and recreate ledger legs for each date.")
	skipExisting := flag.Bool("skip-existing", true, "Skip dates that already have a successful close run.")
	flag.Parse()

	logger := config.GetLogger()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	start := strings.TrimSpace(*from)
	if start == "" {
		start = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	}
	end := strings.TrimSpace(*to)
	if end == "" {
		end = start
	}

	stores := workflow.NewGormStores(db)
	sink := workflow.NewAlertSinkFromEnv(logger)
	enqueuer := workflow.NewAnomalyEnqueuer(stores, sink, logger)

	var blobs workflow.BlobStore
	if os.Getenv("GCS_BUCKET") != "" {
		gcs, err := utils.NewGCSBlobStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "storage: %v\n", err)
			os.Exit(1)
		}
		blobs = gcs
	} else {
		blobs = utils.NewLocalBlobStore()
	}

	wf := &workflow.DailyCloseWorkflow{
		Logger:    logger,
		Tracker:   workflow.NewRunTracker(stores),
		Journal:   workflow.NewLedgerJournal(stores, logger),
		Anomalies: enqueuer,
		Rules:     workflow.NewRuleEngine(reports.NewGormMetricSource(db), enqueuer, logger),
		Reports:   reports.NewAggregator(db),
		Evidence:  reports.NewCollector(db),
		Renderer:  reports.NewRenderer(),
		Blobs:     blobs,
		Documents: stores,
	}

	ctx := appctx.Set(context.Background(), appctx.ContextKeyTriggeredBy, "backfill")
	fmt.Printf("Backfilling daily close from=%s to=%s force=%v skip-existing=%v\n", start, end, *force, *skipExisting)

	summary, err := wf.Backfill(ctx, start, end, workflow.BackfillOptions{
		Force:        *force,
		SkipExisting: *skipExisting,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "backfill: %v\n", err)
		os.Exit(1)
	}

	for _, res := range summary.Results {
		line := fmt.Sprintf("%s: %s", res.Date, res.Status)
		if res.RunID != "" {
			line += " run=" + res.RunID
		}
		if res.Error != "" {
			line += " error=" + res.Error
		}
		fmt.Println(line)
	}
	fmt.Printf("Done. total=%d success=%d failed=%d skipped=%d\n",
		summary.Total, summary.Success, summary.Failed, summary.Skipped)

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
