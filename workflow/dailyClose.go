package workflow

import (
	"context"
	"fmt"

	"github.com/abiru/kikaku-os-sub000/appctx"
	"github.com/abiru/kikaku-os-sub000/config"
	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/abiru/kikaku-os-sub000/utils"
	"github.com/sirupsen/logrus"
)

// ReportAggregator produces the day's aggregate from the source tables.
type ReportAggregator interface {
	Generate(ctx context.Context, date string) (*models.DailyReport, error)
}

// EvidenceCollector snapshots the raw payment and refund rows for the date.
type EvidenceCollector interface {
	Collect(ctx context.Context, date string) (*models.DailyEvidence, error)
}

// ArtifactRenderer renders the human-readable report. It must be pure: no IO,
// no clock, so the same report always yields the same document.
type ArtifactRenderer interface {
	RenderHTML(report *models.DailyReport) (string, error)
}

// BlobStore writes published artifacts. Production uses GCS (utils.GCSBlobStore).
type BlobStore interface {
	PutJSON(ctx context.Context, key string, value any) error
	PutText(ctx context.Context, key string, value string) error
}

// RunResult summarizes one completed close attempt.
type RunResult struct {
	RunID                string `json:"run_id"`
	Date                 string `json:"date"`
	Status               models.RunStatus `json:"status"`
	ArtifactsGenerated   int    `json:"artifacts_generated"`
	LedgerEntriesCreated int    `json:"ledger_entries_created"`
	LedgerSkipped        bool   `json:"ledger_skipped"`
	AnomalyDetected      bool   `json:"anomaly_detected"`
	AlertCreated         bool   `json:"alert_created"`
	RuleAlertsCreated    int    `json:"rule_alerts_created"`
}

// DailyCloseWorkflow wires the close steps together. Steps run strictly in
// order and there is no cross-step rollback: artifacts already uploaded stay
// uploaded when a later step fails, and the failed run row records how far we
// got. Re-running is always safe because journalizing and alerting are
// idempotent on their own keys.
type DailyCloseWorkflow struct {
	Logger    *logrus.Logger
	Tracker   *RunTracker
	Journal   *LedgerJournal
	Anomalies *AnomalyEnqueuer
	Rules     *RuleEngine
	Reports   ReportAggregator
	Evidence  EvidenceCollector
	Renderer  ArtifactRenderer
	Blobs     BlobStore
	Documents DocumentStore
}

func artifactKeys(date string) (reportKey, evidenceKey, htmlKey string) {
	reportKey = fmt.Sprintf("daily-close/%s/report.json", date)
	evidenceKey = fmt.Sprintf("daily-close/%s/stripe-evidence.json", date)
	htmlKey = fmt.Sprintf("daily-close/%s/report.html", date)
	return
}

// Run executes the full close for one business date.
func (w *DailyCloseWorkflow) Run(ctx context.Context, date string, force bool) (*RunResult, error) {
	if err := utils.ValidateBusinessDate(date); err != nil {
		return nil, err
	}

	runID, err := w.Tracker.Start(ctx, date, force)
	if err != nil {
		return nil, err
	}

	fail := func(step string, err error) (*RunResult, error) {
		msg := err.Error()
		if cerr := w.Tracker.Complete(ctx, runID, models.RunCompletion{
			Status:       models.RunStatusFailed,
			ErrorMessage: &msg,
		}); cerr != nil {
			config.LogError(w.Logger, "dailyClose", "Run", "failed to mark run failed", runID, cerr)
		}
		return nil, fmt.Errorf("daily close %s: %s: %w", date, step, err)
	}

	report, err := w.Reports.Generate(ctx, date)
	if err != nil {
		return fail("generate report", err)
	}
	evidence, err := w.Evidence.Collect(ctx, date)
	if err != nil {
		return fail("collect evidence", err)
	}
	html, err := w.Renderer.RenderHTML(report)
	if err != nil {
		return fail("render report", err)
	}

	reportKey, evidenceKey, htmlKey := artifactKeys(date)
	if err := w.Blobs.PutJSON(ctx, reportKey, report); err != nil {
		return fail("publish report artifact", err)
	}
	if err := w.Blobs.PutJSON(ctx, evidenceKey, evidence); err != nil {
		return fail("publish evidence artifact", err)
	}
	if err := w.Blobs.PutText(ctx, htmlKey, html); err != nil {
		return fail("publish html artifact", err)
	}

	for _, doc := range []struct{ path, contentType string }{
		{reportKey, "application/json"},
		{evidenceKey, "application/json"},
		{htmlKey, "text/html"},
	} {
		if err := w.Documents.UpsertDocument(ctx, models.LedgerRefTypeDailyClose, date, doc.path, doc.contentType); err != nil {
			return fail("record document", err)
		}
	}

	journal, err := w.Journal.Journalize(ctx, date, report, force)
	if err != nil {
		return fail("journalize", err)
	}

	alertCreated, err := w.Anomalies.Enqueue(ctx, report, []string{reportKey, evidenceKey, htmlKey})
	if err != nil {
		return fail("enqueue anomaly alert", err)
	}

	ruleAlerts := 0
	if w.Rules != nil {
		ruleAlerts = w.Rules.RunAll(ctx, date)
	}

	anomalyDetected := report.Anomalies.Level != models.AnomalyLevelOk
	if err := w.Tracker.Complete(ctx, runID, models.RunCompletion{
		Status:               models.RunStatusSuccess,
		ArtifactsGenerated:   3,
		LedgerEntriesCreated: journal.EntriesCreated,
		AnomalyDetected:      anomalyDetected,
	}); err != nil {
		return fail("complete run", err)
	}

	triggeredBy, _ := appctx.GetString(ctx, appctx.ContextKeyTriggeredBy)
	w.Logger.WithFields(logrus.Fields{
		"module":          "dailyClose",
		"date":            date,
		"run_id":          runID,
		"triggered_by":    triggeredBy,
		"entries_created": journal.EntriesCreated,
		"anomaly":         anomalyDetected,
		"rule_alerts":     ruleAlerts,
	}).Info("daily close completed")

	return &RunResult{
		RunID:                runID,
		Date:                 date,
		Status:               models.RunStatusSuccess,
		ArtifactsGenerated:   3,
		LedgerEntriesCreated: journal.EntriesCreated,
		LedgerSkipped:        journal.Skipped,
		AnomalyDetected:      anomalyDetected,
		AlertCreated:         alertCreated,
		RuleAlertsCreated:    ruleAlerts,
	}, nil
}
