package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/abiru/kikaku-os-sub000/models"
)

// ErrDuplicateAlert signals the (kind, close_date) unique constraint fired on
// alert insert. It is a control-flow dedup signal, not a failure.
var ErrDuplicateAlert = errors.New("alert already exists for kind and date")

// RunStore persists the append-only daily-close run history.
type RunStore interface {
	InsertRun(ctx context.Context, run *models.DailyCloseRun) error
	// CompleteRun updates the row by id, last write wins. There is no guard
	// against double-completion.
	CompleteRun(ctx context.Context, id string, res models.RunCompletion, completedAt time.Time) error
	// LatestRun returns the most recent row for the date, or nil when none exists.
	LatestRun(ctx context.Context, date string) (*models.DailyCloseRun, error)
	HasSuccessfulRun(ctx context.Context, date string) (bool, error)
	ListRuns(ctx context.Context, limit, offset int) ([]models.DailyCloseRun, error)
}

// LedgerStore persists double-entry legs keyed by (ref_type, ref_id).
type LedgerStore interface {
	CountLegs(ctx context.Context, refType, refID string) (int64, error)
	DeleteLegs(ctx context.Context, refType, refID string) error
	// InsertLegIgnore inserts one leg with insert-or-ignore semantics keyed on
	// the full row tuple. It reports whether a row was actually inserted; a
	// tuple collision silently skips and returns false.
	InsertLegIgnore(ctx context.Context, leg *models.LedgerEntry) (bool, error)
	ListLegs(ctx context.Context, refType, refID string) ([]models.LedgerEntry, error)
}

// AlertStore persists deduplicated anomaly alerts and their delivery log.
type AlertStore interface {
	// InsertAlert returns ErrDuplicateAlert when the (kind, close_date) unique
	// constraint fires; any other storage error propagates as-is.
	InsertAlert(ctx context.Context, alert *models.AnomalyAlert) error
	LogDelivery(ctx context.Context, entry *models.NotificationLog) error
	ListAlerts(ctx context.Context, date string) ([]models.AnomalyAlert, error)
}

// DocumentStore is the idempotent document index for published artifacts.
type DocumentStore interface {
	UpsertDocument(ctx context.Context, refType, refID, path, contentType string) error
	ListDocuments(ctx context.Context, refType, refID string) ([]models.Document, error)
}
