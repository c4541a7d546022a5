package workflow

import (
	"context"
	"time"

	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/google/uuid"
)

// RunTracker keeps the append-only history of close attempts per date.
//
// Start enforces no uniqueness on the date: two concurrent invocations for the
// same date both insert a row and get distinct ids. This race is documented and
// accepted; double-posting is prevented by the ledger layer, not here. Whether
// production needs a single-writer lock per date is an open question and is
// deliberately not answered by this type.
type RunTracker struct {
	store RunStore
}

func NewRunTracker(store RunStore) *RunTracker {
	return &RunTracker{store: store}
}

// Start inserts a new running row for the date and returns its id.
func (t *RunTracker) Start(ctx context.Context, date string, forced bool) (string, error) {
	run := models.DailyCloseRun{
		ID:        uuid.NewString(),
		CloseDate: date,
		Status:    models.RunStatusRunning,
		Forced:    forced,
		StartedAt: time.Now().UTC(),
	}
	if err := t.store.InsertRun(ctx, &run); err != nil {
		return "", err
	}
	return run.ID, nil
}

// Complete writes the terminal state onto the row. Last write wins; completing
// an already-completed run simply overwrites it.
func (t *RunTracker) Complete(ctx context.Context, runID string, res models.RunCompletion) error {
	return t.store.CompleteRun(ctx, runID, res, time.Now().UTC())
}

func (t *RunTracker) Latest(ctx context.Context, date string) (*models.DailyCloseRun, error) {
	return t.store.LatestRun(ctx, date)
}

func (t *RunTracker) HasSuccessful(ctx context.Context, date string) (bool, error) {
	return t.store.HasSuccessfulRun(ctx, date)
}

func (t *RunTracker) List(ctx context.Context, limit, offset int) ([]models.DailyCloseRun, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return t.store.ListRuns(ctx, limit, offset)
}
