package models

import "time"

// DailyCloseRun is the append-only history of close attempts per business date.
//
// Several rows may share a close_date: scheduled trigger, manual replay, forced
// re-run and backfill each insert their own row, and nothing enforces exclusivity
// at this layer. Double-posting is prevented one layer down by the ledger
// existence check, not here. Rows are created at orchestration start, mutated
// exactly once at completion, and never deleted.
type DailyCloseRun struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CloseDate string    `gorm:"size:10;not null;index:idx_runs_date" json:"close_date"`
	Status    RunStatus `gorm:"size:20;not null;index" json:"status"`
	Forced    bool      `gorm:"not null;default:false" json:"forced"`

	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	ArtifactsGenerated   int     `gorm:"not null;default:0" json:"artifacts_generated"`
	LedgerEntriesCreated int     `gorm:"not null;default:0" json:"ledger_entries_created"`
	AnomalyDetected      bool    `gorm:"not null;default:false" json:"anomaly_detected"`
	ErrorMessage         *string `gorm:"type:text" json:"error_message"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RunCompletion carries the terminal fields written back onto a run row.
// Last write wins; there is no guard against double-completion.
type RunCompletion struct {
	Status               RunStatus
	ArtifactsGenerated   int
	LedgerEntriesCreated int
	AnomalyDetected      bool
	ErrorMessage         *string
}
