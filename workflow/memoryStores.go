package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/abiru/kikaku-os-sub000/models"
)

// MemoryStores is an in-memory implementation of the workflow stores. It
// mirrors the MySQL semantics (full-tuple insert-or-ignore for ledger legs,
// (kind, date) uniqueness for alerts) and is safe for concurrent use.
type MemoryStores struct {
	mu sync.Mutex

	runs      []models.DailyCloseRun
	legs      []models.LedgerEntry
	alerts    []models.AnomalyAlert
	delivery  []models.NotificationLog
	documents []models.Document

	nextID int
}

func NewMemoryStores() *MemoryStores {
	return &MemoryStores{nextID: 1}
}

func (m *MemoryStores) nextIDLocked() int {
	id := m.nextID
	m.nextID++
	return id
}

func (m *MemoryStores) InsertRun(ctx context.Context, run *models.DailyCloseRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *MemoryStores) CompleteRun(ctx context.Context, id string, res models.RunCompletion, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == id {
			m.runs[i].Status = res.Status
			m.runs[i].CompletedAt = &completedAt
			m.runs[i].ArtifactsGenerated = res.ArtifactsGenerated
			m.runs[i].LedgerEntriesCreated = res.LedgerEntriesCreated
			m.runs[i].AnomalyDetected = res.AnomalyDetected
			m.runs[i].ErrorMessage = res.ErrorMessage
		}
	}
	return nil
}

func (m *MemoryStores) LatestRun(ctx context.Context, date string) (*models.DailyCloseRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.DailyCloseRun
	for i := range m.runs {
		if m.runs[i].CloseDate != date {
			continue
		}
		if latest == nil || m.runs[i].StartedAt.After(latest.StartedAt) || m.runs[i].StartedAt.Equal(latest.StartedAt) {
			r := m.runs[i]
			latest = &r
		}
	}
	return latest, nil
}

func (m *MemoryStores) HasSuccessfulRun(ctx context.Context, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].CloseDate == date && m.runs[i].Status == models.RunStatusSuccess {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStores) ListRuns(ctx context.Context, limit, offset int) ([]models.DailyCloseRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := make([]models.DailyCloseRun, len(m.runs))
	copy(sorted, m.runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.After(sorted[j].StartedAt)
	})
	if offset >= len(sorted) {
		return nil, nil
	}
	sorted = sorted[offset:]
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func legTuple(leg *models.LedgerEntry) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		leg.RefType, leg.RefID, leg.AccountID,
		leg.Debit.String(), leg.Credit.String(), leg.Memo)
}

func (m *MemoryStores) CountLegs(ctx context.Context, refType, refID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for i := range m.legs {
		if m.legs[i].RefType == refType && m.legs[i].RefID == refID {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStores) DeleteLegs(ctx context.Context, refType, refID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.legs[:0]
	for i := range m.legs {
		if m.legs[i].RefType != refType || m.legs[i].RefID != refID {
			kept = append(kept, m.legs[i])
		}
	}
	m.legs = kept
	return nil
}

func (m *MemoryStores) InsertLegIgnore(ctx context.Context, leg *models.LedgerEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := legTuple(leg)
	for i := range m.legs {
		if legTuple(&m.legs[i]) == key {
			return false, nil
		}
	}
	stored := *leg
	stored.ID = m.nextIDLocked()
	stored.CreatedAt = time.Now().UTC()
	m.legs = append(m.legs, stored)
	return true, nil
}

func (m *MemoryStores) ListLegs(ctx context.Context, refType, refID string) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LedgerEntry
	for i := range m.legs {
		if m.legs[i].RefType == refType && m.legs[i].RefID == refID {
			out = append(out, m.legs[i])
		}
	}
	return out, nil
}

func (m *MemoryStores) InsertAlert(ctx context.Context, alert *models.AnomalyAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].Kind == alert.Kind && m.alerts[i].CloseDate == alert.CloseDate {
			return ErrDuplicateAlert
		}
	}
	stored := *alert
	stored.ID = m.nextIDLocked()
	stored.CreatedAt = time.Now().UTC()
	m.alerts = append(m.alerts, stored)
	return nil
}

func (m *MemoryStores) LogDelivery(ctx context.Context, entry *models.NotificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *entry
	stored.ID = m.nextIDLocked()
	stored.CreatedAt = time.Now().UTC()
	m.delivery = append(m.delivery, stored)
	return nil
}

func (m *MemoryStores) ListAlerts(ctx context.Context, date string) ([]models.AnomalyAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AnomalyAlert
	for i := range m.alerts {
		if m.alerts[i].CloseDate == date {
			out = append(out, m.alerts[i])
		}
	}
	return out, nil
}

// Deliveries returns a copy of the notification log, newest last.
func (m *MemoryStores) Deliveries() []models.NotificationLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.NotificationLog, len(m.delivery))
	copy(out, m.delivery)
	return out
}

func (m *MemoryStores) UpsertDocument(ctx context.Context, refType, refID, path, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.documents {
		d := &m.documents[i]
		if d.ReferenceType == refType && d.ReferenceID == refID && d.Path == path {
			d.ContentType = contentType
			d.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	m.documents = append(m.documents, models.Document{
		ID:            m.nextIDLocked(),
		ReferenceType: refType,
		ReferenceID:   refID,
		Path:          path,
		ContentType:   contentType,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	})
	return nil
}

func (m *MemoryStores) ListDocuments(ctx context.Context, refType, refID string) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Document
	for i := range m.documents {
		if m.documents[i].ReferenceType == refType && m.documents[i].ReferenceID == refID {
			out = append(out, m.documents[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

var (
	_ RunStore      = (*MemoryStores)(nil)
	_ LedgerStore   = (*MemoryStores)(nil)
	_ AlertStore    = (*MemoryStores)(nil)
	_ DocumentStore = (*MemoryStores)(nil)
)
