package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/abiru/kikaku-os-sub000/models"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// GormStores is the MySQL-backed implementation of all workflow stores.
type GormStores struct {
	DB *gorm.DB
}

func NewGormStores(db *gorm.DB) *GormStores {
	return &GormStores{DB: db}
}

func (s *GormStores) InsertRun(ctx context.Context, run *models.DailyCloseRun) error {
	return s.DB.WithContext(ctx).Create(run).Error
}

func (s *GormStores) CompleteRun(ctx context.Context, id string, res models.RunCompletion, completedAt time.Time) error {
	return s.DB.WithContext(ctx).Model(&models.DailyCloseRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":                 res.Status,
			"completed_at":           &completedAt,
			"artifacts_generated":    res.ArtifactsGenerated,
			"ledger_entries_created": res.LedgerEntriesCreated,
			"anomaly_detected":       res.AnomalyDetected,
			"error_message":          res.ErrorMessage,
		}).Error
}

func (s *GormStores) LatestRun(ctx context.Context, date string) (*models.DailyCloseRun, error) {
	var run models.DailyCloseRun
	err := s.DB.WithContext(ctx).
		Where("close_date = ?", date).
		Order("started_at DESC, id DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *GormStores) HasSuccessfulRun(ctx context.Context, date string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.DailyCloseRun{}).
		Where("close_date = ? AND status = ?", date, models.RunStatusSuccess).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStores) ListRuns(ctx context.Context, limit, offset int) ([]models.DailyCloseRun, error) {
	var runs []models.DailyCloseRun
	err := s.DB.WithContext(ctx).
		Order("started_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&runs).Error
	return runs, err
}

func (s *GormStores) CountLegs(ctx context.Context, refType, refID string) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("ref_type = ? AND ref_id = ?", refType, refID).
		Count(&count).Error
	return count, err
}

func (s *GormStores) DeleteLegs(ctx context.Context, refType, refID string) error {
	return s.DB.WithContext(ctx).
		Where("ref_type = ? AND ref_id = ?", refType, refID).
		Delete(&models.LedgerEntry{}).Error
}

func (s *GormStores) InsertLegIgnore(ctx context.Context, leg *models.LedgerEntry) (bool, error) {
	result := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(leg)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStores) ListLegs(ctx context.Context, refType, refID string) ([]models.LedgerEntry, error) {
	var legs []models.LedgerEntry
	err := s.DB.WithContext(ctx).
		Where("ref_type = ? AND ref_id = ?", refType, refID).
		Order("id ASC").
		Find(&legs).Error
	return legs, err
}

func (s *GormStores) InsertAlert(ctx context.Context, alert *models.AnomalyAlert) error {
	if err := s.DB.WithContext(ctx).Create(alert).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return ErrDuplicateAlert
		}
		return err
	}
	return nil
}

func (s *GormStores) LogDelivery(ctx context.Context, entry *models.NotificationLog) error {
	return s.DB.WithContext(ctx).Create(entry).Error
}

func (s *GormStores) ListAlerts(ctx context.Context, date string) ([]models.AnomalyAlert, error) {
	var alerts []models.AnomalyAlert
	err := s.DB.WithContext(ctx).
		Where("close_date = ?", date).
		Order("id ASC").
		Find(&alerts).Error
	return alerts, err
}

func (s *GormStores) UpsertDocument(ctx context.Context, refType, refID, path, contentType string) error {
	doc := models.Document{
		ReferenceType: refType,
		ReferenceID:   refID,
		Path:          path,
		ContentType:   contentType,
	}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference_type"}, {Name: "reference_id"}, {Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"content_type", "updated_at"}),
		}).
		Create(&doc).Error
}

func (s *GormStores) ListDocuments(ctx context.Context, refType, refID string) ([]models.Document, error) {
	var docs []models.Document
	err := s.DB.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("path ASC").
		Find(&docs).Error
	return docs, err
}

var (
	_ RunStore      = (*GormStores)(nil)
	_ LedgerStore   = (*GormStores)(nil)
	_ AlertStore    = (*GormStores)(nil)
	_ DocumentStore = (*GormStores)(nil)
)
