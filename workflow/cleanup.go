package workflow

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/abiru/kikaku-os-sub000/config"
	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CleanupWorker is housekeeping independent of the close pipeline: it cancels
// pending orders that went stale and expires quotes past their deadline so the
// aggregates stop counting them.
type CleanupWorker struct {
	DB     *gorm.DB
	Logger *logrus.Logger

	PollInterval    time.Duration
	StaleOrderHours int
}

func NewCleanupWorkerFromEnv(db *gorm.DB, logger *logrus.Logger) *CleanupWorker {
	staleHours := 72
	if v := os.Getenv("STALE_ORDER_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			staleHours = n
		}
	}
	return &CleanupWorker{
		DB:              db,
		Logger:          logger,
		PollInterval:    15 * time.Minute,
		StaleOrderHours: staleHours,
	}
}

func (w *CleanupWorker) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		w.sweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.PollInterval):
		}
	}
}

func (w *CleanupWorker) sweepOnce(ctx context.Context) {
	if w.DB == nil {
		return
	}
	now := time.Now().UTC()

	staleBefore := now.Add(-time.Duration(w.StaleOrderHours) * time.Hour)
	res := w.DB.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", models.OrderStatusPending).
		Where("created_at < ?", staleBefore).
		Update("status", models.OrderStatusCancelled)
	if res.Error != nil {
		config.LogError(w.Logger, "cleanup", "sweepOnce", "stale order cancel failed", staleBefore, res.Error)
	} else if res.RowsAffected > 0 {
		w.Logger.WithFields(logrus.Fields{
			"module": "cleanup",
			"count":  res.RowsAffected,
		}).Info("cancelled stale pending orders")
	}

	res = w.DB.WithContext(ctx).Model(&models.Quote{}).
		Where("status = ?", models.QuoteStatusOpen).
		Where("expires_at < ?", now).
		Update("status", models.QuoteStatusExpired)
	if res.Error != nil {
		config.LogError(w.Logger, "cleanup", "sweepOnce", "quote expiry failed", now, res.Error)
	} else if res.RowsAffected > 0 {
		w.Logger.WithFields(logrus.Fields{
			"module": "cleanup",
			"count":  res.RowsAffected,
		}).Info("expired open quotes")
	}
}
