package workflow

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/abiru/kikaku-os-sub000/config"
	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/sirupsen/logrus"
)

// Scheduler fires the close once per day for the previous business day,
// shortly after midnight in the configured close timezone. It is a plain
// in-process loop, not a distributed cron: if two replicas run it, both fire,
// and the second close is a no-op thanks to the ledger existence check and
// the alert dedup key.
type Scheduler struct {
	Workflow *DailyCloseWorkflow
	Sink     AlertSink
	Logger   *logrus.Logger

	Hour         int
	Timezone     string
	SkipExisting bool

	// now is swappable for tests.
	now func() time.Time
}

func NewSchedulerFromEnv(w *DailyCloseWorkflow, sink AlertSink, logger *logrus.Logger) *Scheduler {
	hour := 1
	if v := os.Getenv("CLOSE_SCHEDULE_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			hour = n
		}
	}
	tz := os.Getenv("CLOSE_TIMEZONE")
	if tz == "" {
		tz = "UTC"
	}
	return &Scheduler{
		Workflow:     w,
		Sink:         sink,
		Logger:       logger,
		Hour:         hour,
		Timezone:     tz,
		SkipExisting: config.SchedulerSkipExisting(),
		now:          time.Now,
	}
}

func (s *Scheduler) location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		config.LogError(s.Logger, "scheduler", "location", "invalid timezone, falling back to UTC", s.Timezone, err)
		return time.UTC
	}
	return loc
}

// nextFireTime is the next occurrence of Hour:00 local after now.
func (s *Scheduler) nextFireTime(now time.Time) time.Time {
	loc := s.location()
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// targetDate is the business day the scheduled close covers: the local day
// before the fire time.
func (s *Scheduler) targetDate(fireAt time.Time) string {
	return fireAt.AddDate(0, 0, -1).Format("2006-01-02")
}

func (s *Scheduler) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		fireAt := s.nextFireTime(s.now())
		s.Logger.WithFields(logrus.Fields{
			"module":  "scheduler",
			"fire_at": fireAt.Format(time.RFC3339),
			"date":    s.targetDate(fireAt),
		}).Info("daily close scheduled")

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(fireAt)):
		}
		s.fireOnce(ctx, s.targetDate(fireAt))
	}
}

func (s *Scheduler) fireOnce(ctx context.Context, date string) {
	if s.SkipExisting {
		done, err := s.Workflow.Tracker.HasSuccessful(ctx, date)
		if err != nil {
			config.LogError(s.Logger, "scheduler", "fireOnce", "existing-run check failed", date, err)
		} else if done {
			s.Logger.WithFields(logrus.Fields{"module": "scheduler", "date": date}).
				Info("daily close already succeeded, skipping")
			return
		}
	}

	if _, err := s.Workflow.Run(ctx, date, false); err != nil {
		config.LogError(s.Logger, "scheduler", "fireOnce", "scheduled close failed", date, err)
		if s.Sink != nil {
			sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if serr := s.Sink.Send(sendCtx, models.SeverityCritical,
				fmt.Sprintf("scheduled daily close failed for %s", date),
				map[string]any{"date": date, "error": err.Error()}); serr != nil {
				config.LogError(s.Logger, "scheduler", "fireOnce", "failure alert not delivered", date, serr)
			}
		}
	}
}
