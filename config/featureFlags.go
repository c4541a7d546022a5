package config

import (
	"os"
	"strings"
)

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// DailyCloseSchedulerEnabled controls whether the in-process scheduler fires the
// daily-close pipeline once per business day.
//
// Set via env:
// - DAILY_CLOSE_SCHEDULER=true
func DailyCloseSchedulerEnabled() bool {
	return boolFromEnv("DAILY_CLOSE_SCHEDULER")
}

// CleanupWorkersEnabled controls the background stale-order cancellation and
// expired-quote purge loops. They run independently of the close pipeline.
//
// Set via env:
// - CLEANUP_WORKERS=true
func CleanupWorkersEnabled() bool {
	return boolFromEnv("CLEANUP_WORKERS")
}

// SchedulerSkipExisting makes the scheduled trigger skip a date that already has
// a successful close run instead of re-running it.
//
// Set via env:
// - SCHEDULER_SKIP_EXISTING=true (default behavior when unset is to skip)
func SchedulerSkipExisting() bool {
	if strings.TrimSpace(os.Getenv("SCHEDULER_SKIP_EXISTING")) == "" {
		return true
	}
	return boolFromEnv("SCHEDULER_SKIP_EXISTING")
}
