package workflow

import (
	"testing"
	"time"
)

func TestSchedulerNextFireTime(t *testing.T) {
	s := &Scheduler{Hour: 1, Timezone: "UTC"}

	// Before today's fire hour: fires today.
	now := time.Date(2026, 8, 30, 0, 15, 0, 0, time.UTC)
	next := s.nextFireTime(now)
	if !next.Equal(time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC)) {
		t.Fatalf("next = %s", next)
	}

	// Past today's fire hour: rolls to tomorrow.
	now = time.Date(2026, 8, 30, 2, 0, 0, 0, time.UTC)
	next = s.nextFireTime(now)
	if !next.Equal(time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC)) {
		t.Fatalf("next = %s", next)
	}
}

func TestSchedulerTargetDateIsPreviousDay(t *testing.T) {
	s := &Scheduler{Hour: 1, Timezone: "UTC"}
	fireAt := time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC)
	if got := s.targetDate(fireAt); got != "2026-08-30" {
		t.Fatalf("target = %s, want 2026-08-30", got)
	}
}

func TestSchedulerInvalidTimezoneFallsBack(t *testing.T) {
	s := &Scheduler{Hour: 1, Timezone: "Mars/Olympus", Logger: newTestLogger()}
	if loc := s.location(); loc != time.UTC {
		t.Fatalf("location = %v, want UTC fallback", loc)
	}
}
