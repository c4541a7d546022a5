package workflow

import (
	"context"
	"sync"
	"testing"

	"github.com/abiru/kikaku-os-sub000/models"
)

func TestRunTrackerFailedRunAllowsRestart(t *testing.T) {
	ctx := context.Background()
	tracker := NewRunTracker(NewMemoryStores())

	id, err := tracker.Start(ctx, "2026-08-30", false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	msg := "blob upload refused"
	if err := tracker.Complete(ctx, id, models.RunCompletion{
		Status:       models.RunStatusFailed,
		ErrorMessage: &msg,
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	done, err := tracker.HasSuccessful(ctx, "2026-08-30")
	if err != nil {
		t.Fatalf("has successful: %v", err)
	}
	if done {
		t.Fatal("failed run must not count as successful")
	}

	latest, err := tracker.Latest(ctx, "2026-08-30")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.Status != models.RunStatusFailed || latest.ErrorMessage == nil {
		t.Fatalf("latest = %+v, want failed run with error message", latest)
	}

	// A retry appends a fresh row instead of reopening the failed one.
	id2, err := tracker.Start(ctx, "2026-08-30", false)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if id2 == id {
		t.Fatal("restart reused the run id")
	}
}

func TestRunTrackerConcurrentStartsBothRecorded(t *testing.T) {
	ctx := context.Background()
	tracker := NewRunTracker(NewMemoryStores())

	const n = 8
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := tracker.Start(ctx, "2026-08-30", false)
			if err != nil {
				t.Errorf("start %d: %v", i, err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, id := range ids {
		if id == "" {
			t.Fatal("missing run id")
		}
		if seen[id] {
			t.Fatalf("duplicate run id %s", id)
		}
		seen[id] = true
	}

	runs, err := tracker.List(ctx, n+1, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != n {
		t.Fatalf("expected %d appended rows, got %d", n, len(runs))
	}
}

func TestRunTrackerLatestIsNilWithoutRuns(t *testing.T) {
	tracker := NewRunTracker(NewMemoryStores())
	latest, err := tracker.Latest(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil for a date with no runs, got %+v", latest)
	}
}
