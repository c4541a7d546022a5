package utils

import (
	"testing"
	"time"
)

func TestValidateBusinessDate(t *testing.T) {
	valid := []string{"2026-08-30", "2024-02-29", "1999-12-31"}
	for _, d := range valid {
		if err := ValidateBusinessDate(d); err != nil {
			t.Errorf("ValidateBusinessDate(%q) = %v, want nil", d, err)
		}
	}

	invalid := []string{"", "2026-8-30", "30-08-2026", "2026-13-01", "2025-02-29", "2026-08-30T00:00:00Z", "tomorrow"}
	for _, d := range invalid {
		if err := ValidateBusinessDate(d); err == nil {
			t.Errorf("ValidateBusinessDate(%q) = nil, want error", d)
		}
	}
}

func TestBusinessDateRange(t *testing.T) {
	dates, err := BusinessDateRange("2026-08-29", "2026-09-01")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	want := []string{"2026-08-29", "2026-08-30", "2026-08-31", "2026-09-01"}
	if len(dates) != len(want) {
		t.Fatalf("got %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, dates[i], want[i])
		}
	}
}

func TestBusinessDateRangeSingleDay(t *testing.T) {
	dates, err := BusinessDateRange("2026-08-30", "2026-08-30")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(dates) != 1 || dates[0] != "2026-08-30" {
		t.Fatalf("got %v, want one date", dates)
	}
}

func TestBusinessDateRangeRejectsReversedBounds(t *testing.T) {
	if _, err := BusinessDateRange("2026-09-01", "2026-08-30"); err == nil {
		t.Fatal("expected error for reversed range")
	}
}

func TestConvertToDate(t *testing.T) {
	// 2026-08-30 23:30 UTC is already 2026-08-31 in Tokyo.
	instant := time.Date(2026, 8, 30, 23, 30, 0, 0, time.UTC)
	d, err := ConvertToDate(instant, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got := d.Format("2006-01-02"); got != "2026-08-31" {
		t.Errorf("got %s, want 2026-08-31", got)
	}

	d, err = ConvertToDate(instant, "UTC")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got := d.Format("2006-01-02"); got != "2026-08-30" {
		t.Errorf("got %s, want 2026-08-30", got)
	}
}
