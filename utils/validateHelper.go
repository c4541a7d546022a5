package utils

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// businessDatePattern matches the canonical YYYY-MM-DD business-day key.
var businessDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateBusinessDate rejects anything that is not a real calendar date in
// YYYY-MM-DD form. All dates are validated before reaching the close pipeline.
func ValidateBusinessDate(date string) error {
	if !businessDatePattern.MatchString(date) {
		return fmt.Errorf("invalid business date %q: want YYYY-MM-DD", date)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid business date %q: %v", date, err)
	}
	return nil
}

// ParseBusinessDate returns the UTC midnight time for a validated business date.
func ParseBusinessDate(date string) (time.Time, error) {
	if err := ValidateBusinessDate(date); err != nil {
		return time.Time{}, err
	}
	return time.Parse("2006-01-02", date)
}

// BusinessDateRange expands [from, to] into the inclusive list of date keys.
func BusinessDateRange(from, to string) ([]string, error) {
	start, err := ParseBusinessDate(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseBusinessDate(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: %s is after %s", from, to)
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates, nil
}

// ConvertToDate truncates a UTC instant to its local calendar date in the given timezone.
func ConvertToDate(t time.Time, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), nil
}

func ProcessValidationErrors(err error) map[string]string {
	out := make(map[string]string)
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return out
	}
	out["error"] = err.Error()
	return out
}
