package cohort

import (
	"fmt"
	"strconv"
	"time"
)

// parseMonth("MMYYYY") -> first day of the month, UTC
func parseMonth(mmyyyy string) (time.Time, error) {
	if len(mmyyyy) != 6 {
		return time.Time{}, fmt.Errorf("expected MMYYYY (e.g. 012025), got %q", mmyyyy)
	}
	for i := 0; i < len(mmyyyy); i++ {
		if mmyyyy[i] < '0' || mmyyyy[i] > '9' {
			return time.Time{}, fmt.Errorf("expected digits only in %q", mmyyyy)
		}
	}
	month, err := strconv.Atoi(mmyyyy[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("month %q: %w", mmyyyy[:2], err)
	}
	year, err := strconv.Atoi(mmyyyy[2:])
	if err != nil {
		return time.Time{}, fmt.Errorf("year %q: %w", mmyyyy[2:], err)
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month %d", month)
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

func formatMonth(t time.Time) string {
	return fmt.Sprintf("%02d/%04d", int(t.Month()), t.Year())
}

func monthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthOffset counts calendar months from a to b.
func monthOffset(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
