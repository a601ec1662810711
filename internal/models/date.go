package models

import "time"

const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date as written, in t's own offset.
// The result is midnight UTC so dates compare with Equal/Before/After.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// InRange reports whether d lies in [start, end], inclusive.
func InRange(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}
