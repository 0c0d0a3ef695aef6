package utils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate accepts "2006-01-02" or RFC3339 and returns midnight UTC of that calendar day.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return DateOnly(t), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return DateOnly(t), nil
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights is ceil((checkOut - checkIn) / 24h). It is negative when checkOut precedes checkIn.
func Nights(checkIn, checkOut time.Time) int {
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
}

// EachNight returns the calendar dates occupied by [checkIn, checkOut).
func EachNight(checkIn, checkOut time.Time) []time.Time {
	start := DateOnly(checkIn)
	n := Nights(checkIn, checkOut)
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start.AddDate(0, 0, i))
	}
	return out
}

// RangesOverlap applies half-open semantics: [a,b) and [c,d) overlap iff a < d and c < b.
func RangesOverlap(a, b, c, d time.Time) bool {
	return a.Before(d) && c.Before(b)
}

func FormatStay(checkIn, checkOut time.Time) string {
	return checkIn.Format(DateLayout) + " - " + checkOut.Format(DateLayout)
}
