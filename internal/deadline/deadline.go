// Package deadline turns free-text deadline phrases into absolute timestamps.
package deadline

import (
	"strings"
	"time"
)

// weekdays in match order; "monday" wins over "friday" when both appear.
var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// Resolve interprets a deadline phrase relative to now. The first matching
// rule wins: "today", "tomorrow", "next week", then weekday names. Text
// that matches nothing resolves to nil, never an error.
//
// "next week" resolves to next week's Saturday at 00:00 rather than an
// end-of-day timestamp. That asymmetry is long-standing observed behavior
// and is kept on purpose.
func Resolve(text string, now time.Time) *time.Time {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "today"):
		return ptr(endOfDay(now))
	case strings.Contains(lower, "tomorrow"):
		return ptr(endOfDay(now.AddDate(0, 0, 1)))
	case strings.Contains(lower, "next week"):
		return ptr(startOfWeek(now).AddDate(0, 0, 7+5))
	}

	for _, wd := range weekdays {
		if !strings.Contains(lower, wd.name) {
			continue
		}
		// Strictly after now: a phrase naming today's weekday means the
		// occurrence one week out, not tonight.
		delta := (int(wd.day) - int(now.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return ptr(endOfDay(now.AddDate(0, 0, delta)))
	}

	return nil
}

// endOfDay returns 23:59:59 of t's calendar day, in t's location.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// startOfWeek returns Monday 00:00 of the week containing t.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}

func ptr(t time.Time) *time.Time {
	return &t
}
