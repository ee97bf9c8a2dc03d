package timesheet

import (
	"fmt"
	"strings"
	"time"
)

// ClockLayout is the wall-clock format used for entry times.
const ClockLayout = "15:04"

const minutesPerDay = 24 * 60

// ParseClock parses an HH:MM string into minutes since midnight.
func ParseClock(s string) (int, bool) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// FormatClock renders minutes since midnight as HH:MM, wrapping past midnight.
func FormatClock(minutes int) string {
	m := ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseDuration returns the minutes between two HH:MM strings (end minus start).
// A malformed time on either side yields 0 so one bad row cannot abort a run.
// The result is negative when end is earlier than start.
func ParseDuration(start, end string) int {
	s, ok := ParseClock(start)
	if !ok {
		return 0
	}
	e, ok := ParseClock(end)
	if !ok {
		return 0
	}
	return e - s
}

var clockLayouts = []string{ClockLayout, "15:04:05", "3:04 PM", "3:04PM", "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// NormalizeClock rewrites common spreadsheet time renderings ("9:00:00",
// "9:00 AM", full timestamps) as HH:MM. Values it cannot read are returned
// unchanged.
func NormalizeClock(s string) string {
	v := strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return FormatClock(t.Hour()*60 + t.Minute())
		}
	}
	return s
}
