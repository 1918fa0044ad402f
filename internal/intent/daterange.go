package intent

import (
	"strings"
	"time"

	"github.com/teemow/inboxai/internal/calendar"
)

// ResolveDateRange picks the calendar window a question refers to. Rules are
// checked in order, so "tomorrow" wins over the weekly phrases:
//
//   - "tomorrow": [start of tomorrow, start of the day after)
//   - "this week" or "next 7 days": [start of today, start of today+7)
//   - "next week": [start of today+7, start of today+14)
//   - otherwise today: [start of today, 23:59:59.999 today]
//
// Days are computed in now's location.
func ResolveDateRange(input string, now time.Time) calendar.DateRange {
	lower := strings.ToLower(input)
	y, m, d := now.Date()
	loc := now.Location()
	day := func(offset int) time.Time {
		return time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
	}

	switch {
	case strings.Contains(lower, "tomorrow"):
		return calendar.DateRange{Min: day(1), Max: day(2)}
	case strings.Contains(lower, "this week"), strings.Contains(lower, "next 7 days"):
		return calendar.DateRange{Min: day(0), Max: day(7)}
	case strings.Contains(lower, "next week"):
		return calendar.DateRange{Min: day(7), Max: day(14)}
	}
	return calendar.DateRange{
		Min: day(0),
		Max: time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc),
	}
}
