package availability

import (
	"time"

	"cloud.google.com/go/civil"
)

// WindowBounds converts a wall-clock window on date into absolute instants in loc.
// Conversion goes through time.Date so the zone's offset on that specific date,
// including a daylight-saving transition, is honored. An end minute of 1440
// resolves to the following local midnight.
func WindowBounds(date civil.Date, w WeeklyWindow, loc *time.Location) (time.Time, time.Time) {
	return wallClock(date, w.StartMinute, loc), wallClock(date, w.EndMinute, loc)
}

func wallClock(date civil.Date, minute int, loc *time.Location) time.Time {
	return time.Date(date.Year, date.Month, date.Day, minute/60, minute%60, 0, 0, loc)
}

// Today is the civil date of now as observed in loc.
func Today(now time.Time, loc *time.Location) civil.Date {
	return civil.DateOf(now.In(loc))
}

// FormatSlotTime renders t as a 12-hour clock label in loc, e.g. "09:15 AM".
func FormatSlotTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("03:04 PM")
}
