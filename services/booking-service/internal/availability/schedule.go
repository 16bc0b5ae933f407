package availability

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const (
	MinutesPerDay = 24 * 60
	// SlotStep is both the granularity of window boundaries and the stride of the slot walk.
	SlotStep = 15
)

// WeeklyWindow is the bookable range of one weekday, in minutes from local midnight.
type WeeklyWindow struct {
	StartMinute int  `json:"start"`
	EndMinute   int  `json:"end"`
	Enabled     bool `json:"enabled"`
}

func (w WeeklyWindow) validate() error {
	if !w.Enabled {
		return nil
	}
	if w.StartMinute < 0 || w.StartMinute >= MinutesPerDay {
		return fmt.Errorf("%w: start minute %d out of range", ErrInvalidWindow, w.StartMinute)
	}
	if w.EndMinute <= 0 || w.EndMinute > MinutesPerDay {
		return fmt.Errorf("%w: end minute %d out of range", ErrInvalidWindow, w.EndMinute)
	}
	if w.StartMinute%SlotStep != 0 || w.EndMinute%SlotStep != 0 {
		return fmt.Errorf("%w: minutes must be multiples of %d", ErrInvalidWindow, SlotStep)
	}
	if w.StartMinute >= w.EndMinute {
		return fmt.Errorf("%w: start %d must be before end %d", ErrInvalidWindow, w.StartMinute, w.EndMinute)
	}
	return nil
}

// WindowResolver resolves the bookable window of a single calendar date.
// Schedule resolves from the weekly pattern; a per-date override table can
// wrap it without changing the generator.
type WindowResolver interface {
	WindowFor(date civil.Date) (WeeklyWindow, bool)
	Location() *time.Location
	Validate() error
}

// Schedule is a host's recurring weekly availability in a single IANA zone.
// Weekly index 0 is Monday and 6 is Sunday.
type Schedule struct {
	timeZone string
	loc      *time.Location
	weekly   [7]WeeklyWindow
}

// NewSchedule validates the zone against the runtime zone database and every
// enabled window. It never falls back to UTC.
func NewSchedule(timeZone string, weekly [7]WeeklyWindow) (*Schedule, error) {
	timeZone = strings.TrimSpace(timeZone)
	if timeZone == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidTimeZone)
	}
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimeZone, timeZone, err)
	}
	s := &Schedule{timeZone: timeZone, loc: loc, weekly: weekly}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate re-checks what NewSchedule established. A zero-value or
// nil Schedule fails with ErrInvalidTimeZone.
func (s *Schedule) Validate() error {
	if s == nil || s.loc == nil {
		return fmt.Errorf("%w: schedule has no location", ErrInvalidTimeZone)
	}
	for i, w := range s.weekly {
		if err := w.validate(); err != nil {
			return fmt.Errorf("weekday %d: %w", i, err)
		}
	}
	return nil
}

func (s *Schedule) TimeZone() string { return s.timeZone }

func (s *Schedule) Location() *time.Location { return s.loc }

// Weekly returns a copy of the weekly pattern.
func (s *Schedule) Weekly() [7]WeeklyWindow { return s.weekly }

// WindowFor returns the date's window, or false when the weekday is off.
func (s *Schedule) WindowFor(date civil.Date) (WeeklyWindow, bool) {
	w := s.weekly[Weekday(date)]
	if !w.Enabled {
		return WeeklyWindow{}, false
	}
	return w, true
}

// Weekday maps a calendar date to the Monday-origin index (0..6).
func Weekday(date civil.Date) int {
	// time.Weekday is Sunday-origin.
	return (int(date.In(time.UTC).Weekday()) + 6) % 7
}
