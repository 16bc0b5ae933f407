package availability

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Service is the part of a bookable offering the slot walk needs.
type Service struct {
	DurationMinutes      int
	BufferMinutes        int
	RequiresConfirmation bool
	IsActive             bool
}

func (s Service) Validate() error {
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration %d must be positive", ErrInvalidService, s.DurationMinutes)
	}
	if s.BufferMinutes < 0 {
		return fmt.Errorf("%w: buffer %d must not be negative", ErrInvalidService, s.BufferMinutes)
	}
	return nil
}

func (s Service) Duration() time.Duration { return time.Duration(s.DurationMinutes) * time.Minute }

func (s Service) Buffer() time.Duration { return time.Duration(s.BufferMinutes) * time.Minute }

// Interval is an already reserved span of absolute time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// TimeSlot is an offered appointment; End is always Start plus the service duration.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// GenerateForDate returns every slot of service on date, in ascending start order.
//
// Candidates start at the window start and advance by SlotStep minutes. A
// candidate is kept when the appointment (without its buffer) fits the window,
// it starts strictly after now, and its span extended by the service buffer
// overlaps none of the reserved intervals. Reservations need not be sorted.
//
// Every date is filtered against now, not only today: a date that has fully
// passed in the schedule's zone yields an empty, non-nil result rather than
// an error.
func GenerateForDate(date civil.Date, svc Service, sched WindowResolver, reserved []Interval, now time.Time) ([]TimeSlot, error) {
	if err := validateInputs(svc, sched); err != nil {
		return nil, err
	}
	return generate(date, svc, sched, reserved, now), nil
}

func validateInputs(svc Service, sched WindowResolver) error {
	if err := svc.Validate(); err != nil {
		return err
	}
	if sched == nil {
		return fmt.Errorf("%w: no schedule", ErrInvalidTimeZone)
	}
	return sched.Validate()
}

// generate assumes validated inputs.
func generate(date civil.Date, svc Service, sched WindowResolver, reserved []Interval, now time.Time) []TimeSlot {
	window, ok := sched.WindowFor(date)
	if !ok {
		return []TimeSlot{}
	}
	windowStart, windowEnd := WindowBounds(date, window, sched.Location())

	duration := svc.Duration()
	buffer := svc.Buffer()
	step := time.Duration(SlotStep) * time.Minute

	slots := []TimeSlot{}
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if !t.After(now) {
			continue
		}
		end := t.Add(duration)
		if overlapsAny(t, end.Add(buffer), reserved) {
			continue
		}
		slots = append(slots, TimeSlot{Start: t, End: end})
	}
	return slots
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// Half-open intervals: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
