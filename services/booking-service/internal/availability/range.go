package availability

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// Engine binds the slot generator to a clock.
type Engine struct {
	clock Clock
}

func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{clock: clock}
}

// GenerateForDate reads the clock once and delegates to GenerateForDate.
func (e *Engine) GenerateForDate(date civil.Date, svc Service, sched WindowResolver, reserved []Interval) ([]TimeSlot, error) {
	return GenerateForDate(date, svc, sched, reserved, e.clock.Now())
}

// GenerateForRange produces slots for every date in [start, end], keyed by the
// date in the schedule's zone. Days without availability map to an empty
// slice, so a missing key never means "day off". The clock is read once so the
// whole range is judged against the same instant.
func (e *Engine) GenerateForRange(start, end civil.Date, svc Service, sched WindowResolver, reserved []Interval) (map[string][]TimeSlot, error) {
	if !start.IsValid() || !end.IsValid() {
		return nil, fmt.Errorf("%w: malformed date", ErrInvalidRange)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange, end, start)
	}
	if err := validateInputs(svc, sched); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	out := make(map[string][]TimeSlot, end.DaysSince(start)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		out[d.String()] = generate(d, svc, sched, reserved, now)
	}
	return out, nil
}
