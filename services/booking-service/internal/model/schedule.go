package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
)

// Schedule is the stored form of a host's weekly availability.
type Schedule struct {
	HostID    string
	TimeZone  string
	Weekly    [7]availability.WeeklyWindow
	UpdatedAt time.Time
}

// Resolve validates the stored form and loads its zone.
func (s Schedule) Resolve() (*availability.Schedule, error) {
	return availability.NewSchedule(s.TimeZone, s.Weekly)
}

// EncodeWeekly renders the pattern as a JSON object keyed "0" (Monday) to "6" (Sunday).
func EncodeWeekly(weekly [7]availability.WeeklyWindow) ([]byte, error) {
	m := make(map[string]availability.WeeklyWindow, len(weekly))
	for i, w := range weekly {
		m[strconv.Itoa(i)] = w
	}
	return json.Marshal(m)
}

// DecodeWeekly parses the keyed form. Missing days decode as disabled.
func DecodeWeekly(raw []byte) ([7]availability.WeeklyWindow, error) {
	var weekly [7]availability.WeeklyWindow
	if len(raw) == 0 {
		return weekly, nil
	}
	var m map[string]availability.WeeklyWindow
	if err := json.Unmarshal(raw, &m); err != nil {
		return weekly, fmt.Errorf("%w: weekly window: %v", ErrInvalid, err)
	}
	for key, w := range m {
		day, err := strconv.Atoi(key)
		if err != nil || day < 0 || day > 6 {
			return weekly, fmt.Errorf("%w: weekday key %q", ErrInvalid, key)
		}
		weekly[day] = w
	}
	return weekly, nil
}
