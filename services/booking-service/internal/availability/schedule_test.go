package availability

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedule_TimeZone(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		wantErr bool
	}{
		{"UTC", "UTC", false},
		{"America/New_York", "America/New_York", false},
		{"trimmed", "  Europe/Berlin ", false},
		{"empty", "", true},
		{"unknown", "Invalid/Timezone", true},
		{"offset is not an IANA name", "+02:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSchedule(tt.tz, everyDay(540, 1020))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeZone)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s.Location())
		})
	}
}

func TestNewSchedule_Windows(t *testing.T) {
	tests := []struct {
		name    string
		window  WeeklyWindow
		wantErr bool
	}{
		{"full day", WeeklyWindow{StartMinute: 0, EndMinute: 1440, Enabled: true}, false},
		{"disabled values ignored", WeeklyWindow{StartMinute: 0, EndMinute: 0, Enabled: false}, false},
		{"start equals end", WeeklyWindow{StartMinute: 600, EndMinute: 600, Enabled: true}, true},
		{"start after end", WeeklyWindow{StartMinute: 660, EndMinute: 600, Enabled: true}, true},
		{"not quarter hour", WeeklyWindow{StartMinute: 605, EndMinute: 660, Enabled: true}, true},
		{"start at 1440", WeeklyWindow{StartMinute: 1440, EndMinute: 1440, Enabled: true}, true},
		{"end past midnight", WeeklyWindow{StartMinute: 600, EndMinute: 1455, Enabled: true}, true},
		{"negative start", WeeklyWindow{StartMinute: -15, EndMinute: 600, Enabled: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weekly := everyDay(540, 1020)
			weekly[3] = tt.window
			_, err := NewSchedule("UTC", weekly)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWindow)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWeekday_MondayOrigin(t *testing.T) {
	tests := []struct {
		date civil.Date
		want int
	}{
		{civil.Date{Year: 2026, Month: time.February, Day: 2}, 0}, // Monday
		{civil.Date{Year: 2026, Month: time.January, Day: 28}, 2}, // Wednesday
		{civil.Date{Year: 2026, Month: time.January, Day: 31}, 5}, // Saturday
		{civil.Date{Year: 2026, Month: time.February, Day: 1}, 6}, // Sunday
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Weekday(tt.date), tt.date.String())
	}
}

func TestSchedule_WindowFor(t *testing.T) {
	var weekly [7]WeeklyWindow
	weekly[0] = WeeklyWindow{StartMinute: 540, EndMinute: 1020, Enabled: true}
	weekly[6] = WeeklyWindow{StartMinute: 600, EndMinute: 720, Enabled: false}
	s := mustSchedule(t, "UTC", weekly)

	w, ok := s.WindowFor(civil.Date{Year: 2026, Month: time.February, Day: 2})
	require.True(t, ok)
	assert.Equal(t, 540, w.StartMinute)

	_, ok = s.WindowFor(civil.Date{Year: 2026, Month: time.February, Day: 1})
	assert.False(t, ok, "disabled sunday")

	_, ok = s.WindowFor(civil.Date{Year: 2026, Month: time.February, Day: 3})
	assert.False(t, ok, "tuesday has no entry")
}
