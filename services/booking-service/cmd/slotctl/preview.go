package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/booking"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type windowConfig struct {
	Start   int  `mapstructure:"start"`
	End     int  `mapstructure:"end"`
	Enabled bool `mapstructure:"enabled"`
}

type intervalConfig struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

type previewConfig struct {
	TimeZone string                  `mapstructure:"time_zone"`
	Weekly   map[string]windowConfig `mapstructure:"weekly"`
	Service  struct {
		DurationMinutes int `mapstructure:"duration_minutes"`
		BufferMinutes   int `mapstructure:"buffer_minutes"`
	} `mapstructure:"service"`
	Reservations []intervalConfig `mapstructure:"reservations"`
	From         string           `mapstructure:"from"`
	To           string           `mapstructure:"to"`
	Now          string           `mapstructure:"now"`
	JSON         bool             `mapstructure:"json"`
}

var weekdayNames = map[string]int{
	"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6,
}

func newPreviewCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the slots a schedule offers for a date range",
		Long: `Reads a YAML or JSON file holding time_zone, weekly (keys 0-6 or mon-sun),
service, reservations and optional from/to/now, then prints every offered slot.
Flags override values from the file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configFile != "" {
				v.SetConfigFile(configFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read %s: %w", configFile, err)
				}
			}
			var cfg previewConfig
			if err := v.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("decode config: %w", err)
			}
			return runPreview(cfg, availability.SystemClock{}, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "schedule file (yaml or json)")
	f.String("time-zone", "", "IANA zone of the schedule")
	f.Int("duration", 30, "service duration in minutes")
	f.Int("buffer", 0, "buffer after each appointment in minutes")
	f.String("from", "", "first date (YYYY-MM-DD), default today in the schedule zone")
	f.String("to", "", "last date (YYYY-MM-DD)")
	f.String("now", "", "RFC3339 instant to judge past slots against")
	f.Bool("json", false, "print the date-keyed result as JSON")

	bind := map[string]string{
		"time_zone":                "time-zone",
		"service.duration_minutes": "duration",
		"service.buffer_minutes":   "buffer",
		"from":                     "from",
		"to":                       "to",
		"now":                      "now",
		"json":                     "json",
	}
	for key, flag := range bind {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd
}

func runPreview(cfg previewConfig, clock availability.Clock, out io.Writer) error {
	weekly, err := weeklyFromConfig(cfg.Weekly)
	if err != nil {
		return err
	}
	sched, err := availability.NewSchedule(cfg.TimeZone, weekly)
	if err != nil {
		return err
	}
	svc := availability.Service{
		DurationMinutes: cfg.Service.DurationMinutes,
		BufferMinutes:   cfg.Service.BufferMinutes,
		IsActive:        true,
	}
	reserved, err := intervalsFromConfig(cfg.Reservations)
	if err != nil {
		return err
	}
	if cfg.Now != "" {
		now, err := time.Parse(time.RFC3339, cfg.Now)
		if err != nil {
			return fmt.Errorf("invalid now %q: %w", cfg.Now, err)
		}
		clock = availability.FixedClock(now)
	}

	from := availability.Today(clock.Now(), sched.Location())
	if cfg.From != "" {
		if from, err = civil.ParseDate(cfg.From); err != nil {
			return fmt.Errorf("invalid from %q: %w", cfg.From, err)
		}
	}
	to := from.AddDays(booking.DefaultRangeDays)
	if cfg.To != "" {
		if to, err = civil.ParseDate(cfg.To); err != nil {
			return fmt.Errorf("invalid to %q: %w", cfg.To, err)
		}
	}
	if to.DaysSince(from) >= booking.MaxRangeDays {
		return fmt.Errorf("%w: at most %d days", booking.ErrRangeTooLong, booking.MaxRangeDays)
	}

	days, err := availability.NewEngine(clock).GenerateForRange(from, to, svc, sched, reserved)
	if err != nil {
		return err
	}
	if cfg.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(days)
	}
	return printDays(out, days, sched.Location())
}

func printDays(out io.Writer, days map[string][]availability.TimeSlot, loc *time.Location) error {
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		slots := days[k]
		if len(slots) == 0 {
			if _, err := fmt.Fprintf(out, "%s  -\n", k); err != nil {
				return err
			}
			continue
		}
		labels := make([]string, 0, len(slots))
		for _, s := range slots {
			labels = append(labels, availability.FormatSlotTime(s.Start, loc))
		}
		if _, err := fmt.Fprintf(out, "%s  %s\n", k, strings.Join(labels, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func weeklyFromConfig(in map[string]windowConfig) ([7]availability.WeeklyWindow, error) {
	var weekly [7]availability.WeeklyWindow
	for key, w := range in {
		day, ok := weekdayNames[strings.ToLower(key)]
		if !ok {
			n, err := strconv.Atoi(key)
			if err != nil || n < 0 || n > 6 {
				return weekly, fmt.Errorf("unknown weekday %q", key)
			}
			day = n
		}
		weekly[day] = availability.WeeklyWindow{StartMinute: w.Start, EndMinute: w.End, Enabled: w.Enabled}
	}
	return weekly, nil
}

func intervalsFromConfig(in []intervalConfig) ([]availability.Interval, error) {
	out := make([]availability.Interval, 0, len(in))
	for i, r := range in {
		start, err := time.Parse(time.RFC3339, r.Start)
		if err != nil {
			return nil, fmt.Errorf("reservation %d: invalid start: %w", i, err)
		}
		end, err := time.Parse(time.RFC3339, r.End)
		if err != nil {
			return nil, fmt.Errorf("reservation %d: invalid end: %w", i, err)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("reservation %d: end must be after start", i)
		}
		out = append(out, availability.Interval{Start: start, End: end})
	}
	return out, nil
}
