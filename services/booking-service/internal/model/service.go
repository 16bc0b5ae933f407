package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
)

const (
	MinServiceDuration = 5
	MaxServiceMinutes  = 24 * 60
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Service is a bookable offering of one host.
type Service struct {
	ID                   string
	HostID               string
	Slug                 string
	Title                string
	Description          string
	DurationMinutes      int
	BufferMinutes        int
	RequiresConfirmation bool
	IsActive             bool
	CreatedAt            time.Time
}

// Normalize trims text fields and lowercases the slug.
func (s *Service) Normalize() {
	s.Slug = strings.ToLower(strings.TrimSpace(s.Slug))
	s.Title = strings.TrimSpace(s.Title)
	s.Description = strings.TrimSpace(s.Description)
}

func (s Service) Validate() error {
	if !slugPattern.MatchString(s.Slug) || len(s.Slug) > 64 {
		return fmt.Errorf("%w: slug must be lowercase words joined by dashes", ErrInvalid)
	}
	if n := utf8.RuneCountInString(s.Title); n < 1 || n > 200 {
		return fmt.Errorf("%w: title must be 1-200 characters", ErrInvalid)
	}
	if utf8.RuneCountInString(s.Description) > 2000 {
		return fmt.Errorf("%w: description is too long", ErrInvalid)
	}
	if s.DurationMinutes < MinServiceDuration || s.DurationMinutes > MaxServiceMinutes {
		return fmt.Errorf("%w: duration_minutes must be between %d and %d", ErrInvalid, MinServiceDuration, MaxServiceMinutes)
	}
	if s.BufferMinutes < 0 || s.BufferMinutes > MaxServiceMinutes {
		return fmt.Errorf("%w: buffer_minutes must be between 0 and %d", ErrInvalid, MaxServiceMinutes)
	}
	return nil
}

// Engine projects the service onto what slot generation needs.
func (s Service) Engine() availability.Service {
	return availability.Service{
		DurationMinutes:      s.DurationMinutes,
		BufferMinutes:        s.BufferMinutes,
		RequiresConfirmation: s.RequiresConfirmation,
		IsActive:             s.IsActive,
	}
}
