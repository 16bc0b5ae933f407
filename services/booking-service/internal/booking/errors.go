package booking

import "errors"

var (
	ErrNoSchedule        = errors.New("host has no availability schedule")
	ErrServiceInactive   = errors.New("service is not active")
	ErrSlotUnavailable   = errors.New("slot no longer available")
	ErrInvalidTransition = errors.New("booking cannot change to that status")
	ErrRangeTooLong      = errors.New("date range too long")
)
