package availability

import "errors"

// Input validation failures. All are detected before any slot enumeration.
var (
	ErrInvalidTimeZone = errors.New("invalid time zone")
	ErrInvalidService  = errors.New("invalid service definition")
	ErrInvalidWindow   = errors.New("invalid weekly window")
	ErrInvalidRange    = errors.New("invalid date range")
)
