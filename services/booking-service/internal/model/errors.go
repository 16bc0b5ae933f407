package model

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by stores when an insert collides with an existing reservation.
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid input")
)
