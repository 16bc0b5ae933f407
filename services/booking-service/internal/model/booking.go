package model

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch st := BookingStatus(s); st {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return st, true
	}
	return "", false
}

// Reserves reports whether a booking in this status holds its time range.
func (s BookingStatus) Reserves() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Booking struct {
	ID           string
	HostID       string
	ServiceID    string
	GuestName    string
	GuestEmail   string
	Notes        string
	StartTime    time.Time
	EndTime      time.Time
	Status       BookingStatus
	CancelledAt  *time.Time
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IdempotencyRecord remembers which booking a client supplied key produced.
type IdempotencyRecord struct {
	HostID    string
	Key       string
	BookingID string
}

// SweepResult counts bookings moved by one lifecycle pass.
type SweepResult struct {
	Completed int64
	Expired   int64
}
