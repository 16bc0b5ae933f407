package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

const (
	EventBookingRequested = "booking.requested.v1"
	EventBookingConfirmed = "booking.confirmed.v1"
	EventBookingCancelled = "booking.cancelled.v1"

	AggregateBooking = "booking"
)

// Event is the envelope written to outbox_events. The Kafka topic is the
// event type behind an optional deployment prefix.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type bookingPayload struct {
	BookingID    string `json:"booking_id"`
	HostID       string `json:"host_id"`
	ServiceID    string `json:"service_id"`
	GuestName    string `json:"guest_name,omitempty"`
	GuestEmail   string `json:"guest_email,omitempty"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Status       string `json:"status"`
	CancelledAt  string `json:"cancelled_at,omitempty"`
	CancelReason string `json:"reason,omitempty"`
}

// BookingEvent builds the event for b in its current state.
func BookingEvent(eventType string, b model.Booking) (Event, error) {
	p := bookingPayload{
		BookingID:    b.ID,
		HostID:       b.HostID,
		ServiceID:    b.ServiceID,
		GuestName:    b.GuestName,
		GuestEmail:   b.GuestEmail,
		StartTime:    b.StartTime.UTC().Format(time.RFC3339),
		EndTime:      b.EndTime.UTC().Format(time.RFC3339),
		Status:       string(b.Status),
		CancelReason: b.CancelReason,
	}
	if b.CancelledAt != nil {
		p.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateBooking,
		AggregateID:   b.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
