package outbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestBookingEvent(t *testing.T) {
	cancelled := time.Date(2026, 1, 27, 12, 0, 0, 0, time.UTC)
	b := model.Booking{
		ID:           "b-1",
		HostID:       "host-1",
		ServiceID:    "svc-1",
		GuestName:    "Ada",
		GuestEmail:   "ada@example.com",
		StartTime:    time.Date(2026, 1, 28, 10, 0, 0, 0, time.FixedZone("CET", 3600)),
		EndTime:      time.Date(2026, 1, 28, 10, 30, 0, 0, time.FixedZone("CET", 3600)),
		Status:       model.StatusCancelled,
		CancelledAt:  &cancelled,
		CancelReason: "sick",
	}

	evt, err := BookingEvent(EventBookingCancelled, b)
	require.NoError(t, err)
	assert.Equal(t, AggregateBooking, evt.AggregateType)
	assert.Equal(t, "b-1", evt.AggregateID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, "2026-01-28T09:00:00Z", payload["start_time"])
	assert.Equal(t, "cancelled", payload["status"])
	assert.Equal(t, "sick", payload["reason"])
	assert.Equal(t, "2026-01-27T12:00:00Z", payload["cancelled_at"])
}

func TestPublisherMessage(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	p := NewPublisher(nil, NewRepository(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)), PublisherConfig{TopicPrefix: "slotbook"})

	msg := p.message(context.Background(), Record{
		EventID:     "e-1",
		AggregateID: "b-1",
		EventType:   EventBookingConfirmed,
		Payload:     []byte(`{}`),
		Traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
	})

	assert.Equal(t, "slotbook.booking.confirmed.v1", msg.Topic)
	assert.Equal(t, []byte("b-1"), msg.Key)
	assert.Equal(t, "e-1", kafkax.HeaderValue(msg.Headers, kafkax.HeaderEventID))
	assert.Equal(t, EventBookingConfirmed, kafkax.HeaderValue(msg.Headers, kafkax.HeaderEventType))
	assert.Equal(t, "b-1", kafkax.HeaderValue(msg.Headers, kafkax.HeaderAggregateID))
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", kafkax.HeaderValue(msg.Headers, "traceparent"))
}

func TestPublisherRunWithoutWriter(t *testing.T) {
	p := NewPublisher(nil, NewRepository(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)), PublisherConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, p.Run(ctx))
}
