package booking

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
)

// SlotQuery selects the dates to list. Zero dates default to today and
// today plus DefaultRangeDays in the host's zone.
type SlotQuery struct {
	HostID    string
	ServiceID string
	From      civil.Date
	To        civil.Date
}

type Availability struct {
	Schedule *availability.Schedule
	Service  model.Service
	From     civil.Date
	To       civil.Date
	Days     map[string][]availability.TimeSlot
}

// Slots lists the open slots of a service for every date in the query range.
func (s *Service) Slots(ctx context.Context, q SlotQuery) (Availability, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Slots")
	defer span.End()

	svc, err := s.activeService(ctx, q.HostID, q.ServiceID)
	if err != nil {
		return Availability{}, err
	}
	sched, err := s.resolvedSchedule(ctx, q.HostID)
	if err != nil {
		return Availability{}, err
	}

	from, to := q.From, q.To
	if !from.IsValid() {
		from = availability.Today(s.clock.Now(), sched.Location())
	}
	if !to.IsValid() {
		to = from.AddDays(DefaultRangeDays)
	}
	if to.Before(from) {
		return Availability{}, availability.ErrInvalidRange
	}
	if to.DaysSince(from) >= MaxRangeDays {
		return Availability{}, fmt.Errorf("%w: at most %d days", ErrRangeTooLong, MaxRangeDays)
	}
	span.SetAttributes(
		attribute.String("host.id", q.HostID),
		attribute.String("range.from", from.String()),
		attribute.String("range.to", to.String()),
	)

	lo, hi := reservationSpan(from, to, sched, svc)
	reserved, err := s.store.Reservations(ctx, q.HostID, lo, hi)
	if err != nil {
		return Availability{}, err
	}

	days, err := s.engine.GenerateForRange(from, to, svc.Engine(), sched, reserved)
	if err != nil {
		return Availability{}, err
	}
	return Availability{Schedule: sched, Service: svc, From: from, To: to, Days: days}, nil
}
