package booking

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type BookRequest struct {
	HostID         string
	ServiceID      string
	GuestName      string
	GuestEmail     string
	Notes          string
	Start          time.Time
	IdempotencyKey string
}

func (r *BookRequest) normalize() error {
	r.HostID = strings.TrimSpace(r.HostID)
	r.ServiceID = strings.TrimSpace(r.ServiceID)
	r.GuestName = strings.TrimSpace(r.GuestName)
	r.GuestEmail = strings.TrimSpace(r.GuestEmail)
	r.Notes = strings.TrimSpace(r.Notes)
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)

	if r.HostID == "" || r.ServiceID == "" {
		return fmt.Errorf("%w: host_id and service_id are required", model.ErrInvalid)
	}
	if n := utf8.RuneCountInString(r.GuestName); n < 2 || n > 100 {
		return fmt.Errorf("%w: guest_name must be 2-100 characters", model.ErrInvalid)
	}
	addr, err := mail.ParseAddress(r.GuestEmail)
	if err != nil || addr.Address != r.GuestEmail {
		return fmt.Errorf("%w: guest_email is not a valid address", model.ErrInvalid)
	}
	if utf8.RuneCountInString(r.Notes) > 1000 {
		return fmt.Errorf("%w: notes must be at most 1000 characters", model.ErrInvalid)
	}
	if len(r.IdempotencyKey) > 128 {
		return fmt.Errorf("%w: idempotency key too long", model.ErrInvalid)
	}
	if r.Start.IsZero() {
		return fmt.Errorf("%w: start_time is required", model.ErrInvalid)
	}
	return nil
}

type BookResult struct {
	Booking model.Booking
	// Replayed is set when the idempotency key matched an earlier booking.
	Replayed bool
}

// Book reserves the slot starting at req.Start. Inside one transaction the
// host is locked, the current reservations are re-read and the slot walk is
// re-run; the start must still be offered or ErrSlotUnavailable is returned.
func (s *Service) Book(ctx context.Context, req BookRequest) (BookResult, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Book")
	defer span.End()

	if err := req.normalize(); err != nil {
		return BookResult{}, err
	}
	svc, err := s.activeService(ctx, req.HostID, req.ServiceID)
	if err != nil {
		return BookResult{}, err
	}
	sched, err := s.resolvedSchedule(ctx, req.HostID)
	if err != nil {
		return BookResult{}, err
	}
	date := availability.Today(req.Start, sched.Location())
	span.SetAttributes(attribute.String("host.id", req.HostID), attribute.String("booking.date", date.String()))

	var result BookResult
	err = s.store.InTx(ctx, func(tx Tx) error {
		if req.IdempotencyKey != "" {
			rec, seen, err := tx.ClaimIdempotencyKey(ctx, req.HostID, req.IdempotencyKey)
			if err != nil {
				return err
			}
			if seen && rec.BookingID != "" {
				b, err := tx.Booking(ctx, req.HostID, rec.BookingID)
				if err != nil {
					return err
				}
				result = BookResult{Booking: b, Replayed: true}
				return nil
			}
		}

		if err := tx.LockHost(ctx, req.HostID); err != nil {
			return err
		}
		lo, hi := reservationSpan(date, date, sched, svc)
		reserved, err := tx.Reservations(ctx, req.HostID, lo, hi)
		if err != nil {
			return err
		}
		slots, err := s.engine.GenerateForDate(date, svc.Engine(), sched, reserved)
		if err != nil {
			return err
		}
		slot, ok := findSlot(slots, req.Start)
		if !ok {
			return ErrSlotUnavailable
		}

		b := model.Booking{
			ID:         uuid.NewString(),
			HostID:     req.HostID,
			ServiceID:  svc.ID,
			GuestName:  req.GuestName,
			GuestEmail: req.GuestEmail,
			Notes:      req.Notes,
			StartTime:  slot.Start.UTC(),
			EndTime:    slot.End.UTC(),
			Status:     model.StatusConfirmed,
		}
		eventType := outbox.EventBookingConfirmed
		if svc.RequiresConfirmation {
			b.Status = model.StatusPending
			eventType = outbox.EventBookingRequested
		}
		if err := tx.InsertBooking(ctx, &b); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return ErrSlotUnavailable
			}
			return err
		}
		if err := s.emit(ctx, tx, eventType, b); err != nil {
			return err
		}
		if req.IdempotencyKey != "" {
			if err := tx.FinalizeIdempotencyKey(ctx, model.IdempotencyRecord{
				HostID:    req.HostID,
				Key:       req.IdempotencyKey,
				BookingID: b.ID,
			}); err != nil {
				return err
			}
		}
		result = BookResult{Booking: b}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrSlotUnavailable) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "book failed")
		}
		return BookResult{}, err
	}
	if !result.Replayed {
		s.logger.Info("booking created",
			"booking_id", result.Booking.ID,
			"host_id", result.Booking.HostID,
			"status", result.Booking.Status,
			"start", result.Booking.StartTime.Format(time.RFC3339),
		)
	}
	return result, nil
}

// Confirm moves a pending booking to confirmed. Confirming twice is a no-op.
func (s *Service) Confirm(ctx context.Context, hostID, bookingID string) (model.Booking, error) {
	return s.transition(ctx, hostID, bookingID, func(b *model.Booking, now time.Time) (string, error) {
		switch b.Status {
		case model.StatusConfirmed:
			return "", nil
		case model.StatusPending:
			b.Status = model.StatusConfirmed
			return outbox.EventBookingConfirmed, nil
		default:
			return "", ErrInvalidTransition
		}
	})
}

// Cancel releases a pending or confirmed booking. Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, hostID, bookingID, reason string) (model.Booking, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > 500 {
		return model.Booking{}, fmt.Errorf("%w: reason must be at most 500 characters", model.ErrInvalid)
	}
	return s.transition(ctx, hostID, bookingID, func(b *model.Booking, now time.Time) (string, error) {
		switch b.Status {
		case model.StatusCancelled:
			return "", nil
		case model.StatusPending, model.StatusConfirmed:
			b.Status = model.StatusCancelled
			b.CancelledAt = &now
			b.CancelReason = reason
			return outbox.EventBookingCancelled, nil
		default:
			return "", ErrInvalidTransition
		}
	})
}

// transition applies change to the locked booking; an empty event type means
// nothing changed.
func (s *Service) transition(ctx context.Context, hostID, bookingID string, change func(*model.Booking, time.Time) (string, error)) (model.Booking, error) {
	if strings.TrimSpace(hostID) == "" || strings.TrimSpace(bookingID) == "" {
		return model.Booking{}, fmt.Errorf("%w: host_id and booking_id are required", model.ErrInvalid)
	}
	var out model.Booking
	err := s.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.BookingForUpdate(ctx, hostID, bookingID)
		if err != nil {
			return err
		}
		now := s.clock.Now().UTC()
		eventType, err := change(&b, now)
		if err != nil {
			return err
		}
		if eventType != "" {
			b.UpdatedAt = now
			if err := tx.UpdateBookingStatus(ctx, &b); err != nil {
				return err
			}
			if err := s.emit(ctx, tx, eventType, b); err != nil {
				return err
			}
		}
		out = b
		return nil
	})
	return out, err
}

func (s *Service) ListBookings(ctx context.Context, hostID string, status model.BookingStatus, limit int) ([]model.Booking, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListBookings(ctx, hostID, status, limit)
}

func (s *Service) emit(ctx context.Context, tx Tx, eventType string, b model.Booking) error {
	evt, err := outbox.BookingEvent(eventType, b)
	if err != nil {
		return err
	}
	return tx.InsertEvent(ctx, evt)
}

func findSlot(slots []availability.TimeSlot, start time.Time) (availability.TimeSlot, bool) {
	for _, slot := range slots {
		if slot.Start.Equal(start) {
			return slot, true
		}
	}
	return availability.TimeSlot{}, false
}

// reservationSpan covers every reservation that can block a slot on
// [from, to]: those overlapping the local days, plus the buffer tail.
func reservationSpan(from, to civil.Date, sched *availability.Schedule, svc model.Service) (time.Time, time.Time) {
	whole := availability.WeeklyWindow{StartMinute: 0, EndMinute: availability.MinutesPerDay, Enabled: true}
	lo, _ := availability.WindowBounds(from, whole, sched.Location())
	_, hi := availability.WindowBounds(to, whole, sched.Location())
	return lo, hi.Add(svc.Engine().Buffer())
}
