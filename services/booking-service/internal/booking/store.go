package booking

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
)

// Store is the persistence the booking flows need. Lookups that miss return
// model.ErrNotFound; inserts that collide with a reservation return
// model.ErrConflict.
type Store interface {
	CreateService(ctx context.Context, svc *model.Service) error
	Service(ctx context.Context, id string) (model.Service, error)
	ListServices(ctx context.Context, hostID string) ([]model.Service, error)

	// Reservations returns the pending and confirmed bookings of hostID
	// overlapping [from, to).
	Reservations(ctx context.Context, hostID string, from, to time.Time) ([]availability.Interval, error)
	ListBookings(ctx context.Context, hostID string, status model.BookingStatus, limit int) ([]model.Booking, error)

	InTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the transactional half of Store.
type Tx interface {
	// LockHost serializes booking writes of one host until the transaction ends.
	LockHost(ctx context.Context, hostID string) error
	Reservations(ctx context.Context, hostID string, from, to time.Time) ([]availability.Interval, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	Booking(ctx context.Context, hostID, id string) (model.Booking, error)
	BookingForUpdate(ctx context.Context, hostID, id string) (model.Booking, error)
	UpdateBookingStatus(ctx context.Context, b *model.Booking) error

	// ClaimIdempotencyKey returns the existing record and true when the key
	// was used before, otherwise reserves it and returns false.
	ClaimIdempotencyKey(ctx context.Context, hostID, key string) (model.IdempotencyRecord, bool, error)
	FinalizeIdempotencyKey(ctx context.Context, rec model.IdempotencyRecord) error

	InsertEvent(ctx context.Context, evt outbox.Event) error
}

// ScheduleStore loads and replaces host schedules. The Redis cache wraps the
// Postgres repository behind this interface.
type ScheduleStore interface {
	Schedule(ctx context.Context, hostID string) (model.Schedule, error)
	SaveSchedule(ctx context.Context, s *model.Schedule) error
}
