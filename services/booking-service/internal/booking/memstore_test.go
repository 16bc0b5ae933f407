package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
)

// memStore is an in-memory Store. InTx holds one lock for the whole
// callback and applies the writes only when the callback succeeds.
type memStore struct {
	mu        sync.Mutex
	schedules map[string]model.Schedule
	services  map[string]model.Service
	bookings  map[string]model.Booking
	idem      map[string]model.IdempotencyRecord
	events    []outbox.Event
	locks     []string
}

func newMemStore() *memStore {
	return &memStore{
		schedules: map[string]model.Schedule{},
		services:  map[string]model.Service{},
		bookings:  map[string]model.Booking{},
		idem:      map[string]model.IdempotencyRecord{},
	}
}

func (m *memStore) Schedule(_ context.Context, hostID string) (model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[hostID]
	if !ok {
		return model.Schedule{}, model.ErrNotFound
	}
	return s, nil
}

func (m *memStore) SaveSchedule(_ context.Context, s *model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[s.HostID] = *s
	return nil
}

func (m *memStore) CreateService(_ context.Context, svc *model.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.services {
		if existing.HostID == svc.HostID && existing.Slug == svc.Slug {
			return model.ErrConflict
		}
	}
	m.services[svc.ID] = *svc
	return nil
}

func (m *memStore) Service(_ context.Context, id string) (model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc, ok := m.services[id]
	if !ok {
		return model.Service{}, model.ErrNotFound
	}
	return svc, nil
}

func (m *memStore) ListServices(_ context.Context, hostID string) ([]model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Service{}
	for _, svc := range m.services {
		if svc.HostID == hostID {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *memStore) Reservations(_ context.Context, hostID string, from, to time.Time) ([]availability.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reservations(m.bookings, hostID, from, to), nil
}

func (m *memStore) reservations(bookings map[string]model.Booking, hostID string, from, to time.Time) []availability.Interval {
	var out []availability.Interval
	for _, b := range bookings {
		if b.HostID == hostID && b.Status.Reserves() && b.StartTime.Before(to) && b.EndTime.After(from) {
			out = append(out, availability.Interval{Start: b.StartTime, End: b.EndTime})
		}
	}
	return out
}

func (m *memStore) ListBookings(_ context.Context, hostID string, status model.BookingStatus, limit int) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Booking{}
	for _, b := range m.bookings {
		if b.HostID == hostID && (status == "" || b.Status == status) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) InTx(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		store:    m,
		bookings: make(map[string]model.Booking, len(m.bookings)),
		idem:     make(map[string]model.IdempotencyRecord, len(m.idem)),
	}
	for k, v := range m.bookings {
		tx.bookings[k] = v
	}
	for k, v := range m.idem {
		tx.idem[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.bookings = tx.bookings
	m.idem = tx.idem
	m.events = append(m.events, tx.events...)
	m.locks = append(m.locks, tx.locks...)
	return nil
}

func (m *memStore) snapshotEvents() []outbox.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]outbox.Event(nil), m.events...)
}

type memTx struct {
	store    *memStore
	bookings map[string]model.Booking
	idem     map[string]model.IdempotencyRecord
	events   []outbox.Event
	locks    []string
}

func (t *memTx) LockHost(_ context.Context, hostID string) error {
	t.locks = append(t.locks, hostID)
	return nil
}

func (t *memTx) Reservations(_ context.Context, hostID string, from, to time.Time) ([]availability.Interval, error) {
	return t.store.reservations(t.bookings, hostID, from, to), nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	for _, other := range t.bookings {
		if other.HostID == b.HostID && other.Status.Reserves() &&
			b.StartTime.Before(other.EndTime) && other.StartTime.Before(b.EndTime) {
			return model.ErrConflict
		}
	}
	b.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.UpdatedAt = b.CreatedAt
	t.bookings[b.ID] = *b
	return nil
}

func (t *memTx) Booking(_ context.Context, hostID, id string) (model.Booking, error) {
	b, ok := t.bookings[id]
	if !ok || b.HostID != hostID {
		return model.Booking{}, model.ErrNotFound
	}
	return b, nil
}

func (t *memTx) BookingForUpdate(ctx context.Context, hostID, id string) (model.Booking, error) {
	return t.Booking(ctx, hostID, id)
}

func (t *memTx) UpdateBookingStatus(_ context.Context, b *model.Booking) error {
	if _, ok := t.bookings[b.ID]; !ok {
		return model.ErrNotFound
	}
	t.bookings[b.ID] = *b
	return nil
}

func (t *memTx) ClaimIdempotencyKey(_ context.Context, hostID, key string) (model.IdempotencyRecord, bool, error) {
	k := hostID + "/" + key
	if rec, ok := t.idem[k]; ok {
		return rec, true, nil
	}
	rec := model.IdempotencyRecord{HostID: hostID, Key: key}
	t.idem[k] = rec
	return rec, false, nil
}

func (t *memTx) FinalizeIdempotencyKey(_ context.Context, rec model.IdempotencyRecord) error {
	t.idem[rec.HostID+"/"+rec.Key] = rec
	return nil
}

func (t *memTx) InsertEvent(_ context.Context, evt outbox.Event) error {
	t.events = append(t.events, evt)
	return nil
}
