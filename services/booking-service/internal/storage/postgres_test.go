package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
)

// openTestDB applies the migrations into a throwaway schema of the database
// named by DATABASE_URL. The test is skipped without one.
func openTestDB(t *testing.T) *db.Pool {
	t.Helper()
	raw := os.Getenv("DATABASE_URL")
	if raw == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	admin, err := db.Open(ctx, raw, db.Options{MaxConns: 2})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	schema := "slotbook_test_" + uuid.NewString()[:8]
	if _, err := admin.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA %q`, schema)); err != nil {
		admin.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), fmt.Sprintf(`DROP SCHEMA %q CASCADE`, schema))
		admin.Close()
	})

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse DATABASE_URL: %v", err)
	}
	q := u.Query()
	q.Set("search_path", schema+",public")
	u.RawQuery = q.Encode()

	pool, err := db.Open(ctx, u.String(), db.Options{MaxConns: 4})
	if err != nil {
		t.Fatalf("open schema pool: %v", err)
	}
	t.Cleanup(pool.Close)

	migration, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_init.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(migration)); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func TestPostgresScheduleRoundTrip(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	repo := NewScheduleRepository(pool)

	if _, err := repo.Schedule(ctx, "host-1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var weekly [7]availability.WeeklyWindow
	weekly[2] = availability.WeeklyWindow{StartMinute: 540, EndMinute: 1020, Enabled: true}
	in := &model.Schedule{HostID: "host-1", TimeZone: "America/New_York", Weekly: weekly}
	if err := repo.SaveSchedule(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Schedule(ctx, "host-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TimeZone != "America/New_York" || got.Weekly != weekly || got.UpdatedAt.IsZero() {
		t.Fatalf("unexpected schedule %+v", got)
	}

	// Rows written with only some weekday keys decode the rest as days off.
	if _, err := pool.Exec(ctx, `
		INSERT INTO availability_schedules (host_id, time_zone, weekly_window)
		VALUES ('host-2', 'UTC', '{"0": {"start": 600, "end": 660, "enabled": true}}')
	`); err != nil {
		t.Fatalf("insert partial: %v", err)
	}
	got, err = repo.Schedule(ctx, "host-2")
	if err != nil {
		t.Fatalf("load partial: %v", err)
	}
	if !got.Weekly[0].Enabled || got.Weekly[0].EndMinute != 660 {
		t.Fatalf("expected monday window, got %+v", got.Weekly[0])
	}
	for day := 1; day < 7; day++ {
		if got.Weekly[day].Enabled {
			t.Fatalf("expected weekday %d disabled", day)
		}
	}
}

func createTestService(t *testing.T, store *Store, hostID string) model.Service {
	t.Helper()
	svc := model.Service{
		ID:              uuid.NewString(),
		HostID:          hostID,
		Slug:            "intro-" + uuid.NewString()[:6],
		Title:           "Intro",
		DurationMinutes: 30,
		IsActive:        true,
	}
	if err := store.CreateService(context.Background(), &svc); err != nil {
		t.Fatalf("create service: %v", err)
	}
	return svc
}

func newTestBooking(hostID, serviceID string, start time.Time, status model.BookingStatus) model.Booking {
	return model.Booking{
		ID:         uuid.NewString(),
		HostID:     hostID,
		ServiceID:  serviceID,
		GuestName:  "Ada Lovelace",
		GuestEmail: "ada@example.com",
		StartTime:  start,
		EndTime:    start.Add(30 * time.Minute),
		Status:     status,
	}
}

func TestPostgresServices(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	store := NewStore(pool, outbox.NewRepository())

	svc := createTestService(t, store, "host-1")
	got, err := store.Service(ctx, svc.ID)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if got.Slug != svc.Slug || got.DurationMinutes != 30 || !got.IsActive || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected service %+v", got)
	}

	dup := svc
	dup.ID = uuid.NewString()
	if err := store.CreateService(ctx, &dup); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected duplicate slug conflict, got %v", err)
	}

	list, err := store.ListServices(ctx, "host-1")
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one service, got %v (%v)", list, err)
	}
}

func TestPostgresBookingWritePath(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	store := NewStore(pool, outbox.NewRepository())
	svc := createTestService(t, store, "host-1")
	start := time.Date(2030, 1, 28, 9, 0, 0, 0, time.UTC)

	first := newTestBooking("host-1", svc.ID, start, model.StatusConfirmed)
	err := store.InTx(ctx, func(tx booking.Tx) error {
		if err := tx.LockHost(ctx, "host-1"); err != nil {
			return err
		}
		rec, seen, err := tx.ClaimIdempotencyKey(ctx, "host-1", "key-1")
		if err != nil {
			return err
		}
		if seen || rec.BookingID != "" {
			return fmt.Errorf("fresh key reported as seen: %+v", rec)
		}
		if err := tx.InsertBooking(ctx, &first); err != nil {
			return err
		}
		evt, err := outbox.BookingEvent(outbox.EventBookingConfirmed, first)
		if err != nil {
			return err
		}
		if err := tx.InsertEvent(ctx, evt); err != nil {
			return err
		}
		return tx.FinalizeIdempotencyKey(ctx, model.IdempotencyRecord{HostID: "host-1", Key: "key-1", BookingID: first.ID})
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	err = store.InTx(ctx, func(tx booking.Tx) error {
		rec, seen, err := tx.ClaimIdempotencyKey(ctx, "host-1", "key-1")
		if err != nil {
			return err
		}
		if !seen || rec.BookingID != first.ID {
			return fmt.Errorf("expected replay of %s, got %+v seen=%t", first.ID, rec, seen)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	overlapping := newTestBooking("host-1", svc.ID, start.Add(15*time.Minute), model.StatusPending)
	err = store.InTx(ctx, func(tx booking.Tx) error { return tx.InsertBooking(ctx, &overlapping) })
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected exclusion conflict, got %v", err)
	}

	adjacent := newTestBooking("host-1", svc.ID, start.Add(30*time.Minute), model.StatusPending)
	if err := store.InTx(ctx, func(tx booking.Tx) error { return tx.InsertBooking(ctx, &adjacent) }); err != nil {
		t.Fatalf("adjacent booking: %v", err)
	}

	reserved, err := store.Reservations(ctx, "host-1", start.Add(-time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("reservations: %v", err)
	}
	if len(reserved) != 2 || !reserved[0].Start.Equal(start) {
		t.Fatalf("unexpected reservations %+v", reserved)
	}

	var published int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM outbox_events WHERE aggregate_id = $1`, first.ID).Scan(&published); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if published != 1 {
		t.Fatalf("expected one outbox event, got %d", published)
	}
}

func TestPostgresSweep(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	store := NewStore(pool, outbox.NewRepository())
	svc := createTestService(t, store, "host-1")
	now := time.Date(2030, 2, 1, 12, 0, 0, 0, time.UTC)

	done := newTestBooking("host-1", svc.ID, now.Add(-2*time.Hour), model.StatusConfirmed)
	stale := newTestBooking("host-1", svc.ID, now.Add(-time.Hour), model.StatusPending)
	upcoming := newTestBooking("host-1", svc.ID, now.Add(time.Hour), model.StatusPending)
	err := store.InTx(ctx, func(tx booking.Tx) error {
		for _, b := range []*model.Booking{&done, &stale, &upcoming} {
			if err := tx.InsertBooking(ctx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := store.Sweep(ctx, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Completed != 1 || res.Expired != 1 {
		t.Fatalf("unexpected sweep result %+v", res)
	}

	list, err := store.ListBookings(ctx, "host-1", "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	statuses := map[string]model.Booking{}
	for _, b := range list {
		statuses[b.ID] = b
	}
	if statuses[done.ID].Status != model.StatusCompleted {
		t.Fatalf("expected completed, got %s", statuses[done.ID].Status)
	}
	if b := statuses[stale.ID]; b.Status != model.StatusCancelled || b.CancelReason != "expired" || b.CancelledAt == nil {
		t.Fatalf("expected expired cancellation, got %+v", b)
	}
	if statuses[upcoming.ID].Status != model.StatusPending {
		t.Fatalf("expected upcoming booking untouched, got %s", statuses[upcoming.ID].Status)
	}

	var events int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM outbox_events WHERE event_type = $1`, outbox.EventBookingCancelled).Scan(&events); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected one cancellation event, got %d", events)
	}

	// A second pass finds nothing left to move.
	if res, err := store.Sweep(ctx, now); err != nil || res != (model.SweepResult{}) {
		t.Fatalf("expected empty second sweep, got %+v (%v)", res, err)
	}
}
