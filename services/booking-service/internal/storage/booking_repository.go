package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
)

const bookingColumns = `id, host_id, service_id, guest_name, guest_email, COALESCE(notes, ''),
	start_time, end_time, status, cancelled_at, COALESCE(cancellation_reason, ''), created_at, updated_at`

func (s *Store) Reservations(ctx context.Context, hostID string, from, to time.Time) ([]availability.Interval, error) {
	return reservations(ctx, s.pool, hostID, from, to)
}

func (s *Store) ListBookings(ctx context.Context, hostID string, status model.BookingStatus, limit int) ([]model.Booking, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE host_id = $1
			AND ($2 = '' OR status = $2)
		ORDER BY start_time DESC
		LIMIT $3
	`, hostID, string(status), limit)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// Sweep completes confirmed bookings that have ended and expires pending
// bookings whose start passed unconfirmed, emitting a cancellation event for each.
func (s *Store) Sweep(ctx context.Context, now time.Time) (model.SweepResult, error) {
	var res model.SweepResult
	err := s.pool.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE bookings
			SET status = 'completed', updated_at = $1
			WHERE status = 'confirmed' AND end_time <= $1
		`, now)
		if err != nil {
			return err
		}
		res.Completed = tag.RowsAffected()

		rows, err := tx.Query(ctx, `
			UPDATE bookings
			SET status = 'cancelled', cancelled_at = $1, cancellation_reason = 'expired', updated_at = $1
			WHERE status = 'pending' AND start_time <= $1
			RETURNING `+bookingColumns, now)
		if err != nil {
			return err
		}
		expired, err := collectBookings(rows)
		if err != nil {
			return err
		}
		res.Expired = int64(len(expired))
		for _, b := range expired {
			evt, err := outbox.BookingEvent(outbox.EventBookingCancelled, b)
			if err != nil {
				return err
			}
			if err := s.outbox.Insert(ctx, tx, evt); err != nil {
				return err
			}
		}
		return nil
	})
	return res, err
}

// LockHost takes a transaction scoped advisory lock keyed by the host id.
func (t *txStore) LockHost(ctx context.Context, hostID string) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "booking-host:"+hostID)
	return err
}

func (t *txStore) Reservations(ctx context.Context, hostID string, from, to time.Time) ([]availability.Interval, error) {
	return reservations(ctx, t.tx, hostID, from, to)
}

func (t *txStore) InsertBooking(ctx context.Context, b *model.Booking) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO bookings
			(id, host_id, service_id, guest_name, guest_email, notes, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)
		RETURNING created_at, updated_at
	`, b.ID, b.HostID, b.ServiceID, b.GuestName, b.GuestEmail, b.Notes, b.StartTime, b.EndTime, string(b.Status)).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	return translate(err)
}

func (t *txStore) Booking(ctx context.Context, hostID, id string) (model.Booking, error) {
	b, err := scanBooking(t.tx.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1 AND host_id = $2
	`, id, hostID))
	return b, translate(err)
}

func (t *txStore) BookingForUpdate(ctx context.Context, hostID, id string) (model.Booking, error) {
	b, err := scanBooking(t.tx.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1 AND host_id = $2
		FOR UPDATE
	`, id, hostID))
	return b, translate(err)
}

func (t *txStore) UpdateBookingStatus(ctx context.Context, b *model.Booking) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE bookings
		SET status = $3,
			cancelled_at = $4,
			cancellation_reason = NULLIF($5, ''),
			updated_at = $6
		WHERE id = $1 AND host_id = $2
	`, b.ID, b.HostID, string(b.Status), b.CancelledAt, b.CancelReason, b.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (t *txStore) ClaimIdempotencyKey(ctx context.Context, hostID, key string) (model.IdempotencyRecord, bool, error) {
	rec, err := t.selectIdempotencyForUpdate(ctx, hostID, key)
	if err == nil {
		return rec, true, nil
	}
	if !IsNotFound(err) {
		return model.IdempotencyRecord{}, false, err
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (host_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (host_id, idempotency_key) DO NOTHING
	`, hostID, key)
	if err != nil {
		return model.IdempotencyRecord{}, false, err
	}

	// A concurrent claim may have won the insert; locking the row waits for it.
	rec, err = t.selectIdempotencyForUpdate(ctx, hostID, key)
	if err != nil {
		return model.IdempotencyRecord{}, false, err
	}
	return rec, rec.BookingID != "", nil
}

func (t *txStore) FinalizeIdempotencyKey(ctx context.Context, rec model.IdempotencyRecord) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET booking_id = $3, updated_at = now()
		WHERE host_id = $1 AND idempotency_key = $2
	`, rec.HostID, rec.Key, rec.BookingID)
	return err
}

func (t *txStore) InsertEvent(ctx context.Context, evt outbox.Event) error {
	return t.outbox.Insert(ctx, t.tx, evt)
}

func (t *txStore) selectIdempotencyForUpdate(ctx context.Context, hostID, key string) (model.IdempotencyRecord, error) {
	var rec model.IdempotencyRecord
	err := t.tx.QueryRow(ctx, `
		SELECT host_id, idempotency_key, COALESCE(booking_id::text, '')
		FROM booking_idempotency_keys
		WHERE host_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, hostID, key).Scan(&rec.HostID, &rec.Key, &rec.BookingID)
	return rec, err
}

// reservations reads bookings that still hold time. Cancelled and completed
// bookings never block a slot.
func reservations(ctx context.Context, q querier, hostID string, from, to time.Time) ([]availability.Interval, error) {
	rows, err := q.Query(ctx, `
		SELECT start_time, end_time
		FROM bookings
		WHERE host_id = $1
			AND status IN ('pending', 'confirmed')
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, hostID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func collectBookings(rows pgx.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (model.Booking, error) {
	var (
		b      model.Booking
		status string
	)
	err := row.Scan(
		&b.ID,
		&b.HostID,
		&b.ServiceID,
		&b.GuestName,
		&b.GuestEmail,
		&b.Notes,
		&b.StartTime,
		&b.EndTime,
		&status,
		&b.CancelledAt,
		&b.CancelReason,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return b, err
	}
	st, ok := model.ParseBookingStatus(status)
	if !ok {
		return b, fmt.Errorf("booking %s: unknown status %q", b.ID, status)
	}
	b.Status = st
	return b, nil
}
