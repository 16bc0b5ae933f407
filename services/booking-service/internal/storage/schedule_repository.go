package storage

import (
	"context"

	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func (r *ScheduleRepository) Schedule(ctx context.Context, hostID string) (model.Schedule, error) {
	var (
		s   model.Schedule
		raw []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT host_id, time_zone, weekly_window, updated_at
		FROM availability_schedules
		WHERE host_id = $1
	`, hostID).Scan(&s.HostID, &s.TimeZone, &raw, &s.UpdatedAt)
	if err != nil {
		return model.Schedule{}, translate(err)
	}
	if s.Weekly, err = model.DecodeWeekly(raw); err != nil {
		return model.Schedule{}, err
	}
	return s, nil
}

// SaveSchedule replaces the host's schedule wholesale.
func (r *ScheduleRepository) SaveSchedule(ctx context.Context, s *model.Schedule) error {
	raw, err := model.EncodeWeekly(s.Weekly)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO availability_schedules (host_id, time_zone, weekly_window)
		VALUES ($1, $2, $3)
		ON CONFLICT (host_id) DO UPDATE
		SET time_zone = EXCLUDED.time_zone,
			weekly_window = EXCLUDED.weekly_window,
			updated_at = now()
		RETURNING updated_at
	`, s.HostID, s.TimeZone, raw).Scan(&s.UpdatedAt)
}
