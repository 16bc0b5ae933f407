package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

const serviceColumns = `id, host_id, slug, title, COALESCE(description, ''), duration_minutes, buffer_minutes,
	requires_confirmation, is_active, created_at`

func (s *Store) CreateService(ctx context.Context, svc *model.Service) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO services
			(id, host_id, slug, title, description, duration_minutes, buffer_minutes, requires_confirmation, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, svc.ID, svc.HostID, svc.Slug, svc.Title, svc.Description, svc.DurationMinutes, svc.BufferMinutes,
		svc.RequiresConfirmation, svc.IsActive).Scan(&svc.CreatedAt)
	return translate(err)
}

func (s *Store) Service(ctx context.Context, id string) (model.Service, error) {
	svc, err := scanService(s.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	return svc, translate(err)
}

func (s *Store) ListServices(ctx context.Context, hostID string) ([]model.Service, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE host_id = $1
		ORDER BY created_at ASC
	`, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Service{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func scanService(row pgx.Row) (model.Service, error) {
	var svc model.Service
	err := row.Scan(
		&svc.ID,
		&svc.HostID,
		&svc.Slug,
		&svc.Title,
		&svc.Description,
		&svc.DurationMinutes,
		&svc.BufferMinutes,
		&svc.RequiresConfirmation,
		&svc.IsActive,
		&svc.CreatedAt,
	)
	return svc, err
}
