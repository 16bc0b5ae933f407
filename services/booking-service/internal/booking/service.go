package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultRangeDays is how far ahead a slot listing looks when no end date is given.
	DefaultRangeDays = 30
	MaxRangeDays     = 62
)

type Service struct {
	store     Store
	schedules ScheduleStore
	engine    *availability.Engine
	clock     availability.Clock
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewService(store Store, schedules ScheduleStore, clock availability.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = availability.SystemClock{}
	}
	return &Service{
		store:     store,
		schedules: schedules,
		engine:    availability.NewEngine(clock),
		clock:     clock,
		logger:    logger,
		tracer:    otel.Tracer("github.com/md-rashed-zaman/slotbook/services/booking-service/internal/booking"),
	}
}

func (s *Service) GetSchedule(ctx context.Context, hostID string) (model.Schedule, error) {
	sched, err := s.schedules.Schedule(ctx, hostID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Schedule{}, ErrNoSchedule
	}
	return sched, err
}

// PutSchedule replaces the host's schedule after checking the zone and every
// enabled window.
func (s *Service) PutSchedule(ctx context.Context, sched *model.Schedule) error {
	sched.TimeZone = strings.TrimSpace(sched.TimeZone)
	if _, err := sched.Resolve(); err != nil {
		return err
	}
	return s.schedules.SaveSchedule(ctx, sched)
}

func (s *Service) CreateService(ctx context.Context, svc *model.Service) error {
	svc.Normalize()
	if err := svc.Validate(); err != nil {
		return err
	}
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	if err := s.store.CreateService(ctx, svc); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return fmt.Errorf("%w: slug %q already used", model.ErrInvalid, svc.Slug)
		}
		return err
	}
	return nil
}

func (s *Service) ListServices(ctx context.Context, hostID string) ([]model.Service, error) {
	return s.store.ListServices(ctx, hostID)
}

// activeService loads serviceID and checks it belongs to hostID and is bookable.
func (s *Service) activeService(ctx context.Context, hostID, serviceID string) (model.Service, error) {
	svc, err := s.store.Service(ctx, serviceID)
	if err != nil {
		return model.Service{}, err
	}
	if svc.HostID != hostID {
		return model.Service{}, model.ErrNotFound
	}
	if !svc.IsActive {
		return model.Service{}, ErrServiceInactive
	}
	return svc, nil
}

func (s *Service) resolvedSchedule(ctx context.Context, hostID string) (*availability.Schedule, error) {
	stored, err := s.GetSchedule(ctx, hostID)
	if err != nil {
		return nil, err
	}
	return stored.Resolve()
}
