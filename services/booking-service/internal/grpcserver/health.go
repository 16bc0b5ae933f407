package grpcserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/grpcx"
	"github.com/md-rashed-zaman/slotbook/libs/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported on the gRPC health service alongside "".
const ServiceName = "slotbook.booking.v1.BookingService"

// Health mirrors the /readyz checks on the standard gRPC health service so
// gRPC aware load balancers can drain the instance.
type Health struct {
	srv      *health.Server
	checks   []runtime.ReadyCheck
	logger   *slog.Logger
	interval time.Duration
}

func NewHealth(logger *slog.Logger, interval time.Duration, checks ...runtime.ReadyCheck) *Health {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	h := &Health{srv: health.NewServer(), checks: checks, logger: logger, interval: interval}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// NewServer returns a gRPC server with the health service registered.
func NewServer(logger *slog.Logger, h *Health) *grpc.Server {
	srv := grpcx.NewServer(logger)
	healthpb.RegisterHealthServer(srv, h.srv)
	return srv
}

// Run refreshes the serving status until ctx is done, then reports
// NOT_SERVING for good.
func (h *Health) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		h.Refresh(ctx)
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return nil
		case <-ticker.C:
		}
	}
}

// Refresh runs the checks once and publishes the result.
func (h *Health) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	failures := runtime.CheckAll(ctx, h.checks...)
	status := healthpb.HealthCheckResponse_SERVING
	if len(failures) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		h.logger.Warn("dependencies not ready", "failures", failures)
	}
	h.set(status)
	return status
}

func (h *Health) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
}
