package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

// Bookings is implemented by *booking.Service.
type Bookings interface {
	GetSchedule(ctx context.Context, hostID string) (model.Schedule, error)
	PutSchedule(ctx context.Context, s *model.Schedule) error
	CreateService(ctx context.Context, svc *model.Service) error
	ListServices(ctx context.Context, hostID string) ([]model.Service, error)
	Slots(ctx context.Context, q booking.SlotQuery) (booking.Availability, error)
	Book(ctx context.Context, req booking.BookRequest) (booking.BookResult, error)
	Confirm(ctx context.Context, hostID, bookingID string) (model.Booking, error)
	Cancel(ctx context.Context, hostID, bookingID, reason string) (model.Booking, error)
	ListBookings(ctx context.Context, hostID string, status model.BookingStatus, limit int) ([]model.Booking, error)
}

type Handler struct {
	bookings Bookings
	logger   *slog.Logger
}

func New(bookings Bookings, logger *slog.Logger) *Handler {
	return &Handler{bookings: bookings, logger: logger}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux, public httpx.Middleware) {
	mux.HandleFunc("/api/v1/hosts/schedule", h.Schedule)
	mux.HandleFunc("/api/v1/hosts/services", h.Services)
	mux.Handle("/api/v1/public/slots", public(http.HandlerFunc(h.Slots)))
	mux.Handle("/api/v1/public/book", public(http.HandlerFunc(h.Book)))
	mux.HandleFunc("/api/v1/bookings", h.ListBookings)
	mux.HandleFunc("/api/v1/bookings/confirm", h.Confirm)
	mux.HandleFunc("/api/v1/bookings/cancel", h.Cancel)
}

// hostID reads the caller's host from X-Host-Id. Authentication happens in
// front of this service.
func hostID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(httpx.HostIDHeader))
	if id == "" || len(id) > 128 {
		http.Error(w, "X-Host-Id header required", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// fail maps domain errors onto status codes; anything unexpected is logged
// and hidden behind a 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrInvalid),
		errors.Is(err, availability.ErrInvalidRange),
		errors.Is(err, booking.ErrRangeTooLong):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, availability.ErrInvalidTimeZone),
		errors.Is(err, availability.ErrInvalidWindow),
		errors.Is(err, availability.ErrInvalidService):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, booking.ErrNoSchedule),
		errors.Is(err, booking.ErrServiceInactive):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, booking.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		http.Error(w, "dependency unavailable", http.StatusServiceUnavailable)
	default:
		h.logger.Error("request failed",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"err", err,
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
