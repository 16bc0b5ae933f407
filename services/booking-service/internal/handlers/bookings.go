package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

type createBookingRequest struct {
	HostID     string `json:"host_id"`
	ServiceID  string `json:"service_id"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	Notes      string `json:"notes"`
	StartTime  string `json:"start_time"`
}

type bookingItem struct {
	BookingID   string `json:"booking_id"`
	ServiceID   string `json:"service_id"`
	GuestName   string `json:"guest_name"`
	GuestEmail  string `json:"guest_email"`
	Notes       string `json:"notes,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at,omitempty"`
	Reason      string `json:"cancellation_reason,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type transitionRequest struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

func toBookingItem(b model.Booking) bookingItem {
	item := bookingItem{
		BookingID:  b.ID,
		ServiceID:  b.ServiceID,
		GuestName:  b.GuestName,
		GuestEmail: b.GuestEmail,
		Notes:      b.Notes,
		StartTime:  b.StartTime.UTC().Format(time.RFC3339),
		EndTime:    b.EndTime.UTC().Format(time.RFC3339),
		Status:     string(b.Status),
		Reason:     b.CancelReason,
	}
	if b.CancelledAt != nil {
		item.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
	}
	if !b.CreatedAt.IsZero() {
		item.CreatedAt = b.CreatedAt.UTC().Format(time.RFC3339)
	}
	return item
}

// Book creates a booking for a public guest. A repeated Idempotency-Key
// returns the booking created by the first request.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createBookingRequest
	if !decode(w, r, &req) {
		return
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}

	res, err := h.bookings.Book(r.Context(), booking.BookRequest{
		HostID:         req.HostID,
		ServiceID:      req.ServiceID,
		GuestName:      req.GuestName,
		GuestEmail:     req.GuestEmail,
		Notes:          req.Notes,
		Start:          start,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	writeJSON(w, http.StatusCreated, toBookingItem(res.Booking))
}

// ListBookings returns the caller's bookings, optionally filtered by ?status=.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	host, ok := hostID(w, r)
	if !ok {
		return
	}

	var status model.BookingStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		st, ok := model.ParseBookingStatus(raw)
		if !ok {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		status = st
	}
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	bookings, err := h.bookings.ListBookings(r.Context(), host, status, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := make([]bookingItem, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, toBookingItem(b))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(host string, req transitionRequest) (model.Booking, error) {
		return h.bookings.Confirm(r.Context(), host, req.BookingID)
	})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(host string, req transitionRequest) (model.Booking, error) {
		return h.bookings.Cancel(r.Context(), host, req.BookingID, req.Reason)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(string, transitionRequest) (model.Booking, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	host, ok := hostID(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if !decode(w, r, &req) {
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	if req.BookingID == "" {
		http.Error(w, "booking_id required", http.StatusBadRequest)
		return
	}

	b, err := apply(host, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingItem(b))
}
