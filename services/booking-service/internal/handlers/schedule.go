package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

type scheduleRequest struct {
	TimeZone string          `json:"time_zone"`
	Weekly   json.RawMessage `json:"weekly"`
}

type scheduleResponse struct {
	HostID    string          `json:"host_id"`
	TimeZone  string          `json:"time_zone"`
	Weekly    json.RawMessage `json:"weekly"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

// Schedule serves GET and PUT on the caller's weekly availability.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	host, ok := hostID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s, err := h.bookings.GetSchedule(r.Context(), host)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.writeSchedule(w, r, http.StatusOK, s)

	case http.MethodPut:
		var req scheduleRequest
		if !decode(w, r, &req) {
			return
		}
		weekly, err := model.DecodeWeekly(req.Weekly)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		s := model.Schedule{HostID: host, TimeZone: req.TimeZone, Weekly: weekly}
		if err := h.bookings.PutSchedule(r.Context(), &s); err != nil {
			h.fail(w, r, err)
			return
		}
		h.writeSchedule(w, r, http.StatusOK, s)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) writeSchedule(w http.ResponseWriter, r *http.Request, status int, s model.Schedule) {
	weekly, err := model.EncodeWeekly(s.Weekly)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := scheduleResponse{HostID: s.HostID, TimeZone: s.TimeZone, Weekly: weekly}
	if !s.UpdatedAt.IsZero() {
		resp.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, status, resp)
}
