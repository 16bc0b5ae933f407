package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Label     string `json:"label"`
}

type slotsResponse struct {
	HostID          string                `json:"host_id"`
	ServiceID       string                `json:"service_id"`
	TimeZone        string                `json:"time_zone"`
	DurationMinutes int                   `json:"duration_minutes"`
	From            string                `json:"from"`
	To              string                `json:"to"`
	Days            map[string][]slotItem `json:"days"`
}

// Slots lists open slots for one date (?date=) or an inclusive range
// (?from=&to=). Without dates the next 30 days are returned.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	query := booking.SlotQuery{
		HostID:    strings.TrimSpace(q.Get("host_id")),
		ServiceID: strings.TrimSpace(q.Get("service_id")),
	}
	if query.HostID == "" || query.ServiceID == "" {
		http.Error(w, "host_id and service_id are required", http.StatusBadRequest)
		return
	}

	var err error
	if date := strings.TrimSpace(q.Get("date")); date != "" {
		if query.From, err = parseDate("date", date); err != nil {
			h.fail(w, r, err)
			return
		}
		query.To = query.From
	} else {
		if raw := strings.TrimSpace(q.Get("from")); raw != "" {
			if query.From, err = parseDate("from", raw); err != nil {
				h.fail(w, r, err)
				return
			}
		}
		if raw := strings.TrimSpace(q.Get("to")); raw != "" {
			if query.To, err = parseDate("to", raw); err != nil {
				h.fail(w, r, err)
				return
			}
		}
	}

	avail, err := h.bookings.Slots(r.Context(), query)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	loc := avail.Schedule.Location()
	days := make(map[string][]slotItem, len(avail.Days))
	for day, slots := range avail.Days {
		items := make([]slotItem, 0, len(slots))
		for _, s := range slots {
			items = append(items, slotItem{
				StartTime: s.Start.UTC().Format(time.RFC3339),
				EndTime:   s.End.UTC().Format(time.RFC3339),
				Label:     availability.FormatSlotTime(s.Start, loc),
			})
		}
		days[day] = items
	}
	writeJSON(w, http.StatusOK, slotsResponse{
		HostID:          query.HostID,
		ServiceID:       avail.Service.ID,
		TimeZone:        avail.Schedule.TimeZone(),
		DurationMinutes: avail.Service.DurationMinutes,
		From:            avail.From.String(),
		To:              avail.To.String(),
		Days:            days,
	})
}

func parseDate(field, raw string) (civil.Date, error) {
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", model.ErrInvalid, field)
	}
	return d, nil
}
