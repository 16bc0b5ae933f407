package handlers

import (
	"net/http"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

type createServiceRequest struct {
	Slug                 string `json:"slug"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	DurationMinutes      int    `json:"duration_minutes"`
	BufferMinutes        int    `json:"buffer_minutes"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	IsActive             *bool  `json:"is_active"`
}

type serviceItem struct {
	ServiceID            string `json:"service_id"`
	Slug                 string `json:"slug"`
	Title                string `json:"title"`
	Description          string `json:"description,omitempty"`
	DurationMinutes      int    `json:"duration_minutes"`
	BufferMinutes        int    `json:"buffer_minutes"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	IsActive             bool   `json:"is_active"`
	CreatedAt            string `json:"created_at,omitempty"`
}

func toServiceItem(s model.Service) serviceItem {
	item := serviceItem{
		ServiceID:            s.ID,
		Slug:                 s.Slug,
		Title:                s.Title,
		Description:          s.Description,
		DurationMinutes:      s.DurationMinutes,
		BufferMinutes:        s.BufferMinutes,
		RequiresConfirmation: s.RequiresConfirmation,
		IsActive:             s.IsActive,
	}
	if !s.CreatedAt.IsZero() {
		item.CreatedAt = s.CreatedAt.UTC().Format(time.RFC3339)
	}
	return item
}

// Services lists (GET) or creates (POST) the caller's services.
func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	host, ok := hostID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		services, err := h.bookings.ListServices(r.Context(), host)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		items := make([]serviceItem, 0, len(services))
		for _, s := range services {
			items = append(items, toServiceItem(s))
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPost:
		var req createServiceRequest
		if !decode(w, r, &req) {
			return
		}
		svc := model.Service{
			HostID:               host,
			Slug:                 req.Slug,
			Title:                req.Title,
			Description:          req.Description,
			DurationMinutes:      req.DurationMinutes,
			BufferMinutes:        req.BufferMinutes,
			RequiresConfirmation: req.RequiresConfirmation,
			IsActive:             req.IsActive == nil || *req.IsActive,
		}
		if err := h.bookings.CreateService(r.Context(), &svc); err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toServiceItem(svc))

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
