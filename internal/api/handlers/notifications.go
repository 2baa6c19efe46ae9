package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"meteo/internal/core"
	"meteo/internal/types"
)

// SubscriptionService turns daily notifications on and off per city.
type SubscriptionService interface {
	Toggle(ctx context.Context, city string, lat, lon float64) (bool, error)
	IsEnabled(ctx context.Context, city string) (bool, error)
}

type NotificationsHandler struct {
	subs      SubscriptionService
	validator *core.Validator
	logger    *slog.Logger
}

func NewNotificationsHandler(subs SubscriptionService, val *core.Validator, logger *slog.Logger) *NotificationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if val == nil {
		val = core.NewValidator()
	}
	return &NotificationsHandler{subs: subs, validator: val, logger: logger}
}

func (h *NotificationsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications/{city}", h.HandleStatus)
	r.Post("/notifications/{city}/toggle", h.HandleToggle)
}

type subscriptionStatus struct {
	City    string `json:"city"`
	Enabled bool   `json:"enabled"`
}

type toggleRequest struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// HandleStatus handles GET /v1/notifications/{city}.
func (h *NotificationsHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	city, err := cityParam(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	enabled, err := h.subs.IsEnabled(r.Context(), city)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: subscriptionStatus{City: city, Enabled: enabled}})
}

// HandleToggle handles POST /v1/notifications/{city}/toggle. The body is
// optional; without coordinates the scheduler looks the city up by name.
func (h *NotificationsHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	city, err := cityParam(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	var req toggleRequest
	if r.ContentLength != 0 {
		if err := core.DecodeJSON(w, r, &req); err != nil {
			core.Error(w, r, err)
			return
		}
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	enabled, err := h.subs.Toggle(r.Context(), city, req.Latitude, req.Longitude)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	types.LoggerFromContext(r.Context(), h.logger).InfoContext(r.Context(), "notification toggled", "city", city, "enabled", enabled)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: subscriptionStatus{City: city, Enabled: enabled}})
}
