package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"meteo/internal/core"
	"meteo/internal/types"
)

// FavoriteStore persists bookmarked cities.
type FavoriteStore interface {
	Upsert(ctx context.Context, fav *types.FavoriteCity) error
	Delete(ctx context.Context, city string) error
	List(ctx context.Context) ([]types.FavoriteCity, error)
}

type FavoritesHandler struct {
	store     FavoriteStore
	validator *core.Validator
	logger    *slog.Logger
}

func NewFavoritesHandler(store FavoriteStore, val *core.Validator, logger *slog.Logger) *FavoritesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if val == nil {
		val = core.NewValidator()
	}
	return &FavoritesHandler{store: store, validator: val, logger: logger}
}

func (h *FavoritesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/favorites", h.HandleList)
	r.Put("/favorites/{city}", h.HandlePut)
	r.Delete("/favorites/{city}", h.HandleDelete)
}

// HandleList handles GET /v1/favorites, ordered by name.
func (h *FavoritesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	favs, err := h.store.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: favs})
}

type favoriteRequest struct {
	Country      string  `json:"country" validate:"omitempty,len=2"`
	Latitude     float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64 `json:"longitude" validate:"gte=-180,lte=180"`
	FromLocation bool    `json:"from_location"`
}

// HandlePut handles PUT /v1/favorites/{city}. Saving an existing name
// refreshes it.
func (h *FavoritesHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	city, err := cityParam(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	var req favoriteRequest
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

	fav := &types.FavoriteCity{
		CityName:     city,
		Country:      req.Country,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		FromLocation: req.FromLocation,
	}
	if err := h.store.Upsert(r.Context(), fav); err != nil {
		core.Error(w, r, err)
		return
	}
	types.LoggerFromContext(r.Context(), h.logger).InfoContext(r.Context(), "favorite saved", "city", fav.CityName)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: fav})
}

// HandleDelete handles DELETE /v1/favorites/{city}.
func (h *FavoritesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	city, err := cityParam(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.store.Delete(r.Context(), city); err != nil {
		core.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
