package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"meteo/internal/advisory"
	"meteo/internal/core"
	"meteo/internal/forecasts"
	"meteo/internal/types"
)

// WeatherService is the read side of the forecasts package.
type WeatherService interface {
	Weather(ctx context.Context, loc types.Location) (*forecasts.Report, error)
}

// AdviceProvider produces clothing advice. It never fails.
type AdviceProvider interface {
	Advise(ctx context.Context, city string, s types.WeatherSnapshot) advisory.Advice
}

// WeatherHandler serves current conditions, the grouped forecast and advice.
type WeatherHandler struct {
	weather   WeatherService
	advisor   AdviceProvider
	validator *core.Validator
	logger    *slog.Logger
}

func NewWeatherHandler(weather WeatherService, advisor AdviceProvider, val *core.Validator, logger *slog.Logger) *WeatherHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if val == nil {
		val = core.NewValidator()
	}
	return &WeatherHandler{weather: weather, advisor: advisor, validator: val, logger: logger}
}

// RegisterRoutes mounts the weather endpoints.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/weather", h.HandleWeather)
	r.Get("/forecast", h.HandleForecast)
	r.Get("/advice", h.HandleAdvice)
	r.Post("/advice/local", h.HandleLocalAdvice)
}

type weatherResponse struct {
	Location  types.Location        `json:"location"`
	Current   *types.CurrentWeather `json:"current"`
	Snapshot  types.WeatherSnapshot `json:"snapshot"`
	Outdoor   bool                  `json:"outdoor"`
	IconURL   string                `json:"icon_url,omitempty"`
	FetchedAt time.Time             `json:"fetched_at"`
	Cached    bool                  `json:"cached"`
}

type forecastResponse struct {
	Location  types.Location  `json:"location"`
	City      string          `json:"city"`
	Days      []forecasts.Day `json:"days"`
	FetchedAt time.Time       `json:"fetched_at"`
	Cached    bool            `json:"cached"`
}

type adviceResponse struct {
	City     string                `json:"city"`
	Advice   advisory.Advice       `json:"advice"`
	Snapshot types.WeatherSnapshot `json:"snapshot"`
}

// HandleWeather handles GET /v1/weather.
func (h *WeatherHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: weatherResponse{
		Location:  report.Location,
		Current:   report.Current,
		Snapshot:  report.Snapshot,
		Outdoor:   report.Outdoor,
		IconURL:   report.IconURL,
		FetchedAt: report.FetchedAt,
		Cached:    report.Cached,
	}})
}

// HandleForecast handles GET /v1/forecast.
func (h *WeatherHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	days := report.Days
	if days == nil {
		days = []forecasts.Day{}
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: forecastResponse{
		Location:  report.Location,
		City:      displayCity(report),
		Days:      days,
		FetchedAt: report.FetchedAt,
		Cached:    report.Cached,
	}})
}

// HandleAdvice handles GET /v1/advice. Remote failures come back as local
// advice with a notice, never as an error status.
func (h *WeatherHandler) HandleAdvice(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	city := displayCity(report)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: adviceResponse{
		City:     city,
		Advice:   h.advisor.Advise(r.Context(), city, report.Snapshot),
		Snapshot: report.Snapshot,
	}})
}

type localAdviceRequest struct {
	Temperature *float64 `json:"temperature" validate:"required,gte=-90,lte=60"`
	Description string   `json:"description" validate:"max=200"`
	WindSpeed   float64  `json:"wind_speed" validate:"gte=0,lte=120"`
	Humidity    int      `json:"humidity" validate:"gte=0,lte=100"`
	IsDaytime   *bool    `json:"is_daytime"`
	ConditionID int      `json:"condition_id" validate:"gte=0"`
}

// HandleLocalAdvice handles POST /v1/advice/local: the rule engine on a
// caller-supplied snapshot, no upstream calls. is_daytime defaults to true.
func (h *WeatherHandler) HandleLocalAdvice(w http.ResponseWriter, r *http.Request) {
	var req localAdviceRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	snap := types.WeatherSnapshot{
		TemperatureC: *req.Temperature,
		Description:  req.Description,
		WindSpeedMs:  req.WindSpeed,
		HumidityPct:  req.Humidity,
		IsDaytime:    req.IsDaytime == nil || *req.IsDaytime,
		ConditionID:  req.ConditionID,
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: advisory.Local(snap)})
}

func (h *WeatherHandler) report(w http.ResponseWriter, r *http.Request) (*forecasts.Report, bool) {
	loc, err := locationFromQuery(r)
	if err != nil {
		core.Error(w, r, err)
		return nil, false
	}
	report, err := h.weather.Weather(r.Context(), loc)
	if err != nil {
		core.Error(w, r, err)
		return nil, false
	}
	return report, true
}

// displayCity prefers the provider's resolved name, which is what a
// coordinate lookup needs.
func displayCity(report *forecasts.Report) string {
	if report.Current != nil && report.Current.Name != "" {
		return report.Current.Name
	}
	return report.Location.City
}
