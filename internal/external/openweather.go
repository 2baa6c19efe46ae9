package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"meteo/internal/types"
)

const (
	openWeatherAPIBase = "https://api.openweathermap.org/data/2.5"
	defaultUnits       = "metric"
	defaultLang        = "fr"
)

// OpenWeatherConfig holds the configuration for an OpenWeatherClient.
type OpenWeatherConfig struct {
	APIKey  types.SecretString
	BaseURL string // defaults to openWeatherAPIBase
	Units   string // defaults to metric
	Lang    string // defaults to fr
	Logger  *slog.Logger
}

// OpenWeatherClient reads current conditions and the five-day forecast from
// the OpenWeatherMap 2.5 API.
type OpenWeatherClient struct {
	base    *BaseClient
	apiKey  types.SecretString
	baseURL string
	units   string
	lang    string
	logger  *slog.Logger
}

// NewOpenWeatherClient creates a client with its own breaker and the default
// retry policy. The httpClient carries the request timeout.
func NewOpenWeatherClient(httpClient *http.Client, cfg OpenWeatherConfig) *OpenWeatherClient {
	base := NewBaseClient(
		httpClient,
		"openweather",
		DefaultRetryPolicy(),
		"Meteo/1.0",
	)
	return NewOpenWeatherClientWithBase(base, cfg)
}

// NewOpenWeatherClientWithBase creates a client around a pre-configured
// BaseClient.
func NewOpenWeatherClientWithBase(base *BaseClient, cfg OpenWeatherConfig) *OpenWeatherClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openWeatherAPIBase
	}
	units := cfg.Units
	if units == "" {
		units = defaultUnits
	}
	lang := cfg.Lang
	if lang == "" {
		lang = defaultLang
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenWeatherClient{
		base:    base,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		units:   units,
		lang:    lang,
		logger:  logger,
	}
}

// CurrentByCity returns the current conditions for a city name.
func (c *OpenWeatherClient) CurrentByCity(ctx context.Context, city string) (*types.CurrentWeather, error) {
	return c.Current(ctx, types.Location{City: city})
}

// CurrentByCoords returns the current conditions at a coordinate pair.
func (c *OpenWeatherClient) CurrentByCoords(ctx context.Context, lat, lon float64) (*types.CurrentWeather, error) {
	return c.Current(ctx, types.Location{Lat: lat, Lon: lon})
}

// ForecastByCity returns the five-day forecast for a city name.
func (c *OpenWeatherClient) ForecastByCity(ctx context.Context, city string) (*types.Forecast, error) {
	return c.Forecast(ctx, types.Location{City: city})
}

// ForecastByCoords returns the five-day forecast at a coordinate pair.
func (c *OpenWeatherClient) ForecastByCoords(ctx context.Context, lat, lon float64) (*types.Forecast, error) {
	return c.Forecast(ctx, types.Location{Lat: lat, Lon: lon})
}

// Current returns the current conditions for loc, by coordinates when both
// are set and by city name otherwise.
func (c *OpenWeatherClient) Current(ctx context.Context, loc types.Location) (*types.CurrentWeather, error) {
	var out types.CurrentWeather
	if err := c.get(ctx, "weather", loc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecast returns the five-day forecast in three-hour steps for loc.
func (c *OpenWeatherClient) Forecast(ctx context.Context, loc types.Location) (*types.Forecast, error) {
	var out types.Forecast
	if err := c.get(ctx, "forecast", loc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *OpenWeatherClient) get(ctx context.Context, endpoint string, loc types.Location, dst any) error {
	query, err := c.query(loc)
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create weather request",
			err,
		)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.base.Do(req)
	if err != nil {
		return c.wrapError(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.handleErrorResponse(ctx, resp, endpoint, loc)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return types.NewAppError(
			types.ErrCodeUpstreamBadResponse,
			"failed to decode weather response",
			err,
		)
	}

	c.logger.DebugContext(ctx, "weather fetched",
		"endpoint", endpoint,
		"location", loc.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (c *OpenWeatherClient) query(loc types.Location) (url.Values, error) {
	q := url.Values{}
	switch {
	case loc.HasCoordinates():
		if loc.Lat < -90 || loc.Lat > 90 {
			return nil, types.NewAppError(types.ErrCodeValidationInvalidLat, "latitude must be between -90 and 90", nil)
		}
		if loc.Lon < -180 || loc.Lon > 180 {
			return nil, types.NewAppError(types.ErrCodeValidationInvalidLon, "longitude must be between -180 and 180", nil)
		}
		q.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	case strings.TrimSpace(loc.City) != "":
		q.Set("q", strings.TrimSpace(loc.City))
	default:
		return nil, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"a city name or both coordinates are required",
			nil,
		)
	}
	q.Set("appid", c.apiKey.Unmask())
	q.Set("units", c.units)
	q.Set("lang", c.lang)
	return q, nil
}

// handleErrorResponse maps a 4xx answer that BaseClient passed through.
func (c *OpenWeatherClient) handleErrorResponse(ctx context.Context, resp *http.Response, endpoint string, loc types.Location) *types.AppError {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	// The API answers {"cod":"404","message":"city not found"}.
	var apiErr struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(bodyBytes, &apiErr)

	c.logger.WarnContext(ctx, "weather API error",
		"endpoint", endpoint,
		"location", loc.String(),
		"status_code", resp.StatusCode,
		"message", apiErr.Message,
	)

	cause := fmt.Errorf("weather %s returned %d: %s", endpoint, resp.StatusCode, string(bodyBytes))
	switch resp.StatusCode {
	case http.StatusNotFound:
		return types.NewAppErrorWithDetails(
			types.ErrCodeNotFoundCity,
			"city not found",
			cause,
			map[string]any{"city": loc.City},
		)
	case http.StatusUnauthorized:
		return types.NewAppError(
			types.ErrCodeUpstreamWeather,
			"weather API rejected the API key",
			cause,
		)
	default:
		return types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamWeather,
			fmt.Sprintf("weather API client error (%d)", resp.StatusCode),
			cause,
			map[string]any{"status": resp.StatusCode},
		)
	}
}

// wrapError prefixes BaseClient failures with the endpoint, keeping the code.
func (c *OpenWeatherClient) wrapError(endpoint string, err error) error {
	if appErr, ok := asAppError(err); ok {
		return types.NewAppErrorWithDetails(
			appErr.Code,
			fmt.Sprintf("weather %s: %s", endpoint, appErr.Message),
			appErr.Err,
			appErr.Details,
		)
	}
	return types.NewAppError(
		types.ErrCodeUpstreamWeather,
		fmt.Sprintf("weather %s failed", endpoint),
		err,
	)
}
