// Package handlers maps the weather API's HTTP routes onto the forecast
// service, the advisor, the favorites store and the notification
// subscriptions.
package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"meteo/internal/types"
)

// locationFromQuery reads ?city= or ?lat=&lon=. Coordinates must come as a
// pair and are range checked. Neither means the default city.
//
// A zero on either axis marks coordinates as unknown downstream, so such a
// pair is rejected rather than silently replaced by the city.
func locationFromQuery(r *http.Request) (types.Location, error) {
	q := r.URL.Query()
	loc := types.Location{City: strings.TrimSpace(q.Get("city"))}

	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" && lonStr == "" {
		return loc, nil
	}
	if latStr == "" || lonStr == "" {
		return loc, types.NewAppError(types.ErrCodeValidationMissingField, "lat and lon must be given together", nil)
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return loc, types.NewAppError(types.ErrCodeValidationInvalidLat, "lat must be a number between -90 and 90", nil)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return loc, types.NewAppError(types.ErrCodeValidationInvalidLon, "lon must be a number between -180 and 180", nil)
	}
	if lat == 0 {
		return loc, types.NewAppError(types.ErrCodeValidationInvalidLat, "lat must be non-zero; use city= for places on the equator", nil)
	}
	if lon == 0 {
		return loc, types.NewAppError(types.ErrCodeValidationInvalidLon, "lon must be non-zero; use city= for places on the prime meridian", nil)
	}
	loc.Lat, loc.Lon = lat, lon
	return loc, nil
}

// cityParam returns the unescaped {city} path segment.
func cityParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "city")
	city, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(city) == "" {
		return "", types.NewAppError(types.ErrCodeValidationInvalidCity, "city must be a non-empty name", err)
	}
	return strings.TrimSpace(city), nil
}
