package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IconURLFormat renders a condition icon code into the OpenWeatherMap image URL.
const IconURLFormat = "https://openweathermap.org/img/wn/%s@2x.png"

// DefaultCity is used when a request names neither a city nor coordinates.
const DefaultCity = "Paris"

// Location identifies the place a weather lookup is made for. Coordinates win
// over the city name when both are non-zero.
type Location struct {
	City string  `json:"city,omitempty"`
	Lat  float64 `json:"lat,omitempty"`
	Lon  float64 `json:"lon,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set. A zero
// value on either axis means "unknown" and the city name is used instead.
func (l Location) HasCoordinates() bool {
	return l.Lat != 0 && l.Lon != 0
}

// CacheKey returns a stable key for this location, used by response caches.
func (l Location) CacheKey() string {
	if l.HasCoordinates() {
		return "coord:" + strconv.FormatFloat(l.Lat, 'f', 4, 64) + "," + strconv.FormatFloat(l.Lon, 'f', 4, 64)
	}
	return "city:" + strings.ToLower(strings.TrimSpace(l.City))
}

// String renders the location for logs.
func (l Location) String() string {
	if l.HasCoordinates() {
		return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
	}
	return l.City
}

// Coordinates is the "coord" object of the weather API.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MainReadings holds the thermodynamic readings of an observation.
type MainReadings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

// WeatherCondition is one entry of the "weather" array. ID is the
// OpenWeatherMap condition code (2xx storm, 3xx drizzle, 5xx rain, 6xx snow,
// 7xx atmosphere, 800 clear, 80x clouds).
type WeatherCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// IconURL returns the image URL for the condition icon, or "" if none.
func (w WeatherCondition) IconURL() string {
	if w.Icon == "" {
		return ""
	}
	return fmt.Sprintf(IconURLFormat, w.Icon)
}

// WindReading is wind speed in m/s (metric units) and direction in degrees.
type WindReading struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

// CloudCover is the cloudiness percentage.
type CloudCover struct {
	All int `json:"all"`
}

// SunInfo carries the country code and sunrise/sunset as unix seconds.
type SunInfo struct {
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// CurrentWeather is the current-conditions document.
type CurrentWeather struct {
	Name       string             `json:"name"`
	Coord      Coordinates        `json:"coord"`
	Main       MainReadings       `json:"main"`
	Weather    []WeatherCondition `json:"weather"`
	Wind       WindReading        `json:"wind"`
	Sys        SunInfo            `json:"sys"`
	Visibility int                `json:"visibility"`
	Clouds     CloudCover         `json:"clouds"`
	Dt         int64              `json:"dt"`
	Timezone   int                `json:"timezone"`
}

// PrimaryCondition returns the first reported condition, or the zero value.
func (c CurrentWeather) PrimaryCondition() WeatherCondition {
	if len(c.Weather) == 0 {
		return WeatherCondition{}
	}
	return c.Weather[0]
}

// ObservedAt returns the observation time in UTC.
func (c CurrentWeather) ObservedAt() time.Time {
	return time.Unix(c.Dt, 0).UTC()
}

// ForecastItem is a single 3-hour step of the five-day forecast.
type ForecastItem struct {
	Dt         int64              `json:"dt"`
	Main       MainReadings       `json:"main"`
	Weather    []WeatherCondition `json:"weather"`
	Clouds     CloudCover         `json:"clouds"`
	Wind       WindReading        `json:"wind"`
	Visibility int                `json:"visibility"`
	Pop        float64            `json:"pop"`
	DtTxt      string             `json:"dt_txt"`
}

// Time returns the forecast step time in UTC.
func (f ForecastItem) Time() time.Time {
	return time.Unix(f.Dt, 0).UTC()
}

// PrimaryCondition returns the first reported condition, or the zero value.
func (f ForecastItem) PrimaryCondition() WeatherCondition {
	if len(f.Weather) == 0 {
		return WeatherCondition{}
	}
	return f.Weather[0]
}

// ForecastCity describes the place a forecast was produced for.
type ForecastCity struct {
	Name     string      `json:"name"`
	Country  string      `json:"country"`
	Coord    Coordinates `json:"coord"`
	Sunrise  int64       `json:"sunrise"`
	Sunset   int64       `json:"sunset"`
	Timezone int         `json:"timezone"`
}

// Forecast is the five-day / three-hour forecast document.
type Forecast struct {
	City ForecastCity   `json:"city"`
	List []ForecastItem `json:"list"`
}

// WeatherSnapshot is the flattened input of the advisory engine. It has no
// identity and is built per request. ConditionID is 0 when no coded condition
// was supplied.
type WeatherSnapshot struct {
	TemperatureC float64 `json:"temperature"`
	Description  string  `json:"description"`
	WindSpeedMs  float64 `json:"wind_speed"`
	HumidityPct  int     `json:"humidity"`
	IsDaytime    bool    `json:"is_daytime"`
	ConditionID  int     `json:"condition_id,omitempty"`
}
