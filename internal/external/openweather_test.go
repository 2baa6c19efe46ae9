package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteo/internal/types"
)

const currentParisJSON = `{
  "coord": {"lon": 2.35, "lat": 48.85},
  "weather": [{"id": 500, "main": "Rain", "description": "légère pluie", "icon": "10d"}],
  "main": {"temp": 12.4, "feels_like": 11.8, "temp_min": 11.0, "temp_max": 13.2, "pressure": 1012, "humidity": 82},
  "visibility": 10000,
  "wind": {"speed": 4.6, "deg": 240},
  "clouds": {"all": 90},
  "dt": 1718620800,
  "sys": {"country": "FR", "sunrise": 1718596000, "sunset": 1718654000},
  "timezone": 7200,
  "name": "Paris"
}`

const forecastParisJSON = `{
  "city": {"name": "Paris", "country": "FR", "coord": {"lat": 48.85, "lon": 2.35}, "sunrise": 1718596000, "sunset": 1718654000, "timezone": 7200},
  "list": [
    {"dt": 1718625600, "main": {"temp": 14.1, "humidity": 70}, "weather": [{"id": 803, "description": "nuageux", "icon": "04d"}], "wind": {"speed": 3.1}, "pop": 0.2, "dt_txt": "2024-06-17 12:00:00"},
    {"dt": 1718636400, "main": {"temp": 16.3, "humidity": 65}, "weather": [{"id": 800, "description": "ciel dégagé", "icon": "01d"}], "wind": {"speed": 2.4}, "pop": 0, "dt_txt": "2024-06-17 15:00:00"}
  ]
}`

func newTestOpenWeather(serverURL string) *OpenWeatherClient {
	return NewOpenWeatherClientWithBase(newTestBase(fastPolicy(0)), OpenWeatherConfig{
		APIKey:  types.SecretString("owm-key"),
		BaseURL: serverURL,
	})
}

func TestOpenWeather_CurrentByCity(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(currentParisJSON))
	}))
	defer server.Close()

	cw, err := newTestOpenWeather(server.URL).CurrentByCity(context.Background(), " Paris ")
	require.NoError(t, err)

	assert.Equal(t, "/weather", gotPath)
	assert.Equal(t, "Paris", gotQuery.Get("q"))
	assert.Equal(t, "owm-key", gotQuery.Get("appid"))
	assert.Equal(t, "metric", gotQuery.Get("units"))
	assert.Equal(t, "fr", gotQuery.Get("lang"))
	assert.Empty(t, gotQuery.Get("lat"))

	assert.Equal(t, "Paris", cw.Name)
	assert.InDelta(t, 12.4, cw.Main.Temp, 1e-9)
	assert.Equal(t, 82, cw.Main.Humidity)
	assert.Equal(t, 500, cw.PrimaryCondition().ID)
	assert.Equal(t, "https://openweathermap.org/img/wn/10d@2x.png", cw.PrimaryCondition().IconURL())
	assert.Equal(t, "FR", cw.Sys.Country)
}

func TestOpenWeather_CoordinatesWinOverCity(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(currentParisJSON))
	}))
	defer server.Close()

	_, err := newTestOpenWeather(server.URL).Current(context.Background(), types.Location{City: "Lyon", Lat: 48.85, Lon: 2.35})
	require.NoError(t, err)

	assert.Equal(t, "48.85", gotQuery.Get("lat"))
	assert.Equal(t, "2.35", gotQuery.Get("lon"))
	assert.Empty(t, gotQuery.Get("q"))
}

func TestOpenWeather_ZeroCoordinateFallsBackToCity(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(currentParisJSON))
	}))
	defer server.Close()

	_, err := newTestOpenWeather(server.URL).Current(context.Background(), types.Location{City: "Accra", Lat: 5.6, Lon: 0})
	require.NoError(t, err)
	assert.Equal(t, "Accra", gotQuery.Get("q"))
}

func TestOpenWeather_ForecastByCoords(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(forecastParisJSON))
	}))
	defer server.Close()

	fc, err := newTestOpenWeather(server.URL).ForecastByCoords(context.Background(), 48.85, 2.35)
	require.NoError(t, err)

	assert.Equal(t, "/forecast", gotPath)
	assert.Equal(t, "Paris", fc.City.Name)
	require.Len(t, fc.List, 2)
	assert.Equal(t, "ciel dégagé", fc.List[1].PrimaryCondition().Description)
	assert.InDelta(t, 0.2, fc.List[0].Pop, 1e-9)
}

func TestOpenWeather_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   types.ErrorCode
	}{
		{"unknown city", http.StatusNotFound, `{"cod":"404","message":"city not found"}`, types.ErrCodeNotFoundCity},
		{"bad key", http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key"}`, types.ErrCodeUpstreamWeather},
		{"bad request", http.StatusBadRequest, `{"cod":"400","message":"wrong latitude"}`, types.ErrCodeUpstreamWeather},
		{"server error", http.StatusInternalServerError, ``, types.ErrCodeUpstreamBadStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestOpenWeather(server.URL).CurrentByCity(context.Background(), "Atlantis")
			code, ok := types.CodeOf(err)
			require.True(t, ok, "expected AppError, got %v", err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestOpenWeather_UndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	_, err := newTestOpenWeather(server.URL).CurrentByCity(context.Background(), "Paris")
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.ErrCodeUpstreamBadResponse, code)
}

func TestOpenWeather_RequiresCityOrCoordinates(t *testing.T) {
	client := newTestOpenWeather("http://127.0.0.1:0")

	_, err := client.Current(context.Background(), types.Location{City: "  "})
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.ErrCodeValidationMissingField, code)

	_, err = client.Current(context.Background(), types.Location{Lat: 95, Lon: 2})
	code, _ = types.CodeOf(err)
	assert.Equal(t, types.ErrCodeValidationInvalidLat, code)
}
