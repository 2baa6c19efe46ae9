package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_HasCoordinates(t *testing.T) {
	assert.True(t, Location{Lat: 48.85, Lon: 2.35}.HasCoordinates())
	assert.False(t, Location{City: "Paris", Lat: 48.85}.HasCoordinates())
	assert.False(t, Location{City: "Paris"}.HasCoordinates())
}

func TestLocation_CacheKey(t *testing.T) {
	assert.Equal(t, "city:paris", Location{City: "  Paris "}.CacheKey())
	assert.Equal(t, "coord:48.8566,2.3522", Location{City: "Paris", Lat: 48.85661, Lon: 2.35222}.CacheKey())
}

func TestCurrentWeather_Decode(t *testing.T) {
	raw := `{
		"coord": {"lon": 2.35, "lat": 48.85},
		"weather": [{"id": 500, "main": "Rain", "description": "légère pluie", "icon": "10d"}],
		"main": {"temp": 12.3, "feels_like": 11.1, "temp_min": 10.0, "temp_max": 14.0, "pressure": 1012, "humidity": 81},
		"visibility": 10000,
		"wind": {"speed": 4.6, "deg": 240},
		"clouds": {"all": 75},
		"dt": 1718620800,
		"sys": {"country": "FR", "sunrise": 1718596000, "sunset": 1718654000},
		"timezone": 7200,
		"name": "Paris"
	}`

	var cw CurrentWeather
	require.NoError(t, json.Unmarshal([]byte(raw), &cw))

	assert.Equal(t, "Paris", cw.Name)
	assert.Equal(t, 12.3, cw.Main.Temp)
	assert.Equal(t, 81, cw.Main.Humidity)
	assert.Equal(t, 4.6, cw.Wind.Speed)
	assert.Equal(t, "FR", cw.Sys.Country)
	assert.Equal(t, 500, cw.PrimaryCondition().ID)
	assert.Equal(t, "https://openweathermap.org/img/wn/10d@2x.png", cw.PrimaryCondition().IconURL())
	assert.Equal(t, time.Unix(1718620800, 0).UTC(), cw.ObservedAt())
}

func TestPrimaryCondition_Empty(t *testing.T) {
	assert.Equal(t, WeatherCondition{}, CurrentWeather{}.PrimaryCondition())
	assert.Equal(t, WeatherCondition{}, ForecastItem{}.PrimaryCondition())
	assert.Empty(t, WeatherCondition{}.IconURL())
}

func TestFavoriteCity_FullName(t *testing.T) {
	assert.Equal(t, "Lyon, FR", FavoriteCity{CityName: "Lyon", Country: "FR"}.FullName())
	assert.Equal(t, "Lyon", FavoriteCity{CityName: "Lyon"}.FullName())
}
