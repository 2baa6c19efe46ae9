package forecasts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"meteo/internal/types"
)

func TestIsDaytime(t *testing.T) {
	const sunrise, sunset = 1000, 2000

	assert.True(t, IsDaytime(1000, sunrise, sunset), "sunrise is day")
	assert.True(t, IsDaytime(1999, sunrise, sunset))
	assert.False(t, IsDaytime(2000, sunrise, sunset), "sunset is night")
	assert.False(t, IsDaytime(999, sunrise, sunset))
	assert.True(t, IsDaytime(5000, 0, 0), "unknown sun times default to day")
	assert.True(t, IsDaytime(5000, sunrise, 0))
}

func TestSnapshotFrom(t *testing.T) {
	cw := &types.CurrentWeather{
		Main:    types.MainReadings{Temp: 12.4, Humidity: 82},
		Weather: []types.WeatherCondition{{ID: 500, Description: "légère pluie"}},
		Wind:    types.WindReading{Speed: 4.6},
		Sys:     types.SunInfo{Sunrise: 100, Sunset: 200},
		Dt:      250,
	}

	assert.Equal(t, types.WeatherSnapshot{
		TemperatureC: 12.4,
		Description:  "légère pluie",
		WindSpeedMs:  4.6,
		HumidityPct:  82,
		IsDaytime:    false,
		ConditionID:  500,
	}, SnapshotFrom(cw))
}

func TestSnapshotFrom_NoConditions(t *testing.T) {
	s := SnapshotFrom(&types.CurrentWeather{Main: types.MainReadings{Temp: 3}})
	assert.Equal(t, "", s.Description)
	assert.Equal(t, 0, s.ConditionID)
	assert.True(t, s.IsDaytime)

	assert.True(t, SnapshotFrom(nil).IsDaytime)
}
