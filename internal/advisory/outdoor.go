package advisory

import "meteo/internal/types"

const (
	outdoorMaxWindMs        = 10.0
	outdoorMinTempC         = 5.0
	outdoorMaxTempC         = 35.0
	outdoorMuggyHumidityPct = 90
	outdoorMuggyTempC       = 25.0
)

// outdoorBlockers are the conditions that rule out outdoor activities.
// Showers alone do not.
const outdoorBlockers = ConditionRain | ConditionSnow | ConditionStorm

// IsGoodForOutdoor reports whether the readings suit outdoor activities,
// matching conditions on the description only.
func IsGoodForOutdoor(tempC float64, description string, windSpeedMs float64, humidityPct int) bool {
	return OutdoorSuitable(types.WeatherSnapshot{
		TemperatureC: tempC,
		Description:  description,
		WindSpeedMs:  windSpeedMs,
		HumidityPct:  humidityPct,
	})
}

// OutdoorSuitable is IsGoodForOutdoor for a snapshot, using the union of
// description and coded conditions.
func OutdoorSuitable(s types.WeatherSnapshot) bool {
	if Detect(s.Description, s.ConditionID).Any(outdoorBlockers) {
		return false
	}
	t := s.TemperatureC
	switch {
	case s.WindSpeedMs > outdoorMaxWindMs:
		return false
	case t < outdoorMinTempC || t > outdoorMaxTempC:
		return false
	case s.HumidityPct > outdoorMuggyHumidityPct && t > outdoorMuggyTempC:
		return false
	}
	return true
}
