package forecasts

import "meteo/internal/types"

// IsDaytime reports whether dt falls in [sunrise, sunset). All values are
// unix seconds. When either sun time is missing it reports true.
func IsDaytime(dt, sunrise, sunset int64) bool {
	if sunrise == 0 || sunset == 0 {
		return true
	}
	return sunrise <= dt && dt < sunset
}

// SnapshotFrom flattens current conditions into the advisory engine input.
func SnapshotFrom(cw *types.CurrentWeather) types.WeatherSnapshot {
	if cw == nil {
		return types.WeatherSnapshot{IsDaytime: true}
	}
	cond := cw.PrimaryCondition()
	return types.WeatherSnapshot{
		TemperatureC: cw.Main.Temp,
		Description:  cond.Description,
		WindSpeedMs:  cw.Wind.Speed,
		HumidityPct:  cw.Main.Humidity,
		IsDaytime:    IsDaytime(cw.Dt, cw.Sys.Sunrise, cw.Sys.Sunset),
		ConditionID:  cond.ID,
	}
}
