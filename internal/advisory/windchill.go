package advisory

import "math"

const (
	// windChillMaxTempC is the temperature above which wind chill is not applied.
	windChillMaxTempC = 10.0
	// windChillMinKmh is the wind speed below which wind chill is not applied.
	windChillMinKmh = 4.8
	msToKmh         = 3.6
)

// WindChill returns the felt temperature in °C for the given air temperature
// (°C) and wind speed (m/s), using the North American / UK wind chill index.
// Outside its validity domain (warm air or calm wind) the air temperature is
// returned unchanged.
func WindChill(tempC, windSpeedMs float64) float64 {
	kmh := windSpeedMs * msToKmh
	if tempC > windChillMaxTempC || kmh < windChillMinKmh {
		return tempC
	}
	v := math.Pow(kmh, 0.16)
	return 13.12 + 0.6215*tempC - 11.37*v + 0.3965*tempC*v
}
