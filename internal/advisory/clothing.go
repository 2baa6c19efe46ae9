// Package advisory turns weather facts into clothing advice and an outdoor
// activity verdict. The rule engine is pure: it performs no I/O, holds no
// state and never fails for finite input. Advisor layers an optional remote
// text generator on top, with the rule engine as the fallback.
package advisory

import (
	"strings"

	"meteo/internal/types"
)

// Temperature tier lower bounds, in °C. Tiers are closed at the bottom and
// open at the top.
const (
	tierExtremeHeat = 30.0
	tierHot         = 25.0
	tierPleasant    = 20.0
	tierMild        = 15.0
	tierCool        = 10.0
	tierCold        = 5.0
	tierVeryCold    = 0.0
)

const (
	// windyThresholdMs is the wind speed above which the wind modifier fires
	// regardless of the description.
	windyThresholdMs = 8.0
	// humidThresholdPct and humidMinTempC gate the humidity modifier.
	humidThresholdPct = 80
	humidMinTempC     = 20.0
	// rainHoodedBelowC selects the hooded rain jacket variant.
	rainHoodedBelowC = 15.0
	// chillBelowC is the temperature under which wind and fog add a
	// "dress warmer" line.
	chillBelowC = 10.0
)

// ClothingAdvice returns the advisory text for the given readings, matching
// conditions on the description only.
func ClothingAdvice(tempC float64, description string, windSpeedMs float64, humidityPct int, isDaytime bool) string {
	return ClothingAdviceFor(types.WeatherSnapshot{
		TemperatureC: tempC,
		Description:  description,
		WindSpeedMs:  windSpeedMs,
		HumidityPct:  humidityPct,
		IsDaytime:    isDaytime,
	})
}

// ClothingAdviceFor returns the advisory text for a snapshot. Conditions are
// the union of the description keywords and the coded condition.
//
// The text is the temperature tier followed by the rain, snow, wind, storm,
// fog and humidity modifiers, each included independently, joined by single
// spaces.
func ClothingAdviceFor(s types.WeatherSnapshot) string {
	cond := Detect(s.Description, s.ConditionID)
	t := s.TemperatureC

	frags := temperatureTier(t, s.WindSpeedMs, s.IsDaytime)

	if cond.Any(ConditionRain | ConditionShower) {
		frags = append(frags, msgRain)
		if t < rainHoodedBelowC {
			frags = append(frags, msgRainHooded)
		} else {
			frags = append(frags, msgRainLight)
		}
	}

	if cond.Has(ConditionSnow) {
		frags = append(frags, msgSnow, msgSnowCoat, msgSnowGloves)
	}

	if s.WindSpeedMs > windyThresholdMs || cond.Has(ConditionWind) {
		frags = append(frags, msgWind)
		if t < chillBelowC {
			frags = append(frags, msgWindCold)
		}
		if cond.Has(ConditionRain) {
			frags = append(frags, msgWindAndRain)
		}
	}

	if cond.Has(ConditionStorm) {
		frags = append(frags, msgStorm, msgStormHooded)
	}

	if cond.Has(ConditionFog) {
		frags = append(frags, msgFog)
		if t < chillBelowC {
			frags = append(frags, msgFogCold)
		}
	}

	if s.HumidityPct > humidThresholdPct && t > humidMinTempC {
		frags = append(frags, msgHumid)
	}

	return strings.Join(frags, " ")
}

// temperatureTier returns the fragments of the single tier t falls in.
func temperatureTier(t, windSpeedMs float64, isDaytime bool) []string {
	switch {
	case t >= tierExtremeHeat:
		return []string{msgExtremeHeat, msgExtremeHeatHat, msgExtremeHeatSun}
	case t >= tierHot:
		return []string{msgHot, msgHotCap}
	case t >= tierPleasant:
		if !isDaytime {
			return []string{msgPleasant, msgPleasantEvening}
		}
		return []string{msgPleasant}
	case t >= tierMild:
		return []string{msgMild, msgMildLayer}
	case t >= tierCool:
		if WindChill(t, windSpeedMs) < tierCool {
			return []string{msgCool, msgCoolWindbreaker}
		}
		return []string{msgCool}
	case t >= tierCold:
		return []string{msgCold, msgColdAcc}
	case t >= tierVeryCold:
		return []string{msgVeryCold, msgVeryColdAcc}
	default:
		// Also reached by NaN, which compares false against every bound.
		return []string{msgFreezing, msgFreezingAcc}
	}
}
