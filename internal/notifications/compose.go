// Package notifications builds the daily weather message for a city and hands
// it to a presenter: the log, an SQS queue or a chat webhook.
package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"meteo/internal/advisory"
	"meteo/internal/types"
)

// Temperature tiers of the notification body, in °C.
const (
	WarmThresholdC = 25.0
	MildThresholdC = 15.0
)

const (
	titlePrefix  = "Météo du jour à "
	bodyWarm     = "Il fait chaud aujourd'hui ! Pensez à prendre une casquette et à porter des vêtements légers (T-shirt, short)."
	bodyMild     = "Il fait bon aujourd'hui à %s. Température agréable de %.1f°C."
	bodyCold     = "Il fait froid aujourd'hui. Pensez à bien vous couvrir !"
	rainReminder = " N'oubliez pas votre parapluie !"
)

// Title returns the notification title for city.
func Title(city string) string {
	return titlePrefix + city
}

// Body returns the short summary line for the current conditions, with an
// umbrella reminder when rain is described or coded.
func Body(city string, s types.WeatherSnapshot) string {
	var b strings.Builder
	switch {
	case s.TemperatureC >= WarmThresholdC:
		b.WriteString(bodyWarm)
	case s.TemperatureC >= MildThresholdC:
		fmt.Fprintf(&b, bodyMild, city, s.TemperatureC)
	default:
		b.WriteString(bodyCold)
	}
	if isRainy(s) {
		b.WriteString(rainReminder)
	}
	return b.String()
}

func isRainy(s types.WeatherSnapshot) bool {
	return advisory.Detect(s.Description, s.ConditionID).Any(advisory.ConditionRain | advisory.ConditionShower)
}

// Compose assembles the notification for city from current conditions and
// the advice produced for them.
func Compose(city string, s types.WeatherSnapshot, adv advisory.Advice, now time.Time) types.Notification {
	return types.Notification{
		ID:           uuid.NewString(),
		City:         city,
		Title:        Title(city),
		Body:         Body(city, s),
		Advice:       adv.Text,
		AdviceSource: adv.Source,
		Outdoor:      adv.Outdoor,
		TemperatureC: s.TemperatureC,
		CreatedAt:    now.UTC(),
	}
}
