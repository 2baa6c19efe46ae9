package advisory

import (
	"fmt"

	"meteo/internal/types"
)

const promptTemplate = "Tu es un assistant météo spécialisé dans les recommandations vestimentaires. " +
	"Voici les données météo actuelles pour %s : " +
	"Température : %.1f°C, " +
	"Conditions météo : %s, " +
	"Vitesse du vent : %.1f m/s, " +
	"Humidité : %d%%. " +
	"En te basant uniquement sur ces informations, donne-moi une recommandation détaillée sur comment m'habiller aujourd'hui. " +
	"Sois précis, pratique et adapte ta réponse aux conditions spécifiques. " +
	"Ajoute également une brève recommandation sur les activités d'extérieur. " +
	"IMPORTANT: Ne répète PAS les informations météo au début de ta réponse. " +
	"Commence DIRECTEMENT par ta recommandation vestimentaire. " +
	"Utilise des émojis pour rendre ta réponse visuellement plus attrayante. " +
	"Sois concis et direct."

// BuildPrompt renders the single user message sent to the remote advisor.
func BuildPrompt(city string, s types.WeatherSnapshot) string {
	return fmt.Sprintf(promptTemplate, city, s.TemperatureC, s.Description, s.WindSpeedMs, s.HumidityPct)
}
