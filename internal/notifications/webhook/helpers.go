package webhook

import (
	"fmt"

	"meteo/internal/types"
)

const maxBodyInError = 256

func truncateBody(body []byte) string {
	if len(body) <= maxBodyInError {
		return string(body)
	}
	return string(body[:maxBodyInError]) + "..."
}

func temperatureLabel(n *types.Notification) string {
	return fmt.Sprintf("%.1f°C", n.TemperatureC)
}

func outdoorLabel(n *types.Notification) string {
	if n.Outdoor {
		return "Favorable"
	}
	return "Déconseillé"
}

// footer names the advice producer.
func footer(n *types.Notification) string {
	if n.AdviceSource == types.AdviceSourceRemote {
		return "Météo · conseil IA"
	}
	return "Météo · conseil local"
}
