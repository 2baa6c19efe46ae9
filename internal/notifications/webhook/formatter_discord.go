package webhook

import (
	"encoding/json"
	"fmt"

	"meteo/internal/types"
)

// Embed colors by temperature tier.
const (
	colorWarm = 0xFF9800
	colorMild = 0x4CAF50
	colorCold = 0x2196F3
)

// DiscordFormatter renders a single embed.
type DiscordFormatter struct{}

func (f *DiscordFormatter) Platform() Platform { return PlatformDiscord }

func (f *DiscordFormatter) Format(n *types.Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("discord formatter: notification is nil")
	}

	embed := DiscordEmbed{
		Title:       n.Title,
		Description: n.Body,
		Color:       temperatureColor(n.TemperatureC),
		Fields: []DiscordField{
			{Name: "Température", Value: temperatureLabel(n), Inline: true},
			{Name: "Sortie", Value: outdoorLabel(n), Inline: true},
		},
		Footer: &DiscordFooter{Text: footer(n)},
	}
	if n.Advice != "" {
		embed.Fields = append(embed.Fields, DiscordField{Name: "Conseil", Value: n.Advice})
	}
	if n.IconURL != "" {
		embed.Thumbnail = &DiscordThumbnail{URL: n.IconURL}
	}

	return json.Marshal(DiscordPayload{
		Username: "Météo",
		Content:  n.Title,
		Embeds:   []DiscordEmbed{embed},
	})
}

// ValidateResponse treats any 2xx (Discord answers 204) as success.
func (f *DiscordFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		return fmt.Errorf("discord: API error: %s", resp.Message)
	}
	return fmt.Errorf("discord: unexpected status %d: %s", statusCode, truncateBody(body))
}

func temperatureColor(t float64) int {
	switch {
	case t >= 25:
		return colorWarm
	case t >= 15:
		return colorMild
	default:
		return colorCold
	}
}
