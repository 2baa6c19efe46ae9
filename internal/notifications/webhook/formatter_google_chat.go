package webhook

import (
	"encoding/json"
	"fmt"

	"meteo/internal/types"
)

// GoogleChatFormatter renders a card.
type GoogleChatFormatter struct{}

func (f *GoogleChatFormatter) Platform() Platform { return PlatformGoogleChat }

func (f *GoogleChatFormatter) Format(n *types.Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("google chat formatter: notification is nil")
	}

	widgets := []GoogleWidget{
		{TextParagraph: &GoogleTextParagraph{Text: n.Body}},
		{KeyValue: &GoogleKeyValue{TopLabel: "Température", Content: temperatureLabel(n)}},
		{KeyValue: &GoogleKeyValue{TopLabel: "Sortie", Content: outdoorLabel(n)}},
	}
	if n.Advice != "" {
		widgets = append(widgets, GoogleWidget{TextParagraph: &GoogleTextParagraph{Text: n.Advice}})
	}

	return json.Marshal(GoogleChatPayload{
		Cards: []GoogleCard{{
			Header: GoogleHeader{
				Title:    n.Title,
				Subtitle: footer(n),
				ImageURL: n.IconURL,
			},
			Sections: []GoogleSection{{Widgets: widgets}},
		}},
	})
}

func (f *GoogleChatFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	var resp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error.Message != "" {
		return fmt.Errorf("google chat: API error: %s", resp.Error.Message)
	}
	return fmt.Errorf("google chat: unexpected status %d: %s", statusCode, truncateBody(body))
}
