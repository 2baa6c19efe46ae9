package webhook

import (
	"encoding/json"
	"fmt"
	"strings"

	"meteo/internal/types"
)

// SlackFormatter renders Block Kit.
type SlackFormatter struct{}

func (f *SlackFormatter) Platform() Platform { return PlatformSlack }

func (f *SlackFormatter) Format(n *types.Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("slack formatter: notification is nil")
	}

	summary := SlackBlock{
		Type: "section",
		Text: &SlackText{Type: "mrkdwn", Text: n.Body},
	}
	if n.IconURL != "" {
		summary.Accessory = &SlackImage{Type: "image", ImageURL: n.IconURL, AltText: n.City}
	}

	payload := SlackPayload{
		Text: n.Title,
		Blocks: []SlackBlock{
			{Type: "header", Text: &SlackText{Type: "plain_text", Text: n.Title}},
			summary,
			{
				Type: "section",
				Fields: []*SlackText{
					{Type: "mrkdwn", Text: "*Température*\n" + temperatureLabel(n)},
					{Type: "mrkdwn", Text: "*Sortie*\n" + outdoorLabel(n)},
				},
			},
		},
	}
	if n.Advice != "" {
		payload.Blocks = append(payload.Blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{Type: "mrkdwn", Text: n.Advice},
		})
	}
	payload.Blocks = append(payload.Blocks, SlackBlock{
		Type:     "context",
		Elements: []*SlackText{{Type: "mrkdwn", Text: footer(n)}},
	})

	return json.Marshal(payload)
}

// ValidateResponse accepts the plain "ok" body of incoming webhooks and
// rejects JSON bodies with "ok": false.
func (f *SlackFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("slack: unexpected status %d: %s", statusCode, truncateBody(body))
	}

	text := strings.TrimSpace(string(body))
	if text == "" || text == "ok" {
		return nil
	}

	var resp struct {
		OK    *bool  `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err == nil {
		if resp.OK != nil && !*resp.OK {
			if resp.Error == "" {
				resp.Error = "unknown error"
			}
			return fmt.Errorf("slack: API error: %s", resp.Error)
		}
		return nil
	}

	switch text {
	case "no_text", "invalid_payload", "channel_not_found", "channel_is_archived":
		return fmt.Errorf("slack: API error: %s", text)
	}
	return nil
}
