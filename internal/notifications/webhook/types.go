// Package webhook presents daily notifications to chat platforms and generic
// HTTP endpoints. The target platform is detected from the webhook URL and
// each platform gets its own payload shape.
package webhook

import (
	"meteo/internal/types"
)

// Platform identifies a webhook destination platform.
type Platform string

const (
	PlatformGeneric    Platform = "generic"
	PlatformSlack      Platform = "slack"
	PlatformDiscord    Platform = "discord"
	PlatformGoogleChat Platform = "google_chat"
)

// Formatter turns a notification into a platform payload and interprets the
// platform's answer.
type Formatter interface {
	Format(n *types.Notification) ([]byte, error)
	Platform() Platform
	// ValidateResponse catches soft failures such as Slack answering 200 with
	// an error body.
	ValidateResponse(statusCode int, body []byte) error
}

// SlackPayload is a Block Kit message.
type SlackPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

type SlackBlock struct {
	Type      string       `json:"type"`
	Text      *SlackText   `json:"text,omitempty"`
	Fields    []*SlackText `json:"fields,omitempty"`
	Elements  []*SlackText `json:"elements,omitempty"`
	Accessory *SlackImage  `json:"accessory,omitempty"`
}

type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type SlackImage struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
	AltText  string `json:"alt_text"`
}

// DiscordPayload is a webhook message with one embed.
type DiscordPayload struct {
	Username string         `json:"username"`
	Content  string         `json:"content"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Color       int               `json:"color"`
	Fields      []DiscordField    `json:"fields"`
	Thumbnail   *DiscordThumbnail `json:"thumbnail,omitempty"`
	Footer      *DiscordFooter    `json:"footer,omitempty"`
}

type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type DiscordThumbnail struct {
	URL string `json:"url"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

// GoogleChatPayload is a card message.
type GoogleChatPayload struct {
	Cards []GoogleCard `json:"cards"`
}

type GoogleCard struct {
	Header   GoogleHeader    `json:"header"`
	Sections []GoogleSection `json:"sections"`
}

type GoogleHeader struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type GoogleSection struct {
	Widgets []GoogleWidget `json:"widgets"`
}

type GoogleWidget struct {
	KeyValue      *GoogleKeyValue      `json:"keyValue,omitempty"`
	TextParagraph *GoogleTextParagraph `json:"textParagraph,omitempty"`
}

type GoogleKeyValue struct {
	TopLabel string `json:"topLabel"`
	Content  string `json:"content"`
}

type GoogleTextParagraph struct {
	Text string `json:"text"`
}
