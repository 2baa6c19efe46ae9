package webhook

import (
	"encoding/json"
	"fmt"

	"meteo/internal/types"
)

// GenericEventType is the event_type of generic payloads.
const GenericEventType = "daily_weather"

// GenericPayload is the stable envelope sent to unknown endpoints.
type GenericPayload struct {
	EventType    string             `json:"event_type"`
	Notification types.Notification `json:"notification"`
}

// GenericFormatter sends the notification as-is inside an envelope.
type GenericFormatter struct{}

func (f *GenericFormatter) Platform() Platform { return PlatformGeneric }

func (f *GenericFormatter) Format(n *types.Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("generic formatter: notification is nil")
	}
	return json.Marshal(GenericPayload{EventType: GenericEventType, Notification: *n})
}

func (f *GenericFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	return fmt.Errorf("generic webhook: unexpected status %d: %s", statusCode, truncateBody(body))
}
