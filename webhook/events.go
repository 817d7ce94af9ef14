package webhook

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Event kinds and message types as they appear on the wire.
const (
	EventTypeMessage = "message"

	MessageTypeText     = "text"
	MessageTypeLocation = "location"
)

// Event is a normalized inbound channel event.
type Event struct {
	Type       string
	EventID    string
	ReplyToken string
	Timestamp  int64
	UserID     string
	Message    Message
}

// Message carries the payload of a message event. Only the fields the core
// consumes are extracted; everything else stays opaque.
type Message struct {
	Type      string
	ID        string
	Text      string
	Latitude  float64
	Longitude float64
	Address   string
}

// IsText reports whether the event is a text message.
func (e Event) IsText() bool {
	return e.Type == EventTypeMessage && e.Message.Type == MessageTypeText
}

// IsLocation reports whether the event is a location message.
func (e Event) IsLocation() bool {
	return e.Type == EventTypeMessage && e.Message.Type == MessageTypeLocation
}

type wirePayload struct {
	Destination string      `json:"destination"`
	Events      []wireEvent `json:"events"`
}

type wireEvent struct {
	Type            string `json:"type"`
	WebhookEventID  string `json:"webhookEventId"`
	ReplyToken      string `json:"replyToken"`
	Timestamp       int64  `json:"timestamp"`
	DeliveryContext struct {
		WebhookEventID string `json:"webhookEventId"`
	} `json:"deliveryContext"`
	Source struct {
		UserID   string `json:"userId"`
		SenderID string `json:"senderId"`
	} `json:"source"`
	Message struct {
		Type      string  `json:"type"`
		ID        string  `json:"id"`
		Text      string  `json:"text"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Address   string  `json:"address"`
	} `json:"message"`
}

// ParseEvents decodes a webhook body into normalized events. The destination
// is the bot identity the channel delivered to; the transport maps it (or the
// URL path) to a shop id before verification.
func ParseEvents(body []byte) (destination string, events []Event, err error) {
	var payload wirePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil, errors.Wrap(err, "[ParseEvents] decode body")
	}

	events = make([]Event, 0, len(payload.Events))
	for _, we := range payload.Events {
		eventID := we.WebhookEventID
		if eventID == "" {
			eventID = we.DeliveryContext.WebhookEventID
		}
		userID := we.Source.UserID
		if userID == "" {
			userID = we.Source.SenderID
		}

		events = append(events, Event{
			Type:       we.Type,
			EventID:    eventID,
			ReplyToken: we.ReplyToken,
			Timestamp:  we.Timestamp,
			UserID:     userID,
			Message: Message{
				Type:      we.Message.Type,
				ID:        we.Message.ID,
				Text:      we.Message.Text,
				Latitude:  we.Message.Latitude,
				Longitude: we.Message.Longitude,
				Address:   we.Message.Address,
			},
		})
	}
	return payload.Destination, events, nil
}
