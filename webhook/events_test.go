package webhook_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chonlathan-cloud/lineoa-public-mirror/webhook"
)

func TestParseEventsTextMessage(t *testing.T) {
	body := []byte(`{
		"destination": "U_bot_destination",
		"events": [{
			"type": "message",
			"webhookEventId": "evt-1",
			"replyToken": "reply-1",
			"timestamp": 1718000000000,
			"source": {"type": "user", "userId": "U_consumer_1"},
			"message": {"type": "text", "id": "msg-1", "text": "เริ่มต้นใหม่"}
		}]
	}`)

	destination, events, err := webhook.ParseEvents(body)
	require.NoError(t, err)
	require.Equal(t, "U_bot_destination", destination)
	require.Len(t, events, 1)

	ev := events[0]
	require.True(t, ev.IsText())
	require.False(t, ev.IsLocation())
	require.Equal(t, "evt-1", ev.EventID)
	require.Equal(t, "reply-1", ev.ReplyToken)
	require.Equal(t, "U_consumer_1", ev.UserID)
	require.Equal(t, "เริ่มต้นใหม่", ev.Message.Text)
}

func TestParseEventsLocationMessage(t *testing.T) {
	body := []byte(`{
		"events": [{
			"type": "message",
			"webhookEventId": "evt-2",
			"source": {"userId": "U_consumer_1"},
			"message": {"type": "location", "id": "msg-2", "latitude": 13.7563, "longitude": 100.5018, "address": "Bangkok"}
		}]
	}`)

	_, events, err := webhook.ParseEvents(body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	require.True(t, ev.IsLocation())
	require.Equal(t, 13.7563, ev.Message.Latitude)
	require.Equal(t, 100.5018, ev.Message.Longitude)
	require.Equal(t, "Bangkok", ev.Message.Address)
}

func TestParseEventsFallbackIdentifiers(t *testing.T) {
	// Older payloads carry the event id under deliveryContext and the user
	// under senderId.
	body := []byte(`{
		"events": [{
			"type": "message",
			"deliveryContext": {"webhookEventId": "evt-3"},
			"source": {"senderId": "U_sender_1"},
			"message": {"type": "text", "text": "hi"}
		}]
	}`)

	_, events, err := webhook.ParseEvents(body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "evt-3", events[0].EventID)
	require.Equal(t, "U_sender_1", events[0].UserID)
}

func TestParseEventsRejectsMalformedBody(t *testing.T) {
	_, _, err := webhook.ParseEvents([]byte(`{"events": [`))
	require.Error(t, err)
}

func TestParseEventsEmptyPayload(t *testing.T) {
	_, events, err := webhook.ParseEvents([]byte(`{"destination":"U1","events":[]}`))
	require.NoError(t, err)
	require.Empty(t, events)
}
