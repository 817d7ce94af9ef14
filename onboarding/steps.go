package onboarding

import "github.com/chonlathan-cloud/lineoa-public-mirror/sessions"

// Step is the position in the registration form. Values only increase within
// one session; the two terminal outcomes (done, cancelled) destroy the
// session rather than occupying a step.
type Step int

const (
	StepNone Step = iota // no active session
	StepName             // awaiting contact name
	StepPhone            // awaiting phone number
	StepShopName         // awaiting shop name
	StepLocation         // awaiting location share or online flag
	StepConfirm          // awaiting confirmation
)

func (s Step) String() string {
	switch s {
	case StepNone:
		return "none"
	case StepName:
		return "await_name"
	case StepPhone:
		return "await_phone"
	case StepShopName:
		return "await_shop_name"
	case StepLocation:
		return "await_location"
	case StepConfirm:
		return "await_confirmation"
	default:
		return "unknown"
	}
}

// EventKind classifies an inbound event by the shape the machine can consume.
type EventKind int

const (
	EventText EventKind = iota
	EventLocation
	EventOther
)

// Event is an inbound conversational event, already authenticated and
// normalized by the webhook layer.
type Event struct {
	Kind     EventKind
	Text     string
	Location *sessions.Location
}

// TextEvent builds a text event.
func TextEvent(text string) Event {
	return Event{Kind: EventText, Text: text}
}

// LocationEvent builds a location event.
func LocationEvent(lat, lng float64, address string) Event {
	return Event{Kind: EventLocation, Location: &sessions.Location{Latitude: lat, Longitude: lng, Address: address}}
}

// Reply is the text the transport should deliver back to the user. Layout
// and rich formatting are the transport's concern.
type Reply struct {
	Text string
}
