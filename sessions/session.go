// Package sessions holds ephemeral per-user conversational state with
// absolute expiry. Sessions are channel-independent: the store is keyed by
// messaging user id only.
package sessions

import "time"

// Location is a geographic point attached during a conversation.
type Location struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Session is one user's in-flight conversation state. Step values only
// increase within one session; a destroyed session is never resurrected.
type Session struct {
	UserID      string
	Step        int
	Fields      map[string]string
	Location    *Location
	CreatedAt   time.Time
	LastTouched time.Time
}

// Field returns a collected field value, or "" when absent.
func (s Session) Field(name string) string {
	return s.Fields[name]
}

// SetField records a collected field, allocating the map on first use.
func (s *Session) SetField(name, value string) {
	if s.Fields == nil {
		s.Fields = make(map[string]string)
	}
	s.Fields[name] = value
}

// Store is the session storage contract. Reads past expiry behave as absent.
// Do serializes all operations for one user id: concurrent inbound events
// for the same user must not interleave a read-modify-write.
type Store interface {
	Get(userID string) (Session, bool)
	Put(userID string, session Session, ttl time.Duration)
	Remove(userID string)
	Do(userID string, fn func())
}
