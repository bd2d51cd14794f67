package stream

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/alert"
)

// Event is the wire frame pushed to sharing watchers.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Lat       float64   `json:"lat,omitempty"`
	Lng       float64   `json:"lng,omitempty"`
	Watchers  []string  `json:"watchers,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventSharingStarted = "sharing_started"
	EventLocationUpdate = "location_update"
	EventSharingStopped = "sharing_stopped"
)

// Sharer bridges emergency sessions onto the hub. While a session is live
// it accepts location points and broadcasts them to everyone watching the
// session's stream.
type Sharer struct {
	hub    *Hub
	mu     sync.Mutex
	active map[string]time.Time
	now    func() time.Time
}

func NewSharer(hub *Hub) *Sharer {
	return &Sharer{
		hub:    hub,
		active: map[string]time.Time{},
		now:    time.Now,
	}
}

func (s *Sharer) StartSharing(sessionID string, contacts []alert.Contact, duration time.Duration) error {
	expiresAt := s.now().Add(duration)

	s.mu.Lock()
	s.active[sessionID] = expiresAt
	s.mu.Unlock()

	watchers := make([]string, len(contacts))
	for i, c := range contacts {
		watchers[i] = c.Name
	}
	s.publish(Event{
		Type:      EventSharingStarted,
		SessionID: sessionID,
		Watchers:  watchers,
		ExpiresAt: expiresAt,
	})
	log.Printf("sharing_started session=%s watchers=%d expires_at=%s", sessionID, len(watchers), expiresAt.Format(time.RFC3339))
	return nil
}

// PushLocation broadcasts a location point for an active sharing session.
// Points for unknown or expired sessions are dropped.
func (s *Sharer) PushLocation(sessionID string, lat, lng float64) bool {
	s.mu.Lock()
	expiresAt, ok := s.active[sessionID]
	if ok && s.now().After(expiresAt) {
		delete(s.active, sessionID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	s.publish(Event{
		Type:      EventLocationUpdate,
		SessionID: sessionID,
		Lat:       lat,
		Lng:       lng,
	})
	return true
}

func (s *Sharer) StopSharing(sessionID string) error {
	s.mu.Lock()
	_, ok := s.active[sessionID]
	delete(s.active, sessionID)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	s.publish(Event{
		Type:      EventSharingStopped,
		SessionID: sessionID,
	})
	log.Printf("sharing_stopped session=%s", sessionID)
	return nil
}

// Active reports whether the session currently has a live sharing window.
func (s *Sharer) Active(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.active[sessionID]
	return ok && !s.now().After(expiresAt)
}

func (s *Sharer) publish(ev Event) {
	ev.Timestamp = s.now()
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("sharing event marshal error: %v", err)
		return
	}
	s.hub.Broadcast(ev.SessionID, payload)
}
