package session

import (
	"time"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/alert"
)

// State is the lifecycle record of the emergency session. At most one session
// is active at a time; cooldown is a guard on re-entry, not a separate state.
type State struct {
	Active           bool       `json:"active"`
	SessionID        string     `json:"session_id,omitempty"`
	StartedAt        time.Time  `json:"started_at,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	Manual           bool       `json:"manual,omitempty"`
	InvolvedContacts []string   `json:"involved_contacts,omitempty"`
	LastTriggerAt    time.Time  `json:"last_trigger_at,omitempty"`
	CaptureID        string     `json:"capture_id,omitempty"`
	LastDispatch     *Dispatch  `json:"last_dispatch,omitempty"`
}

// Dispatch is the tracked outcome of the session's alert fan-out.
type Dispatch struct {
	Done    bool                  `json:"done"`
	Results []alert.AttemptResult `json:"results,omitempty"`
	Summary alert.Summary         `json:"summary"`
}

// Outcome statuses reported back to the ingestion path.
const (
	StatusMonitoring    = "monitoring"
	StatusWarning       = "warning"
	StatusTriggered     = "triggered"
	StatusSuppressed    = "suppressed"
	StatusAlreadyActive = "already_active"
)

// Outcome describes how the coordinator reacted to an assessment.
type Outcome struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	// CooldownRemaining is set when a trigger was suppressed.
	CooldownRemaining time.Duration `json:"cooldown_remaining_ms,omitempty"`
}
