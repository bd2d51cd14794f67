package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/alert"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/config"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/risk"
)

// Dispatcher fans an alert out to the contact set.
type Dispatcher interface {
	Send(ctx context.Context, contacts []alert.Contact, message, selector string) []alert.AttemptResult
}

// EvidenceCapturer starts audio/video evidence capture. Implementation is a
// collaborator; failures are logged, never fatal to the emergency response.
type EvidenceCapturer interface {
	Capture(ctx context.Context, reason string) (captureID string, err error)
}

// LocationSharer starts and stops continuous location sharing for a session.
type LocationSharer interface {
	StartSharing(sessionID string, contacts []alert.Contact, duration time.Duration) error
	StopSharing(sessionID string) error
}

// Coordinator owns the idle→active→idle emergency lifecycle: cooldown
// deduplication of automatic triggers, evidence capture and sharing start,
// alert dispatch as a tracked async task, and idempotent stop.
type Coordinator struct {
	dispatcher Dispatcher
	capturer   EvidenceCapturer
	sharer     LocationSharer

	cooldown time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu             sync.Mutex
	state          State
	lastTriggerAt  time.Time
	cancelDispatch context.CancelFunc
	dispatchDone   chan struct{}
}

func NewCoordinator(dispatcher Dispatcher, capturer EvidenceCapturer, sharer LocationSharer, cfg config.Config) *Coordinator {
	cooldown := time.Duration(cfg.TriggerCooldownMin) * time.Minute
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}
	timeout := time.Duration(cfg.SessionTimeoutMin) * time.Minute
	if timeout <= 0 {
		timeout = time.Hour
	}
	return &Coordinator{
		dispatcher: dispatcher,
		capturer:   capturer,
		sharer:     sharer,
		cooldown:   cooldown,
		timeout:    timeout,
		now:        time.Now,
	}
}

// SetClock replaces the wall clock, for tests.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// HandleAssessment reacts to one engine decision. warn is advisory only;
// trigger_emergency and critical_emergency start a session unless one is
// already active or the cooldown window since the last trigger still holds.
func (c *Coordinator) HandleAssessment(ctx context.Context, rec risk.Record, lat, lng float64, contacts []alert.Contact) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	if !rec.Action.IsEmergency() {
		if rec.Action == risk.ActionWarn {
			return Outcome{Status: StatusWarning}
		}
		return Outcome{Status: StatusMonitoring}
	}

	if c.state.Active {
		log.Printf("emergency_session status=already_active session=%s action=%s", c.state.SessionID, rec.Action)
		return Outcome{Status: StatusAlreadyActive, SessionID: c.state.SessionID}
	}

	if !c.lastTriggerAt.IsZero() {
		if elapsed := c.now().Sub(c.lastTriggerAt); elapsed < c.cooldown {
			remaining := c.cooldown - elapsed
			log.Printf("emergency_session status=suppressed action=%s cooldown_remaining=%s", rec.Action, remaining)
			return Outcome{Status: StatusSuppressed, CooldownRemaining: remaining}
		}
	}

	selector := alert.SelectorBoth
	if rec.Action == risk.ActionCritical {
		// Maximal response: every channel the contact can be reached on.
		selector = alert.SelectorAll
	}
	reason := fmt.Sprintf("automatic trigger: %s (score %.1f)", rec.Action, rec.RiskScore)
	message := ComposeMessage(rec.RiskScore, rec.Reasons, lat, lng)

	id := c.activateLocked(ctx, reason, false, contacts, message, selector)
	return Outcome{Status: StatusTriggered, SessionID: id}
}

// ManualSOS is the user-initiated entry point. It bypasses the risk engine
// and the cooldown; a manual trigger is never suppressed. The dispatch result
// is awaited so the caller gets the delivery summary.
func (c *Coordinator) ManualSOS(ctx context.Context, lat, lng float64, contacts []alert.Contact) ([]alert.AttemptResult, State) {
	message := ComposeMessage(0, []string{"manual SOS triggered"}, lat, lng)

	c.mu.Lock()
	c.expireLocked()
	if c.state.Active {
		// Session already running: deliver the fresh SOS on top of it.
		log.Printf("emergency_session status=manual_sos_on_active session=%s", c.state.SessionID)
	} else {
		c.activateLocked(ctx, "manual SOS", true, contacts, "", "")
	}
	c.mu.Unlock()

	results := c.dispatcher.Send(context.WithoutCancel(ctx), contacts, message, alert.SelectorAll)

	c.mu.Lock()
	c.state.LastDispatch = &Dispatch{Done: true, Results: results, Summary: alert.Summarize(results)}
	state := c.snapshotLocked()
	c.mu.Unlock()
	return results, state
}

// activateLocked flips idle→active and kicks off capture, sharing, and (for
// automatic triggers) the tracked dispatch task. Caller holds the lock.
func (c *Coordinator) activateLocked(ctx context.Context, reason string, manual bool, contacts []alert.Contact, message, selector string) string {
	now := c.now()
	ids := make([]string, 0, len(contacts))
	for _, ct := range contacts {
		ids = append(ids, ct.ID)
	}

	c.state = State{
		Active:           true,
		SessionID:        uuid.NewString(),
		StartedAt:        now,
		Reason:           reason,
		Manual:           manual,
		InvolvedContacts: ids,
		LastTriggerAt:    now,
	}
	c.lastTriggerAt = now

	if c.capturer != nil {
		captureID, err := c.capturer.Capture(ctx, reason)
		if err != nil {
			log.Printf("emergency_session session=%s capture_failed error=%q", c.state.SessionID, err.Error())
		} else {
			c.state.CaptureID = captureID
		}
	}
	if c.sharer != nil {
		if err := c.sharer.StartSharing(c.state.SessionID, contacts, c.timeout); err != nil {
			log.Printf("emergency_session session=%s sharing_failed error=%q", c.state.SessionID, err.Error())
		}
	}

	log.Printf("emergency_session status=activated session=%s manual=%t reason=%q", c.state.SessionID, manual, reason)

	if message == "" {
		return c.state.SessionID
	}

	// Dispatch runs detached from the request context so an in-flight fan-out
	// survives the caller returning; Stop cancels only its pending retries.
	dispatchCtx, cancel := context.WithCancel(context.Background())
	c.cancelDispatch = cancel
	done := make(chan struct{})
	c.dispatchDone = done
	c.state.LastDispatch = &Dispatch{}
	sessionID := c.state.SessionID

	go func() {
		defer close(done)
		results := c.dispatcher.Send(dispatchCtx, contacts, message, selector)
		c.mu.Lock()
		// A new session may have started while this fan-out ran; its
		// dispatch record must not be clobbered by a stale result.
		if c.state.SessionID == sessionID {
			c.state.LastDispatch = &Dispatch{Done: true, Results: results, Summary: alert.Summarize(results)}
		}
		c.mu.Unlock()
	}()

	return sessionID
}

// Stop ends the active session. Idempotent; pending alert retries are
// canceled but sends already issued run to completion.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deactivateLocked("stopped")
}

// Status reports the current session state, expiring it first if the
// configured duration has passed.
func (c *Coordinator) Status() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()
	return c.snapshotLocked()
}

// WaitDispatch blocks until the tracked dispatch task finishes, if one is
// running. Used by tests and by callers that need the delivery outcome.
func (c *Coordinator) WaitDispatch() {
	c.mu.Lock()
	done := c.dispatchDone
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Coordinator) expireLocked() {
	if c.state.Active && c.now().Sub(c.state.StartedAt) >= c.timeout {
		c.deactivateLocked("timed out")
	}
}

func (c *Coordinator) deactivateLocked(cause string) {
	if !c.state.Active {
		return
	}
	if c.cancelDispatch != nil {
		c.cancelDispatch()
		c.cancelDispatch = nil
	}
	if c.sharer != nil {
		if err := c.sharer.StopSharing(c.state.SessionID); err != nil {
			log.Printf("emergency_session session=%s stop_sharing_failed error=%q", c.state.SessionID, err.Error())
		}
	}
	log.Printf("emergency_session status=ended session=%s cause=%s", c.state.SessionID, cause)
	c.state.Active = false
}

func (c *Coordinator) snapshotLocked() State {
	s := c.state
	if c.state.LastDispatch != nil {
		d := *c.state.LastDispatch
		s.LastDispatch = &d
	}
	return s
}

// ComposeMessage builds the alert text: score, joined reasons, and a map link
// for the coordinates.
func ComposeMessage(score float64, reasons []string, lat, lng float64) string {
	var b strings.Builder
	b.WriteString("EMERGENCY ALERT")
	if score > 0 {
		fmt.Fprintf(&b, " - risk score %.1f/10", score)
	}
	if len(reasons) > 0 {
		b.WriteString(". Reasons: ")
		b.WriteString(strings.Join(reasons, "; "))
	}
	fmt.Fprintf(&b, ". Location: https://maps.google.com/?q=%.6f,%.6f", lat, lng)
	return b.String()
}
