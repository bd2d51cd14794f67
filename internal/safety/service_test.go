package safety

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/alert"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/auth"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/config"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/georisk"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/session"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/stream"
)

type fakeDispatcher struct {
	mu        sync.Mutex
	selectors []string
	messages  []string
}

func (f *fakeDispatcher) Send(_ context.Context, contacts []alert.Contact, message, selector string) []alert.AttemptResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectors = append(f.selectors, selector)
	f.messages = append(f.messages, message)

	results := make([]alert.AttemptResult, len(contacts))
	for i, c := range contacts {
		results[i] = alert.AttemptResult{
			ContactID:      c.ID,
			ContactName:    c.Name,
			ChannelResults: map[alert.Channel]alert.ChannelResult{alert.ChannelSMS: {Success: true, ProviderID: "fake:1"}},
			AttemptsUsed:   1,
			OverallSuccess: true,
		}
	}
	return results
}

type fakeCapturer struct{}

func (fakeCapturer) Capture(context.Context, string) (string, error) { return "capture-1", nil }

func testConfig() config.Config {
	return config.Config{TriggerCooldownMin: 5, SessionTimeoutMin: 60}
}

func newTestService(dispatcher session.Dispatcher) *Service {
	sharer := stream.NewSharer(stream.NewHub(nil))
	return NewService(nil, georisk.NewLookup(), nil, nil, dispatcher, fakeCapturer{}, sharer, testConfig())
}

func TestUpdateLocationQuietSignal(t *testing.T) {
	svc := newTestService(&fakeDispatcher{})

	result, err := svc.UpdateLocation(context.Background(), "user-1", LocationUpdate{
		Lat: 0.0, Lng: 0.0, TimeOfDay: "14:00", LocationZone: "urban",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if result.Session.Status != session.StatusMonitoring && result.Session.Status != session.StatusWarning {
		t.Fatalf("unexpected session status %q", result.Session.Status)
	}
	if result.Analysis.RegionID != georisk.DefaultRegionID {
		t.Fatalf("expected default region, got %q", result.Analysis.RegionID)
	}
	if result.Sensitivity != 1.0 {
		t.Fatalf("expected default sensitivity, got %v", result.Sensitivity)
	}
	if len(result.Analysis.Recommendations) == 0 {
		t.Fatalf("expected recommendations")
	}
}

func TestUpdateLocationTriggersEmergency(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc := newTestService(dispatcher)

	// Night, panic voice, isolated zone, high-risk region: 2+3+2+3 = 10.
	result, err := svc.UpdateLocation(context.Background(), "user-1", LocationUpdate{
		Lat: 28.6139, Lng: 77.2090, TimeOfDay: "23:30", VoiceEmotion: "panic", LocationZone: "isolated",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if result.Assessment.RiskScore != 10.0 {
		t.Fatalf("expected score 10.0, got %v", result.Assessment.RiskScore)
	}
	if result.Session.Status != session.StatusTriggered {
		t.Fatalf("expected triggered, got %q", result.Session.Status)
	}

	status := svc.Status("user-1")
	if !status.SessionActive {
		t.Fatalf("expected active session")
	}
	if status.LastAssessment == nil || status.LastAssessment.RiskScore != 10.0 {
		t.Fatalf("expected last assessment recorded")
	}

	// A second trigger while the session runs is reported, not re-dispatched.
	again, err := svc.UpdateLocation(context.Background(), "user-1", LocationUpdate{
		Lat: 28.6139, Lng: 77.2090, TimeOfDay: "23:31", VoiceEmotion: "panic", LocationZone: "isolated",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if again.Session.Status != session.StatusAlreadyActive {
		t.Fatalf("expected already_active, got %q", again.Session.Status)
	}
}

func TestManualSOS(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc := newTestService(dispatcher)

	if _, err := svc.ManualSOS(context.Background(), "user-1", SOSRequest{Lat: 1, Lng: 2}); !errors.Is(err, ErrNoContacts) {
		t.Fatalf("expected ErrNoContacts, got %v", err)
	}

	result, err := svc.ManualSOS(context.Background(), "user-1", SOSRequest{
		Lat: 28.6139, Lng: 77.2090,
		Contacts: []alert.Contact{{ID: "c1", Name: "Asha", Phone: "+919876543210"}},
	})
	if err != nil {
		t.Fatalf("sos: %v", err)
	}
	if result.Summary.TotalContacts != 1 || result.Summary.Successful != 1 {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}
	if !result.Session.Active || !result.Session.Manual {
		t.Fatalf("expected active manual session: %+v", result.Session)
	}

	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	if len(dispatcher.selectors) == 0 || dispatcher.selectors[len(dispatcher.selectors)-1] != alert.SelectorAll {
		t.Fatalf("expected all-channel selector, got %v", dispatcher.selectors)
	}
}

func TestStopAllWithGuardPIN(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	pins := auth.NewPINService(mock)
	hash, _ := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)

	dispatcher := &fakeDispatcher{}
	sharer := stream.NewSharer(stream.NewHub(nil))
	svc := NewService(nil, georisk.NewLookup(), nil, pins, dispatcher, fakeCapturer{}, sharer, testConfig())

	if _, err := svc.ManualSOS(context.Background(), "user-1", SOSRequest{
		Contacts: []alert.Contact{{ID: "c1", Name: "Asha", Phone: "+919876543210"}},
	}); err != nil {
		t.Fatalf("sos: %v", err)
	}

	mock.ExpectQuery(`SELECT pin_hash FROM safety_pins`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"pin_hash"}).AddRow(string(hash)))
	if err := svc.StopAll(context.Background(), "user-1", StopRequest{PIN: "9999"}); !errors.Is(err, auth.ErrPINMismatch) {
		t.Fatalf("expected pin mismatch, got %v", err)
	}
	if !svc.Status("user-1").SessionActive {
		t.Fatalf("session should survive a failed pin")
	}

	mock.ExpectQuery(`SELECT pin_hash FROM safety_pins`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"pin_hash"}).AddRow(string(hash)))
	if err := svc.StopAll(context.Background(), "user-1", StopRequest{PIN: "1234"}); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if svc.Status("user-1").SessionActive {
		t.Fatalf("expected session stopped")
	}
}

func TestSharingLifecycle(t *testing.T) {
	hub := stream.NewHub(nil)
	sharer := stream.NewSharer(hub)
	svc := NewService(nil, georisk.NewLookup(), nil, nil, &fakeDispatcher{}, fakeCapturer{}, sharer, testConfig())

	id, err := svc.StartSharing(context.Background(), "user-1", SharingRequest{DurationMin: 30})
	if err != nil {
		t.Fatalf("start sharing: %v", err)
	}
	if !sharer.Active(id) {
		t.Fatalf("expected active sharing window")
	}

	client := hub.Register(id)
	defer hub.Unregister(client)

	if _, err := svc.UpdateLocation(context.Background(), "user-1", LocationUpdate{
		Lat: 0.1, Lng: 0.1, TimeOfDay: "14:00", LocationZone: "urban",
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	select {
	case <-client.Send:
	default:
		t.Fatalf("expected location fan-out to sharing watchers")
	}

	if err := svc.StopAll(context.Background(), "user-1", StopRequest{}); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if sharer.Active(id) {
		t.Fatalf("expected sharing window closed")
	}
}

func TestStartSharingInlineContactsAndMillis(t *testing.T) {
	hub := stream.NewHub(nil)
	sharer := stream.NewSharer(hub)
	svc := NewService(nil, georisk.NewLookup(), nil, nil, &fakeDispatcher{}, fakeCapturer{}, sharer, testConfig())

	watchers := []alert.Contact{{ID: "c1", Name: "Asha"}, {ID: "c2", Name: "Ravi"}}
	id, err := svc.StartSharing(context.Background(), "user-1", SharingRequest{
		DurationMs: (90 * time.Minute).Milliseconds(),
		Contacts:   watchers,
	})
	if err != nil {
		t.Fatalf("start sharing: %v", err)
	}
	if !sharer.Active(id) {
		t.Fatalf("expected active sharing window")
	}

	client := hub.Register(id)
	defer hub.Unregister(client)

	if !sharer.PushLocation(id, 1, 2) {
		t.Fatalf("expected window open well past the minute granularity")
	}
	select {
	case <-client.Send:
	default:
		t.Fatalf("expected location event for inline watchers")
	}
}

func TestAssessmentPersistence(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService(mock, georisk.NewLookup(), nil, nil, &fakeDispatcher{}, fakeCapturer{}, nil, testConfig())

	mock.ExpectExec(`INSERT INTO assessments`).
		WithArgs(pgxmock.AnyArg(), "user-1", 2.0, "monitor", pgxmock.AnyArg(), 1.0, 0.0, 0.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if _, err := svc.UpdateLocation(context.Background(), "user-1", LocationUpdate{
		Lat: 0.0, Lng: 0.0, TimeOfDay: "14:00", LocationZone: "urban",
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAreaSafety(t *testing.T) {
	svc := newTestService(&fakeDispatcher{})

	analysis := svc.AreaSafety(28.6139, 77.2090)
	if analysis.RegionID != "delhi" || analysis.ZoneStatus != "risk" {
		t.Fatalf("unexpected analysis %+v", analysis)
	}
	if len(analysis.Recommendations) == 0 {
		t.Fatalf("expected recommendations")
	}
}
