package safety

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/alert"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/auth"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/config"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/contact"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/db"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/georisk"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/risk"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/session"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/stream"
)

var ErrNoContacts = errors.New("no emergency contacts configured")

// Service is the safety API surface. It holds one Monitor per user and
// routes every operation through it.
type Service struct {
	db         db.Querier
	lookup     *georisk.Lookup
	contacts   *contact.Service
	pins       *auth.PINService
	dispatcher session.Dispatcher
	capturer   session.EvidenceCapturer
	sharer     *stream.Sharer
	cfg        config.Config

	mu       sync.Mutex
	monitors map[string]*Monitor
}

func NewService(querier db.Querier, lookup *georisk.Lookup, contacts *contact.Service, pins *auth.PINService,
	dispatcher session.Dispatcher, capturer session.EvidenceCapturer, sharer *stream.Sharer, cfg config.Config) *Service {
	return &Service{
		db:         querier,
		lookup:     lookup,
		contacts:   contacts,
		pins:       pins,
		dispatcher: dispatcher,
		capturer:   capturer,
		sharer:     sharer,
		cfg:        cfg,
		monitors:   map[string]*Monitor{},
	}
}

func (s *Service) monitorFor(userID string) *Monitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.monitors[userID]
	if !ok {
		var sharer session.LocationSharer
		if s.sharer != nil {
			sharer = s.sharer
		}
		m = NewMonitor(session.NewCoordinator(s.dispatcher, s.capturer, sharer, s.cfg))
		s.monitors[userID] = m
	}
	return m
}

// UpdateLocation ingests one position fix: area lookup, risk assessment,
// coordinator reaction, persistence, and live-sharing fan-out.
func (s *Service) UpdateLocation(ctx context.Context, userID string, update LocationUpdate) (UpdateResult, error) {
	m := s.monitorFor(userID)

	region := s.lookup.Resolve(update.Lat, update.Lng)
	record := m.Assess(update, region.Profile.RiskLevel)

	s.logAssessment(ctx, userID, update, record)

	contacts := s.contactSet(ctx, userID, nil)
	outcome := m.coordinator.HandleAssessment(ctx, record, update.Lat, update.Lng, contacts)

	s.pushLocation(m, update.Lat, update.Lng)

	status := georisk.ZoneStatus(region.Profile.RiskLevel)
	return UpdateResult{
		Analysis: Analysis{
			RegionID:        region.RegionID,
			Profile:         region.Profile,
			ZoneStatus:      status,
			Recommendations: georisk.Recommendations(status, region.Profile),
		},
		Assessment:  record,
		Session:     outcome,
		Sensitivity: m.Sensitivity(),
	}, nil
}

// ManualSOS dispatches immediately, bypassing the engine and the cooldown.
func (s *Service) ManualSOS(ctx context.Context, userID string, req SOSRequest) (SOSResult, error) {
	m := s.monitorFor(userID)

	contacts := s.contactSet(ctx, userID, req.Contacts)
	if len(contacts) == 0 {
		return SOSResult{}, ErrNoContacts
	}

	results, state := m.coordinator.ManualSOS(ctx, req.Lat, req.Lng, contacts)
	summary := alert.Summarize(results)
	s.logDispatch(ctx, userID, state.SessionID, true, summary)

	return SOSResult{AlertsSent: results, Summary: summary, Session: state}, nil
}

// Status reports the session snapshot, current sensitivity, and the last
// assessment.
func (s *Service) Status(userID string) Status {
	m := s.monitorFor(userID)
	state := m.coordinator.Status()

	st := Status{
		SessionActive: state.Active,
		Session:       state,
		Sensitivity:   m.Sensitivity(),
	}
	if rec, ok := m.LastRecord(); ok {
		st.LastAssessment = &rec
	}
	return st
}

// StartSharing opens a continuous sharing window outside an emergency and
// returns the stream session id watchers connect to.
func (s *Service) StartSharing(ctx context.Context, userID string, req SharingRequest) (string, error) {
	if s.sharer == nil {
		return "", errors.New("sharing unavailable")
	}
	m := s.monitorFor(userID)

	duration := time.Duration(req.DurationMs) * time.Millisecond
	if duration <= 0 {
		duration = time.Duration(req.DurationMin) * time.Minute
	}
	if duration <= 0 {
		duration = time.Duration(s.cfg.SessionTimeoutMin) * time.Minute
	}
	if duration <= 0 {
		duration = time.Hour
	}

	id := uuid.NewString()
	if err := s.sharer.StartSharing(id, s.contactSet(ctx, userID, req.Contacts), duration); err != nil {
		return "", err
	}
	m.setSharingID(id)
	return id, nil
}

// StopAll stands the user down: guard PIN check, emergency session stop,
// and manual sharing stop. Idempotent.
func (s *Service) StopAll(ctx context.Context, userID string, req StopRequest) error {
	if s.pins != nil {
		if err := s.pins.VerifyPIN(ctx, userID, req.PIN); err != nil {
			return err
		}
	}

	m := s.monitorFor(userID)
	m.coordinator.Stop()
	if s.sharer != nil {
		if id := m.sharingSession(); id != "" {
			if err := s.sharer.StopSharing(id); err != nil {
				log.Printf("safety stop_sharing session=%s error=%q", id, err.Error())
			}
			m.setSharingID("")
		}
	}
	return nil
}

// AreaSafety is the standalone area check: region profile, status band,
// and recommendation text.
func (s *Service) AreaSafety(lat, lng float64) Analysis {
	region := s.lookup.Resolve(lat, lng)
	status := georisk.ZoneStatus(region.Profile.RiskLevel)
	return Analysis{
		RegionID:        region.RegionID,
		Profile:         region.Profile,
		ZoneStatus:      status,
		Recommendations: georisk.Recommendations(status, region.Profile),
	}
}

// contactSet resolves the contact list for a dispatch: inline contacts win,
// otherwise the stored set. Lookup failures degrade to an empty set.
func (s *Service) contactSet(ctx context.Context, userID string, inline []alert.Contact) []alert.Contact {
	if len(inline) > 0 {
		return inline
	}
	if s.contacts == nil {
		return nil
	}
	stored, err := s.contacts.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("safety contact_lookup user=%s error=%q", userID, err.Error())
		return nil
	}
	return contact.ToAlertContacts(stored)
}

// pushLocation forwards the fix to the live stream when the user has an
// active emergency or sharing session.
func (s *Service) pushLocation(m *Monitor, lat, lng float64) {
	if s.sharer == nil {
		return
	}
	if state := m.coordinator.Status(); state.Active {
		s.sharer.PushLocation(state.SessionID, lat, lng)
	}
	if id := m.sharingSession(); id != "" {
		if !s.sharer.PushLocation(id, lat, lng) {
			m.setSharingID("")
		}
	}
}

func (s *Service) logAssessment(ctx context.Context, userID string, update LocationUpdate, rec risk.Record) {
	if s.db == nil {
		return
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO assessments (id, user_id, risk_score, action, reasons, sensitivity, lat, lng)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, uuid.NewString(), userID, rec.RiskScore, string(rec.Action), strings.Join(rec.Reasons, "; "), rec.Sensitivity, update.Lat, update.Lng)
	if err != nil {
		log.Printf("safety assessment_log user=%s error=%q", userID, err.Error())
	}
}

func (s *Service) logDispatch(ctx context.Context, userID, sessionID string, manual bool, summary alert.Summary) {
	if s.db == nil {
		return
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO alert_log (id, user_id, session_id, manual, total_contacts, successful, failed, total_attempts)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, uuid.NewString(), userID, sessionID, manual, summary.TotalContacts, summary.Successful, summary.Failed, summary.TotalAttempts)
	if err != nil {
		log.Printf("safety alert_log user=%s error=%q", userID, err.Error())
	}
}
