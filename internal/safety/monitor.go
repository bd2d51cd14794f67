package safety

import (
	"sync"
	"time"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/risk"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/session"
)

// Monitor owns one user's assessment state: bounded histories, the scoring
// engine, the adaptive sensitivity, and the emergency coordinator. All
// mutation happens under its lock so concurrent location updates for the
// same user serialize.
type Monitor struct {
	mu          sync.Mutex
	history     *risk.History
	engine      *risk.Engine
	controller  *risk.SensitivityController
	coordinator *session.Coordinator
	lastSpeed   float64
	sharingID   string
}

func NewMonitor(coordinator *session.Coordinator) *Monitor {
	return &Monitor{
		history:     risk.NewHistory(),
		engine:      risk.NewEngine(),
		controller:  risk.NewSensitivityController(),
		coordinator: coordinator,
	}
}

// Assess runs one update through the pipeline: derive kinematic signals
// from history, score, append to history, and adapt sensitivity for the
// next call.
func (m *Monitor) Assess(update LocationUpdate, crimeRiskLevel float64) risk.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	sample := risk.LocationSample{Lat: update.Lat, Lng: update.Lng, CapturedAt: capturedAt(update)}

	speed := 0.0
	if prev, ok := m.history.LastSample(); ok {
		speed = risk.DeriveSpeedKmh(prev, sample)
	}

	timeOfDay := update.TimeOfDay
	if timeOfDay == "" {
		timeOfDay = sample.CapturedAt.Format("15:04")
	}

	input := risk.Input{
		SpeedKmh:         speed,
		PrevSpeedKmh:     m.lastSpeed,
		RouteDeviationKm: risk.RouteDeviationKm(sample, update.ExpectedRoute),
		TimeOfDay:        timeOfDay,
		Lat:              update.Lat,
		Lng:              update.Lng,
		VoiceEmotion:     update.VoiceEmotion,
		AmbientLight:     update.AmbientLight,
		LocationZone:     update.LocationZone,
		CrimeRiskLevel:   crimeRiskLevel,
		PriorAlertCount:  m.history.PriorAlertCount(),
	}

	record := m.engine.Assess(input, m.controller.Value())
	m.history.RecordSample(sample)
	m.history.RecordAssessment(record)
	m.controller.Adjust(m.history.Records())
	m.lastSpeed = speed

	return record
}

// Sensitivity returns the controller's current multiplier.
func (m *Monitor) Sensitivity() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.controller.Value()
}

// LastRecord returns the most recent assessment, if any.
func (m *Monitor) LastRecord() (risk.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.LastRecord()
}

func (m *Monitor) setSharingID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sharingID = id
}

func (m *Monitor) sharingSession() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sharingID
}

func capturedAt(update LocationUpdate) time.Time {
	if update.CapturedAtMs > 0 {
		return time.UnixMilli(update.CapturedAtMs)
	}
	return time.Now()
}
