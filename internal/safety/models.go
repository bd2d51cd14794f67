package safety

import (
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/alert"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/georisk"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/risk"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/session"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/shared/geo"
)

// LocationUpdate is the primary ingestion payload. Everything beyond the
// coordinates is optional context; absent signals fall back to their safe
// defaults in the engine.
type LocationUpdate struct {
	Lat           float64     `json:"lat"`
	Lng           float64     `json:"lng"`
	CapturedAtMs  int64       `json:"captured_at_ms,omitempty"`
	TimeOfDay     string      `json:"time_of_day,omitempty"` // HH:MM, defaults to capture time
	VoiceEmotion  string      `json:"voice_emotion,omitempty"`
	AmbientLight  string      `json:"ambient_light,omitempty"`
	LocationZone  string      `json:"location_zone,omitempty"`
	ExpectedRoute []geo.Point `json:"expected_route,omitempty"`
}

// Analysis is the environment half of an update response.
type Analysis struct {
	RegionID        string               `json:"region_id"`
	Profile         georisk.CrimeProfile `json:"profile"`
	ZoneStatus      string               `json:"zone_status"`
	Recommendations []string             `json:"recommendations"`
}

// UpdateResult pairs the area analysis with the engine's decision and what
// the coordinator did about it.
type UpdateResult struct {
	Analysis    Analysis        `json:"analysis"`
	Assessment  risk.Record     `json:"assessment"`
	Session     session.Outcome `json:"session"`
	Sensitivity float64         `json:"sensitivity"`
}

// SOSRequest triggers a manual emergency. Contacts may be supplied inline;
// otherwise the user's stored contact set is used.
type SOSRequest struct {
	Lat      float64         `json:"lat"`
	Lng      float64         `json:"lng"`
	Contacts []alert.Contact `json:"contacts,omitempty"`
}

// SOSResult reports delivery per contact plus the session snapshot.
type SOSResult struct {
	AlertsSent []alert.AttemptResult `json:"alerts_sent"`
	Summary    alert.Summary         `json:"summary"`
	Session    session.State         `json:"session"`
}

// Status is the monitoring snapshot for one user.
type Status struct {
	SessionActive  bool          `json:"session_active"`
	Session        session.State `json:"session"`
	Sensitivity    float64       `json:"sensitivity"`
	LastAssessment *risk.Record  `json:"last_assessment,omitempty"`
}

// SharingRequest starts a continuous sharing window outside an emergency.
// Contacts may be supplied inline; otherwise the stored set is used.
// DurationMs wins over DurationMin when both are set.
type SharingRequest struct {
	DurationMs  int64           `json:"duration_ms,omitempty"`
	DurationMin int             `json:"duration_min,omitempty"`
	Contacts    []alert.Contact `json:"contacts,omitempty"`
}

// StopRequest stands the user's emergency and sharing down. The guard PIN
// is checked when one is registered.
type StopRequest struct {
	PIN string `json:"pin,omitempty"`
}
