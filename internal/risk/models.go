package risk

import "time"

// Action is the escalation decision attached to an assessment.
type Action string

const (
	ActionMonitor  Action = "monitor"
	ActionWarn     Action = "warn"
	ActionTrigger  Action = "trigger_emergency"
	ActionCritical Action = "critical_emergency"
)

// IsEmergency reports whether the action fires the emergency session.
func (a Action) IsEmergency() bool {
	return a == ActionTrigger || a == ActionCritical
}

// Voice emotion and zone classifications accepted by the engine. Unknown
// values are treated as their safe defaults rather than rejected.
const (
	EmotionNeutral  = "neutral"
	EmotionPanic    = "panic"
	EmotionFear     = "fear"
	EmotionDistress = "distress"

	LightNormal = "normal"
	LightLow    = "low"

	ZoneUrban    = "urban"
	ZoneRemote   = "remote"
	ZoneIsolated = "isolated"
)

// LocationSample is a single recorded position. Immutable once recorded.
type LocationSample struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	CapturedAt time.Time `json:"captured_at"`
}

// Input carries the instantaneous signals for one assessment. Transient;
// built per call and not persisted.
type Input struct {
	SpeedKmh         float64 `json:"speed_kmh"`
	PrevSpeedKmh     float64 `json:"prev_speed_kmh"`
	RouteDeviationKm float64 `json:"route_deviation_km"`
	TimeOfDay        string  `json:"time_of_day"` // HH:MM
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	VoiceEmotion     string  `json:"voice_emotion"`
	AmbientLight     string  `json:"ambient_light"`
	LocationZone     string  `json:"location_zone"`
	CrimeRiskLevel   float64 `json:"crime_risk_level"`
	PriorAlertCount  int     `json:"prior_alert_count"`
}

// Record is one completed assessment. Immutable once created.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	RiskScore   float64   `json:"risk_score"`
	Action      Action    `json:"action"`
	Reasons     []string  `json:"reasons"`
	Sensitivity float64   `json:"sensitivity"`
}
