package risk

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Scoring thresholds on the scaled, rounded score.
const (
	warnThreshold     = 5.0
	triggerThreshold  = 7.0
	criticalThreshold = 9.0

	// Route deviation beyond this many kilometers scores. All deviation
	// math is in kilometers.
	deviationThresholdKm = 0.2
)

// Engine produces deterministic risk assessments: identical input and
// sensitivity always yield the identical score and action. Scoring is
// additive over independent contributions, scaled by sensitivity, then
// clamped to [0, 10].
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Assess scores one input at the given sensitivity. The caller appends the
// returned record to its history; every assessment is recorded regardless of
// action so the feedback loop and prior-alert derivation see the full trend.
func (e *Engine) Assess(input Input, sensitivity float64) Record {
	var sum float64
	var reasons []string

	add := func(points float64, reason string) {
		sum += points
		reasons = append(reasons, reason)
	}

	switch {
	case input.SpeedKmh > 15:
		add(2, fmt.Sprintf("unusual speed detected: %.1f km/h, possible running", input.SpeedKmh))
	case input.SpeedKmh < 0.5 && input.PrevSpeedKmh > 5:
		add(2, "sudden stop after high-speed movement")
	}

	if input.RouteDeviationKm > deviationThresholdKm {
		pct := input.RouteDeviationKm / deviationThresholdKm * 100
		add(3, fmt.Sprintf("high route deviation: %.0f%% of allowed corridor", pct))
	}

	if hour, ok := parseHour(input.TimeOfDay); ok && (hour >= 22 || hour <= 5) {
		add(2, "late-night travel")
	}

	switch {
	case input.CrimeRiskLevel > 0.6:
		add(3, fmt.Sprintf("high-risk zone (crime level %.2f)", input.CrimeRiskLevel))
	case input.CrimeRiskLevel > 0.4:
		add(2, fmt.Sprintf("moderate-risk zone (crime level %.2f)", input.CrimeRiskLevel))
	}

	switch input.VoiceEmotion {
	case EmotionPanic, EmotionFear, EmotionDistress:
		add(3, fmt.Sprintf("voice emotion detected: %s", input.VoiceEmotion))
	}

	if input.PriorAlertCount > 2 {
		add(1, "multiple recent alerts")
	}

	if input.AmbientLight == LightLow {
		add(1, "low ambient light")
	}

	switch input.LocationZone {
	case ZoneIsolated:
		add(2, "isolated area")
	case ZoneRemote:
		add(1, "remote area")
	}

	score := roundScore(clampScore(sum * sensitivity))

	return Record{
		Timestamp:   e.now(),
		RiskScore:   score,
		Action:      actionForScore(score),
		Reasons:     reasons,
		Sensitivity: sensitivity,
	}
}

func actionForScore(score float64) Action {
	switch {
	case score >= criticalThreshold:
		return ActionCritical
	case score >= triggerThreshold:
		return ActionTrigger
	case score >= warnThreshold:
		return ActionWarn
	default:
		return ActionMonitor
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func roundScore(v float64) float64 {
	return math.Round(v*10) / 10
}

// parseHour extracts the hour from an HH:MM string. A malformed or missing
// time of day contributes nothing to the score.
func parseHour(timeOfDay string) (int, bool) {
	parts := strings.SplitN(timeOfDay, ":", 2)
	if len(parts) == 0 || parts[0] == "" {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}
