package risk

import "math"

const (
	MinSensitivity     = 0.5
	MaxSensitivity     = 1.5
	DefaultSensitivity = 1.0

	// Sliding window and trigger-rate bounds for the feedback loop.
	sensitivityWindow = 10
	highTriggerRate   = 0.3
	lowTriggerRate    = 0.1
)

// SensitivityController is a slow, bounded integral controller: it nudges the
// sensitivity multiplier after each assessment to stabilize the emergency
// trigger rate. Changes are at most 0.1 per call and the value never leaves
// [0.5, 1.5].
type SensitivityController struct {
	value float64
}

func NewSensitivityController() *SensitivityController {
	return &SensitivityController{value: DefaultSensitivity}
}

// Value returns the current sensitivity multiplier.
func (c *SensitivityController) Value() float64 {
	return c.value
}

// Adjust inspects the most recent assessments and updates the sensitivity.
// A no-op until the window has at least 10 records.
func (c *SensitivityController) Adjust(records []Record) float64 {
	if len(records) < sensitivityWindow {
		return c.value
	}

	window := records[len(records)-sensitivityWindow:]
	triggered := 0
	for _, r := range window {
		if r.Action.IsEmergency() {
			triggered++
		}
	}
	fraction := float64(triggered) / float64(len(window))

	switch {
	case fraction > highTriggerRate:
		c.value -= 0.1
	case fraction < lowTriggerRate:
		c.value += 0.05
	}

	c.value = math.Max(MinSensitivity, math.Min(MaxSensitivity, c.value))
	// Round away float drift from repeated 0.05 steps.
	c.value = math.Round(c.value*100) / 100
	return c.value
}
