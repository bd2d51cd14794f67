package risk

import (
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/shared/geo"
)

// Capacity bounds both the sample and the assessment history. Oldest entries
// are evicted first; insertion order is preserved for trend analysis.
const Capacity = 50

// History is the bounded, time-ordered store of recent location samples and
// assessments. Not safe for concurrent use; the owning monitor serializes
// access.
type History struct {
	samples []LocationSample
	records []Record
}

func NewHistory() *History {
	return &History{}
}

// RecordSample appends a sample, evicting the oldest beyond capacity.
func (h *History) RecordSample(s LocationSample) {
	h.samples = append(h.samples, s)
	if len(h.samples) > Capacity {
		h.samples = h.samples[len(h.samples)-Capacity:]
	}
}

// RecordAssessment appends an assessment record, evicting beyond capacity.
func (h *History) RecordAssessment(r Record) {
	h.records = append(h.records, r)
	if len(h.records) > Capacity {
		h.records = h.records[len(h.records)-Capacity:]
	}
}

// LastSample returns the most recent sample, if any.
func (h *History) LastSample() (LocationSample, bool) {
	if len(h.samples) == 0 {
		return LocationSample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// LastRecord returns the most recent assessment, if any.
func (h *History) LastRecord() (Record, bool) {
	if len(h.records) == 0 {
		return Record{}, false
	}
	return h.records[len(h.records)-1], true
}

// Records returns the retained assessment records, oldest first.
func (h *History) Records() []Record {
	return h.records
}

// SampleCount returns the number of retained samples.
func (h *History) SampleCount() int {
	return len(h.samples)
}

// PriorAlertCount counts retained assessments that escalated past monitoring.
func (h *History) PriorAlertCount() int {
	n := 0
	for _, r := range h.records {
		if r.Action != ActionMonitor {
			n++
		}
	}
	return n
}

// DeriveSpeedKmh computes the speed between two samples from haversine
// distance over elapsed time. Returns 0 when elapsed time is not positive.
func DeriveSpeedKmh(prev, cur LocationSample) float64 {
	elapsedH := cur.CapturedAt.Sub(prev.CapturedAt).Hours()
	if elapsedH <= 0 {
		return 0
	}
	return geo.HaversineKm(prev.Lat, prev.Lng, cur.Lat, cur.Lng) / elapsedH
}

// RouteDeviationKm is the minimum distance in kilometers from the sample to
// any vertex of the expected route, or 0 when no route is supplied.
func RouteDeviationKm(s LocationSample, route []geo.Point) float64 {
	return geo.MinDistanceToRouteKm(s.Lat, s.Lng, route)
}
