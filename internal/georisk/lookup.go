package georisk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/shared/geo"
)

// DefaultRegionID is returned when no configured catchment contains the point.
const DefaultRegionID = "default"

// Lookup resolves coordinates to exactly one region. Pure and total: every
// coordinate falls back to the default profile when no catchment matches.
type Lookup struct {
	regions        []Region
	defaultProfile CrimeProfile
}

func NewLookup() *Lookup {
	return &Lookup{regions: builtinRegions(), defaultProfile: builtinDefaultProfile()}
}

// NewLookupFromFile loads a YAML region table, keeping the built-in default
// profile as the fallback.
func NewLookupFromFile(path string) (*Lookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file struct {
		Regions []Region      `yaml:"regions"`
		Default *CrimeProfile `yaml:"default"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse regions file: %w", err)
	}
	l := NewLookup()
	if len(file.Regions) > 0 {
		l.regions = file.Regions
	}
	if file.Default != nil {
		l.defaultProfile = *file.Default
	}
	return l, nil
}

// Resolve returns the first region whose catchment contains the point,
// falling back to the default profile.
func (l *Lookup) Resolve(lat, lng float64) Result {
	for _, r := range l.regions {
		if geo.HaversineKm(lat, lng, r.Lat, r.Lng) <= r.RadiusKm {
			return Result{RegionID: r.ID, Profile: r.Profile}
		}
	}
	return Result{RegionID: DefaultRegionID, Profile: l.defaultProfile}
}

func builtinRegions() []Region {
	return []Region{
		{
			ID: "delhi", Lat: 28.6139, Lng: 77.2090, RadiusKm: 50,
			Profile: CrimeProfile{TotalCrimes: 1250, ViolentCrimes: 180, Thefts: 420, Assaults: 95, Burglaries: 280, RiskLevel: 0.7, RecentIncidents: 45, SafetyScore: 65},
		},
		{
			ID: "mumbai", Lat: 19.0760, Lng: 72.8777, RadiusKm: 40,
			Profile: CrimeProfile{TotalCrimes: 980, ViolentCrimes: 120, Thefts: 350, Assaults: 75, Burglaries: 220, RiskLevel: 0.6, RecentIncidents: 32, SafetyScore: 72},
		},
		{
			ID: "bangalore", Lat: 12.9716, Lng: 77.5946, RadiusKm: 35,
			Profile: CrimeProfile{TotalCrimes: 750, ViolentCrimes: 85, Thefts: 280, Assaults: 60, Burglaries: 180, RiskLevel: 0.4, RecentIncidents: 28, SafetyScore: 78},
		},
		{
			ID: "chennai", Lat: 13.0827, Lng: 80.2707, RadiusKm: 30,
			Profile: CrimeProfile{TotalCrimes: 620, ViolentCrimes: 70, Thefts: 220, Assaults: 45, Burglaries: 150, RiskLevel: 0.3, RecentIncidents: 22, SafetyScore: 82},
		},
	}
}

func builtinDefaultProfile() CrimeProfile {
	return CrimeProfile{TotalCrimes: 500, ViolentCrimes: 60, Thefts: 180, Assaults: 40, Burglaries: 120, RiskLevel: 0.5, RecentIncidents: 25, SafetyScore: 75}
}
