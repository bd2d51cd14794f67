package georisk

// CrimeProfile carries the static crime statistics for a region. RiskLevel is
// the only field the risk engine scores on; the category counts feed the
// human-readable recommendations.
type CrimeProfile struct {
	TotalCrimes     int     `json:"total_crimes" yaml:"total_crimes"`
	ViolentCrimes   int     `json:"violent_crimes" yaml:"violent_crimes"`
	Thefts          int     `json:"thefts" yaml:"thefts"`
	Assaults        int     `json:"assaults" yaml:"assaults"`
	Burglaries      int     `json:"burglaries" yaml:"burglaries"`
	RiskLevel       float64 `json:"risk_level" yaml:"risk_level"`
	RecentIncidents int     `json:"recent_incidents" yaml:"recent_incidents"`
	SafetyScore     int     `json:"safety_score" yaml:"safety_score"`
}

// Region is a named catchment: coordinates within RadiusKm of the center are
// attributed to it. Regions are tested in declaration order; first match wins.
type Region struct {
	ID       string       `json:"id" yaml:"id"`
	Lat      float64      `json:"lat" yaml:"lat"`
	Lng      float64      `json:"lng" yaml:"lng"`
	RadiusKm float64      `json:"radius_km" yaml:"radius_km"`
	Profile  CrimeProfile `json:"profile" yaml:"profile"`
}

// Result is what a lookup resolves to: the matched region id (or "default")
// and its profile.
type Result struct {
	RegionID string       `json:"region_id"`
	Profile  CrimeProfile `json:"profile"`
}
