package georisk

// ZoneStatus buckets a profile's risk level the way the safe-zone indicator
// expects it: safe below 0.3, moderate below 0.7, risk otherwise.
func ZoneStatus(riskLevel float64) string {
	switch {
	case riskLevel < 0.3:
		return "safe"
	case riskLevel < 0.7:
		return "moderate"
	default:
		return "risk"
	}
}

// Recommendations builds advisory text for a zone status and crime profile.
func Recommendations(status string, profile CrimeProfile) []string {
	var recs []string

	switch status {
	case "risk":
		recs = append(recs,
			"High-risk area detected. Stay alert and avoid isolated areas.",
			"Keep emergency contacts readily accessible.",
			"Consider traveling with companions when possible.",
		)
	case "moderate":
		recs = append(recs,
			"Moderate risk area. Stay aware of your surroundings.",
			"Stick to well-lit and populated areas.",
		)
	default:
		recs = append(recs, "Safe zone confirmed. Continue normal precautions.")
	}

	if profile.ViolentCrimes > 100 {
		recs = append(recs, "High violent crime rate in this area. Exercise extra caution.")
	}
	if profile.Thefts > 200 {
		recs = append(recs, "High theft incidents reported. Secure your belongings.")
	}
	return recs
}
