package geo

import "math"

const earthRadiusKm = 6371

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Point is a latitude/longitude pair used for route vertices.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MinDistanceToRouteKm returns the minimum haversine distance in kilometers
// from the given point to any vertex of the route. Returns 0 for an empty route.
func MinDistanceToRouteKm(lat, lng float64, route []Point) float64 {
	if len(route) == 0 {
		return 0
	}
	min := math.MaxFloat64
	for _, p := range route {
		if d := HaversineKm(lat, lng, p.Lat, p.Lng); d < min {
			min = d
		}
	}
	return min
}
