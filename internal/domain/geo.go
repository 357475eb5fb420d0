package domain

import "math"

// EarthRadiusKm is the sphere radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm returns the Haversine great-circle distance to other in
// kilometers.
func (p GeoPoint) DistanceKm(other GeoPoint) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// WithinKm reports whether other lies within radiusKm of p.
func (p GeoPoint) WithinKm(other GeoPoint, radiusKm float64) bool {
	return p.DistanceKm(other) <= radiusKm
}
