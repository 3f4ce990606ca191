package geospatial

import "math"

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points
// given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return earthRadiusKm * CentralAngle(toRad(lat1), toRad(lon1), toRad(lat2), toRad(lon2)) * 1000
}

// CentralAngle returns the haversine distance on the unit sphere, in radians,
// between two points whose coordinates are already in radians.
func CentralAngle(lat1, lon1, lat2, lon2 float64) float64 {
	sinLat := math.Sin((lat2 - lat1) / 2)
	sinLon := math.Sin((lon2 - lon1) / 2)

	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * math.Asin(math.Min(1, math.Sqrt(a)))
}

// KilometersToRadians converts a surface distance into the angle it subtends
// at the Earth's center.
func KilometersToRadians(km float64) float64 {
	return km / earthRadiusKm
}

// RadiansToKilometers is the inverse of KilometersToRadians.
func RadiansToKilometers(rad float64) float64 {
	return rad * earthRadiusKm
}

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 {
	return toRad(deg)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
