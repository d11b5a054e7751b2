package geo

import "math"

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinate is inside the WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Haversine returns the great-circle distance between a and b in kilometers,
// rounded to two decimal places.
func Haversine(a, b Coordinate) float64 {
	latA := radians(a.Lat)
	latB := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return RoundKm(2 * earthRadiusKm * math.Asin(math.Sqrt(h)))
}

// Midpoint returns the coordinate average of a and b. This is a deliberate
// approximation of the geographic midpoint, good enough for detour lookups
// over regional distances.
func Midpoint(a, b Coordinate) Coordinate {
	return Coordinate{
		Lat: (a.Lat + b.Lat) / 2,
		Lon: (a.Lon + b.Lon) / 2,
	}
}

// RoundKm rounds a distance to two decimal places.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// RoundMinutes rounds a duration in minutes to one decimal place.
func RoundMinutes(min float64) float64 {
	return math.Round(min*10) / 10
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
