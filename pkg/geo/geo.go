// Package geo holds the pure distance math used for vendor matching.
package geo

import (
	"math"
	"sort"
)

// EarthRadiusKm is the sphere radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// Point is a coordinate pair that may be unresolved.
type Point struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

func NewPoint(lat, lon float64) Point {
	return Point{Lat: &lat, Lon: &lon}
}

// Valid reports whether both coordinates are present and in range.
func (p Point) Valid() bool {
	if p.Lat == nil || p.Lon == nil {
		return false
	}
	lat, lon := *p.Lat, *p.Lon
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// DistanceKm is the haversine great-circle distance. Callers must pass valid points.
func DistanceKm(a, b Point) float64 {
	lat1 := toRadians(*a.Lat)
	lat2 := toRadians(*b.Lat)
	dLat := lat2 - lat1
	dLon := toRadians(*b.Lon) - toRadians(*a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RoundKm rounds a distance to two decimals for presentation.
func RoundKm(d float64) float64 {
	return math.Round(d*100) / 100
}

type Candidate[T any] struct {
	Item  T
	Point Point
}

type Match[T any] struct {
	Item       T
	DistanceKm float64
}

// FindWithinRadius keeps candidates at distance <= radiusKm, nearest first.
// Equal distances keep input order. Candidates without coordinates are skipped.
// An invalid origin yields nil so the caller can choose its own fallback.
func FindWithinRadius[T any](origin Point, candidates []Candidate[T], radiusKm float64) []Match[T] {
	if !origin.Valid() || radiusKm < 0 {
		return nil
	}

	matches := make([]Match[T], 0, len(candidates))
	for _, c := range candidates {
		if !c.Point.Valid() {
			continue
		}
		d := DistanceKm(origin, c.Point)
		if d <= radiusKm {
			matches = append(matches, Match[T]{Item: c.Item, DistanceKm: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})
	return matches
}
