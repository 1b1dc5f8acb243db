// Package geo wraps the s2 geometry library for great-circle distances,
// search bounding boxes and lock cells around a point.
package geo

import (
	"math"
	"sort"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius.
const EarthRadiusMeters = 6371008.8

const (
	maxLockLevel = 16
	maxLockCells = 64
)

// Box is a latitude/longitude rectangle in degrees. MinLon <= MaxLon always;
// ranges crossing the antimeridian are returned as two boxes.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the point lies inside the box.
func (b Box) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Valid reports whether lat/lon are finite and inside the WGS84 ranges.
func Valid(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// DistanceMeters returns the great-circle distance between two points.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusMeters
}

// Within reports whether the second point is no farther than radius meters away.
func Within(lat1, lon1, lat2, lon2, radiusMeters float64) bool {
	return DistanceMeters(lat1, lon1, lat2, lon2) <= radiusMeters
}

func searchCap(lat, lon, radiusMeters float64) s2.Cap {
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	return s2.CapFromCenterAngle(center, s1.Angle(radiusMeters/EarthRadiusMeters))
}

// BoundingBoxes returns one or two boxes that contain every point within
// radius meters of the center. They are a prefilter only.
func BoundingBoxes(lat, lon, radiusMeters float64) []Box {
	rect := searchCap(lat, lon, radiusMeters).RectBound()
	minLat := rect.Lat.Lo * 180 / math.Pi
	maxLat := rect.Lat.Hi * 180 / math.Pi

	if rect.Lng.IsFull() {
		return []Box{{MinLat: minLat, MaxLat: maxLat, MinLon: -180, MaxLon: 180}}
	}

	lo := s1.Angle(rect.Lng.Lo).Degrees()
	hi := s1.Angle(rect.Lng.Hi).Degrees()
	if rect.Lng.IsInverted() {
		return []Box{
			{MinLat: minLat, MaxLat: maxLat, MinLon: lo, MaxLon: 180},
			{MinLat: minLat, MaxLat: maxLat, MinLon: -180, MaxLon: hi},
		}
	}
	return []Box{{MinLat: minLat, MaxLat: maxLat, MinLon: lo, MaxLon: hi}}
}

// LockLevel is the cell level whose cells are at least radius wide.
func LockLevel(radiusMeters float64) int {
	level := s2.MinWidthMetric.MaxLevel(radiusMeters / EarthRadiusMeters)
	if level > maxLockLevel {
		level = maxLockLevel
	}
	return level
}

// LockCells returns the sorted ids of the cells at LockLevel covering the
// search cap. Two points within radius of each other always share a cell,
// because each covering contains the cell of the other point.
func LockCells(lat, lon, radiusMeters float64) []int64 {
	level := LockLevel(radiusMeters)
	coverer := &s2.RegionCoverer{MinLevel: level, MaxLevel: level, MaxCells: maxLockCells}
	covering := coverer.Covering(searchCap(lat, lon, radiusMeters))

	ids := make([]int64, 0, len(covering))
	seen := make(map[s2.CellID]struct{}, len(covering))
	for _, id := range covering {
		if id.Level() != level {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, int64(uint64(id)))
	}
	// the center cell is always locked even if the coverer trimmed it
	center := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)).Parent(level)
	if _, ok := seen[center]; !ok {
		ids = append(ids, int64(uint64(center)))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
