// Package pipeline builds the static GeoJSON datasets served by the map:
// the cleaned school CSV and its quality report, per-level school points,
// grid and hex density cells, and the admin-1 choropleth join.
package pipeline

import (
	"github.com/paulmach/orb"
)

// Bounds is a latitude/longitude box, inclusive on every side.
type Bounds struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// CleanBounds is the loose country box used while cleaning raw rows.
var CleanBounds = Bounds{LatMin: -23.5, LatMax: -15.5, LonMin: 25.0, LonMax: 34.0}

// MapBounds is the box school points and density cells are kept within.
// It is also written to bounds.json for the map's initial fit.
var MapBounds = Bounds{LatMin: -22.5, LatMax: -15.3, LonMin: 25.2, LonMax: 33.2}

// Contains reports whether lat/lon lies inside b.
func (b Bounds) Contains(lat, lon float64) bool {
	return b.LatMin <= lat && lat <= b.LatMax && b.LonMin <= lon && lon <= b.LonMax
}

// ContainsPoint is Contains for a lon/lat point.
func (b Bounds) ContainsPoint(p orb.Point) bool {
	return b.Contains(p.Lat(), p.Lon())
}

// Bound converts b to an orb bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.LonMin, b.LatMin}, Max: orb.Point{b.LonMax, b.LatMax}}
}
