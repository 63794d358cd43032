// Package heat derives heatmap layer parameters: a zoom- and
// latitude-aware point radius, layer options and weighted points.
package heat

import "math"

// Ground resolution of a 256px Web-Mercator tile at the equator, zoom 0.
const equatorMetersPerPixel = 156543.03392

// Pixel bounds for the heat radius.
const (
	MinRadiusPx = 6
	MaxRadiusPx = 60
)

// MetersPerPixel returns the ground distance covered by one pixel at the
// given zoom and latitude.
func MetersPerPixel(zoom, latDeg float64) float64 {
	return equatorMetersPerPixel * math.Cos(latDeg*math.Pi/180) / math.Pow(2, zoom)
}

// RadiusPx converts a ground radius in kilometers to a pixel radius at the
// given zoom and latitude, clamped to [MinRadiusPx, MaxRadiusPx]. It has to
// be recomputed whenever the zoom or the map center changes.
func RadiusPx(zoom, latDeg, radiusKm float64) int {
	px := math.Floor(radiusKm*1000/MetersPerPixel(zoom, latDeg) + 0.5)
	if math.IsNaN(px) || px < MinRadiusPx {
		return MinRadiusPx
	}
	if px > MaxRadiusPx {
		return MaxRadiusPx
	}
	return int(px)
}
