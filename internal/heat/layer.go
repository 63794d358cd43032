package heat

import (
	"github.com/paulmach/orb"
)

// Point weights per school level. Secondary schools are rarer and are
// drawn at full intensity.
const (
	PrimaryWeight   = 0.85
	SecondaryWeight = 1.0
)

// Point is one weighted heat sample, serialised as [lat, lon, weight].
type Point [3]float64

// NewPoint builds a heat sample from a lon/lat location.
func NewPoint(p orb.Point, weight float64) Point {
	return Point{p.Lat(), p.Lon(), weight}
}

// GradientStop is one position/color pair of the heat gradient.
type GradientStop struct {
	Offset float64 `json:"offset" doc:"Position on the intensity ramp (0-1)"`
	Color  string  `json:"color" doc:"Color (CSS)"`
}

// Options are the layer settings handed to the client heat renderer.
type Options struct {
	Radius     int            `json:"radius" doc:"Point radius in pixels"`
	Blur       int            `json:"blur" doc:"Blur radius in pixels"`
	MaxZoom    int            `json:"maxZoom" doc:"Zoom at which points reach full intensity"`
	MinOpacity float64        `json:"minOpacity" doc:"Minimum layer opacity"`
	Gradient   []GradientStop `json:"gradient" doc:"Intensity color ramp"`
}

// DefaultGradient is the navy-to-gold intensity ramp.
var DefaultGradient = []GradientStop{
	{Offset: 0.0, Color: "#1b2a4a"},
	{Offset: 0.35, Color: "#2a6f97"},
	{Offset: 0.65, Color: "#f1c453"},
	{Offset: 1.0, Color: "#f0c04c"},
}

// NewOptions returns the default layer options with the given radius.
func NewOptions(radius int) Options {
	gradient := make([]GradientStop, len(DefaultGradient))
	copy(gradient, DefaultGradient)
	return Options{
		Radius:     radius,
		Blur:       26,
		MaxZoom:    9,
		MinOpacity: 0.32,
		Gradient:   gradient,
	}
}

// Points converts locations to heat samples with one weight.
func Points(locations []orb.Point, weight float64) []Point {
	out := make([]Point, 0, len(locations))
	for _, p := range locations {
		out = append(out, NewPoint(p, weight))
	}
	return out
}
