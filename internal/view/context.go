// Package view turns loaded datasets and an explicit render context into
// styled, tooltipped map views, legends and panel statistics. Every call
// is a pure transformation of its arguments.
package view

import (
	"github.com/paulmach/orb"

	"github.com/zw-schools/schoolmap/internal/schools"
)

// Center of Zimbabwe and the initial zoom of the heatmap.
var (
	DefaultCenter = orb.Point{29.1549, -19.0154}
	DefaultZoom   = 6.0
)

// DefaultRadiusKm is the ground radius of one heat point.
const DefaultRadiusKm = 20.0

// Context is the UI state a view is derived from: the active metric, the
// level toggles and the current viewport.
type Context struct {
	Metric    schools.Metric
	Primary   bool
	Secondary bool
	Zoom      float64
	Center    orb.Point
	RadiusKm  float64
	// Viewport limits the visible count; nil counts every feature.
	Viewport *orb.Bound
}

// DefaultContext shows every school at the initial zoom.
func DefaultContext() Context {
	return Context{
		Metric:    schools.MetricTotal,
		Primary:   true,
		Secondary: true,
		Zoom:      DefaultZoom,
		Center:    DefaultCenter,
		RadiusKm:  DefaultRadiusKm,
	}
}

// Active returns the schools enabled by the level toggles, primary first.
func (c Context) Active(primary, secondary []schools.School) []schools.School {
	var out []schools.School
	if c.Primary {
		out = append(out, primary...)
	}
	if c.Secondary {
		out = append(out, secondary...)
	}
	return out
}

func (c Context) visible(b orb.Bound) bool {
	if c.Viewport == nil {
		return true
	}
	return c.Viewport.Intersects(b)
}
