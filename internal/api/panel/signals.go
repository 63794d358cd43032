package panel

import (
	"github.com/paulmach/orb"

	"github.com/zw-schools/schoolmap/internal/api"
	"github.com/zw-schools/schoolmap/internal/humastar"
	"github.com/zw-schools/schoolmap/internal/schools"
	"github.com/zw-schools/schoolmap/internal/view"
)

// Signal names bound by the side panel.
const (
	SignalMetric    = "metric"
	SignalSource    = "source"
	SignalPrimary   = "primary"
	SignalSecondary = "secondary"
	SignalZoom      = "zoom"
	SignalLat       = "lat"
	SignalLon       = "lon"
	SignalRadiusKm  = "radiuskm"
	SignalBBox      = "bbox"
)

// contextFrom overlays the panel signals on defaults. Absent or zero
// numeric signals keep the default.
func contextFrom(s humastar.Signals, defaults view.Context) (view.Context, error) {
	vc := defaults
	m, err := schools.ParseMetric(s.String(SignalMetric))
	if err != nil {
		return vc, err
	}
	vc.Metric = m
	vc.Primary = s.BoolOr(SignalPrimary, defaults.Primary)
	vc.Secondary = s.BoolOr(SignalSecondary, defaults.Secondary)
	if z := s.Float(SignalZoom); z > 0 {
		vc.Zoom = z
	}
	if s.Has(SignalLat) && s.Has(SignalLon) {
		vc.Center = orb.Point{s.Float(SignalLon), s.Float(SignalLat)}
	}
	if r := s.Float(SignalRadiusKm); r > 0 {
		vc.RadiusKm = r
	}
	vp, err := api.ParseBBox(s.String(SignalBBox))
	if err != nil {
		return vc, err
	}
	vc.Viewport = vp
	return vc, nil
}
