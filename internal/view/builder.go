package view

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/zw-schools/schoolmap/internal/classify"
	"github.com/zw-schools/schoolmap/internal/heat"
	"github.com/zw-schools/schoolmap/internal/rank"
	"github.com/zw-schools/schoolmap/internal/schools"
	"github.com/zw-schools/schoolmap/internal/templates"
)

// Builder derives views. It only holds the fragment renderer used for
// tooltips and popups.
type Builder struct {
	renderer *templates.Renderer
}

// NewBuilder creates a builder rendering with r.
func NewBuilder(r *templates.Renderer) *Builder {
	return &Builder{renderer: r}
}

// ChoroplethView is the admin-1 share map.
type ChoroplethView struct {
	Metric   schools.Metric            `json:"metric"`
	Breaks   classify.ContinuousBreaks `json:"breaks"`
	Legend   classify.GradientLegend   `json:"legend"`
	Style    Style                     `json:"style"`
	Hover    HoverStyle                `json:"hover"`
	Features []Feature                 `json:"features"`
	Summary  Summary                   `json:"summary"`
}

type areaTooltip struct {
	Name   string
	Share  string
	Counts schools.Counts
}

// Choropleth colors each area by its share of the active metric. The
// breakpoints span every area's share.
func (b *Builder) Choropleth(areas []schools.Area, ctx Context) (ChoroplethView, error) {
	values := make([]float64, len(areas))
	for i, a := range areas {
		values[i] = a.Shares.Get(ctx.Metric)
	}
	breaks := classify.NewContinuousBreaks(values)

	v := ChoroplethView{
		Metric:   ctx.Metric,
		Breaks:   breaks,
		Legend:   classify.NewGradientLegend(classify.ShareGradient, breaks),
		Style:    ChoroplethStyle,
		Hover:    ChoroplethHover,
		Features: make([]Feature, 0, len(areas)),
		Summary:  summarize(areas, ctx),
	}
	for i, a := range areas {
		tip, err := b.renderer.Render("tooltip-area", areaTooltip{
			Name:   a.Name,
			Share:  classify.Fixed(values[i], 2),
			Counts: a.Counts,
		})
		if err != nil {
			return ChoroplethView{}, eris.Wrap(err, "view: choropleth tooltip")
		}
		v.Features = append(v.Features, Feature{
			Index:     i,
			Name:      a.Name,
			Value:     values[i],
			FillColor: classify.ShareGradient.ColorFor(values[i], breaks),
			Tooltip:   tip,
		})
	}
	return v, nil
}

// Cell is a styled density cell.
type Cell struct {
	Feature
	Class classify.Class `json:"class" doc:"Quantized class (0 = no data, 1-4)"`
}

// GridView is the quantized density map.
type GridView struct {
	Metric  schools.Metric           `json:"metric"`
	Breaks  classify.QuantizedBreaks `json:"breaks"`
	Legend  classify.SwatchLegend    `json:"legend"`
	Style   Style                    `json:"style"`
	Hover   HoverStyle               `json:"hover"`
	Cells   []Cell                   `json:"cells"`
	Summary Summary                  `json:"summary"`
}

type cellTooltip struct {
	Counts schools.Counts
}

// Grid buckets each cell by the count of the active metric. Cells without
// that count are classed NoData and do not affect the breakpoints.
func (b *Builder) Grid(cells []schools.Area, ctx Context) (GridView, error) {
	var values []float64
	for _, c := range cells {
		if c.HasCount(ctx.Metric) {
			values = append(values, c.Counts.Get(ctx.Metric))
		}
	}
	breaks := classify.NewQuantizedBreaks(values)

	v := GridView{
		Metric:  ctx.Metric,
		Breaks:  breaks,
		Legend:  classify.NewSwatchLegend(classify.DensityPalette, breaks),
		Style:   GridStyle,
		Hover:   GridHover,
		Cells:   make([]Cell, 0, len(cells)),
		Summary: summarize(cells, ctx),
	}
	for i, c := range cells {
		class := classify.NoData
		value := c.Counts.Get(ctx.Metric)
		if c.HasCount(ctx.Metric) {
			class = breaks.Classify(value)
		}
		tip, err := b.renderer.Render("tooltip-cell", cellTooltip{Counts: c.Counts})
		if err != nil {
			return GridView{}, eris.Wrap(err, "view: grid tooltip")
		}
		v.Cells = append(v.Cells, Cell{
			Feature: Feature{
				Index:     i,
				Value:     value,
				FillColor: classify.DensityPalette.Color(class),
				Tooltip:   tip,
			},
			Class: class,
		})
	}
	return v, nil
}

// HeatStats are the heatmap panel counters.
type HeatStats struct {
	Total          int    `json:"total"`
	Primary        int    `json:"primary"`
	Secondary      int    `json:"secondary"`
	TotalLabel     string `json:"totalLabel" example:"5,912 schools"`
	PrimaryLabel   string `json:"primaryLabel"`
	SecondaryLabel string `json:"secondaryLabel"`
}

// HeatView is the school density heatmap with its province ranking.
type HeatView struct {
	Points  []heat.Point `json:"points" doc:"[lat, lon, weight] samples"`
	Options heat.Options `json:"options"`
	Stats   HeatStats    `json:"stats"`
	Ranking rank.Ranking `json:"ranking"`
}

// Heat builds heat samples for the toggled levels, sizes the radius for
// the current zoom and center, and ranks provinces by active schools.
func (b *Builder) Heat(primary, secondary []schools.School, ctx Context) HeatView {
	var points []heat.Point
	var stats HeatStats
	if ctx.Primary {
		points = append(points, heat.Points(schools.Locations(primary), heat.PrimaryWeight)...)
		stats.Primary = len(primary)
	}
	if ctx.Secondary {
		points = append(points, heat.Points(schools.Locations(secondary), heat.SecondaryWeight)...)
		stats.Secondary = len(secondary)
	}
	if points == nil {
		points = []heat.Point{}
	}
	stats.Total = stats.Primary + stats.Secondary
	stats.TotalLabel = templates.Thousands(stats.Total) + " schools"
	stats.PrimaryLabel = templates.Thousands(stats.Primary)
	stats.SecondaryLabel = templates.Thousands(stats.Secondary)

	radiusKm := ctx.RadiusKm
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}

	return HeatView{
		Points:  points,
		Options: heat.NewOptions(heat.RadiusPx(ctx.Zoom, ctx.Center.Lat(), radiusKm)),
		Stats:   stats,
		Ranking: rank.By(ctx.Active(primary, secondary), schools.PropProvince),
	}
}

// Marker is one clustered school marker.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup" doc:"Popup HTML, escaped"`
}

// MarkerView is the clustered marker map.
type MarkerView struct {
	Style   MarkerStyle `json:"style"`
	Markers []Marker    `json:"markers"`
}

// Markers renders a popup for every school.
func (b *Builder) Markers(list []schools.School) (MarkerView, error) {
	v := MarkerView{Style: SchoolMarker, Markers: make([]Marker, 0, len(list))}
	for _, s := range list {
		popup, err := b.renderer.Render("popup-school", s)
		if err != nil {
			return MarkerView{}, eris.Wrap(err, "view: marker popup")
		}
		v.Markers = append(v.Markers, Marker{
			Lat:   s.Location.Lat(),
			Lon:   s.Location.Lon(),
			Popup: popup,
		})
	}
	return v, nil
}

func summarize(areas []schools.Area, ctx Context) Summary {
	var total float64
	visible := 0
	for _, a := range areas {
		total += a.Counts.Get(ctx.Metric)
		if ctx.visible(a.Bound()) {
			visible++
		}
	}
	t := int(math.Round(total))
	return Summary{
		Total:        t,
		TotalLabel:   templates.Thousands(t),
		Visible:      visible,
		VisibleLabel: templates.Thousands(visible),
	}
}
