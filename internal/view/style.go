package view

import "github.com/zw-schools/schoolmap/internal/classify"

// Style is the shared path style of a polygon layer.
type Style struct {
	Weight      float64 `json:"weight" doc:"Stroke width"`
	Opacity     float64 `json:"opacity" doc:"Stroke opacity"`
	Color       string  `json:"color" doc:"Stroke color (CSS)"`
	FillOpacity float64 `json:"fillOpacity" doc:"Fill opacity"`
}

// HoverStyle is applied to a polygon under the pointer.
type HoverStyle struct {
	Weight float64 `json:"weight"`
	Color  string  `json:"color"`
}

var (
	ChoroplethStyle = Style{Weight: 1, Opacity: 0.8, Color: "#ffffff", FillOpacity: 0.85}
	ChoroplethHover = HoverStyle{Weight: 2, Color: "#0f172a"}
	GridStyle       = Style{Weight: 0.6, Opacity: 0.7, Color: "#ffffff", FillOpacity: 0.8}
	GridHover       = HoverStyle{Weight: 1.2, Color: "#0f172a"}
)

// MarkerStyle is the circle marker drawn for each school.
type MarkerStyle struct {
	Radius      float64 `json:"radius"`
	FillColor   string  `json:"fillColor"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fillOpacity"`
}

var SchoolMarker = MarkerStyle{
	Radius:      4,
	FillColor:   "#1f78b4",
	Color:       "#0b3c5d",
	Weight:      1,
	Opacity:     1,
	FillOpacity: 0.9,
}

// Feature is the styling of one input feature, matched by Index.
type Feature struct {
	Index     int            `json:"index" doc:"Position of the feature in its source collection"`
	Name      string         `json:"name,omitempty" doc:"Area name"`
	Value     float64        `json:"value" doc:"Value of the active metric"`
	FillColor classify.Color `json:"fillColor" doc:"Fill color (CSS)"`
	Tooltip   string         `json:"tooltip" doc:"Tooltip HTML"`
}

// Summary holds the panel counters of a polygon view.
type Summary struct {
	Total        int    `json:"total" doc:"Sum of the active metric over all features"`
	TotalLabel   string `json:"totalLabel" doc:"Total with thousands separators"`
	Visible      int    `json:"visible" doc:"Features intersecting the viewport"`
	VisibleLabel string `json:"visibleLabel" doc:"Visible with thousands separators"`
}
