package classify

import (
	"fmt"
	"strconv"
)

// Legend titles shown above each legend kind.
const (
	ShareLegendTitle   = "Share of schools (%)"
	DensityLegendTitle = "Schools per grid cell"
)

// LegendItem is one labelled swatch.
type LegendItem struct {
	Label string `json:"label" doc:"Legend label" example:"1 - 3"`
	Color Color  `json:"color" doc:"Swatch color (CSS)" example:"#f7d79b"`
}

// GradientLegend describes a horizontal gradient bar with two end labels.
type GradientLegend struct {
	Title    string  `json:"title" doc:"Legend title"`
	Stops    []Color `json:"stops" doc:"Gradient stops, left to right"`
	MinLabel string  `json:"minLabel" doc:"Label under the left end" example:"0.0%"`
	MaxLabel string  `json:"maxLabel" doc:"Label under the right end" example:"42.5%"`
}

// CSS returns the linear-gradient background for the bar.
func (l GradientLegend) CSS() string {
	s := "linear-gradient(90deg"
	for _, c := range l.Stops {
		s += ", " + c.Hex()
	}
	return s + ")"
}

// SwatchLegend is a list of discrete swatches.
type SwatchLegend struct {
	Title string       `json:"title" doc:"Legend title"`
	Items []LegendItem `json:"items" doc:"Swatches in ascending order"`
}

// NewGradientLegend labels both ends of breaks as percentages with one decimal.
func NewGradientLegend(g Gradient, breaks ContinuousBreaks) GradientLegend {
	stops := make([]Color, len(g))
	copy(stops, g)
	return GradientLegend{
		Title:    ShareLegendTitle,
		Stops:    stops,
		MinLabel: Fixed(breaks[0], 1) + "%",
		MaxLabel: Fixed(breaks[1], 1) + "%",
	}
}

// NewSwatchLegend builds the four "{from} - {to}" swatches for breaks.
func NewSwatchLegend(p Palette, breaks QuantizedBreaks) SwatchLegend {
	items := make([]LegendItem, 0, 4)
	for i := 0; i < 4; i++ {
		items = append(items, LegendItem{
			Label: fmt.Sprintf("%s - %s", number(breaks[i]+1), number(breaks[i+1])),
			Color: p.Color(Class(i + 1)),
		})
	}
	return SwatchLegend{Title: DensityLegendTitle, Items: items}
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
