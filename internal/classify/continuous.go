package classify

import "math"

// Gradient is an ordered list of stops for continuous interpolation.
type Gradient []Color

// ShareGradient is the choropleth gradient, dark blue through orange.
var ShareGradient = Gradient{
	MustParseHex("#0b1b3b"),
	MustParseHex("#1f4e8c"),
	MustParseHex("#3fb6c8"),
	MustParseHex("#43b96b"),
	MustParseHex("#f6d74b"),
	MustParseHex("#f39c34"),
}

// ContinuousBreaks holds the [min, max] domain of a continuous scale.
type ContinuousBreaks [2]float64

// NewContinuousBreaks returns [0, max(values)], or [0, 1] for no values.
func NewContinuousBreaks(values []float64) ContinuousBreaks {
	if len(values) == 0 {
		return ContinuousBreaks{0, 1}
	}
	return ContinuousBreaks{0, maxOf(values)}
}

// At returns the gradient color at position t, clamped to [0, 1].
func (g Gradient) At(t float64) Color {
	if len(g) == 0 {
		return Color{}
	}
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	scaled := t * float64(len(g)-1)
	idx := int(math.Floor(scaled))
	localT := scaled - float64(idx)
	next := idx + 1
	if next > len(g)-1 {
		next = len(g) - 1
	}
	return Lerp(g[idx], g[next], localT)
}

// ColorFor normalises value against breaks and samples the gradient.
// A zero or NaN upper break maps every value to the first stop.
func (g Gradient) ColorFor(value float64, breaks ContinuousBreaks) Color {
	if breaks[1] == 0 || math.IsNaN(breaks[1]) {
		return g.At(0)
	}
	return g.At(value / breaks[1])
}

// Hex returns the stops in "#rrggbb" form.
func (g Gradient) Hex() []string {
	out := make([]string, len(g))
	for i, c := range g {
		out[i] = c.Hex()
	}
	return out
}

func maxOf(values []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
