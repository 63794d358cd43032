package classify

import "math"

// Class is a quantized bucket. Buckets 1-4 come from breakpoints;
// NoData marks a feature without a value for the active metric.
type Class int

const (
	NoData Class = iota
	Class1
	Class2
	Class3
	Class4
)

// Palette holds one color per Class, indexed by Class.
type Palette [5]Color

// DensityPalette is the grid density palette. Index 0 is the neutral
// background used for NoData.
var DensityPalette = Palette{
	MustParseHex("#f5f3ef"),
	MustParseHex("#f7d79b"),
	MustParseHex("#f2c14e"),
	MustParseHex("#e07a5f"),
	MustParseHex("#5f0f40"),
}

// QuantizedBreaks are five ascending thresholds starting at 0.
type QuantizedBreaks [5]float64

// NewQuantizedBreaks splits [0, max] into four equal integer steps of at
// least 1. No values yields [0 1 2 3 4].
func NewQuantizedBreaks(values []float64) QuantizedBreaks {
	if len(values) == 0 {
		return QuantizedBreaks{0, 1, 2, 3, 4}
	}
	step := math.Max(1, math.Ceil(maxOf(values)/4))
	return QuantizedBreaks{0, step, step * 2, step * 3, step * 4}
}

// Classify returns the bucket for value. Anything above breaks[3] is
// Class4, however large.
func (b QuantizedBreaks) Classify(value float64) Class {
	switch {
	case value <= b[1]:
		return Class1
	case value <= b[2]:
		return Class2
	case value <= b[3]:
		return Class3
	}
	return Class4
}

// Color returns the palette entry for c.
func (p Palette) Color(c Class) Color {
	if c < NoData || c > Class4 {
		c = NoData
	}
	return p[c]
}

// ColorFor classifies value and returns its palette color.
func (p Palette) ColorFor(value float64, breaks QuantizedBreaks) Color {
	return p.Color(breaks.Classify(value))
}
