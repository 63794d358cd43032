// Package classify maps numeric feature values to fill colors and describes
// the matching map legends.
package classify

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rotisserie/eris"
)

// Color is an opaque RGB color.
type Color struct {
	R, G, B uint8
}

// ParseHex parses a "#rrggbb" (or "#rgb") string.
func ParseHex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, eris.Wrapf(err, "classify: parse color %q", s)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// MustParseHex is like ParseHex but panics on malformed input.
// Use only for package-level constants.
func MustParseHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex returns the lower-case "#rrggbb" form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// MarshalText encodes the color as its hex form so JSON bodies carry "#rrggbb".
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText decodes a hex color.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Lerp interpolates each channel linearly between a and b and rounds half up.
func Lerp(a, b Color, t float64) Color {
	return Color{
		R: lerpChannel(a.R, b.R, t),
		G: lerpChannel(a.G, b.G, t),
		B: lerpChannel(a.B, b.B, t),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	v := math.Floor(float64(a) + (float64(b)-float64(a))*t + 0.5)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
