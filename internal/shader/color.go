package shader

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is a linear-space color.
type RGB struct {
	R, G, B float64
}

func (c RGB) Scale(s float64) RGB { return RGB{c.R * s, c.G * s, c.B * s} }
func (c RGB) Add(o RGB) RGB       { return RGB{c.R + o.R, c.G + o.G, c.B + o.B} }

// Linear parses an sRGB hex color and converts it to linear space, which is
// where the program composites.
func Linear(hex string) (RGB, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return RGB{}, fmt.Errorf("shader: color %q: %w", hex, err)
	}
	r, g, b := c.LinearRgb()
	return RGB{r, g, b}, nil
}

// Display converts a linear color back to 8-bit sRGB.
func Display(c RGB) (uint8, uint8, uint8) {
	return colorful.LinearRgb(c.R, c.G, c.B).Clamped().RGB255()
}
