// Package shader maps the effect configuration onto the uniforms of the grid
// scan fragment program and the bloom / chromatic aberration passes.
//
// The Kage sources are embedded; hosts compile them with ebiten.NewShader.
// Fragment is a CPU evaluation of the same program used by the terminal host
// and by tests.
package shader

import _ "embed"

var (
	//go:embed gridscan.kage
	GridScanSource []byte

	//go:embed bright.kage
	BrightSource []byte

	//go:embed blur.kage
	BlurSource []byte

	//go:embed composite.kage
	CompositeSource []byte
)

// LineStyle is the small integer enum the rasterizer branches on.
type LineStyle int

const (
	Solid LineStyle = iota
	Dashed
	Dotted
)

func (s LineStyle) String() string {
	switch s {
	case Dashed:
		return "dashed"
	case Dotted:
		return "dotted"
	}
	return "solid"
}
