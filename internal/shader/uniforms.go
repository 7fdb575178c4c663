package shader

import (
	"fmt"

	"github.com/iburimskiy/gridscan/internal/config"
	"github.com/iburimskiy/gridscan/internal/scan"
)

// Uniforms mirrors everything the fragment program and the post passes read.
// It is recomputed every frame and never persisted.
type Uniforms struct {
	Resolution [3]float64 // width, height, device pixel ratio
	Time       float64
	Skew       [2]float64
	Tilt       float64
	Yaw        float64

	LineThickness float64
	LinesColor    RGB
	ScanColor     RGB
	GridScale     float64
	LineStyle     LineStyle
	LineJitter    float64
	ScanOpacity   float64
	ScanDirection scan.Direction
	Noise         float64
	BloomOpacity  float64
	ScanGlow      float64
	ScanSoftness  float64
	PhaseTaper    float64
	ScanDuration  float64
	ScanDelay     float64
	ScanStarts    [config.MaxScans]float64
	ScanCount     int

	BloomIntensity      float64
	BloomThreshold      float64
	BloomSmoothing      float64
	ChromaticAberration float64
}

// FromConfig builds the static part of the uniform set.
func FromConfig(cfg *config.Effect) (*Uniforms, error) {
	lines, err := Linear(cfg.LinesColor)
	if err != nil {
		return nil, err
	}
	scanCol, err := Linear(cfg.ScanColor)
	if err != nil {
		return nil, err
	}
	style, err := ParseLineStyle(cfg.LineStyle)
	if err != nil {
		return nil, err
	}
	dir, err := scan.ParseDirection(cfg.ScanDirection)
	if err != nil {
		return nil, err
	}

	u := &Uniforms{
		Resolution:          [3]float64{config.WindowWidth, config.WindowHeight, 1},
		LineThickness:       cfg.LineThickness,
		LinesColor:          lines,
		ScanColor:           scanCol,
		GridScale:           cfg.GridScale,
		LineStyle:           style,
		LineJitter:          cfg.LineJitter,
		ScanOpacity:         cfg.ScanOpacity,
		ScanDirection:       dir,
		Noise:               cfg.NoiseIntensity,
		BloomOpacity:        cfg.BloomIntensity,
		ScanGlow:            cfg.ScanGlow,
		ScanSoftness:        cfg.ScanSoftness,
		PhaseTaper:          cfg.PhaseTaper,
		ScanDuration:        cfg.ScanDuration,
		ScanDelay:           cfg.ScanDelay,
		BloomIntensity:      cfg.BloomIntensity,
		BloomThreshold:      cfg.BloomThreshold,
		BloomSmoothing:      cfg.BloomSmoothing,
		ChromaticAberration: cfg.ChromaticAberration,
	}
	for i := range u.ScanStarts {
		u.ScanStarts[i] = config.ScanSentinel
	}
	return u, nil
}

func ParseLineStyle(s string) (LineStyle, error) {
	switch s {
	case config.LineStyleSolid:
		return Solid, nil
	case config.LineStyleDashed:
		return Dashed, nil
	case config.LineStyleDotted:
		return Dotted, nil
	}
	return Solid, fmt.Errorf("shader: unknown line style %q", s)
}

// SetScans copies the scan buffer state into the uniforms.
func (u *Uniforms) SetScans(b scan.Buffer, dir scan.Direction) {
	u.ScanStarts = b.Starts
	u.ScanCount = b.Count
	u.ScanDirection = dir
}

// GridScan returns the uniform map for gridscan.kage.
func (u *Uniforms) GridScan() map[string]any {
	starts := make([]float32, len(u.ScanStarts))
	for i, s := range u.ScanStarts {
		starts[i] = float32(s)
	}
	return map[string]any{
		"Resolution":    vec3(u.Resolution[0], u.Resolution[1], u.Resolution[2]),
		"Time":          float32(u.Time),
		"Skew":          []float32{float32(u.Skew[0]), float32(u.Skew[1])},
		"Tilt":          float32(u.Tilt),
		"Yaw":           float32(u.Yaw),
		"LineThickness": float32(u.LineThickness),
		"LinesColor":    vec3(u.LinesColor.R, u.LinesColor.G, u.LinesColor.B),
		"ScanColor":     vec3(u.ScanColor.R, u.ScanColor.G, u.ScanColor.B),
		"GridScale":     float32(u.GridScale),
		"LineStyle":     float32(u.LineStyle),
		"LineJitter":    float32(u.LineJitter),
		"ScanOpacity":   float32(u.ScanOpacity),
		"ScanDirection": float32(u.ScanDirection),
		"Noise":         float32(u.Noise),
		"BloomOpacity":  float32(u.BloomOpacity),
		"ScanGlow":      float32(u.ScanGlow),
		"ScanSoftness":  float32(u.ScanSoftness),
		"PhaseTaper":    float32(u.PhaseTaper),
		"ScanDuration":  float32(u.ScanDuration),
		"ScanDelay":     float32(u.ScanDelay),
		"ScanStarts":    starts,
		"ScanCount":     float32(u.ScanCount),
	}
}

// Bright returns the uniform map for the bloom luminance pass.
func (u *Uniforms) Bright() map[string]any {
	return map[string]any{
		"Threshold": float32(clamp(u.BloomThreshold, 0, 1)),
		"Smoothing": float32(clamp(u.BloomSmoothing, 0, 1)),
	}
}

// Blur returns the uniform map for one axis of the separable blur.
func (u *Uniforms) Blur(horizontal bool) map[string]any {
	step := float32(1.5 * max(1, u.Resolution[2]))
	if horizontal {
		return map[string]any{"Step": []float32{step, 0}}
	}
	return map[string]any{"Step": []float32{0, step}}
}

// Composite returns the uniform map for the bloom add and chromatic
// aberration pass.
func (u *Uniforms) Composite() map[string]any {
	off := float32(max(0, u.ChromaticAberration))
	return map[string]any{
		"BloomIntensity": float32(max(0, u.BloomIntensity)),
		"Aberration":     []float32{off, off},
	}
}

func vec3(x, y, z float64) []float32 {
	return []float32{float32(x), float32(y), float32(z)}
}
