package config

import (
	"fmt"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

const (
	LineStyleSolid  = "solid"
	LineStyleDashed = "dashed"
	LineStyleDotted = "dotted"

	DirectionForward  = "forward"
	DirectionBackward = "backward"
	DirectionPingPong = "pingpong"
)

const (
	DefaultSensitivity         = 0.55
	DefaultLineThickness       = 1.2
	DefaultLinesColor          = "#392e4e"
	DefaultScanColor           = "#00fff2"
	DefaultScanOpacity         = 0.5
	DefaultGridScale           = 0.1
	DefaultLineJitter          = 0.15
	DefaultBloomIntensity      = 1.5
	DefaultBloomThreshold      = 0.1
	DefaultBloomSmoothing      = 0.5
	DefaultChromaticAberration = 0.005
	DefaultNoiseIntensity      = 0.05
	DefaultScanGlow            = 1.5
	DefaultScanSoftness        = 1.0
	DefaultPhaseTaper          = 0.9
	DefaultScanDuration        = 4.0
	DefaultScanDelay           = 0.0
	DefaultScanPeriod          = 5.0
	DefaultScanInitialDelay    = 0.1
)

// Effect is the static configuration of the grid scan effect. It is built once
// at startup and never mutated afterwards. Durations are in seconds.
type Effect struct {
	Sensitivity         float64 `yaml:"sensitivity"`
	LineThickness       float64 `yaml:"line_thickness"`
	LinesColor          string  `yaml:"lines_color"`
	ScanColor           string  `yaml:"scan_color"`
	ScanOpacity         float64 `yaml:"scan_opacity"`
	GridScale           float64 `yaml:"grid_scale"`
	LineStyle           string  `yaml:"line_style"`
	LineJitter          float64 `yaml:"line_jitter"`
	ScanDirection       string  `yaml:"scan_direction"`
	BloomIntensity      float64 `yaml:"bloom_intensity"`
	BloomThreshold      float64 `yaml:"bloom_threshold"`
	BloomSmoothing      float64 `yaml:"bloom_smoothing"`
	ChromaticAberration float64 `yaml:"chromatic_aberration"`
	NoiseIntensity      float64 `yaml:"noise_intensity"`
	ScanGlow            float64 `yaml:"scan_glow"`
	ScanSoftness        float64 `yaml:"scan_softness"`
	PhaseTaper          float64 `yaml:"phase_taper"`
	ScanDuration        float64 `yaml:"scan_duration"`
	ScanDelay           float64 `yaml:"scan_delay"`
	ScanPeriod          float64 `yaml:"scan_period"`
	ScanInitialDelay    float64 `yaml:"scan_initial_delay"`
}

func DefaultEffect() *Effect {
	return &Effect{
		Sensitivity:         DefaultSensitivity,
		LineThickness:       DefaultLineThickness,
		LinesColor:          DefaultLinesColor,
		ScanColor:           DefaultScanColor,
		ScanOpacity:         DefaultScanOpacity,
		GridScale:           DefaultGridScale,
		LineStyle:           LineStyleSolid,
		LineJitter:          DefaultLineJitter,
		ScanDirection:       DirectionPingPong,
		BloomIntensity:      DefaultBloomIntensity,
		BloomThreshold:      DefaultBloomThreshold,
		BloomSmoothing:      DefaultBloomSmoothing,
		ChromaticAberration: DefaultChromaticAberration,
		NoiseIntensity:      DefaultNoiseIntensity,
		ScanGlow:            DefaultScanGlow,
		ScanSoftness:        DefaultScanSoftness,
		PhaseTaper:          DefaultPhaseTaper,
		ScanDuration:        DefaultScanDuration,
		ScanDelay:           DefaultScanDelay,
		ScanPeriod:          DefaultScanPeriod,
		ScanInitialDelay:    DefaultScanInitialDelay,
	}
}

// LoadEffect reads a YAML file on top of the defaults.
func LoadEffect(path string) (*Effect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultEffect()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func SaveEffect(path string, cfg *Effect) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Sanitize rejects values that cannot be mapped to the renderer and clamps the
// numeric ranges. The renderer clamps again at consumption time.
func (c *Effect) Sanitize() error {
	if _, err := colorful.Hex(c.LinesColor); err != nil {
		return fmt.Errorf("config: lines_color %q: %w", c.LinesColor, err)
	}
	if _, err := colorful.Hex(c.ScanColor); err != nil {
		return fmt.Errorf("config: scan_color %q: %w", c.ScanColor, err)
	}
	switch c.LineStyle {
	case LineStyleSolid, LineStyleDashed, LineStyleDotted:
	default:
		return fmt.Errorf("config: unknown line_style %q", c.LineStyle)
	}
	switch c.ScanDirection {
	case DirectionForward, DirectionBackward, DirectionPingPong:
	default:
		return fmt.Errorf("config: unknown scan_direction %q", c.ScanDirection)
	}

	c.Sensitivity = clamp(c.Sensitivity, 0, 1)
	c.LineThickness = max(0, c.LineThickness)
	c.ScanOpacity = clamp(c.ScanOpacity, 0, 1)
	c.GridScale = max(1e-5, c.GridScale)
	c.LineJitter = clamp(c.LineJitter, 0, 1)
	c.BloomIntensity = max(0, c.BloomIntensity)
	c.BloomThreshold = clamp(c.BloomThreshold, 0, 1)
	c.BloomSmoothing = clamp(c.BloomSmoothing, 0, 1)
	c.ChromaticAberration = max(0, c.ChromaticAberration)
	c.NoiseIntensity = max(0, c.NoiseIntensity)
	c.ScanGlow = max(0.1, c.ScanGlow)
	c.ScanSoftness = max(0, c.ScanSoftness)
	c.PhaseTaper = max(0, c.PhaseTaper)
	c.ScanDuration = max(0.05, c.ScanDuration)
	c.ScanDelay = max(0, c.ScanDelay)
	if c.ScanPeriod <= 0 {
		return fmt.Errorf("config: scan_period must be positive, got %v", c.ScanPeriod)
	}
	c.ScanInitialDelay = max(0, c.ScanInitialDelay)
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
