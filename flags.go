package main

import (
	"github.com/spf13/cobra"

	"github.com/iburimskiy/gridscan/internal/config"
)

type effectFlag struct {
	name  string
	usage string
	num   func(*config.Effect) *float64
	str   func(*config.Effect) *string
}

var effectFlagTable = []effectFlag{
	{name: "sensitivity", usage: "camera damping responsiveness (0..1)", num: func(c *config.Effect) *float64 { return &c.Sensitivity }},
	{name: "line-thickness", usage: "grid line thickness in pixels", num: func(c *config.Effect) *float64 { return &c.LineThickness }},
	{name: "lines-color", usage: "grid line color (sRGB hex)", str: func(c *config.Effect) *string { return &c.LinesColor }},
	{name: "scan-color", usage: "scan pulse color (sRGB hex)", str: func(c *config.Effect) *string { return &c.ScanColor }},
	{name: "scan-opacity", usage: "scan pulse opacity", num: func(c *config.Effect) *float64 { return &c.ScanOpacity }},
	{name: "grid-scale", usage: "grid cell size", num: func(c *config.Effect) *float64 { return &c.GridScale }},
	{name: "line-style", usage: "solid, dashed or dotted", str: func(c *config.Effect) *string { return &c.LineStyle }},
	{name: "line-jitter", usage: "line wobble amount", num: func(c *config.Effect) *float64 { return &c.LineJitter }},
	{name: "scan-direction", usage: "forward, backward or pingpong", str: func(c *config.Effect) *string { return &c.ScanDirection }},
	{name: "bloom-intensity", usage: "bloom strength", num: func(c *config.Effect) *float64 { return &c.BloomIntensity }},
	{name: "bloom-threshold", usage: "bloom luminance threshold", num: func(c *config.Effect) *float64 { return &c.BloomThreshold }},
	{name: "bloom-smoothing", usage: "bloom threshold smoothing", num: func(c *config.Effect) *float64 { return &c.BloomSmoothing }},
	{name: "chromatic-aberration", usage: "chromatic aberration offset", num: func(c *config.Effect) *float64 { return &c.ChromaticAberration }},
	{name: "noise", usage: "noise intensity", num: func(c *config.Effect) *float64 { return &c.NoiseIntensity }},
	{name: "scan-glow", usage: "scan band width factor", num: func(c *config.Effect) *float64 { return &c.ScanGlow }},
	{name: "scan-softness", usage: "scan band softness", num: func(c *config.Effect) *float64 { return &c.ScanSoftness }},
	{name: "phase-taper", usage: "pulse fade in/out fraction", num: func(c *config.Effect) *float64 { return &c.PhaseTaper }},
	{name: "scan-duration", usage: "pulse travel time in seconds", num: func(c *config.Effect) *float64 { return &c.ScanDuration }},
	{name: "scan-delay", usage: "delay before a pulse moves, in seconds", num: func(c *config.Effect) *float64 { return &c.ScanDelay }},
	{name: "scan-period", usage: "seconds between pulses", num: func(c *config.Effect) *float64 { return &c.ScanPeriod }},
	{name: "scan-initial-delay", usage: "seconds before the first pulse", num: func(c *config.Effect) *float64 { return &c.ScanInitialDelay }},
}

func bindEffectFlags(cmd *cobra.Command, dst *config.Effect) {
	fs := cmd.Flags()
	for _, f := range effectFlagTable {
		if f.num != nil {
			p := f.num(dst)
			fs.Float64Var(p, f.name, *p, f.usage)
		} else {
			p := f.str(dst)
			fs.StringVar(p, f.name, *p, f.usage)
		}
	}
}

// applyEffectFlags copies the flags set on cmd from src into dst.
func applyEffectFlags(cmd *cobra.Command, src, dst *config.Effect) {
	for _, f := range effectFlagTable {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		if f.num != nil {
			*f.num(dst) = *f.num(src)
		} else {
			*f.str(dst) = *f.str(src)
		}
	}
}
