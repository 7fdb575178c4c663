// Package scan holds the pulse buffer that drives the traveling highlight
// band, the timers that rewrite it, and the phase mapping shared by the
// Kage program and its CPU reference.
package scan

import (
	"fmt"
	"math"

	"github.com/iburimskiy/gridscan/internal/config"
)

// Direction selects how a pulse phase maps to a position along the grid.
type Direction int

const (
	Forward Direction = iota
	Backward
	PingPong
)

// ParseDirection maps the configuration names onto Direction values.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case config.DirectionForward:
		return Forward, nil
	case config.DirectionBackward:
		return Backward, nil
	case config.DirectionPingPong:
		return PingPong, nil
	}
	return Forward, fmt.Errorf("scan: unknown direction %q", s)
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return config.DirectionForward
	case Backward:
		return config.DirectionBackward
	case PingPong:
		return config.DirectionPingPong
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Map transforms a normalized phase. The input is clamped to [0,1] first.
func (d Direction) Map(phase float64) float64 {
	phase = clamp01(phase)
	switch d {
	case Backward:
		return 1 - phase
	case PingPong:
		if phase < 0.5 {
			return phase * 2
		}
		return 1 - (phase-0.5)*2
	}
	return phase
}

// Phase is the normalized progress of a pulse that started at start. Start
// times in the future and times past the duration window clamp to 0 and 1.
func Phase(now, start, duration, delay float64) float64 {
	duration = math.Max(0.05, duration)
	delay = math.Max(0, delay)
	return clamp01((now - start - delay) / duration)
}

// Buffer is the fixed set of pulse start times. Inactive slots hold
// config.ScanSentinel.
type Buffer struct {
	Starts [config.MaxScans]float64
	Count  int
}

func NewBuffer() Buffer {
	var b Buffer
	b.Clear()
	return b
}

// Clear invalidates every slot.
func (b *Buffer) Clear() {
	for i := range b.Starts {
		b.Starts[i] = config.ScanSentinel
	}
	b.Count = 0
}

// Reset leaves exactly one active pulse starting at now.
func (b *Buffer) Reset(now float64) {
	b.Clear()
	b.Starts[0] = now
	b.Count = 1
}

// Active returns the start times of the slots below Count.
func (b *Buffer) Active() []float64 {
	n := min(max(b.Count, 0), len(b.Starts))
	return b.Starts[:n]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
