// Package chime plays a short tone whenever a scan pulse resets. The pitch
// follows the pulse direction.
package chime

import (
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"

	"github.com/iburimskiy/gridscan/internal/config"
	"github.com/iburimskiy/gridscan/internal/scan"
)

type Chime struct {
	rate   beep.SampleRate
	length int
	meter  *meter
	play   func(...beep.Streamer)
}

// New builds a chime that hands its streams to play. Open wires play to the
// speaker.
func New(rate beep.SampleRate, play func(...beep.Streamer)) *Chime {
	return &Chime{
		rate:   rate,
		length: rate.N(time.Duration(config.ChimeDuration * float64(time.Second))),
		meter:  newMeter(config.ChimeRingSize),
		play:   play,
	}
}

// Open initializes the speaker and returns a chime playing through it.
func Open() (*Chime, error) {
	rate := beep.SampleRate(config.ChimeSampleRate)
	if err := speaker.Init(rate, rate.N(time.Second/20)); err != nil {
		return nil, err
	}
	return New(rate, speaker.Play), nil
}

func (c *Chime) Close() {
	speaker.Close()
}

// Ring plays one tone for a pulse running in dir.
func (c *Chime) Ring(dir scan.Direction) {
	hz := config.ChimeForwardHz
	if dir == scan.Backward {
		hz = config.ChimeBackwardHz
	}
	c.play(&levelTap{
		Source: &effects.Volume{
			Streamer: c.Tone(hz),
			Base:     2,
			Volume:   config.ChimeVolume,
		},
		meter: c.meter,
	})
}

// Level is the peak amplitude of the most recently played samples.
func (c *Chime) Level() float64 {
	return c.meter.peak()
}

// Tone is a decaying sine of the chime length.
func (c *Chime) Tone(hz float64) beep.Streamer {
	step := 2 * math.Pi * hz / float64(c.rate)
	decay := 5.0 / float64(c.length)
	i := 0
	sine := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for k := range samples {
			v := math.Sin(step*float64(i)) * math.Exp(-decay*float64(i))
			samples[k] = [2]float64{v, v}
			i++
		}
		return len(samples), true
	})
	return beep.Take(c.length, sine)
}

// levelTap passes a stream through and records its samples into a shared
// ring so the HUD can show the chime level.
type levelTap struct {
	Source beep.Streamer
	meter  *meter
}

func (t *levelTap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.Source.Stream(samples)
	t.meter.record(samples[:n], ok)
	return n, ok
}

func (t *levelTap) Err() error { return t.Source.Err() }

type meter struct {
	mu        sync.RWMutex
	buffer    []float64
	nextIndex int
}

func newMeter(ringSize int) *meter {
	return &meter{buffer: make([]float64, ringSize)}
}

func (m *meter) record(samples [][2]float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !ok {
		// the tone ended
		clear(m.buffer)
		return
	}
	for _, s := range samples {
		m.buffer[m.nextIndex] = math.Max(math.Abs(s[0]), math.Abs(s[1]))
		m.nextIndex = (m.nextIndex + 1) % len(m.buffer)
	}
}

func (m *meter) peak() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := 0.0
	for _, v := range m.buffer {
		p = math.Max(p, v)
	}
	return p
}
