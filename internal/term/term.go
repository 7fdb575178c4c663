// Package term renders the effect into a terminal. Each cell shows two
// vertically stacked pixels through the upper half block glyph, so the
// effect runs at cols x 2*rows with the CPU evaluation of the grid program.
package term

import (
	"context"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/iburimskiy/gridscan/internal/config"
	"github.com/iburimskiy/gridscan/internal/effect"
	"github.com/iburimskiy/gridscan/internal/shader"
)

const halfBlock = '▀'

type Host struct {
	screen tcell.Screen
	driver *effect.Driver
	start  time.Time
	fps    int
}

// New wraps an initialized screen. The caller owns Init and Fini.
func New(screen tcell.Screen, d *effect.Driver, fps int) *Host {
	if fps <= 0 {
		fps = config.TerminalFPS
	}
	h := &Host{screen: screen, driver: d, start: time.Now(), fps: fps}
	h.resize()
	return h
}

// Run drives the effect until ctx is cancelled or the user quits with Esc,
// q or Ctrl-C.
func (h *Host) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(h.fps))
	defer ticker.Stop()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				// Fini was called
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			if !h.handleEvent(ev) {
				return nil
			}

		case <-ticker.C:
			h.Step(time.Since(h.start).Seconds())
		}
	}
}

func (h *Host) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
			return false
		}

	case *tcell.EventResize:
		h.screen.Sync()
		h.resize()
	}
	return true
}

func (h *Host) resize() {
	cols, rows := h.screen.Size()
	if h.driver.Resize(cols, rows*2, 1) {
		slog.Debug("term: resize", "cols", cols, "rows", rows)
	}
}

// Step advances the driver to now and draws one frame.
func (h *Host) Step(now float64) {
	h.driver.Tick(now)
	h.draw()
	h.screen.Show()
}

func (h *Host) draw() {
	u := h.driver.Uniforms()
	cols, rows := h.screen.Size()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := cellColor(u, x, 2*y)
			bottom := cellColor(u, x, 2*y+1)
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			h.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}
}

// cellColor samples the pixel center and composites over black.
func cellColor(u *shader.Uniforms, px, py int) tcell.Color {
	c := shader.Fragment(u, float64(px)+0.5, float64(py)+0.5)
	r, g, b := shader.Display(shader.RGB{R: c.R, G: c.G, B: c.B})
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
