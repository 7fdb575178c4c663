package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/iburimskiy/gridscan/internal/effect"
	"github.com/iburimskiy/gridscan/internal/shader"
)

// Game hosts the effect in an ebiten window. Update runs once per displayed
// frame (TPS synced with FPS), so the driver sees a vsync-aligned tick.
type Game struct {
	driver *effect.Driver
	start  time.Time

	// scaleFactor reports the device pixel ratio; replaced in tests.
	scaleFactor func() float64

	grid      *ebiten.Shader
	bright    *ebiten.Shader
	blur      *ebiten.Shader
	composite *ebiten.Shader

	targets renderTargets
	op      ebiten.DrawRectShaderOptions

	showHUD    bool
	chimeLevel func() float64
}

// NewGame compiles the programs and wraps the driver.
func NewGame(d *effect.Driver) (*Game, error) {
	g := &Game{
		driver:      d,
		start:       time.Now(),
		scaleFactor: func() float64 { return ebiten.Monitor().DeviceScaleFactor() },
	}

	programs := []struct {
		name string
		src  []byte
		dst  **ebiten.Shader
	}{
		{"gridscan", shader.GridScanSource, &g.grid},
		{"bright", shader.BrightSource, &g.bright},
		{"blur", shader.BlurSource, &g.blur},
		{"composite", shader.CompositeSource, &g.composite},
	}
	for _, p := range programs {
		s, err := ebiten.NewShader(p.src)
		if err != nil {
			g.Dispose()
			return nil, fmt.Errorf("game: compile %s shader: %w", p.name, err)
		}
		*p.dst = s
	}
	return g, nil
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.showHUD = !g.showHUD
	}

	g.driver.Tick(time.Since(g.start).Seconds())
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	t := g.targets.ensure(w, h)
	u := g.driver.Uniforms()

	// Scene pass: the grid scan program into a linear-space target.
	g.pass(t.scene, w, h, g.grid, u.GridScan())

	// Bloom: luminance threshold, then a separable blur ping-ponged between
	// the two bloom targets.
	g.pass(t.bloomA, w, h, g.bright, u.Bright(), t.scene)
	g.pass(t.bloomB, w, h, g.blur, u.Blur(true), t.bloomA)
	g.pass(t.bloomA, w, h, g.blur, u.Blur(false), t.bloomB)

	// Composite: bloom add, chromatic aberration, display encoding.
	g.pass(screen, w, h, g.composite, u.Composite(), t.scene, t.bloomA)

	if g.showHUD {
		g.drawHUD(screen)
	}
}

func (g *Game) pass(dst *ebiten.Image, w, h int, s *ebiten.Shader, uniforms map[string]any, srcs ...*ebiten.Image) {
	g.op = ebiten.DrawRectShaderOptions{}
	g.op.Blend = ebiten.BlendCopy
	g.op.Uniforms = uniforms
	copy(g.op.Images[:], srcs)
	dst.DrawRectShader(w, h, s, &g.op)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	u := g.driver.Uniforms()
	status := fmt.Sprintf("%s  fps %.0f  %gx%g@%g  scan %s",
		formatUptime(time.Since(g.start)),
		ebiten.ActualFPS(),
		u.Resolution[0], u.Resolution[1], u.Resolution[2],
		u.ScanDirection)
	if g.chimeLevel != nil {
		status += fmt.Sprintf("  chime %.2f", g.chimeLevel())
	}
	ebitenutil.DebugPrintAt(screen, status, 12, 12)
}

// ShowChimeLevel adds the chime meter to the HUD.
func (g *Game) ShowChimeLevel(level func() float64) {
	g.chimeLevel = level
}

// Layout reports the device-pixel screen size and keeps the resolution
// uniform in sync. Every size change is applied immediately.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.driver.Resize(outsideWidth, outsideHeight, g.scaleFactor())
	return g.driver.PixelSize()
}

// Dispose releases the GPU resources held by the game.
func (g *Game) Dispose() {
	for _, s := range []*ebiten.Shader{g.grid, g.bright, g.blur, g.composite} {
		if s != nil {
			s.Deallocate()
		}
	}
	g.targets.release()
}

// runOptions asks for a transparent framebuffer; uncovered pixels show
// what is behind the window.
func runOptions() *ebiten.RunGameOptions {
	return &ebiten.RunGameOptions{ScreenTransparent: true}
}

// Run opens the window and blocks until the user quits.
func Run(g *Game, width, height int, title string) error {
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(ebiten.SyncWithFPS)
	ebiten.SetScreenClearedEveryFrame(false)

	defer g.Dispose()
	if err := ebiten.RunGameWithOptions(g, runOptions()); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
