// Package effect drives the grid scan animation: it advances simulated time,
// smooths the camera sway, runs the scan scheduler and keeps the uniform set
// current. It owns no window or GPU state; hosts call Tick once per frame and
// Resize whenever their surface changes size.
package effect

import (
	"log/slog"
	"math"

	"github.com/iburimskiy/gridscan/internal/config"
	"github.com/iburimskiy/gridscan/internal/motion"
	"github.com/iburimskiy/gridscan/internal/scan"
	"github.com/iburimskiy/gridscan/internal/shader"
)

// Axis is the damped state of one scalar.
type Axis struct {
	Value, Target, Velocity float64
}

// Motion is the per-frame camera state.
type Motion struct {
	Look, LookTarget, LookVelocity motion.Vec2
	Tilt, Yaw                      Axis
}

// Driver is not safe for concurrent use; hosts call it from their frame loop.
type Driver struct {
	uniforms *shader.Uniforms
	sched    *scan.Scheduler
	motion   Motion

	smoothTime float64
	maxSpeed   float64
	skewScale  float64
	tiltScale  float64
	yawScale   float64
	yBoost     float64

	started bool
	last    float64
	dt      float64
	frames  uint64

	onReset func(scan.Direction)
}

// New builds a driver from a sanitized configuration.
func New(cfg *config.Effect) (*Driver, error) {
	u, err := shader.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	s := clamp01(cfg.Sensitivity)
	return &Driver{
		uniforms:   u,
		sched:      scan.NewScheduler(cfg.ScanPeriod, cfg.ScanInitialDelay, u.ScanDirection),
		smoothTime: lerp(0.45, 0.12, s),
		maxSpeed:   math.Inf(1),
		skewScale:  lerp(0.06, 0.2, s),
		tiltScale:  lerp(0.12, 0.3, s),
		yawScale:   lerp(0.1, 0.28, s),
		yBoost:     lerp(1.2, 1.6, s),
	}, nil
}

// OnScanReset registers fn to run after every scheduled pulse reset.
func (d *Driver) OnScanReset(fn func(scan.Direction)) {
	d.onReset = fn
}

// Tick advances the animation to now, in seconds on the host's monotonic
// clock. The first call starts the scan timers.
func (d *Driver) Tick(now float64) {
	if !d.started {
		d.started = true
		d.last = now
		d.sched.Start(now)
	}
	d.dt = math.Max(0, math.Min(config.MaxFrameDelta, now-d.last))
	d.last = now
	d.frames++

	m := &d.motion
	m.LookTarget = motion.Vec2{
		X: math.Sin(now*config.SwayFreqX) * config.SwayAmplitude,
		Y: math.Cos(now*config.SwayFreqY) * config.SwayAmplitude,
	}
	m.Look, m.LookVelocity = motion.SmoothDampVec2(m.Look, m.LookTarget, m.LookVelocity, d.smoothTime, d.maxSpeed, d.dt)
	m.Tilt.Value, m.Tilt.Velocity = motion.SmoothDamp(m.Tilt.Value, m.Tilt.Target, m.Tilt.Velocity, d.smoothTime, d.maxSpeed, d.dt)
	m.Yaw.Value, m.Yaw.Velocity = motion.SmoothDamp(m.Yaw.Value, m.Yaw.Target, m.Yaw.Velocity, d.smoothTime, d.maxSpeed, d.dt)

	u := d.uniforms
	u.Skew = [2]float64{m.Look.X * d.skewScale, -m.Look.Y * d.yBoost * d.skewScale}
	u.Tilt = m.Look.Y*config.LookToTilt + m.Tilt.Value*d.tiltScale
	u.Yaw = m.Look.X*config.LookToYaw + m.Yaw.Value*d.yawScale
	u.Time = now

	if d.sched.Advance(now) > 0 {
		dir := d.sched.Direction()
		u.SetScans(d.sched.Buffer(), dir)
		slog.Debug("effect: scan reset", "time", now, "direction", dir.String())
		if d.onReset != nil {
			d.onReset(dir)
		}
	}
}

// Resize updates the resolution uniform. It reports whether anything changed
// so hosts know to reallocate their render targets.
func (d *Driver) Resize(width, height int, pixelRatio float64) bool {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	pixelRatio = math.Min(pixelRatio, config.MaxPixelRatio)
	res := [3]float64{float64(width), float64(height), pixelRatio}
	if res == d.uniforms.Resolution {
		return false
	}
	d.uniforms.Resolution = res
	slog.Debug("effect: resize", "width", width, "height", height, "pixel_ratio", pixelRatio)
	return true
}

// TriggerScan is kept for hosts that expose a manual trigger. The scheduler
// owns the buffer, so this does nothing.
func (d *Driver) TriggerScan(scan.Direction) {}

func (d *Driver) Uniforms() *shader.Uniforms { return d.uniforms }
func (d *Driver) Motion() Motion             { return d.motion }
func (d *Driver) Delta() float64             { return d.dt }
func (d *Driver) Frames() uint64             { return d.frames }

// PixelSize is the render target size for the current resolution.
func (d *Driver) PixelSize() (int, int) {
	r := d.uniforms.Resolution
	return int(math.Ceil(r[0] * r[2])), int(math.Ceil(r[1] * r[2]))
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
