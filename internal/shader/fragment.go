package shader

import (
	"math"

	"github.com/iburimskiy/gridscan/internal/scan"
)

// Color is a premultiplied linear RGBA value.
type Color struct {
	R, G, B, A float64
}

// noHit is the pre-loop sentinel distance kept when no plane qualifies.
const noHit = 1e20

const (
	scanZMax     = 2.0
	fadeStrength = 2.0
	dashRepeat   = 4.0
	dashDuty     = 0.5
	dotRepeat    = 6.0
	dotWidth     = 0.18
)

type vec2 struct{ x, y float64 }
type vec3f struct{ x, y, z float64 }

type surface struct {
	uv     vec2 // primary grid coordinates, jittered
	uv2    vec2 // cross grid coordinates, jittered
	hit    vec3f
	dist   float64
	hitIsY float64
	found  bool
}

// Smoother01 is the quintic smootherstep of x between a and b.
func Smoother01(a, b, x float64) float64 {
	t := clamp((x-a)/math.Max(1e-5, b-a), 0, 1)
	return t * t * t * (t*(t*6-15) + 10)
}

// Envelope fades a pulse in over the head of its phase and out over the tail.
func Envelope(phase, taper float64) float64 {
	taper = clamp(taper, 0, 0.49)
	return Smoother01(0, taper, phase) * (1 - Smoother01(1-taper, 1, phase))
}

// Band is the Gaussian falloff of a pulse at depth distance dz.
func Band(dz, sigma float64) float64 {
	return math.Exp(-0.5 * dz * dz / (sigma * sigma))
}

// Sigma is the band width derived from glow and softness.
func (u *Uniforms) Sigma() float64 {
	return math.Max(0.001, 0.18*math.Max(0.1, u.ScanGlow)*u.ScanSoftness)
}

// Fragment evaluates the grid scan program at device pixel (px, py), with y
// growing downward like the render target. Derivatives are taken against the
// neighbouring pixels.
func Fragment(u *Uniforms, px, py float64) Color {
	s := u.trace(px, py)
	sx := u.trace(px+1, py)
	sy := u.trace(px, py+1)

	w1 := vec2{
		math.Abs(sx.uv.x-s.uv.x) + math.Abs(sy.uv.x-s.uv.x),
		math.Abs(sx.uv.y-s.uv.y) + math.Abs(sy.uv.y-s.uv.y),
	}
	w2 := vec2{
		math.Abs(sx.uv2.x-s.uv2.x) + math.Abs(sy.uv2.x-s.uv2.x),
		math.Abs(sx.uv2.y-s.uv2.y) + math.Abs(sy.uv2.y-s.uv2.y),
	}

	gridScale := math.Max(1e-5, u.GridScale)
	halfPx := math.Max(0, u.LineThickness) * 0.5

	primary := u.gridMask(s.uv, w1, halfPx)
	alt := u.gridMask(s.uv2, w2, halfPx)

	edgeDistX := math.Min(math.Abs(s.hit.x+0.5), math.Abs(s.hit.x-0.5))
	edgeDistY := math.Min(math.Abs(s.hit.y+0.2), math.Abs(s.hit.y-0.2))
	edgeDist := mix(edgeDistY, edgeDistX, s.hitIsY)
	alt *= 1 - smoothstep(gridScale*0.5, gridScale*2, edgeDist)

	lineMask := math.Max(primary, alt)
	if !s.found {
		lineMask = 0
	}
	fade := math.Exp(-s.dist * fadeStrength)

	pulse, aura := u.pulses(s.hit.z)

	col := u.LinesColor.Scale(lineMask * fade).Add(u.ScanColor.Scale(pulse + aura))

	n := fract(math.Sin((px+u.Time*123.4)*12.9898+(py+u.Time*123.4)*78.233) * 43758.5453123)
	noise := (n - 0.5) * u.Noise
	col = RGB{clamp(col.R+noise, 0, 1), clamp(col.G+noise, 0, 1), clamp(col.B+noise, 0, 1)}

	alpha := clamp(math.Max(lineMask, pulse), 0, 1)

	fx, fy := fract(s.uv.x), fract(s.uv.y)
	ax, ay := math.Min(fx, 1-fx), math.Min(fy, 1-fy)
	gx := 1 - smoothstep(halfPx*w1.x*2, halfPx*w1.x*2+w1.x*2, ax)
	gy := 1 - smoothstep(halfPx*w1.y*2, halfPx*w1.y*2+w1.y*2, ay)
	alpha = math.Max(alpha, math.Max(gx, gy)*fade*clamp(u.BloomOpacity, 0, 1))

	return Color{col.R * alpha, col.G * alpha, col.B * alpha, alpha}
}

// pulses sums the scan bands and their auras at depth z.
func (u *Uniforms) pulses(z float64) (float64, float64) {
	sigma := u.Sigma()
	opacity := clamp(u.ScanOpacity, 0, 1)

	var pulse, aura float64
	n := min(max(u.ScanCount, 0), len(u.ScanStarts))
	for i := 0; i < n; i++ {
		phase := u.ScanDirection.Map(scan.Phase(u.Time, u.ScanStarts[i], u.ScanDuration, u.ScanDelay))
		dz := math.Abs(z - phase*scanZMax)
		window := Envelope(phase, u.PhaseTaper)
		pulse += Band(dz, sigma) * window * opacity
		aura += Band(dz, sigma*2) * 0.25 * window * opacity
	}
	return pulse, aura
}

// trace casts the view ray for a pixel against the two floor/ceiling planes
// and the two walls, keeping the nearest positive finite intersection.
func (u *Uniforms) trace(px, py float64) surface {
	dpr := math.Max(1, u.Resolution[2])
	w, h := u.Resolution[0], u.Resolution[1]
	fcx, fcy := px/dpr, (h*dpr-py)/dpr
	p := vec2{(2*fcx - w) / h, (2*fcy - h) / h}

	rd := normalize(vec3f{p.x, p.y, 2})

	cR, sR := math.Cos(u.Tilt), math.Sin(u.Tilt)
	rd.x, rd.y = cR*rd.x+sR*rd.y, -sR*rd.x+cR*rd.y

	cY, sY := math.Cos(u.Yaw), math.Sin(u.Yaw)
	rd.x, rd.z = cY*rd.x+sY*rd.z, -sY*rd.x+cY*rd.z

	skew := vec2{clamp(u.Skew[0], -0.7, 0.7), clamp(u.Skew[1], -0.7, 0.7)}
	rd.x += skew.x * rd.z
	rd.y += skew.y * rd.z

	gridScale := math.Max(1e-5, u.GridScale)
	s := surface{dist: noHit, hitIsY: 1}
	minT := noHit

	for i := 0; i < 4; i++ {
		isY := 0.0
		if i < 2 {
			isY = 1
		}
		pos := mix(-0.2, 0.2, float64(i))*isY + mix(-0.5, 0.5, float64(i-2))*(1-isY)
		den := isY*rd.y + (1-isY)*rd.x
		t := pos / den
		if !(t > 0 && t < minT) || math.IsInf(t, 0) {
			continue
		}
		hp := vec3f{rd.x * t, rd.y * t, rd.z * t}
		boost := smoothstep(0, 3, hp.z)
		hp.x += skew.x * 0.15 * boost
		hp.y += skew.y * 0.15 * boost

		if isY > 0.5 {
			s.uv = vec2{hp.x / gridScale, hp.z / gridScale}
		} else {
			s.uv = vec2{hp.z / gridScale, hp.y / gridScale}
		}
		minT = t
		s.hitIsY = isY
		s.found = true
	}

	s.hit = vec3f{rd.x * minT, rd.y * minT, rd.z * minT}
	s.dist = math.Sqrt(s.hit.x*s.hit.x + s.hit.y*s.hit.y + s.hit.z*s.hit.z)

	jitter := clamp(u.LineJitter, 0, 1)
	if jitter > 0 {
		s.uv = vec2{
			s.uv.x + math.Sin(s.uv.y*2.7+u.Time*1.8)*0.15*jitter,
			s.uv.y + math.Cos(s.uv.x*2.3-u.Time*1.6)*0.15*jitter,
		}
	}

	if s.hitIsY > 0.5 {
		s.uv2 = vec2{s.hit.x / gridScale, s.hit.z / gridScale}
	} else {
		s.uv2 = vec2{s.hit.z / gridScale, s.hit.y / gridScale}
	}
	if jitter > 0 {
		s.uv2 = vec2{
			s.uv2.x + math.Cos(s.uv2.y*2.1-u.Time*1.4)*0.15*jitter,
			s.uv2.y + math.Sin(s.uv2.x*2.5+u.Time*1.7)*0.15*jitter,
		}
	}
	return s
}

func (u *Uniforms) gridMask(uv, w vec2, halfPx float64) float64 {
	lineX := lineAxis(uv.x, w.x, halfPx) * u.styleMask(uv.y, w.y)
	lineY := lineAxis(uv.y, w.y, halfPx) * u.styleMask(uv.x, w.x)
	return math.Max(lineX, lineY)
}

func lineAxis(v, w, halfPx float64) float64 {
	f := fract(v)
	a := math.Min(f, 1-f)
	t := halfPx * w
	return 1 - smoothstep(t, t+w, a)
}

// styleMask gates a line by the coordinate v running along it; w is the
// screen-space derivative of v.
func (u *Uniforms) styleMask(v, w float64) float64 {
	switch u.LineStyle {
	case Dashed:
		if fract(v*dashRepeat) <= dashDuty {
			return 1
		}
		return 0
	case Dotted:
		c := math.Abs(fract(v*dotRepeat) - 0.5)
		return 1 - smoothstep(dotWidth, dotWidth+w*dotRepeat, c)
	}
	return 1
}

func smoothstep(e0, e1, x float64) float64 {
	if e1 <= e0 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

func mix(a, b, t float64) float64 { return a + (b-a)*t }

func fract(v float64) float64 { return v - math.Floor(v) }

func normalize(v vec3f) vec3f {
	l := math.Sqrt(v.x*v.x + v.y*v.y + v.z*v.z)
	return vec3f{v.x / l, v.y / l, v.z / l}
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
