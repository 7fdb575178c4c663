// Package motion implements critically damped smoothing for the effect's
// camera sway. Callers own the velocity state and thread it through each call.
package motion

import "math"

// MinSmoothTime floors the time constant so the angular frequency stays finite.
const MinSmoothTime = 1e-4

// Vec2 is a plain 2D vector value.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) WithLen(l float64) Vec2 {
	n := v.Len()
	if n == 0 {
		return v
	}
	return v.Scale(l / n)
}

// decay approximates exp(-x) with 1/(1+x+0.48x²+0.235x³).
func decay(x float64) float64 {
	return 1 / (1 + x + 0.48*x*x + 0.235*x*x*x)
}

// SmoothDamp moves current toward target like a critically damped spring that
// settles in roughly smoothTime seconds. maxSpeed may be math.Inf(1).
// If the step would pass the target, the result is exactly target with zero
// velocity.
func SmoothDamp(current, target, velocity, smoothTime, maxSpeed, dt float64) (float64, float64) {
	smoothTime = math.Max(MinSmoothTime, smoothTime)
	omega := 2 / smoothTime
	exp := decay(omega * dt)

	change := current - target
	originalTo := target

	maxChange := maxSpeed * smoothTime
	if math.Abs(change) > maxChange {
		change = math.Copysign(maxChange, change)
	}
	target = current - change

	temp := (velocity + omega*change) * dt
	velocity = (velocity - omega*temp) * exp
	out := target + (change+temp)*exp

	if (originalTo-current)*(out-originalTo) > 0 {
		return originalTo, 0
	}
	return out, velocity
}

// SmoothDampVec2 is the vector form of SmoothDamp. The change is clamped by
// length, and overshoot is detected along the direction of travel.
func SmoothDampVec2(current, target, velocity Vec2, smoothTime, maxSpeed, dt float64) (Vec2, Vec2) {
	smoothTime = math.Max(MinSmoothTime, smoothTime)
	omega := 2 / smoothTime
	exp := decay(omega * dt)

	change := current.Sub(target)
	originalTo := target

	maxChange := maxSpeed * smoothTime
	if change.Len() > maxChange {
		change = change.WithLen(maxChange)
	}
	target = current.Sub(change)

	temp := velocity.Add(change.Scale(omega)).Scale(dt)
	velocity = velocity.Sub(temp.Scale(omega)).Scale(exp)
	out := target.Add(change.Add(temp).Scale(exp))

	if originalTo.Sub(current).Dot(out.Sub(originalTo)) > 0 {
		return originalTo, Vec2{}
	}
	return out, velocity
}
