package drag

import (
	"math"

	"kanban/internal/geom"
)

// Feel constants. These are tuned by hand; keep them exact.
const (
	// PositionEase is the fraction of the remaining distance covered per frame.
	PositionEase = 0.35
	// TiltEase is the fraction of the remaining tilt covered per frame.
	TiltEase = 0.15
	// TiltPerPixel converts horizontal pointer speed (px/sample) to degrees.
	TiltPerPixel = 0.5
	// MaxTilt bounds the tilt in degrees, both directions.
	MaxTilt = 10.0
)

// Lerp moves current toward target by fraction f of the remaining delta.
func Lerp(current, target, f float64) float64 {
	return current + (target-current)*f
}

// TiltFor maps a horizontal pointer delta to a tilt target in degrees,
// saturating at ±MaxTilt.
func TiltFor(dx float64) float64 {
	return math.Max(-MaxTilt, math.Min(MaxTilt, dx*TiltPerPixel))
}

// Motion is the first-order ease of the ghost toward the pointer. It is not a
// spring: every Step covers a fixed fraction of the remaining distance, so it
// never overshoots.
type Motion struct {
	Current    geom.Point
	Target     geom.Point
	Tilt       float64
	TargetTilt float64
}

// Reset snaps both current and target to p with zero tilt.
func (m *Motion) Reset(p geom.Point) {
	m.Current, m.Target = p, p
	m.Tilt, m.TargetTilt = 0, 0
}

// Step advances one frame.
func (m *Motion) Step() {
	m.Current.X = Lerp(m.Current.X, m.Target.X, PositionEase)
	m.Current.Y = Lerp(m.Current.Y, m.Target.Y, PositionEase)
	m.Tilt = Lerp(m.Tilt, m.TargetTilt, TiltEase)
}

// remaining is the distance still to cover.
func (m *Motion) remaining() float64 {
	return m.Current.Dist(m.Target)
}
