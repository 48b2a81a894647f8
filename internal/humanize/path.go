package humanize

import "math"

// Point is one waypoint's screen coordinates.
type Point struct {
	X float64
	Y float64
}

// Waypoint is one point along a generated path plus the delay, in
// milliseconds from path start, at which it should be dispatched.
// Delays are monotone-increasing (spec §4.7).
type Waypoint struct {
	Point
	DelayMs int
}

// Viewport clamps generated waypoints so a curved path never overshoots
// past the visible page.
type Viewport struct {
	Width  float64
	Height float64
}

const singleWaypointThresholdPx = 5.0

// GeneratePath builds the waypoint list HumanizedMotion sends in place of
// a single CDP mouse event (spec §4.7). Below the single-waypoint
// threshold it returns one waypoint at the target; otherwise it builds a
// curved multi-waypoint path, more waypoints for greater distance, ending
// exactly at target.
func GeneratePath(rng randSource, from, target Point, p Personality, vp Viewport) []Waypoint {
	dx := target.X - from.X
	dy := target.Y - from.Y
	distance := math.Hypot(dx, dy)

	if distance < singleWaypointThresholdPx {
		return []Waypoint{{Point: target, DelayMs: sampleIntervalMs(rng, p)}}
	}

	steps := waypointCount(distance)
	perpX, perpY := perpendicular(dx, dy, distance)
	curveMagnitude := distance * 0.15 * p.CurvatureBias

	waypoints := make([]Waypoint, 0, steps)
	elapsed := 0
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		bow := math.Sin(t*math.Pi) * curveMagnitude

		x := from.X + dx*t + perpX*bow
		y := from.Y + dy*t + perpY*bow

		if i < steps {
			x += jitter(rng, p.JitterPx)
			y += jitter(rng, p.JitterPx)
		} else {
			// Final waypoint must land exactly on target (spec §4.7).
			x, y = target.X, target.Y
		}

		x, y = clampToViewport(x, y, vp)
		elapsed += sampleIntervalMs(rng, p)
		waypoints = append(waypoints, Waypoint{Point: Point{X: x, Y: y}, DelayMs: elapsed})
	}
	waypoints[len(waypoints)-1].Point = target
	return waypoints
}

// waypointCount scales with distance: roughly one waypoint per 40px,
// bounded to a sane range so short moves stay cheap and long moves still
// read as a deliberate curve.
func waypointCount(distance float64) int {
	n := int(distance / 40.0)
	if n < 3 {
		n = 3
	}
	if n > 24 {
		n = 24
	}
	return n
}

func perpendicular(dx, dy, distance float64) (float64, float64) {
	if distance == 0 {
		return 0, 0
	}
	return -dy / distance, dx / distance
}

// randSource is the minimal rand.Rand surface GeneratePath needs, so
// tests can supply a deterministic fake instead of a seeded PRNG.
type randSource interface {
	Float64() float64
}

func jitter(rng randSource, maxJitter float64) float64 {
	return (rng.Float64()*2 - 1) * maxJitter
}

func sampleIntervalMs(rng randSource, p Personality) int {
	base := MinSampleIntervalMs + rng.Float64()*(MaxSampleIntervalMs-MinSampleIntervalMs)
	scaled := base / p.SpeedMultiplier
	return int(scaled)
}

func clampToViewport(x, y float64, vp Viewport) (float64, float64) {
	if vp.Width > 0 {
		x = math.Max(0, math.Min(vp.Width, x))
	}
	if vp.Height > 0 {
		y = math.Max(0, math.Min(vp.Height, y))
	}
	return x, y
}
