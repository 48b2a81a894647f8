package humanize

import (
	"math"
	"math/rand"
	"testing"
)

func seededRand(seed int) *rand.Rand {
	return rand.New(rand.NewSource(int64(seed)))
}

// fixedRand always returns the same Float64 value, for deterministic
// path-generation tests.
type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

func TestGeneratePath_ShortDistanceIsSingleWaypoint(t *testing.T) {
	p := Personality{SpeedMultiplier: 1, CurvatureBias: 0.5, JitterPx: 1}
	path := GeneratePath(fixedRand{0.5}, Point{X: 10, Y: 10}, Point{X: 12, Y: 12}, p, Viewport{})
	if len(path) != 1 {
		t.Fatalf("expected single waypoint for short distance, got %d", len(path))
	}
	if path[0].Point != (Point{X: 12, Y: 12}) {
		t.Fatalf("expected waypoint at target, got %v", path[0].Point)
	}
}

func TestGeneratePath_EndsExactlyAtTarget(t *testing.T) {
	p := Personality{SpeedMultiplier: 1, CurvatureBias: 0.5, JitterPx: 2}
	target := Point{X: 500, Y: 300}
	path := GeneratePath(fixedRand{0.5}, Point{X: 0, Y: 0}, target, p, Viewport{Width: 1280, Height: 720})
	if len(path) < 3 {
		t.Fatalf("expected multiple waypoints for a long move, got %d", len(path))
	}
	last := path[len(path)-1]
	if last.Point != target {
		t.Fatalf("expected path to end exactly at target, got %v", last.Point)
	}
}

func TestGeneratePath_DelaysAreMonotoneIncreasing(t *testing.T) {
	p := Personality{SpeedMultiplier: 1, CurvatureBias: 0.4, JitterPx: 1}
	path := GeneratePath(fixedRand{0.3}, Point{X: 0, Y: 0}, Point{X: 400, Y: 0}, p, Viewport{})
	for i := 1; i < len(path); i++ {
		if path[i].DelayMs <= path[i-1].DelayMs {
			t.Fatalf("expected monotone-increasing delays, got %v", path)
		}
	}
}

func TestGeneratePath_MoreWaypointsForGreaterDistance(t *testing.T) {
	p := Personality{SpeedMultiplier: 1, CurvatureBias: 0.4, JitterPx: 1}
	short := GeneratePath(fixedRand{0.3}, Point{X: 0, Y: 0}, Point{X: 50, Y: 0}, p, Viewport{})
	long := GeneratePath(fixedRand{0.3}, Point{X: 0, Y: 0}, Point{X: 900, Y: 0}, p, Viewport{})
	if len(long) <= len(short) {
		t.Fatalf("expected more waypoints for a longer move: short=%d long=%d", len(short), len(long))
	}
}

func TestGeneratePath_ClampsToViewport(t *testing.T) {
	p := Personality{SpeedMultiplier: 1, CurvatureBias: 0.7, JitterPx: 5}
	vp := Viewport{Width: 100, Height: 100}
	path := GeneratePath(fixedRand{0.9}, Point{X: 0, Y: 0}, Point{X: 95, Y: 95}, p, vp)
	for _, wp := range path {
		if wp.X < 0 || wp.X > vp.Width || wp.Y < 0 || wp.Y > vp.Height {
			t.Fatalf("waypoint escaped viewport: %v", wp)
		}
	}
}

func TestNewPersonality_WithinBounds(t *testing.T) {
	const trials = 50
	for i := 0; i < trials; i++ {
		p := NewPersonality(seededRand(i))
		if p.SpeedMultiplier < 0.7 || p.SpeedMultiplier > 1.3 {
			t.Fatalf("speedMultiplier out of bounds: %f", p.SpeedMultiplier)
		}
		if p.OvershootTendency < 0.3 || p.OvershootTendency > 0.8 {
			t.Fatalf("overshootTendency out of bounds: %f", p.OvershootTendency)
		}
		if p.CurvatureBias < 0.3 || p.CurvatureBias > 0.7 {
			t.Fatalf("curvatureBias out of bounds: %f", p.CurvatureBias)
		}
		if p.JitterPx < 0.5 || p.JitterPx > 2.0 {
			t.Fatalf("jitterPx out of bounds: %f", p.JitterPx)
		}
	}
}

func TestIdleDrift_WithinBoundsAndInterval(t *testing.T) {
	rng := seededRand(7)
	dx, dy, interval := IdleDrift(rng)
	mag := math.Hypot(dx, dy)
	if mag < MinIdleDriftPx-0.01 || mag > MaxIdleDriftPx+0.01 {
		t.Fatalf("idle drift magnitude out of bounds: %f", mag)
	}
	if interval < MinIdleIntervalSec || interval > MaxIdleIntervalSec {
		t.Fatalf("idle interval out of bounds: %d", interval)
	}
}
