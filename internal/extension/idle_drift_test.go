package extension

import (
	"math/rand"
	"testing"
	"time"
)

// manualScheduler records the most recently scheduled callback without
// firing it, so a recurring scheduler (like IdleDriftController's) can be
// driven one tick at a time instead of recursing forever.
type manualScheduler struct {
	pending []func()
}

func (m *manualScheduler) Schedule(delay time.Duration, fn func()) {
	m.pending = append(m.pending, fn)
}

func (m *manualScheduler) fireNext() {
	if len(m.pending) == 0 {
		return
	}
	fn := m.pending[0]
	m.pending = m.pending[1:]
	fn()
}

func TestIdleDriftController_DriftsCursorOnEachTick(t *testing.T) {
	sessions := NewSessionStore(nil)
	sched := &manualScheduler{}
	c := NewIdleDriftController(sched, sessions, rand.New(rand.NewSource(1)))

	c.Start(1)
	if len(sched.pending) != 1 {
		t.Fatalf("expected Start to schedule exactly one alarm, got %d", len(sched.pending))
	}

	sched.fireNext()
	pos := sessions.Default().CursorPositions[1]
	if pos == (CursorPosition{}) {
		t.Fatal("expected the first tick to move the cursor away from the origin")
	}
	if len(sched.pending) != 1 {
		t.Fatalf("expected the tick to reschedule itself, got %d pending", len(sched.pending))
	}
}

func TestIdleDriftController_StopMakesInFlightTickANoOp(t *testing.T) {
	sessions := NewSessionStore(nil)
	sched := &manualScheduler{}
	c := NewIdleDriftController(sched, sessions, rand.New(rand.NewSource(1)))

	c.Start(1)
	c.Stop()
	sched.fireNext()

	if len(sched.pending) != 0 {
		t.Fatal("expected a stopped controller's in-flight tick not to reschedule")
	}
	if pos := sessions.Default().CursorPositions[1]; pos != (CursorPosition{}) {
		t.Fatalf("expected no drift after Stop, got %v", pos)
	}
}
