// idle_drift.go — the periodic idle-drift alarm (spec §4.7): while
// mouse_humanization is enabled and a tab is attached, a recurring alarm
// nudges the cursor by a small random offset and reschedules itself.
package extension

import (
	"math/rand"
	"sync"
	"time"

	"github.com/h8ngry/supersurf/internal/humanize"
)

func secondsToDuration(sec int) time.Duration { return time.Duration(sec) * time.Second }

// IdleDriftController owns the recurring idle-drift alarm for one tab.
// It is deliberately independent of HumanizedMouseMove's waypoint path:
// drift moves happen between deliberate moves, not as part of one.
type IdleDriftController struct {
	scheduler Scheduler
	sessions  *SessionStore
	rng       *rand.Rand

	mu      sync.Mutex
	enabled bool
	tabID   int
	gen     int // bumped on Stop so a stale alarm fire is a no-op
}

// NewIdleDriftController builds a controller bound to a scheduler and the
// session store it drifts cursor positions in.
func NewIdleDriftController(scheduler Scheduler, sessions *SessionStore, rng *rand.Rand) *IdleDriftController {
	return &IdleDriftController{scheduler: scheduler, sessions: sessions, rng: rng}
}

// Start begins drifting tabID's cursor, replacing any tab already being
// drifted.
func (c *IdleDriftController) Start(tabID int) {
	c.mu.Lock()
	c.enabled = true
	c.tabID = tabID
	c.gen++
	gen := c.gen
	c.mu.Unlock()
	c.scheduleNext(gen)
}

// Stop ends drifting; any alarm already in flight becomes a no-op.
func (c *IdleDriftController) Stop() {
	c.mu.Lock()
	c.enabled = false
	c.gen++
	c.mu.Unlock()
}

func (c *IdleDriftController) scheduleNext(gen int) {
	_, _, intervalSec := humanize.IdleDrift(c.rng)
	c.scheduler.Schedule(secondsToDuration(intervalSec), func() { c.fire(gen) })
}

func (c *IdleDriftController) fire(gen int) {
	c.mu.Lock()
	if !c.enabled || c.gen != gen {
		c.mu.Unlock()
		return
	}
	tabID := c.tabID
	c.mu.Unlock()

	dx, dy, _ := humanize.IdleDrift(c.rng)
	c.sessions.Mutate(defaultSessionKey, func(s *Session) {
		pos := s.CursorPositions[tabID]
		s.CursorPositions[tabID] = CursorPosition{X: pos.X + dx, Y: pos.Y + dy}
	})

	c.scheduleNext(gen)
}
