// scheduler.go — the alarm abstraction C6's reconnect loop is built on.
// Real browser extensions schedule via chrome.alarms because the service
// worker may be suspended, killing any in-process timer (spec §4.6). This
// reference peer has no browser host to suspend it, but keeps the same
// alarm-shaped seam so the reconnect logic in client.go is written the way
// spec §4.6 and §5 require ("all timers used for recovery must be
// alarm-scheduled"), not as a bare time.AfterFunc.
package extension

import "time"

// Scheduler schedules a one-shot callback after delay, mimicking
// chrome.alarms.create + chrome.alarms.onAlarm. The default
// implementation is plain wall-clock time; a test scheduler can fire
// immediately to avoid real sleeps.
type Scheduler interface {
	Schedule(delay time.Duration, fn func())
}

// realScheduler backs Scheduler with time.AfterFunc. It is still "alarm
// shaped" in the sense that callers never hold a *time.Timer themselves —
// the single-flight guard in client.go is what actually matters for
// spec §4.6, not the underlying primitive.
type realScheduler struct{}

// NewRealScheduler returns the production Scheduler.
func NewRealScheduler() Scheduler { return realScheduler{} }

func (realScheduler) Schedule(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}
