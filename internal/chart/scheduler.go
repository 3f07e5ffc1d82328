package chart

import "time"

// Default quiet periods.
const (
	DefaultExtentDebounce = 200 * time.Millisecond
	DefaultResizeSettle   = 50 * time.Millisecond
)

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler schedules on the runtime timer heap. Callbacks run on
// their own goroutine.
func RealScheduler() Scheduler { return realScheduler{} }

// debouncer restarts a single pending call on every Trigger.
type debouncer struct {
	sched Scheduler
	delay time.Duration
	timer Timer
}

func (d *debouncer) Trigger(f func()) {
	d.Stop()
	d.timer = d.sched.AfterFunc(d.delay, f)
}

func (d *debouncer) Stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
