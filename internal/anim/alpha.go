package anim

import (
	"sync"
	"time"
)

// Timeline is a source of normalized progress that can be restarted,
// retimed and paused.
type Timeline interface {
	// Value returns progress in [0, 1].
	Value() float64
	// Finished reports whether a finite timeline has run all its loops.
	Finished() bool
	// Now returns the timeline's notion of the current time. It stands
	// still while the timeline is paused.
	Now() time.Time
	StartTime() time.Time
	SetStartTime(t time.Time)
	Duration() time.Duration
	SetDuration(d time.Duration)
	Pause()
	Resume()
}

// Alpha is an increasing ramp from 0 to 1 over Duration, repeated LoopCount
// times (or forever when LoopCount is -1). It is safe for concurrent use.
//
// A zero duration freezes the value where it was when the duration was
// cleared.
type Alpha struct {
	clock Clock

	mu       sync.Mutex
	start    time.Time
	duration time.Duration
	loops    int

	paused   bool
	pausedAt time.Time
	frozen   float64
}

// NewAlpha returns a looping ramp starting now.
func NewAlpha(clock Clock, duration time.Duration) *Alpha {
	return &Alpha{
		clock:    clock,
		start:    clock.Now(),
		duration: duration,
		loops:    -1,
	}
}

// Now returns the clock time, or the pause instant while paused.
func (a *Alpha) Now() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.now()
}

func (a *Alpha) now() time.Time {
	if a.paused {
		return a.pausedAt
	}
	return a.clock.Now()
}

// Value returns the ramp position in [0, 1].
func (a *Alpha) Value() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value()
}

func (a *Alpha) value() float64 {
	if a.duration <= 0 {
		return a.frozen
	}
	elapsed := a.now().Sub(a.start)
	if elapsed <= 0 {
		return 0
	}
	if a.loops > 0 && elapsed >= time.Duration(a.loops)*a.duration {
		return 1
	}
	return float64(elapsed%a.duration) / float64(a.duration)
}

// Finished reports whether a finite ramp has completed every loop.
// Infinite ramps never finish.
func (a *Alpha) Finished() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loops < 0 {
		return false
	}
	if a.duration <= 0 {
		return true
	}
	return a.now().Sub(a.start) >= time.Duration(a.loops)*a.duration
}

// StartTime returns when the current ramp began.
func (a *Alpha) StartTime() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.start
}

// SetStartTime restarts the ramp at t.
func (a *Alpha) SetStartTime(t time.Time) {
	a.mu.Lock()
	a.start = t
	a.mu.Unlock()
}

// Duration returns the length of one loop.
func (a *Alpha) Duration() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.duration
}

// SetDuration changes the loop length without moving the start time.
// Setting zero freezes the current value.
func (a *Alpha) SetDuration(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setDuration(d)
}

func (a *Alpha) setDuration(d time.Duration) {
	if d <= 0 && a.duration > 0 {
		a.frozen = a.value()
	}
	a.duration = d
}

// Retime changes the loop length and moves the start time so the current
// value is kept.
func (a *Alpha) Retime(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if d <= 0 {
		a.setDuration(0)
		return
	}
	v := a.value()
	a.start = a.now().Add(-time.Duration(v * float64(d)))
	a.setDuration(d)
}

// LoopCount returns the number of loops, -1 for infinite.
func (a *Alpha) LoopCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loops
}

// SetLoopCount sets the number of loops, -1 for infinite.
func (a *Alpha) SetLoopCount(n int) {
	a.mu.Lock()
	a.loops = n
	a.mu.Unlock()
}

// Paused reports whether the ramp is paused.
func (a *Alpha) Paused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

// Pause holds the ramp at its current value.
func (a *Alpha) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.paused {
		return
	}
	a.pausedAt = a.clock.Now()
	a.paused = true
}

// Resume continues a paused ramp from where it stopped.
func (a *Alpha) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.paused {
		return
	}
	a.start = a.start.Add(a.clock.Now().Sub(a.pausedAt))
	a.paused = false
}

// Retime changes the duration of tl while keeping its current progress, so
// a part spinning at a new speed does not jump. Timelines with their own
// Retime method are retimed in one step.
func Retime(tl Timeline, d time.Duration) {
	if r, ok := tl.(interface{ Retime(time.Duration) }); ok {
		r.Retime(d)
		return
	}
	if d <= 0 {
		tl.SetDuration(0)
		return
	}
	v := tl.Value()
	tl.SetStartTime(tl.Now().Add(-time.Duration(v * float64(d))))
	tl.SetDuration(d)
}
