package anim

import (
	"math"
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAlphaValue(t *testing.T) {
	clock := NewManualClock(epoch)
	a := NewAlpha(clock, time.Second)

	tests := []struct {
		at   time.Duration
		want float64
	}{
		{0, 0},
		{250 * time.Millisecond, 0.25},
		{999 * time.Millisecond, 0.999},
		{1250 * time.Millisecond, 0.25},
	}
	for _, tt := range tests {
		clock.Set(epoch.Add(tt.at))
		if got := a.Value(); !approx(got, tt.want) {
			t.Errorf("Value() at %v = %v, want %v", tt.at, got, tt.want)
		}
		if a.Finished() {
			t.Errorf("infinite alpha finished at %v", tt.at)
		}
	}
}

func TestAlphaSingleLoop(t *testing.T) {
	clock := NewManualClock(epoch)
	a := NewAlpha(clock, 800*time.Millisecond)
	a.SetLoopCount(1)

	clock.Advance(400 * time.Millisecond)
	if a.Finished() || !approx(a.Value(), 0.5) {
		t.Fatalf("mid ramp: finished=%v value=%v", a.Finished(), a.Value())
	}
	clock.Advance(400 * time.Millisecond)
	if !a.Finished() || a.Value() != 1 {
		t.Fatalf("end of ramp: finished=%v value=%v", a.Finished(), a.Value())
	}

	// Restarting in the future holds the value at 0.
	a.SetStartTime(clock.Now().Add(25 * time.Millisecond))
	if a.Finished() || a.Value() != 0 {
		t.Errorf("after restart: finished=%v value=%v", a.Finished(), a.Value())
	}
}

func TestAlphaPauseResume(t *testing.T) {
	clock := NewManualClock(epoch)
	a := NewAlpha(clock, time.Second)

	clock.Advance(300 * time.Millisecond)
	a.Pause()
	clock.Advance(5 * time.Second)
	if !approx(a.Value(), 0.3) {
		t.Errorf("paused value = %v, want 0.3", a.Value())
	}
	a.Resume()
	clock.Advance(100 * time.Millisecond)
	if !approx(a.Value(), 0.4) {
		t.Errorf("resumed value = %v, want 0.4", a.Value())
	}
}

func TestRetimePreservesProgress(t *testing.T) {
	tests := []struct {
		name string
		from time.Duration
		to   time.Duration
	}{
		{"slower", time.Second, 3 * time.Second},
		{"faster", 5 * time.Second, 700 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewManualClock(epoch)
			a := NewAlpha(clock, tt.from)
			clock.Advance(tt.from * 3 / 5)
			before := a.Value()

			Retime(a, tt.to)
			if a.Duration() != tt.to {
				t.Errorf("Duration() = %v, want %v", a.Duration(), tt.to)
			}
			if got := a.Value(); math.Abs(got-before) > 1e-6 {
				t.Errorf("Value() after retime = %v, want %v", got, before)
			}
			// Progress then advances at the new rate.
			clock.Advance(tt.to / 10)
			if got := a.Value(); math.Abs(got-math.Mod(before+0.1, 1)) > 1e-6 {
				t.Errorf("Value() after advance = %v, want %v", got, before+0.1)
			}
		})
	}
}

func TestRetimeFreezeAndThaw(t *testing.T) {
	clock := NewManualClock(epoch)
	a := NewAlpha(clock, time.Second)
	clock.Advance(200 * time.Millisecond)

	Retime(a, 0)
	clock.Advance(10 * time.Second)
	if !approx(a.Value(), 0.2) {
		t.Fatalf("frozen value = %v, want 0.2", a.Value())
	}

	Retime(a, 2*time.Second)
	if math.Abs(a.Value()-0.2) > 1e-6 {
		t.Errorf("thawed value = %v, want 0.2", a.Value())
	}
	clock.Advance(200 * time.Millisecond)
	if math.Abs(a.Value()-0.3) > 1e-6 {
		t.Errorf("value after thaw = %v, want 0.3", a.Value())
	}
}

func TestRetimeWhilePaused(t *testing.T) {
	clock := NewManualClock(epoch)
	a := NewAlpha(clock, time.Second)
	clock.Advance(500 * time.Millisecond)
	a.Pause()
	clock.Advance(time.Hour)

	Retime(a, 4*time.Second)
	if math.Abs(a.Value()-0.5) > 1e-6 {
		t.Errorf("paused retimed value = %v, want 0.5", a.Value())
	}
	a.Resume()
	clock.Advance(time.Second)
	if math.Abs(a.Value()-0.75) > 1e-6 {
		t.Errorf("value after resume = %v, want 0.75", a.Value())
	}
}

// plainTimeline hides Alpha's own Retime so the generic path is used.
type plainTimeline struct{ Timeline }

func TestRetimeGenericTimeline(t *testing.T) {
	clock := NewManualClock(epoch)
	tl := plainTimeline{NewAlpha(clock, 4*time.Second)}
	clock.Advance(time.Second)

	Retime(tl, 2*time.Second)
	if got := tl.Value(); !approx(got, 0.25) {
		t.Errorf("Value() after retime = %v, want 0.25", got)
	}
	clock.Advance(500 * time.Millisecond)
	if got := tl.Value(); !approx(got, 0.5) {
		t.Errorf("Value() 500ms later = %v, want 0.5", got)
	}

	Retime(tl, 0)
	clock.Advance(time.Second)
	if got := tl.Value(); !approx(got, 0.5) {
		t.Errorf("frozen Value() = %v, want 0.5", got)
	}
}

func TestAlphaConcurrentRetime(t *testing.T) {
	clock := NewManualClock(epoch)
	a := NewAlpha(clock, time.Second)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if v := a.Value(); v < 0 || v > 1 {
					t.Errorf("Value() = %v outside [0, 1]", v)
					return
				}
				a.Finished()
			}
		}()
	}
	for i := 0; i < 500; i++ {
		clock.Advance(time.Millisecond)
		Retime(a, time.Duration(1+i%3)*time.Second)
		if i%50 == 0 {
			a.Pause()
			a.Resume()
		}
	}
	close(stop)
	wg.Wait()
}
