package mute

import (
	"testing"
	"time"

	"audiopipeline/msg"
)

// steppedDriver is a deterministic IVolumeMuterStepped that reports
// completion after a fixed number of jiffies, so tests can drive exact
// transition timing.
type steppedDriver struct {
	fadeJiffies uint64

	muteRemaining   uint64
	unmuteRemaining uint64
	setMutedCalls   int
	setUnmutedCalls int
}

func newSteppedDriver(fadeJiffies uint64) *steppedDriver {
	return &steppedDriver{fadeJiffies: fadeJiffies}
}

func (d *steppedDriver) BeginMute() msg.MuteStep {
	d.muteRemaining = d.fadeJiffies
	if d.muteRemaining == 0 {
		return msg.MuteComplete
	}
	return msg.MuteInProgress
}

func (d *steppedDriver) StepMute(jiffies uint64) msg.MuteStep {
	if jiffies >= d.muteRemaining {
		d.muteRemaining = 0
		return msg.MuteComplete
	}
	d.muteRemaining -= jiffies
	return msg.MuteInProgress
}

func (d *steppedDriver) BeginUnmute() msg.MuteStep {
	d.unmuteRemaining = d.fadeJiffies
	if d.unmuteRemaining == 0 {
		return msg.MuteComplete
	}
	return msg.MuteInProgress
}

func (d *steppedDriver) StepUnmute(jiffies uint64) msg.MuteStep {
	if jiffies >= d.unmuteRemaining {
		d.unmuteRemaining = 0
		return msg.MuteComplete
	}
	d.unmuteRemaining -= jiffies
	return msg.MuteInProgress
}

func (d *steppedDriver) SetMuted()   { d.setMutedCalls++ }
func (d *steppedDriver) SetUnmuted() { d.setUnmutedCalls++ }

const jiffiesPerBlock = 1000

// TestMuteBlocksUntilDrained drives a Mute() call through MutingRamp and
// MutingWait on a second goroutine (since Mute() blocks), feeding audio
// messages from the test goroutine, and asserts Mute() only returns once
// the fade has completed and the JiffiesUntilMute drain has elapsed.
func TestMuteBlocksUntilDrained(t *testing.T) {
	f := msg.NewFactory(msg.DefaultPoolSizes())
	mv := New(f)
	driver := newSteppedDriver(3 * jiffiesPerBlock)
	mv.Start(driver)

	feed := func() {
		m, _ := mv.Pull(f.CreateSilence(jiffiesPerBlock, 48000, 16, 2))
		m.RemoveRef()
	}

	// The muter starts halted; flowing audio clears that, so the Mute()
	// below has a live fade to wait on.
	feed()

	done := make(chan struct{})
	go func() {
		mv.Mute()
		close(done)
	}()

	// Let Mute() take the lock and enter MutingRamp before anything else
	// happens.
	time.Sleep(10 * time.Millisecond)

	select {
	case <-done:
		t.Fatal("Mute() returned before the fade started")
	default:
	}

	// Three blocks exhaust the fade; the driver then reports Complete and
	// the muter enters MutingWait, still not done.
	feed()
	feed()
	feed()

	select {
	case <-done:
		t.Fatal("Mute() returned before the drain interval elapsed")
	case <-time.After(20 * time.Millisecond):
	}
	if mv.State() != StateMutingWait {
		t.Fatalf("state = %v, want MutingWait", mv.State())
	}

	// Drain the JiffiesUntilMute interval.
	remaining := JiffiesUntilMute
	for remaining > 0 {
		step := uint64(jiffiesPerBlock)
		if step > remaining {
			step = remaining
		}
		feed()
		if remaining <= step {
			remaining = 0
		} else {
			remaining -= step
		}
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Mute() never unblocked after the drain interval elapsed")
	}
	if mv.State() != StateMuted {
		t.Fatalf("state = %v, want Muted", mv.State())
	}
}

// TestUnmuteCancelsBlockedMute verifies an Unmute() delivered mid-fade
// wakes a blocked Mute() caller even though Muted was never reached.
func TestUnmuteCancelsBlockedMute(t *testing.T) {
	f := msg.NewFactory(msg.DefaultPoolSizes())
	mv := New(f)
	driver := newSteppedDriver(5 * jiffiesPerBlock)
	mv.Start(driver)

	m, _ := mv.Pull(f.CreateSilence(jiffiesPerBlock, 48000, 16, 2))
	m.RemoveRef()

	done := make(chan struct{})
	go func() {
		mv.Mute()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	m, _ = mv.Pull(f.CreateSilence(jiffiesPerBlock, 48000, 16, 2))
	m.RemoveRef()

	if mv.State() != StateMutingRamp {
		t.Fatalf("state = %v, want MutingRamp", mv.State())
	}

	mv.Unmute()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Mute() should have been released by the cancelling Unmute()")
	}
	if mv.State() != StateRunning && mv.State() != StateUnmutingRamp {
		t.Fatalf("state = %v, want Running or UnmutingRamp after cancel", mv.State())
	}
}

// TestMuteBeforeStartJumpsToMuted covers the case where Mute() is called
// before the volume driver is attached: Start immediately sets the muted
// hardware state rather than attempting a fade.
func TestMuteBeforeStartJumpsToMuted(t *testing.T) {
	mv := New(msg.NewFactory(msg.DefaultPoolSizes()))

	done := make(chan struct{})
	go func() {
		mv.Mute()
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)

	driver := newSteppedDriver(3 * jiffiesPerBlock)
	mv.Start(driver)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Mute() never unblocked once Start attached the driver")
	}
	if driver.setMutedCalls != 1 {
		t.Fatalf("SetMuted called %d times, want 1", driver.setMutedCalls)
	}
	if mv.State() != StateMuted {
		t.Fatalf("state = %v, want Muted", mv.State())
	}
}

// TestMuteAfterStartWithoutAudioDoesNotBlock: a freshly-started muter has
// never seen audio, so nothing can drive a stepwise fade. Mute() must take
// the halted fast path and return immediately at the muted hardware state
// instead of blocking forever.
func TestMuteAfterStartWithoutAudioDoesNotBlock(t *testing.T) {
	mv := New(msg.NewFactory(msg.DefaultPoolSizes()))
	driver := newSteppedDriver(3 * jiffiesPerBlock)
	mv.Start(driver)

	done := make(chan struct{})
	go func() {
		mv.Mute()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Mute() blocked with no audio flowing to drive the fade")
	}
	if mv.State() != StateMuted {
		t.Fatalf("state = %v, want Muted", mv.State())
	}
	if driver.setMutedCalls != 1 {
		t.Fatalf("SetMuted called %d times, want 1", driver.setMutedCalls)
	}
}

// TestHaltedMuteUnmuteAreImmediate covers the halted sub-state: once a
// MsgHalt has been observed, Mute()/Unmute() bypass the stepwise fade
// entirely.
func TestHaltedMuteUnmuteAreImmediate(t *testing.T) {
	f := msg.NewFactory(msg.DefaultPoolSizes())
	mv := New(f)
	driver := newSteppedDriver(3 * jiffiesPerBlock)
	mv.Start(driver)

	// Flowing audio clears the initial halted sub-state; the halt below
	// must re-arm it.
	a, _ := mv.Pull(f.CreateSilence(jiffiesPerBlock, 48000, 16, 2))
	a.RemoveRef()

	h := f.CreateHalt(1, nil)
	out, err := mv.Pull(h)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	replacement, ok := out.(*msg.MsgHalt)
	if !ok || replacement == h {
		t.Fatalf("expected a fresh replacement MsgHalt, got %T (same=%v)", out, replacement == h)
	}
	// The downstream stage acknowledges the halt; only then does the muter
	// enter the halted sub-state.
	replacement.Report()
	replacement.RemoveRef()

	mv.Mute()
	if mv.State() != StateMuted {
		t.Fatalf("state = %v, want Muted immediately while halted", mv.State())
	}
	if driver.setMutedCalls != 1 {
		t.Fatalf("SetMuted called %d times, want 1", driver.setMutedCalls)
	}

	mv.Unmute()
	if mv.State() != StateRunning {
		t.Fatalf("state = %v, want Running immediately while halted", mv.State())
	}
	if driver.setUnmutedCalls != 1 {
		t.Fatalf("SetUnmuted called %d times, want 1", driver.setUnmutedCalls)
	}
}
