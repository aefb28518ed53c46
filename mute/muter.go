// Package mute implements MuterVolume: a state machine that coordinates
// cooperative volume fades with asynchronous Mute()/Unmute() requests from
// a control thread, and with pipeline halts, so that a caller's Mute() only
// returns once no further audible audio will reach the sink.
package mute

import (
	"sync"

	"audiopipeline/msg"
)

// JiffiesUntilMute is the drain interval held in MutingWait after the
// stepwise fade reports complete, so residual audio already in flight to
// the sink finishes flushing before Mute() unblocks its caller. ~10 ms.
const JiffiesUntilMute uint64 = 56448000 * 10 / 1000

// State is MuterVolume's explicit state machine position.
type State int

const (
	StateRunning State = iota
	StateMutingRamp
	StateMutingWait
	StateMuted
	StateUnmutingRamp
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateMutingRamp:
		return "MutingRamp"
	case StateMutingWait:
		return "MutingWait"
	case StateMuted:
		return "Muted"
	case StateUnmutingRamp:
		return "UnmutingRamp"
	default:
		return "Unknown"
	}
}

// MuterVolume sits near the end of the pipeline, between decoded-stream
// producers and the hardware animator.
type MuterVolume struct {
	elem    msg.PipelineElement
	factory *msg.Factory

	mu     sync.Mutex
	cond   *sync.Cond
	state  State
	halted bool

	driver                 msg.IVolumeMuterStepped
	pendingMuteBeforeStart bool
	drainRemaining         uint64
}

// New returns a MuterVolume in the Running state with no driver attached.
// factory mints the replacement MsgHalt the stage substitutes for each
// halt flowing through it. The muter starts in the halted sub-state: a
// pipeline that has not produced audio yet cannot drive a stepwise fade,
// so Mute()/Unmute() before the first audio message transition directly.
func New(factory *msg.Factory) *MuterVolume {
	mv := &MuterVolume{
		factory: factory,
		elem: msg.NewPipelineElement(
			msg.KindMode, msg.KindTrack, msg.KindDrain,
			msg.KindEncodedStream, msg.KindMetatext, msg.KindStreamInterrupted,
			msg.KindHalt, msg.KindDecodedStream,
			msg.KindAudioPcm, msg.KindAudioDsd, msg.KindSilence, msg.KindQuit,
		),
		state:  StateRunning,
		halted: true,
	}
	mv.cond = sync.NewCond(&mv.mu)
	return mv
}

// Start performs the one-time injection of the volume driver. If Mute()
// was called before Start, the muter jumps straight to the muted hardware
// state because a stepwise fade has nothing to drive yet.
func (mv *MuterVolume) Start(driver msg.IVolumeMuterStepped) {
	mv.mu.Lock()
	defer mv.mu.Unlock()
	mv.driver = driver
	if mv.pendingMuteBeforeStart {
		mv.pendingMuteBeforeStart = false
		driver.SetMuted()
		mv.state = StateMuted
		mv.cond.Broadcast()
	}
}

// State returns the current state for diagnostics.
func (mv *MuterVolume) State() State {
	mv.mu.Lock()
	defer mv.mu.Unlock()
	return mv.state
}

// Mute transitions Running/UnmutingRamp to MutingRamp (or directly to
// Muted if the pipeline is halted) and blocks until the state reaches
// Muted — or until an Unmute() cancels the fade, in which case Mute()
// returns anyway without having reached Muted. Re-entrant calls while
// already muting or muted return immediately.
func (mv *MuterVolume) Mute() {
	mv.mu.Lock()
	defer mv.mu.Unlock()

	switch mv.state {
	case StateMutingRamp, StateMutingWait, StateMuted:
		return
	}

	if mv.halted {
		if mv.driver == nil {
			mv.pendingMuteBeforeStart = true
		} else {
			mv.driver.SetMuted()
		}
		mv.state = StateMuted
		mv.cond.Broadcast()
		return
	}

	if mv.driver == nil {
		mv.pendingMuteBeforeStart = true
	} else {
		mv.state = StateMutingRamp
		if mv.driver.BeginMute() == msg.MuteComplete {
			mv.state = StateMutingWait
			mv.drainRemaining = JiffiesUntilMute
		}
	}

	for mv.state == StateMutingRamp || mv.state == StateMutingWait || (mv.driver == nil && mv.pendingMuteBeforeStart) {
		if mv.state == StateMuted {
			break
		}
		mv.cond.Wait()
	}
}

// Unmute transitions MutingRamp/MutingWait/Muted to UnmutingRamp (or
// directly to Running if halted), cancelling any in-progress mute fade and
// waking a blocked Mute() caller. Non-blocking.
func (mv *MuterVolume) Unmute() {
	mv.mu.Lock()
	defer mv.mu.Unlock()

	mv.pendingMuteBeforeStart = false

	switch mv.state {
	case StateRunning, StateUnmutingRamp:
		return
	}

	if mv.halted {
		if mv.driver != nil {
			mv.driver.SetUnmuted()
		}
		mv.state = StateRunning
		mv.cond.Broadcast()
		return
	}

	mv.state = StateUnmutingRamp
	if mv.driver != nil && mv.driver.BeginUnmute() == msg.MuteComplete {
		mv.state = StateRunning
	}
	mv.cond.Broadcast()
}

// stepAudio advances the stepwise fade by jiffiesVal, called once per
// audio/silence message that passes through Pull.
func (mv *MuterVolume) stepAudio(jiffiesVal uint64) {
	mv.mu.Lock()
	defer mv.mu.Unlock()

	switch mv.state {
	case StateMutingRamp:
		if mv.driver == nil || mv.driver.StepMute(jiffiesVal) == msg.MuteComplete {
			mv.state = StateMutingWait
			mv.drainRemaining = JiffiesUntilMute
			mv.cond.Broadcast()
		}
	case StateMutingWait:
		if mv.drainRemaining <= jiffiesVal {
			mv.drainRemaining = 0
			mv.state = StateMuted
			mv.cond.Broadcast()
		} else {
			mv.drainRemaining -= jiffiesVal
		}
	case StateUnmutingRamp:
		if mv.driver == nil || mv.driver.StepUnmute(jiffiesVal) == msg.MuteComplete {
			mv.state = StateRunning
			mv.cond.Broadcast()
		}
	}
}

// onHalted is invoked when a replaced MsgHalt's completion callback runs
// (driven by a downstream stage acknowledging the halt). Subsequent
// Mute()/Unmute() go straight to Muted/Running since a stepwise fade
// requires audio to drive it, and none is flowing while halted.
func (mv *MuterVolume) onHalted() {
	mv.mu.Lock()
	mv.halted = true
	mv.mu.Unlock()
}

// clearHalted drops the halted sub-state once audio resumes flowing (the
// first non-Halt message observed after a halt).
func (mv *MuterVolume) clearHalted() {
	mv.mu.Lock()
	mv.halted = false
	mv.mu.Unlock()
}
