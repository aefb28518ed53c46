package mute

import "audiopipeline/msg"

// Pull advances m through the muter and returns it (or its replacement)
// to the caller's downstream queue: Halt messages are swapped for a fresh
// halt whose completion callback arms the halted sub-state, and
// audio/silence messages step whichever fade is in progress (also
// clearing the halted sub-state, since audio is flowing again).
func (mv *MuterVolume) Pull(m msg.Msg) (msg.Msg, error) {
	mv.elem.Check(m.Kind())
	return msg.Dispatch(m, mv)
}

func (mv *MuterVolume) ProcessMode(m *msg.MsgMode) (msg.Msg, error)   { return m, nil }
func (mv *MuterVolume) ProcessTrack(m *msg.MsgTrack) (msg.Msg, error) { return m, nil }
func (mv *MuterVolume) ProcessDrain(m *msg.MsgDrain) (msg.Msg, error) { return m, nil }
func (mv *MuterVolume) ProcessEncodedStream(m *msg.MsgEncodedStream) (msg.Msg, error) {
	return m, nil
}
func (mv *MuterVolume) ProcessMetatext(m *msg.MsgMetatext) (msg.Msg, error) {
	return m, nil
}
func (mv *MuterVolume) ProcessStreamInterrupted(m *msg.MsgStreamInterrupted) (msg.Msg, error) {
	return m, nil
}

// The kinds below never reach this stage: it sits after the decoder and
// before the Playable conversion. The stubs exist only to satisfy
// IMsgProcessor; Check asserts if one is ever dispatched.
func (mv *MuterVolume) ProcessDelay(m *msg.MsgDelay) (msg.Msg, error) {
	mv.elem.Check(m.Kind())
	return m, nil
}
func (mv *MuterVolume) ProcessStreamSegment(m *msg.MsgStreamSegment) (msg.Msg, error) {
	mv.elem.Check(m.Kind())
	return m, nil
}
func (mv *MuterVolume) ProcessAudioEncoded(m *msg.MsgAudioEncoded) (msg.Msg, error) {
	mv.elem.Check(m.Kind())
	return m, nil
}

// ProcessHalt replaces m with a fresh MsgHalt whose completion callback
// arms the halted sub-state and then reports the original halt. The halted
// transition therefore only happens once a downstream stage has actually
// acknowledged the halt — a stepwise fade needs flowing audio to drive it,
// and audio only stops once the halt has drained all the way through.
func (mv *MuterVolume) ProcessHalt(m *msg.MsgHalt) (msg.Msg, error) {
	replacement := mv.factory.CreateHalt(m.ID, func() {
		mv.onHalted()
		m.Report()
		m.RemoveRef()
	})
	return replacement, nil
}

func (mv *MuterVolume) ProcessFlush(m *msg.MsgFlush) (msg.Msg, error) {
	mv.elem.Check(m.Kind())
	return m, nil
}
func (mv *MuterVolume) ProcessWait(m *msg.MsgWait) (msg.Msg, error) {
	mv.elem.Check(m.Kind())
	return m, nil
}

func (mv *MuterVolume) ProcessDecodedStream(m *msg.MsgDecodedStream) (msg.Msg, error) {
	return m, nil
}

func (mv *MuterVolume) ProcessAudioPcm(m *msg.MsgAudioPcm) (msg.Msg, error) {
	mv.clearHalted()
	mv.stepAudio(m.Jiffies())
	return m, nil
}

func (mv *MuterVolume) ProcessAudioDsd(m *msg.MsgAudioDsd) (msg.Msg, error) {
	mv.clearHalted()
	mv.stepAudio(m.Jiffies())
	return m, nil
}

func (mv *MuterVolume) ProcessSilence(m *msg.MsgSilence) (msg.Msg, error) {
	mv.clearHalted()
	mv.stepAudio(m.Jiffies())
	return m, nil
}

func (mv *MuterVolume) ProcessPlayablePcm(m *msg.MsgPlayablePcm) (msg.Msg, error) {
	mv.elem.Check(m.Kind())
	return m, nil
}

func (mv *MuterVolume) ProcessPlayableDsd(m *msg.MsgPlayableDsd) (msg.Msg, error) {
	mv.elem.Check(m.Kind())
	return m, nil
}

func (mv *MuterVolume) ProcessPlayableSilence(m *msg.MsgPlayableSilence) (msg.Msg, error) {
	mv.elem.Check(m.Kind())
	return m, nil
}

func (mv *MuterVolume) ProcessPlayableSilenceDsd(m *msg.MsgPlayableSilenceDsd) (msg.Msg, error) {
	mv.elem.Check(m.Kind())
	return m, nil
}

func (mv *MuterVolume) ProcessQuit(m *msg.MsgQuit) (msg.Msg, error) { return m, nil }
