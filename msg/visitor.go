package msg

// IMsgProcessor is the double-dispatch visitor every pipeline stage
// implements. Dispatch routes a Msg to exactly one of these methods based
// on its Kind; the closed set of variants means no stage can be handed a
// kind it has no method for.
type IMsgProcessor interface {
	ProcessMode(*MsgMode) (Msg, error)
	ProcessTrack(*MsgTrack) (Msg, error)
	ProcessDrain(*MsgDrain) (Msg, error)
	ProcessDelay(*MsgDelay) (Msg, error)
	ProcessEncodedStream(*MsgEncodedStream) (Msg, error)
	ProcessStreamSegment(*MsgStreamSegment) (Msg, error)
	ProcessAudioEncoded(*MsgAudioEncoded) (Msg, error)
	ProcessMetatext(*MsgMetatext) (Msg, error)
	ProcessStreamInterrupted(*MsgStreamInterrupted) (Msg, error)
	ProcessHalt(*MsgHalt) (Msg, error)
	ProcessFlush(*MsgFlush) (Msg, error)
	ProcessWait(*MsgWait) (Msg, error)
	ProcessDecodedStream(*MsgDecodedStream) (Msg, error)
	ProcessAudioPcm(*MsgAudioPcm) (Msg, error)
	ProcessAudioDsd(*MsgAudioDsd) (Msg, error)
	ProcessSilence(*MsgSilence) (Msg, error)
	ProcessPlayablePcm(*MsgPlayablePcm) (Msg, error)
	ProcessPlayableDsd(*MsgPlayableDsd) (Msg, error)
	ProcessPlayableSilence(*MsgPlayableSilence) (Msg, error)
	ProcessPlayableSilenceDsd(*MsgPlayableSilenceDsd) (Msg, error)
	ProcessQuit(*MsgQuit) (Msg, error)
}

// Dispatch routes m to the matching method of p. It panics (AssertionFailed)
// if m is not one of the concrete message types of this package: a variant
// added to Kind without updating Dispatch, or a type from outside the
// package that implements Msg.
func Dispatch(m Msg, p IMsgProcessor) (Msg, error) {
	switch v := m.(type) {
	case *MsgMode:
		return p.ProcessMode(v)
	case *MsgTrack:
		return p.ProcessTrack(v)
	case *MsgDrain:
		return p.ProcessDrain(v)
	case *MsgDelay:
		return p.ProcessDelay(v)
	case *MsgEncodedStream:
		return p.ProcessEncodedStream(v)
	case *MsgStreamSegment:
		return p.ProcessStreamSegment(v)
	case *MsgAudioEncoded:
		return p.ProcessAudioEncoded(v)
	case *MsgMetatext:
		return p.ProcessMetatext(v)
	case *MsgStreamInterrupted:
		return p.ProcessStreamInterrupted(v)
	case *MsgHalt:
		return p.ProcessHalt(v)
	case *MsgFlush:
		return p.ProcessFlush(v)
	case *MsgWait:
		return p.ProcessWait(v)
	case *MsgDecodedStream:
		return p.ProcessDecodedStream(v)
	case *MsgAudioPcm:
		return p.ProcessAudioPcm(v)
	case *MsgAudioDsd:
		return p.ProcessAudioDsd(v)
	case *MsgSilence:
		return p.ProcessSilence(v)
	case *MsgPlayablePcm:
		return p.ProcessPlayablePcm(v)
	case *MsgPlayableDsd:
		return p.ProcessPlayableDsd(v)
	case *MsgPlayableSilence:
		return p.ProcessPlayableSilence(v)
	case *MsgPlayableSilenceDsd:
		return p.ProcessPlayableSilenceDsd(v)
	case *MsgQuit:
		return p.ProcessQuit(v)
	default:
		assertf(false, "msg: Dispatch on unrecognised message type %T", m)
		return nil, nil
	}
}
