package msg

// Flush token sentinel. IStreamHandler.Try* methods return this when no
// flush is required.
const FlushIDInvalid uint32 = 0

// HaltCallback is a one-shot completion callback, invoked by the carrying
// message's Report. Clear (run by the final RemoveRef) asserts if a
// callback was attached but never invoked, preserving the "exactly once"
// completion contract.
type HaltCallback func()

// MsgMode announces a new session boundary: downstream stages must
// invalidate any cached per-stream state until the next MsgDecodedStream.
type MsgMode struct {
	Allocated
	ModeName      string
	ClientData    any
	SupportsPause bool
}

func newMsgMode() *MsgMode { return &MsgMode{} }

func (m *MsgMode) Kind() Kind     { return KindMode }
func (m *MsgMode) RemoveRef()     { m.removeRef(m) }
func (m *MsgMode) Clear() {
	m.ModeName = ""
	m.ClientData = nil
	m.SupportsPause = false
}

// MsgTrack announces a new track within the current mode.
type MsgTrack struct {
	Allocated
	URI      string
	MetaData string
	StreamID uint32
}

func newMsgTrack() *MsgTrack { return &MsgTrack{} }

func (m *MsgTrack) Kind() Kind { return KindTrack }
func (m *MsgTrack) RemoveRef() { m.removeRef(m) }
func (m *MsgTrack) Clear() {
	m.URI = ""
	m.MetaData = ""
	m.StreamID = 0
}

// MsgDrain carries a one-shot completion callback invoked once all audio
// ahead of it has drained through the sink.
type MsgDrain struct {
	Allocated
	Callback HaltCallback

	invoked bool
}

func newMsgDrain() *MsgDrain { return &MsgDrain{} }

func (m *MsgDrain) Kind() Kind { return KindDrain }
func (m *MsgDrain) RemoveRef() { m.removeRef(m) }

// Report invokes the completion callback exactly once. Stages that consume
// (rather than forward) a MsgDrain must call Report before releasing it.
func (m *MsgDrain) Report() {
	assertf(!m.invoked, "msg: MsgDrain callback invoked twice")
	m.invoked = true
	if m.Callback != nil {
		m.Callback()
	}
}

func (m *MsgDrain) Clear() {
	assertf(m.Callback == nil || m.invoked, "msg: MsgDrain freed with pending callback")
	m.Callback = nil
	m.invoked = false
}

// MsgDelay announces a fixed delay (in jiffies) the animator must insert
// before the next audio.
type MsgDelay struct {
	Allocated
	DelayJiffies uint64
}

func newMsgDelay() *MsgDelay { return &MsgDelay{} }

func (m *MsgDelay) Kind() Kind { return KindDelay }
func (m *MsgDelay) RemoveRef() { m.removeRef(m) }
func (m *MsgDelay) Clear()     { m.DelayJiffies = 0 }

// MsgStreamSegment marks a named segment boundary within a live/Songcast
// stream.
type MsgStreamSegment struct {
	Allocated
	ID string
}

func newMsgStreamSegment() *MsgStreamSegment { return &MsgStreamSegment{} }

func (m *MsgStreamSegment) Kind() Kind { return KindStreamSegment }
func (m *MsgStreamSegment) RemoveRef() { m.removeRef(m) }
func (m *MsgStreamSegment) Clear()     { m.ID = "" }

// MsgMetatext carries side-channel text metadata (e.g. "now playing").
type MsgMetatext struct {
	Allocated
	Text string
}

func newMsgMetatext() *MsgMetatext { return &MsgMetatext{} }

func (m *MsgMetatext) Kind() Kind { return KindMetatext }
func (m *MsgMetatext) RemoveRef() { m.removeRef(m) }
func (m *MsgMetatext) Clear()     { m.Text = "" }

// MsgStreamInterrupted signals a transient upstream interruption (e.g.
// network stall) that does not itself end the stream.
type MsgStreamInterrupted struct {
	Allocated
}

func newMsgStreamInterrupted() *MsgStreamInterrupted { return &MsgStreamInterrupted{} }

func (m *MsgStreamInterrupted) Kind() Kind { return KindStreamInterrupted }
func (m *MsgStreamInterrupted) RemoveRef() { m.removeRef(m) }
func (m *MsgStreamInterrupted) Clear()     {}

// MsgHalt carries an optional completion callback invoked exactly once when
// the halt has been fully acknowledged downstream (e.g. by MuterVolume,
// see the mute package).
type MsgHalt struct {
	Allocated
	ID       uint32
	Callback HaltCallback

	invoked bool
}

func newMsgHalt() *MsgHalt { return &MsgHalt{} }

func (m *MsgHalt) Kind() Kind { return KindHalt }
func (m *MsgHalt) RemoveRef() { m.removeRef(m) }

// Report invokes the completion callback exactly once, if one was set.
func (m *MsgHalt) Report() {
	assertf(!m.invoked, "msg: MsgHalt callback invoked twice")
	m.invoked = true
	if m.Callback != nil {
		m.Callback()
	}
}

func (m *MsgHalt) Clear() {
	assertf(m.Callback == nil || m.invoked, "msg: MsgHalt freed with pending callback")
	m.ID = 0
	m.Callback = nil
	m.invoked = false
}

// MsgFlush carries a flush token: IStreamHandler.Try* callers discard
// messages until they observe a MsgFlush whose ID matches the token they
// were given.
type MsgFlush struct {
	Allocated
	ID uint32
}

func newMsgFlush() *MsgFlush { return &MsgFlush{} }

func (m *MsgFlush) Kind() Kind { return KindFlush }
func (m *MsgFlush) RemoveRef() { m.removeRef(m) }
func (m *MsgFlush) Clear()     { m.ID = 0 }

// MsgWait signals a pipeline stall the animator should wait through rather
// than treat as starvation (e.g. a deliberate source-side pause).
type MsgWait struct {
	Allocated
}

func newMsgWait() *MsgWait { return &MsgWait{} }

func (m *MsgWait) Kind() Kind { return KindWait }
func (m *MsgWait) RemoveRef() { m.removeRef(m) }
func (m *MsgWait) Clear()     {}

// MsgQuit is the terminal message: the pipeline is being torn down.
type MsgQuit struct {
	Allocated
}

func newMsgQuit() *MsgQuit { return &MsgQuit{} }

func (m *MsgQuit) Kind() Kind { return KindQuit }
func (m *MsgQuit) RemoveRef() { m.removeRef(m) }
func (m *MsgQuit) Clear()     {}
