package msg

import (
	"sync"
	"sync/atomic"
)

// ReservoirHooks lets a subclassing stage customise admission/emission
// logic (delay accumulation, format-change bookkeeping) without touching
// the reservoir's own counter maintenance. The hooks value passed to
// NewMsgReservoir may be nil; when it is set, both methods are called.
type ReservoirHooks interface {
	// ProcessMsgIn runs after the reservoir's own counters have been
	// updated for an enqueued message.
	ProcessMsgIn(m Msg)
	// ProcessMsgOut runs after the reservoir's own counters have been
	// updated for a dequeued message.
	ProcessMsgOut(m Msg)
}

// MsgReservoir is a MsgQueue that additionally tracks how many jiffies of
// playable audio, and how many of each control-message kind, it currently
// holds. Most counters are lock-free atomics; the encoded-byte counter
// uses its own mutex because MsgAudioEncoded chains bytes across fragments
// and must be mutated atomically with that structure.
type MsgReservoir struct {
	*MsgQueue

	jiffiesVal         atomic.Int64
	trackCount         atomic.Int32
	delayCount         atomic.Int32
	streamCount        atomic.Int32
	metatextCount      atomic.Int32
	decodedStreamCount atomic.Int32
	encodedAudioCount  atomic.Int32
	decodedAudioCount  atomic.Int32

	encodedBytesMu sync.Mutex
	encodedBytes   int64

	hooks ReservoirHooks
}

// NewMsgReservoir returns an empty reservoir. hooks may be nil.
func NewMsgReservoir(hooks ReservoirHooks) *MsgReservoir {
	return &MsgReservoir{MsgQueue: NewMsgQueue(), hooks: hooks}
}

func msgJiffies(m Msg) (uint64, bool) {
	switch v := m.(type) {
	case *MsgAudioPcm:
		return v.Jiffies(), true
	case *MsgAudioDsd:
		return v.Jiffies(), true
	case *MsgSilence:
		return v.Jiffies(), true
	default:
		return 0, false
	}
}

func (r *MsgReservoir) countLocked(m Msg, delta int32) {
	switch m.(type) {
	case *MsgTrack:
		r.trackCount.Add(delta)
	case *MsgDelay:
		r.delayCount.Add(delta)
	case *MsgEncodedStream:
		r.streamCount.Add(delta)
	case *MsgMetatext:
		r.metatextCount.Add(delta)
	case *MsgDecodedStream:
		r.decodedStreamCount.Add(delta)
	case *MsgAudioEncoded:
		r.encodedAudioCount.Add(delta)
		v := m.(*MsgAudioEncoded)
		r.encodedBytesMu.Lock()
		r.encodedBytes += int64(v.Len()) * int64(delta)
		r.encodedBytesMu.Unlock()
	case *MsgAudioPcm, *MsgAudioDsd, *MsgSilence:
		r.decodedAudioCount.Add(delta)
	}
	if j, ok := msgJiffies(m); ok {
		r.jiffiesVal.Add(int64(j) * int64(delta))
	}
}

// Enqueue appends m, updating counters before running ProcessMsgIn.
func (r *MsgReservoir) Enqueue(m Msg) {
	r.countLocked(m, 1)
	if r.hooks != nil {
		r.hooks.ProcessMsgIn(m)
	}
	r.MsgQueue.Enqueue(m)
}

// Dequeue pops the head message, updating counters before running
// ProcessMsgOut.
func (r *MsgReservoir) Dequeue() Msg {
	m := r.MsgQueue.Dequeue()
	r.countLocked(m, -1)
	if r.hooks != nil {
		r.hooks.ProcessMsgOut(m)
	}
	return m
}

// Jiffies returns the total jiffies of buffered audio currently queued.
func (r *MsgReservoir) Jiffies() uint64 { return uint64(r.jiffiesVal.Load()) }

func (r *MsgReservoir) TrackCount() int         { return int(r.trackCount.Load()) }
func (r *MsgReservoir) DelayCount() int         { return int(r.delayCount.Load()) }
func (r *MsgReservoir) StreamCount() int        { return int(r.streamCount.Load()) }
func (r *MsgReservoir) MetatextCount() int      { return int(r.metatextCount.Load()) }
func (r *MsgReservoir) DecodedStreamCount() int { return int(r.decodedStreamCount.Load()) }
func (r *MsgReservoir) EncodedAudioCount() int  { return int(r.encodedAudioCount.Load()) }
func (r *MsgReservoir) DecodedAudioCount() int  { return int(r.decodedAudioCount.Load()) }

// EncodedBytes returns the total bytes of encoded audio currently queued.
// Guarded by its own mutex rather than an atomic: an AudioEncoded
// fragment's length can change while it chains bytes across nodes, so the
// count must move together with the fragment itself.
func (r *MsgReservoir) EncodedBytes() int {
	r.encodedBytesMu.Lock()
	defer r.encodedBytesMu.Unlock()
	return int(r.encodedBytes)
}
