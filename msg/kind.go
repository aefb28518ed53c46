package msg

// Kind tags the set of message variants this package defines. Msg.Kind()
// feeds PipelineElement.Check; Dispatch routes on the concrete type. The
// Msg interface has only exported methods, so the compiler does not stop
// a type outside this package from implementing it; Dispatch asserts on
// any such type.
type Kind int

const (
	KindMode Kind = iota
	KindTrack
	KindDrain
	KindDelay
	KindEncodedStream
	KindStreamSegment
	KindAudioEncoded
	KindMetatext
	KindStreamInterrupted
	KindHalt
	KindFlush
	KindWait
	KindDecodedStream
	KindAudioPcm
	KindAudioDsd
	KindSilence
	KindPlayablePcm
	KindPlayableDsd
	KindPlayableSilence
	KindPlayableSilenceDsd
	KindQuit
)

func (k Kind) String() string {
	switch k {
	case KindMode:
		return "Mode"
	case KindTrack:
		return "Track"
	case KindDrain:
		return "Drain"
	case KindDelay:
		return "Delay"
	case KindEncodedStream:
		return "EncodedStream"
	case KindStreamSegment:
		return "StreamSegment"
	case KindAudioEncoded:
		return "AudioEncoded"
	case KindMetatext:
		return "Metatext"
	case KindStreamInterrupted:
		return "StreamInterrupted"
	case KindHalt:
		return "Halt"
	case KindFlush:
		return "Flush"
	case KindWait:
		return "Wait"
	case KindDecodedStream:
		return "DecodedStream"
	case KindAudioPcm:
		return "AudioPcm"
	case KindAudioDsd:
		return "AudioDsd"
	case KindSilence:
		return "Silence"
	case KindPlayablePcm:
		return "PlayablePcm"
	case KindPlayableDsd:
		return "PlayableDsd"
	case KindPlayableSilence:
		return "PlayableSilence"
	case KindPlayableSilenceDsd:
		return "PlayableSilenceDsd"
	case KindQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// Mask is a bitmask over Kind values, used by PipelineElement to declare
// which message variants a stage promises to handle.
type Mask uint32

// MaskOf builds a Mask from a list of kinds.
func MaskOf(kinds ...Kind) Mask {
	var m Mask
	for _, k := range kinds {
		m |= 1 << uint(k)
	}
	return m
}

// Has reports whether k is included in the mask.
func (m Mask) Has(k Kind) bool {
	return m&(1<<uint(k)) != 0
}

// Msg is the common interface implemented by every message variant: pooled
// reference counting plus the Kind tag used for dispatch.
type Msg interface {
	Kind() Kind
	AddRef()
	RemoveRef()
}

// PipelineElement declares, at construction, the set of message kinds a
// stage is prepared to handle. Check panics when handed a kind outside the
// mask, so pipeline composition faults at the first unexpected message
// rather than silently mishandling it.
type PipelineElement struct {
	supported Mask
}

// NewPipelineElement returns a PipelineElement that accepts exactly the
// given kinds.
func NewPipelineElement(kinds ...Kind) PipelineElement {
	return PipelineElement{supported: MaskOf(kinds...)}
}

// Check panics unless k is in the element's supported mask. Call this at
// the top of a stage's ProcessMsg before acting on the message.
func (p PipelineElement) Check(k Kind) {
	assertf(p.supported.Has(k), "msg: %s not supported by this pipeline element", k)
}
