package msg

// SeekCapability describes what kind of seek an upstream source can service
// for a MsgEncodedStream.
type SeekCapability int

const (
	SeekNone SeekCapability = iota
	SeekCache
	SeekSource
)

// StreamFormat distinguishes the three payload shapes a MsgEncodedStream
// can carry.
type StreamFormat int

const (
	FormatEncoded StreamFormat = iota
	FormatPcm
	FormatDsd
)

// OkToPlay is the result of IStreamHandler.OkToPlay.
type OkToPlay int

const (
	OkToPlayYes OkToPlay = iota
	OkToPlayNo
	OkToPlayLater
)

// PcmStreamInfo describes a PCM stream announced inline on a
// MsgEncodedStream (Format == FormatPcm).
type PcmStreamInfo struct {
	SampleRate  uint
	BitDepth    uint
	NumChannels uint
	Endian      bool // true = big-endian
}

// DsdStreamInfo describes a DSD stream announced inline on a
// MsgEncodedStream (Format == FormatDsd).
type DsdStreamInfo struct {
	SampleRate      uint
	NumChannels     uint
	SampleBlockWords uint
}

// EncodedStreamInfo is everything a downstream container/codec needs to
// know about a stream before the first byte arrives. It is carried by
// MsgEncodedStream and passed to Factory.CreateEncodedStream by value.
type EncodedStreamInfo struct {
	URI        string
	MetaText   string
	TotalBytes uint64
	StartPos   uint64
	StreamID   uint32
	Seekable   SeekCapability
	Live       bool
	Multiroom  bool
	Handler    IStreamHandler
	Format     StreamFormat
	PcmInfo    PcmStreamInfo
	DsdInfo    DsdStreamInfo
}

// MsgEncodedStream is the source's stream announcement.
type MsgEncodedStream struct {
	Allocated
	EncodedStreamInfo
}

func newMsgEncodedStream() *MsgEncodedStream { return &MsgEncodedStream{} }

func (m *MsgEncodedStream) Kind() Kind { return KindEncodedStream }
func (m *MsgEncodedStream) RemoveRef() { m.removeRef(m) }
func (m *MsgEncodedStream) Clear() {
	m.EncodedStreamInfo = EncodedStreamInfo{}
}

// SpeakerProfile describes the physical channel layout a decoded stream
// targets.
type SpeakerProfile struct {
	Fronts    uint
	Surrounds uint
	Subs      uint
}

// RampType distinguishes the two ramp strategies a codec can request: one
// sample-accurate step at a time, or the coarser volume-provider driven
// fade.
type RampType int

const (
	RampTypeSample RampType = iota
	RampTypeVolume
)

// DecodedStreamInfo is the codec's announcement of decoded-stream
// parameters, carried by MsgDecodedStream.
type DecodedStreamInfo struct {
	StreamID     uint32
	BitRate      uint
	BitDepth     uint
	SampleRate   uint
	NumChannels  uint
	CodecName    string // at most 32 bytes, per the wire format in mp4
	TrackLength  uint64 // jiffies
	SampleStart  uint64
	Lossless     bool
	Seekable     bool
	Live         bool
	AnalogBypass bool
	Format       StreamFormat
	Multiroom    bool
	Speakers     SpeakerProfile
	Handler      IStreamHandler
	Ramp         RampType
}

// MsgDecodedStream is the sole legitimate trigger for downstream stages
// (ramp, muter, sink) to reconfigure sample rate, channel count or bit
// depth; stages must finish emitting in-flight audio of the old
// configuration before reconfiguring on this message's arrival.
type MsgDecodedStream struct {
	Allocated
	DecodedStreamInfo
}

func newMsgDecodedStream() *MsgDecodedStream { return &MsgDecodedStream{} }

func (m *MsgDecodedStream) Kind() Kind { return KindDecodedStream }
func (m *MsgDecodedStream) RemoveRef() { m.removeRef(m) }
func (m *MsgDecodedStream) Clear() {
	m.DecodedStreamInfo = DecodedStreamInfo{}
}
