package msg

// ISupply is the input surface a source uses to push messages into the
// pipeline.
type ISupply interface {
	OutputTrack(uri, metaData string, streamID uint32)
	OutputDrain(callback HaltCallback)
	OutputDelay(delayJiffies uint64)
	OutputStream(uri string, totalBytes uint64, startPos uint64, seekable SeekCapability, live, multiroom bool, handler IStreamHandler, streamID uint32)
	OutputPcmStream(uri string, totalBytes uint64, startPos uint64, seekable SeekCapability, live, multiroom bool, handler IStreamHandler, streamID uint32, info PcmStreamInfo)
	OutputDsdStream(uri string, totalBytes uint64, startPos uint64, seekable SeekCapability, live, multiroom bool, handler IStreamHandler, streamID uint32, info DsdStreamInfo)
	OutputSegment(id string)
	OutputData(bytes []byte) error
	OutputMetadata(text string) error
	OutputHalt(id uint32, callback HaltCallback)
	OutputFlush(id uint32)
	OutputWait()
}

// IStreamHandler is the callback surface a downstream stage uses to ask the
// upstream source to seek, stop, or discard, and to report starvation. The
// flush id returned by Try* is the token callers must discard messages
// against until a matching MsgFlush is observed.
type IStreamHandler interface {
	OkToPlay(streamID uint32) OkToPlay
	TrySeek(streamID uint32, byteOffset uint64) uint32
	TryDiscard(jiffies uint64) uint32
	TryStop(streamID uint32) uint32
	NotifyStarving(mode string, streamID uint32, starving bool)
}

// IPipelineAnimator is the sink's capability surface, queried by upstream
// stages to decide whether a decoded stream can be played as-is.
type IPipelineAnimator interface {
	BufferJiffies() uint64
	// DelayJiffies returns the fixed processing delay the sink introduces
	// for the given format/rate/depth/channels, or one of
	// ErrFormatUnsupported / ErrSampleRateUnsupported / ErrBitDepthUnsupported.
	DelayJiffies(format StreamFormat, sampleRate, bitDepth, numChannels uint) (uint64, error)
	DsdBlockSizeWords() uint
	MaxBitDepth() uint
	// GetMaxSampleRates returns the highest supported PCM and DSD sample
	// rates respectively.
	GetMaxSampleRates() (pcm, dsd uint)
}

// MuteStep reports whether a stepwise mute/unmute fade has more jiffies to
// consume.
type MuteStep int

const (
	MuteInProgress MuteStep = iota
	MuteComplete
)

// IVolumeMuterStepped is the stepwise volume driver MuterVolume advances
// one message's worth of jiffies at a time.
type IVolumeMuterStepped interface {
	BeginMute() MuteStep
	StepMute(jiffies uint64) MuteStep
	BeginUnmute() MuteStep
	StepUnmute(jiffies uint64) MuteStep
	SetMuted()
	SetUnmuted()
}

// IPcmProcessor is the sink-side consumer of PCM playable audio.
type IPcmProcessor interface {
	BeginBlock()
	ProcessFragment(samples []byte, numChannels int, subsampleBytes int) error
	ProcessSilence(samples []byte, numChannels int, subsampleBytes int) error
	EndBlock()
	Flush()
}

// IDsdProcessor is the sink-side consumer of DSD playable audio.
type IDsdProcessor interface {
	BeginBlock()
	ProcessFragment(samples []byte, numChannels int, sampleBlockWords int) error
	EndBlock()
	Flush()
}

// IPipelineBufferObserver receives +/- jiffy attribution as audio messages
// carrying it are created, split, cloned and destroyed. Used by reservoirs
// to feed starvation/over-buffering signals upstream.
type IPipelineBufferObserver interface {
	AddJiffies(jiffies uint64)
	RemoveJiffies(jiffies uint64)
}
