package msg

import "audiopipeline/jiffies"

// PoolSizes configures the fixed capacity of every message pool. Sizing is
// a deployment concern: pools sized too small make Allocate block under
// normal load, which is a design signal (see Factory.Stats), not a crash.
type PoolSizes struct {
	Mode, Track, Drain, Delay                                     int
	EncodedStream, StreamSegment, AudioEncoded                    int
	Metatext, StreamInterrupted, Halt, Flush, Wait                int
	DecodedStream, AudioPcm, AudioDsd, Silence                    int
	PlayablePcm, PlayableDsd, PlayableSilence, PlayableSilenceDsd int
	Quit                                                          int
}

// DefaultPoolSizes returns pool sizes generous enough for a single-stream
// pipeline under typical buffering: tens of in-flight audio cells, a
// handful of everything else.
func DefaultPoolSizes() PoolSizes {
	return PoolSizes{
		Mode: 4, Track: 8, Drain: 4, Delay: 8,
		EncodedStream: 8, StreamSegment: 8, AudioEncoded: 64,
		Metatext: 8, StreamInterrupted: 4, Halt: 4, Flush: 8, Wait: 4,
		DecodedStream: 8, AudioPcm: 64, AudioDsd: 64, Silence: 32,
		PlayablePcm: 64, PlayableDsd: 64, PlayableSilence: 32, PlayableSilenceDsd: 32,
		Quit: 2,
	}
}

// Factory is the single point of creation for every message variant. It
// never returns without a usable message — on pool exhaustion it blocks,
// matching the back-pressure contract described for allocators.
type Factory struct {
	modePool               *Allocator[*MsgMode]
	trackPool              *Allocator[*MsgTrack]
	drainPool              *Allocator[*MsgDrain]
	delayPool              *Allocator[*MsgDelay]
	encodedStreamPool      *Allocator[*MsgEncodedStream]
	streamSegmentPool      *Allocator[*MsgStreamSegment]
	encodedPool            *Allocator[*MsgAudioEncoded]
	metatextPool           *Allocator[*MsgMetatext]
	streamInterruptedPool  *Allocator[*MsgStreamInterrupted]
	haltPool               *Allocator[*MsgHalt]
	flushPool              *Allocator[*MsgFlush]
	waitPool               *Allocator[*MsgWait]
	decodedStreamPool      *Allocator[*MsgDecodedStream]
	pcmPool                *Allocator[*MsgAudioPcm]
	dsdPool                *Allocator[*MsgAudioDsd]
	silencePool            *Allocator[*MsgSilence]
	playablePcmPool        *Allocator[*MsgPlayablePcm]
	playableDsdPool        *Allocator[*MsgPlayableDsd]
	playableSilencePool    *Allocator[*MsgPlayableSilence]
	playableSilenceDsdPool *Allocator[*MsgPlayableSilenceDsd]
	quitPool               *Allocator[*MsgQuit]
}

// NewFactory builds a Factory with every pool preallocated per sizes.
func NewFactory(sizes PoolSizes) *Factory {
	return &Factory{
		modePool:               NewAllocator(sizes.Mode, newMsgMode),
		trackPool:              NewAllocator(sizes.Track, newMsgTrack),
		drainPool:              NewAllocator(sizes.Drain, newMsgDrain),
		delayPool:              NewAllocator(sizes.Delay, newMsgDelay),
		encodedStreamPool:      NewAllocator(sizes.EncodedStream, newMsgEncodedStream),
		streamSegmentPool:      NewAllocator(sizes.StreamSegment, newMsgStreamSegment),
		encodedPool:            NewAllocator(sizes.AudioEncoded, newMsgAudioEncoded),
		metatextPool:           NewAllocator(sizes.Metatext, newMsgMetatext),
		streamInterruptedPool:  NewAllocator(sizes.StreamInterrupted, newMsgStreamInterrupted),
		haltPool:               NewAllocator(sizes.Halt, newMsgHalt),
		flushPool:              NewAllocator(sizes.Flush, newMsgFlush),
		waitPool:               NewAllocator(sizes.Wait, newMsgWait),
		decodedStreamPool:      NewAllocator(sizes.DecodedStream, newMsgDecodedStream),
		pcmPool:                NewAllocator(sizes.AudioPcm, newMsgAudioPcm),
		dsdPool:                NewAllocator(sizes.AudioDsd, newMsgAudioDsd),
		silencePool:            NewAllocator(sizes.Silence, newMsgSilence),
		playablePcmPool:        NewAllocator(sizes.PlayablePcm, newMsgPlayablePcm),
		playableDsdPool:        NewAllocator(sizes.PlayableDsd, newMsgPlayableDsd),
		playableSilencePool:    NewAllocator(sizes.PlayableSilence, newMsgPlayableSilence),
		playableSilenceDsdPool: NewAllocator(sizes.PlayableSilenceDsd, newMsgPlayableSilenceDsd),
		quitPool:               NewAllocator(sizes.Quit, newMsgQuit),
	}
}

func (f *Factory) CreateMode(name string) *MsgMode {
	m := f.modePool.Allocate()
	m.ModeName = name
	return m
}

func (f *Factory) CreateTrack(uri, metaData string, streamID uint32) *MsgTrack {
	m := f.trackPool.Allocate()
	m.URI, m.MetaData, m.StreamID = uri, metaData, streamID
	return m
}

func (f *Factory) CreateDrain(cb HaltCallback) *MsgDrain {
	m := f.drainPool.Allocate()
	m.Callback = cb
	return m
}

func (f *Factory) CreateDelay(delayJiffies uint64) *MsgDelay {
	m := f.delayPool.Allocate()
	m.DelayJiffies = delayJiffies
	return m
}

func (f *Factory) CreateEncodedStream(info EncodedStreamInfo) *MsgEncodedStream {
	m := f.encodedStreamPool.Allocate()
	m.EncodedStreamInfo = info
	return m
}

func (f *Factory) CreateStreamSegment(id string) *MsgStreamSegment {
	m := f.streamSegmentPool.Allocate()
	m.ID = id
	return m
}

// CreateAudioEncoded wraps freshly appended bytes into a new EncodedAudio
// buffer owned solely by the returned message.
func (f *Factory) CreateAudioEncoded(data []byte) *MsgAudioEncoded {
	assertf(len(data) <= MaxEncodedBytes, "msg: AudioEncoded fragment exceeds MaxEncodedBytes")
	buf := newEncodedAudio(MaxEncodedBytes)
	buf.Append(data)
	m := f.encodedPool.Allocate()
	m.buffer = buf
	m.offset = 0
	m.size = len(data)
	return m
}

func (f *Factory) CreateMetatext(text string) *MsgMetatext {
	m := f.metatextPool.Allocate()
	m.Text = text
	return m
}

func (f *Factory) CreateStreamInterrupted() *MsgStreamInterrupted {
	return f.streamInterruptedPool.Allocate()
}

func (f *Factory) CreateHalt(id uint32, cb HaltCallback) *MsgHalt {
	m := f.haltPool.Allocate()
	m.ID, m.Callback = id, cb
	return m
}

func (f *Factory) CreateFlush(id uint32) *MsgFlush {
	m := f.flushPool.Allocate()
	m.ID = id
	return m
}

func (f *Factory) CreateWait() *MsgWait { return f.waitPool.Allocate() }

func (f *Factory) CreateDecodedStream(info DecodedStreamInfo) *MsgDecodedStream {
	m := f.decodedStreamPool.Allocate()
	m.DecodedStreamInfo = info
	return m
}

func (f *Factory) CreateQuit() *MsgQuit { return f.quitPool.Allocate() }

// CreateAudioPcm wraps raw packed PCM bytes into a fresh DecodedAudio
// buffer owned solely by the returned message.
func (f *Factory) CreateAudioPcm(data []byte, sampleRate, bitDepth, numChannels uint, trackOffset uint64, ramp Ramp) *MsgAudioPcm {
	buf := newDecodedAudio(MaxEncodedBytes)
	buf.Append(data)
	buf.addRef()
	sizeJ, err := jiffies.FromBytes(uint64(len(data)), sampleRate, numChannels, bitDepth)
	assertf(err == nil, "msg: CreateAudioPcm with unsupported sample rate")
	m := f.pcmPool.Allocate()
	m.audioView = audioView{
		buffer:      buf,
		sizeJiffies: sizeJ,
		sampleRate:  sampleRate,
		bitDepth:    bitDepth,
		numChannels: numChannels,
		trackOffset: trackOffset,
		ramp:        ramp,
	}
	m.Attenuation = 256
	return m
}

// CreateAudioPcmFromEncoded takes over an already-decoded buffer from the
// codec layer without copying — the zero-copy hand-off described for the
// factory.
func (f *Factory) CreateAudioPcmFromEncoded(encoded *MsgAudioEncoded, sampleRate, bitDepth, numChannels uint, trackOffset uint64) *MsgAudioPcm {
	// The DecodedAudio aliases the encoded fragment's byte window; its
	// capacity is capped at the window so an Append can never write into
	// bytes outside it.
	b := encoded.Bytes()
	buf := &DecodedAudio{bytes: b[:len(b):len(b)]}
	buf.addRef()
	encoded.RemoveRef()
	sizeJ, err := jiffies.FromBytes(uint64(len(buf.Bytes())), sampleRate, numChannels, bitDepth)
	assertf(err == nil, "msg: CreateAudioPcmFromEncoded with unsupported sample rate")
	m := f.pcmPool.Allocate()
	m.audioView = audioView{
		buffer:      buf,
		sizeJiffies: sizeJ,
		sampleRate:  sampleRate,
		bitDepth:    bitDepth,
		numChannels: numChannels,
		trackOffset: trackOffset,
	}
	m.Attenuation = 256
	return m
}

// CreateAudioDsd wraps packed DSD bits into a fresh DecodedAudio buffer.
// jiffiesNonPlayable accounts for chunk padding words in the buffer: the
// message's playable size is the buffer's total span minus that padding.
func (f *Factory) CreateAudioDsd(data []byte, sampleRate, numChannels, sampleBlockWords uint, trackOffset, jiffiesNonPlayable uint64) *MsgAudioDsd {
	buf := newDecodedAudio(MaxEncodedBytes)
	buf.Append(data)
	buf.addRef()
	perSample, err := jiffies.PerSample(sampleRate)
	assertf(err == nil, "msg: CreateAudioDsd with unsupported sample rate")
	assertf(numChannels > 0, "msg: CreateAudioDsd with zero channels")
	samples := uint64(len(data)) * 8 / uint64(numChannels)
	total := samples * perSample
	assertf(jiffiesNonPlayable <= total, "msg: CreateAudioDsd padding exceeds buffer span")
	m := f.dsdPool.Allocate()
	m.audioView = audioView{
		buffer:      buf,
		sizeJiffies: total - jiffiesNonPlayable,
		sampleRate:  sampleRate,
		numChannels: numChannels,
		trackOffset: trackOffset,
	}
	m.SampleBlockWords = sampleBlockWords
	m.sizeTotalJiffies = total
	m.jiffiesNonPlayable = jiffiesNonPlayable
	return m
}

func (f *Factory) CreateSilence(jiffiesVal uint64, sampleRate, bitDepth, numChannels uint) *MsgSilence {
	m := f.silencePool.Allocate()
	m.sizeJiffies = jiffiesVal
	m.sampleRate, m.bitDepth, m.numChannels = sampleRate, bitDepth, numChannels
	return m
}

func (f *Factory) CreateSilenceDsd(jiffiesVal uint64, sampleRate, numChannels, sampleBlockWords uint) *MsgSilence {
	m := f.silencePool.Allocate()
	m.sizeJiffies = jiffiesVal
	m.sampleRate, m.numChannels, m.dsd, m.sampleBlockWords = sampleRate, numChannels, true, sampleBlockWords
	return m
}

// ToPlayablePcm converts a MsgAudioPcm to its immutable playable form,
// materialising the byte window into an owned buffer and releasing the
// source message's reference to the shared DecodedAudio.
func (f *Factory) ToPlayablePcm(a *MsgAudioPcm) *MsgPlayablePcm {
	p := f.playablePcmPool.Allocate()
	p.bytes = append([]byte(nil), a.bytes()...)
	p.jiffiesVal = a.sizeJiffies
	p.sampleRate, p.bitDepth, p.numChannels = a.sampleRate, a.bitDepth, a.numChannels
	p.ramp = a.ramp
	p.attenuation = a.Attenuation
	a.RemoveRef()
	return p
}

// ToPlayableDsd converts a MsgAudioDsd to its immutable playable form.
// The whole backing window — padding words included — is materialised,
// since the sink consumes DSD in whole sample blocks.
func (f *Factory) ToPlayableDsd(a *MsgAudioDsd) *MsgPlayableDsd {
	p := f.playableDsdPool.Allocate()
	p.bytes = append([]byte(nil), a.bytes()...)
	p.jiffiesVal = a.sizeJiffies
	p.sampleRate = a.sampleRate
	p.numChannels = a.numChannels
	p.sampleBlockWords = a.SampleBlockWords
	a.RemoveRef()
	return p
}

// ToPlayableSilence converts a MsgSilence to its playable form.
func (f *Factory) ToPlayableSilence(s *MsgSilence) *MsgPlayableSilence {
	p := f.playableSilencePool.Allocate()
	p.sizeJiffies = s.sizeJiffies
	p.sampleRate, p.bitDepth, p.numChannels = s.sampleRate, s.bitDepth, s.numChannels
	s.RemoveRef()
	return p
}

// ToPlayableSilenceDsd converts a DSD MsgSilence to its playable form.
func (f *Factory) ToPlayableSilenceDsd(s *MsgSilence) *MsgPlayableSilenceDsd {
	assertf(s.dsd, "msg: ToPlayableSilenceDsd on a non-DSD silence message")
	p := f.playableSilenceDsdPool.Allocate()
	p.sizeJiffies = s.sizeJiffies
	p.numChannels = s.numChannels
	p.sampleBlockWords = s.sampleBlockWords
	s.RemoveRef()
	return p
}

// Stats returns pool usage for every allocator, keyed by Kind, for
// introspection and sizing diagnostics.
func (f *Factory) Stats() map[Kind]PoolStats {
	return map[Kind]PoolStats{
		KindMode:               f.modePool.Stats(),
		KindTrack:              f.trackPool.Stats(),
		KindDrain:              f.drainPool.Stats(),
		KindDelay:              f.delayPool.Stats(),
		KindEncodedStream:      f.encodedStreamPool.Stats(),
		KindStreamSegment:      f.streamSegmentPool.Stats(),
		KindAudioEncoded:       f.encodedPool.Stats(),
		KindMetatext:           f.metatextPool.Stats(),
		KindStreamInterrupted:  f.streamInterruptedPool.Stats(),
		KindHalt:               f.haltPool.Stats(),
		KindFlush:              f.flushPool.Stats(),
		KindWait:               f.waitPool.Stats(),
		KindDecodedStream:      f.decodedStreamPool.Stats(),
		KindAudioPcm:           f.pcmPool.Stats(),
		KindAudioDsd:           f.dsdPool.Stats(),
		KindSilence:            f.silencePool.Stats(),
		KindPlayablePcm:        f.playablePcmPool.Stats(),
		KindPlayableDsd:        f.playableDsdPool.Stats(),
		KindPlayableSilence:    f.playableSilencePool.Stats(),
		KindPlayableSilenceDsd: f.playableSilenceDsdPool.Stats(),
		KindQuit:               f.quitPool.Stats(),
	}
}
