package msg

import (
	"sync/atomic"

	"audiopipeline/jiffies"
)

// MaxEncodedBytes bounds a single EncodedAudio/DecodedAudio buffer, roughly
// 9 KiB, matching the cap on a single MsgAudioEncoded/MsgAudioPcm fragment.
const MaxEncodedBytes = 9 * 1024

// DecodedAudio is a shared, reference-counted byte buffer backing one or
// more MsgAudioPcm/MsgAudioDsd views. Split and Clone add references to the
// same buffer instead of copying; only the original owner may Append, and
// only before the message carrying it is released into a queue.
type DecodedAudio struct {
	bytes    []byte
	refCount atomic.Int32
}

func newDecodedAudio(capacity int) *DecodedAudio {
	return &DecodedAudio{bytes: make([]byte, 0, capacity)}
}

// Append grows the buffer. Callers must only do this while they are the
// sole owner (before the message wrapping it has been handed downstream).
func (d *DecodedAudio) Append(b []byte) {
	assertf(len(d.bytes)+len(b) <= cap(d.bytes), "msg: DecodedAudio append overflow")
	d.bytes = append(d.bytes, b...)
}

// Bytes returns the full backing slice. Callers must treat it as read-only
// once the owning message has left the hands of its creator.
func (d *DecodedAudio) Bytes() []byte { return d.bytes }

func (d *DecodedAudio) addRef()  { d.refCount.Add(1) }
func (d *DecodedAudio) release() { d.refCount.Add(-1) }

// EncodedAudio is the append-only unstructured byte buffer backing
// MsgAudioEncoded fragments, up to MaxEncodedBytes.
type EncodedAudio struct {
	bytes []byte
}

func newEncodedAudio(capacity int) *EncodedAudio {
	return &EncodedAudio{bytes: make([]byte, 0, capacity)}
}

func (e *EncodedAudio) Append(b []byte) {
	assertf(len(e.bytes)+len(b) <= cap(e.bytes), "msg: EncodedAudio append overflow")
	e.bytes = append(e.bytes, b...)
}

func (e *EncodedAudio) Bytes() []byte { return e.bytes }
func (e *EncodedAudio) Len() int      { return len(e.bytes) }

// audioView is the shared state of MsgAudioPcm/MsgAudioDsd: a (offset,
// size) window in jiffies over a shared DecodedAudio, plus the stream
// parameters and ramp needed to convert to a MsgPlayable.
type audioView struct {
	buffer        *DecodedAudio
	offsetJiffies uint64
	sizeJiffies   uint64
	sampleRate    uint
	bitDepth      uint
	numChannels   uint
	trackOffset   uint64 // Invalid sentinel: ^uint64(0)
	ramp          Ramp
	observer      IPipelineBufferObserver
}

// TrackOffsetInvalid marks a MsgAudio whose trackOffset is not meaningful
// (e.g. a message not yet associated with a track position).
const TrackOffsetInvalid = ^uint64(0)

func (v *audioView) attach(observer IPipelineBufferObserver) {
	v.observer = observer
	if observer != nil {
		observer.AddJiffies(v.sizeJiffies)
	}
}

func (v *audioView) detach() {
	if v.observer != nil {
		v.observer.RemoveJiffies(v.sizeJiffies)
		v.observer = nil
	}
}

func (v *audioView) offsetBytes() (uint64, error) {
	return jiffies.ToBytes(v.offsetJiffies, v.sampleRate, v.numChannels, v.bitDepth)
}

func (v *audioView) sizeBytes() (uint64, error) {
	return jiffies.ToBytes(v.sizeJiffies, v.sampleRate, v.numChannels, v.bitDepth)
}

// MsgAudioPcm is a zero-copy view over a shared DecodedAudio buffer holding
// packed big-endian PCM.
type MsgAudioPcm struct {
	Allocated
	audioView
	Attenuation uint16 // unity == 256; RAOP-style post-ramp scale, 16-bit paths only
}

func newMsgAudioPcm() *MsgAudioPcm { return &MsgAudioPcm{} }

func (m *MsgAudioPcm) Kind() Kind { return KindAudioPcm }
func (m *MsgAudioPcm) RemoveRef() { m.removeRef(m) }
func (m *MsgAudioPcm) Clear() {
	m.detach()
	if m.buffer != nil {
		m.buffer.release()
	}
	m.audioView = audioView{}
	m.Attenuation = 256
}

// Jiffies returns this view's size in jiffies.
func (m *MsgAudioPcm) Jiffies() uint64 { return m.sizeJiffies }

// TrackOffset returns this view's position within the track, or
// TrackOffsetInvalid.
func (m *MsgAudioPcm) TrackOffset() uint64 { return m.trackOffset }

// SampleRate, BitDepth, NumChannels expose the view's stream parameters.
func (m *MsgAudioPcm) SampleRate() uint  { return m.sampleRate }
func (m *MsgAudioPcm) BitDepth() uint    { return m.bitDepth }
func (m *MsgAudioPcm) NumChannels() uint { return m.numChannels }

// Ramp returns the ramp currently attached to this view.
func (m *MsgAudioPcm) Ramp() Ramp { return m.ramp }

// SetRamp replaces the attached ramp (used by the ramping stage after
// calling Ramp.Set).
func (m *MsgAudioPcm) SetRamp(r Ramp) { m.ramp = r }

// AttachObserver attaches a single IPipelineBufferObserver, reporting
// +size immediately.
func (m *MsgAudioPcm) AttachObserver(o IPipelineBufferObserver) { m.attach(o) }

// bytes returns this view's byte window into the shared buffer.
func (m *MsgAudioPcm) bytes() []byte {
	off, err := m.offsetBytes()
	assertf(err == nil, "msg: MsgAudioPcm with unsupported sample rate")
	sz, err := m.sizeBytes()
	assertf(err == nil, "msg: MsgAudioPcm with unsupported sample rate")
	return m.buffer.Bytes()[off : off+sz]
}

// Split divides this message at atJiffies (0 < atJiffies < size) and
// returns a new message for the tail, both views sharing the same
// underlying buffer by reference count. The ramp is split proportionally.
func (m *MsgAudioPcm) Split(f *Factory, atJiffies uint64) *MsgAudioPcm {
	assertf(atJiffies > 0 && atJiffies < m.sizeJiffies, "msg: Split out of range")
	tail := f.pcmPool.Allocate()
	tail.audioView = audioView{
		buffer:        m.buffer,
		offsetJiffies: m.offsetJiffies + atJiffies,
		sizeJiffies:   m.sizeJiffies - atJiffies,
		sampleRate:    m.sampleRate,
		bitDepth:      m.bitDepth,
		numChannels:   m.numChannels,
		trackOffset:   addTrackOffset(m.trackOffset, atJiffies),
	}
	tail.buffer.addRef()
	tail.Attenuation = m.Attenuation

	if m.ramp.IsEnabled() {
		headRamp, tailRamp := m.ramp.Split(atJiffies, m.sizeJiffies)
		m.ramp = headRamp
		tail.ramp = tailRamp
	}
	m.sizeJiffies = atJiffies
	if m.observer != nil {
		// attach reported +tail.size; take the same amount back off this
		// message's attribution so the observer's total is unchanged.
		tail.attach(m.observer)
		m.observer.RemoveJiffies(tail.sizeJiffies)
	}
	return tail
}

func addTrackOffset(base, delta uint64) uint64 {
	if base == TrackOffsetInvalid {
		return TrackOffsetInvalid
	}
	return base + delta
}

// Clone allocates a new view over the same buffer. The ramp is copied; the
// observer is not propagated — attribution belongs to one owner at a time.
func (m *MsgAudioPcm) Clone(f *Factory) *MsgAudioPcm {
	c := f.pcmPool.Allocate()
	c.audioView = audioView{
		buffer:        m.buffer,
		offsetJiffies: m.offsetJiffies,
		sizeJiffies:   m.sizeJiffies,
		sampleRate:    m.sampleRate,
		bitDepth:      m.bitDepth,
		numChannels:   m.numChannels,
		trackOffset:   m.trackOffset,
		ramp:          m.ramp,
	}
	c.buffer.addRef()
	c.Attenuation = m.Attenuation
	return c
}

// Aggregate appends other's decoded bytes onto this message's backing
// buffer and extends size, consuming other's reference. Requires identical
// rate/depth/channels, no ramp on either side, and contiguous trackOffsets.
func (m *MsgAudioPcm) Aggregate(other *MsgAudioPcm) {
	assertf(m.sampleRate == other.sampleRate && m.bitDepth == other.bitDepth && m.numChannels == other.numChannels,
		"msg: Aggregate format mismatch")
	assertf(!m.ramp.IsEnabled() && !other.ramp.IsEnabled(), "msg: Aggregate with an active ramp")
	assertf(m.trackOffset == TrackOffsetInvalid || other.trackOffset == m.trackOffset+m.sizeJiffies,
		"msg: Aggregate with non-contiguous trackOffset")

	otherBytes := other.bytes()
	m.buffer.Append(otherBytes)
	m.sizeJiffies += other.sizeJiffies
	if m.observer != nil {
		m.observer.AddJiffies(other.sizeJiffies)
	}
	other.RemoveRef()
}

// MsgAudioDsd is a zero-copy view over a shared DecodedAudio buffer holding
// packed DSD bits. size is expressed in playable jiffies;
// sizeTotalJiffies accounts for padding words, with
// size == sizeTotalJiffies - jiffiesNonPlayable.
type MsgAudioDsd struct {
	Allocated
	audioView
	SampleBlockWords   uint
	sizeTotalJiffies   uint64
	jiffiesNonPlayable uint64
}

func newMsgAudioDsd() *MsgAudioDsd { return &MsgAudioDsd{} }

func (m *MsgAudioDsd) Kind() Kind { return KindAudioDsd }
func (m *MsgAudioDsd) RemoveRef() { m.removeRef(m) }
func (m *MsgAudioDsd) Clear() {
	m.detach()
	if m.buffer != nil {
		m.buffer.release()
	}
	m.audioView = audioView{}
	m.SampleBlockWords = 0
	m.sizeTotalJiffies = 0
	m.jiffiesNonPlayable = 0
}

func (m *MsgAudioDsd) Jiffies() uint64      { return m.sizeJiffies }
func (m *MsgAudioDsd) TotalJiffies() uint64 { return m.sizeTotalJiffies }
func (m *MsgAudioDsd) TrackOffset() uint64  { return m.trackOffset }
func (m *MsgAudioDsd) SampleRate() uint     { return m.sampleRate }
func (m *MsgAudioDsd) NumChannels() uint    { return m.numChannels }
func (m *MsgAudioDsd) Ramp() Ramp           { return m.ramp }
func (m *MsgAudioDsd) SetRamp(r Ramp)       { m.ramp = r }

// AttachObserver attaches a single IPipelineBufferObserver, reporting
// +size immediately.
func (m *MsgAudioDsd) AttachObserver(o IPipelineBufferObserver) { m.attach(o) }

// bytes returns this view's byte window. One DSD sample is one bit per
// channel, so byte offsets derive from the sample count directly.
func (m *MsgAudioDsd) bytes() []byte {
	perSample, err := jiffies.PerSample(m.sampleRate)
	assertf(err == nil, "msg: MsgAudioDsd with unsupported sample rate")
	offSamples := m.offsetJiffies / perSample
	totalSamples := m.sizeTotalJiffies / perSample
	off := offSamples * uint64(m.numChannels) / 8
	sz := totalSamples * uint64(m.numChannels) / 8
	return m.buffer.Bytes()[off : off+sz]
}

// Split divides this message at atJiffies of playable audio, returning a
// new view over the same buffer for the tail. Splitting a padded message
// is not supported: padding words belong to the final chunk, and a view
// boundary inside them has no meaningful byte position.
func (m *MsgAudioDsd) Split(f *Factory, atJiffies uint64) *MsgAudioDsd {
	assertf(atJiffies > 0 && atJiffies < m.sizeJiffies, "msg: Split out of range")
	assertf(m.jiffiesNonPlayable == 0, "msg: Split on a MsgAudioDsd with padding")
	perSample, err := jiffies.PerSample(m.sampleRate)
	assertf(err == nil, "msg: MsgAudioDsd with unsupported sample rate")
	assertf((atJiffies/perSample)*uint64(m.numChannels)%8 == 0, "msg: Split point not on a DSD byte boundary")
	tail := f.dsdPool.Allocate()
	tail.audioView = audioView{
		buffer:        m.buffer,
		offsetJiffies: m.offsetJiffies + atJiffies,
		sizeJiffies:   m.sizeJiffies - atJiffies,
		sampleRate:    m.sampleRate,
		numChannels:   m.numChannels,
		trackOffset:   addTrackOffset(m.trackOffset, atJiffies),
	}
	tail.buffer.addRef()
	tail.SampleBlockWords = m.SampleBlockWords
	tail.sizeTotalJiffies = tail.sizeJiffies

	if m.ramp.IsEnabled() {
		headRamp, tailRamp := m.ramp.Split(atJiffies, m.sizeJiffies)
		m.ramp = headRamp
		tail.ramp = tailRamp
	}
	m.sizeJiffies = atJiffies
	m.sizeTotalJiffies = atJiffies
	if m.observer != nil {
		tail.attach(m.observer)
		m.observer.RemoveJiffies(tail.sizeJiffies)
	}
	return tail
}

// Clone allocates a new view over the same buffer. The ramp is copied; the
// observer is not propagated.
func (m *MsgAudioDsd) Clone(f *Factory) *MsgAudioDsd {
	c := f.dsdPool.Allocate()
	c.audioView = audioView{
		buffer:        m.buffer,
		offsetJiffies: m.offsetJiffies,
		sizeJiffies:   m.sizeJiffies,
		sampleRate:    m.sampleRate,
		numChannels:   m.numChannels,
		trackOffset:   m.trackOffset,
		ramp:          m.ramp,
	}
	c.buffer.addRef()
	c.SampleBlockWords = m.SampleBlockWords
	c.sizeTotalJiffies = m.sizeTotalJiffies
	c.jiffiesNonPlayable = m.jiffiesNonPlayable
	return c
}
