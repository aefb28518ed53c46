package msg

import "fmt"

// MsgPlayablePcm is an immutable, ready-to-play view: no further
// splitting/modification except byte-level slicing. It owns its own byte
// buffer, materialised once at conversion from MsgAudioPcm so the shared
// DecodedAudio can be released independently of playback timing.
type MsgPlayablePcm struct {
	Allocated
	bytes       []byte
	jiffiesVal  uint64
	sampleRate  uint
	bitDepth    uint
	numChannels uint
	ramp        Ramp
	attenuation uint16
}

func newMsgPlayablePcm() *MsgPlayablePcm { return &MsgPlayablePcm{} }

func (m *MsgPlayablePcm) Kind() Kind { return KindPlayablePcm }
func (m *MsgPlayablePcm) RemoveRef() { m.removeRef(m) }
func (m *MsgPlayablePcm) Clear() {
	m.bytes = nil
	m.jiffiesVal = 0
	m.sampleRate = 0
	m.bitDepth = 0
	m.numChannels = 0
	m.ramp = Ramp{}
	m.attenuation = 0
}

func (m *MsgPlayablePcm) Jiffies() uint64 { return m.jiffiesVal }

// Read drives ip through this playable's bytes, applying any attached
// ramp sample-by-sample, or passing the buffer through in one large block
// when no ramp is enabled. A Mute ramp reads as silence via
// ProcessSilence; otherwise an attenuation other than 0 or 256 is applied
// on either path.
func (m *MsgPlayablePcm) Read(ip IPcmProcessor) error {
	ip.BeginBlock()
	defer ip.EndBlock()

	subsampleBytes := int(m.bitDepth / 8)
	if subsampleBytes == 0 {
		return fmt.Errorf("msg: playable pcm with zero bit depth")
	}
	numChannels := int(m.numChannels)

	switch {
	case m.ramp.Direction == DirMute:
		return ip.ProcessSilence(zeroBuf(len(m.bytes)), numChannels, subsampleBytes)
	case m.ramp.IsEnabled():
		out := applyRampPcm(m.bytes, subsampleBytes, numChannels, m.ramp)
		applyAttenuation(out, subsampleBytes, m.attenuation)
		return ip.ProcessFragment(out, numChannels, subsampleBytes)
	default:
		out := m.bytes
		if m.attenuation != 256 {
			out = append([]byte(nil), m.bytes...)
			applyAttenuation(out, subsampleBytes, m.attenuation)
		}
		return ip.ProcessFragment(out, numChannels, subsampleBytes)
	}
}

func zeroBuf(n int) []byte { return make([]byte, n) }

// applyRampPcm returns a new buffer with a per-sample ramp applied. Each
// subsample is sign-extended into an int64, multiplied by the Q15 multiplier
// for that sample's ramp value, and written back at the original bit
// depth. For 32-bit 6-channel output the low nibble of each sample's
// padding byte is stamped with the channel id, matching the original
// pipeline's undocumented hardware convention.
func applyRampPcm(src []byte, subsampleBytes, numChannels int, ramp Ramp) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	frameBytes := subsampleBytes * numChannels
	if frameBytes == 0 {
		return out
	}
	n := len(src) / frameBytes
	sixChannel32 := subsampleBytes == 4 && numChannels == 6

	for i := 0; i < n; i++ {
		v := ramp.valueAt(i, n)
		mult := multiplierAt(v)
		base := i * frameBytes
		for ch := 0; ch < numChannels; ch++ {
			off := base + ch*subsampleBytes
			sample := readBESigned(out[off : off+subsampleBytes])
			scaled := (sample * int64(mult)) >> 15
			writeBESigned(out[off:off+subsampleBytes], scaled)
			if sixChannel32 {
				out[off+subsampleBytes-1] = (out[off+subsampleBytes-1] &^ 0x0F) | byte(ch&0x0F)
			}
		}
	}
	return out
}

func applyAttenuation(buf []byte, subsampleBytes int, attenuation uint16) {
	if attenuation == 256 || attenuation == 0 {
		return
	}
	assertf(subsampleBytes == 2, "msg: attenuation only supported for 16-bit PCM")
	for off := 0; off+1 < len(buf); off += 2 {
		sample := readBESigned(buf[off : off+2])
		scaled := (sample * int64(attenuation)) / 256
		writeBESigned(buf[off:off+2], scaled)
	}
}

// readBESigned reads a big-endian two's-complement integer of len(b) bytes
// (1-4) sign-extended into an int64.
func readBESigned(b []byte) int64 {
	var u uint64
	for _, by := range b {
		u = (u << 8) | uint64(by)
	}
	bits := uint(len(b) * 8)
	shift := 64 - bits
	return int64(u<<shift) >> shift
}

func writeBESigned(b []byte, v int64) {
	u := uint64(v)
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = byte(u)
		u >>= 8
	}
}

// MsgPlayableDsd is the DSD counterpart of MsgPlayablePcm.
type MsgPlayableDsd struct {
	Allocated
	bytes            []byte
	jiffiesVal       uint64
	sampleRate       uint
	numChannels      uint
	sampleBlockWords uint
}

func newMsgPlayableDsd() *MsgPlayableDsd { return &MsgPlayableDsd{} }

func (m *MsgPlayableDsd) Kind() Kind { return KindPlayableDsd }
func (m *MsgPlayableDsd) RemoveRef() { m.removeRef(m) }
func (m *MsgPlayableDsd) Clear() {
	m.bytes = nil
	m.jiffiesVal = 0
	m.sampleRate = 0
	m.numChannels = 0
	m.sampleBlockWords = 0
}

func (m *MsgPlayableDsd) Jiffies() uint64 { return m.jiffiesVal }

func (m *MsgPlayableDsd) Read(idp IDsdProcessor) error {
	idp.BeginBlock()
	defer idp.EndBlock()
	return idp.ProcessFragment(m.bytes, int(m.numChannels), int(m.sampleBlockWords))
}

// MsgPlayableSilence materialises PCM silence for sizeJiffies at the given
// format, chunked on sample boundaries.
type MsgPlayableSilence struct {
	Allocated
	sizeJiffies uint64
	sampleRate  uint
	bitDepth    uint
	numChannels uint
}

func newMsgPlayableSilence() *MsgPlayableSilence { return &MsgPlayableSilence{} }

func (m *MsgPlayableSilence) Kind() Kind { return KindPlayableSilence }
func (m *MsgPlayableSilence) RemoveRef() { m.removeRef(m) }
func (m *MsgPlayableSilence) Clear() {
	m.sizeJiffies = 0
	m.sampleRate = 0
	m.bitDepth = 0
	m.numChannels = 0
}

func (m *MsgPlayableSilence) Jiffies() uint64 { return m.sizeJiffies }

func (m *MsgPlayableSilence) Read(ip IPcmProcessor, numSamples int) error {
	ip.BeginBlock()
	defer ip.EndBlock()
	subsampleBytes := int(m.bitDepth / 8)
	buf := make([]byte, numSamples*int(m.numChannels)*subsampleBytes)
	for i := range buf {
		buf[i] = silencePcmByte
	}
	return ip.ProcessSilence(buf, int(m.numChannels), subsampleBytes)
}

// MsgPlayableSilenceDsd materialises the DSD silence byte pattern.
type MsgPlayableSilenceDsd struct {
	Allocated
	sizeJiffies      uint64
	numChannels      uint
	sampleBlockWords uint
}

func newMsgPlayableSilenceDsd() *MsgPlayableSilenceDsd { return &MsgPlayableSilenceDsd{} }

func (m *MsgPlayableSilenceDsd) Kind() Kind { return KindPlayableSilenceDsd }
func (m *MsgPlayableSilenceDsd) RemoveRef() { m.removeRef(m) }
func (m *MsgPlayableSilenceDsd) Clear() {
	m.sizeJiffies = 0
	m.numChannels = 0
	m.sampleBlockWords = 0
}

func (m *MsgPlayableSilenceDsd) Jiffies() uint64 { return m.sizeJiffies }

func (m *MsgPlayableSilenceDsd) Read(idp IDsdProcessor, numBlocks int) error {
	idp.BeginBlock()
	defer idp.EndBlock()
	buf := make([]byte, numBlocks*int(m.sampleBlockWords)*int(m.numChannels))
	for i := range buf {
		buf[i] = silenceDsdByte
	}
	return idp.ProcessFragment(buf, int(m.numChannels), int(m.sampleBlockWords))
}
