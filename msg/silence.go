package msg

// silencePcmByte and silenceDsdByte are the byte patterns used to
// materialise silence: zero for PCM, and for DSD the idle pattern 0x69
// (01101001: four ones and four zeros per byte, so it averages to zero).
const (
	silencePcmByte byte = 0x00
	silenceDsdByte byte = 0x69
)

// MsgSilence carries no buffer; it materialises zero-bytes (PCM) or the DSD
// silence pattern on demand during playable conversion.
type MsgSilence struct {
	Allocated
	sizeJiffies      uint64
	sampleRate       uint
	bitDepth         uint
	numChannels      uint
	dsd              bool
	sampleBlockWords uint
}

func newMsgSilence() *MsgSilence { return &MsgSilence{} }

func (m *MsgSilence) Kind() Kind { return KindSilence }
func (m *MsgSilence) RemoveRef() { m.removeRef(m) }
func (m *MsgSilence) Clear() {
	m.sizeJiffies = 0
	m.sampleRate = 0
	m.bitDepth = 0
	m.numChannels = 0
	m.dsd = false
	m.sampleBlockWords = 0
}

func (m *MsgSilence) Jiffies() uint64 { return m.sizeJiffies }
func (m *MsgSilence) IsDsd() bool     { return m.dsd }

// Split divides this silence message at atJiffies, allocating a fresh cell
// for the tail. No backing buffer means no reference counting is needed
// beyond the cells themselves.
func (m *MsgSilence) Split(f *Factory, atJiffies uint64) *MsgSilence {
	assertf(atJiffies > 0 && atJiffies < m.sizeJiffies, "msg: Silence.Split out of range")
	tail := f.silencePool.Allocate()
	tail.sizeJiffies = m.sizeJiffies - atJiffies
	tail.sampleRate = m.sampleRate
	tail.bitDepth = m.bitDepth
	tail.numChannels = m.numChannels
	tail.dsd = m.dsd
	tail.sampleBlockWords = m.sampleBlockWords
	m.sizeJiffies = atJiffies
	return tail
}
