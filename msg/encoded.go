package msg

// MsgAudioEncoded wraps a chunk of undecoded codec bytes travelling through
// the container/codec stages. Like MsgAudioPcm it is a view over a shared
// buffer so splitting a chain of encoded fragments never copies bytes.
type MsgAudioEncoded struct {
	Allocated
	buffer *EncodedAudio
	offset int
	size   int
}

func newMsgAudioEncoded() *MsgAudioEncoded { return &MsgAudioEncoded{} }

func (m *MsgAudioEncoded) Kind() Kind { return KindAudioEncoded }
func (m *MsgAudioEncoded) RemoveRef() { m.removeRef(m) }
func (m *MsgAudioEncoded) Clear() {
	m.buffer = nil
	m.offset = 0
	m.size = 0
}

// Bytes returns this fragment's byte window.
func (m *MsgAudioEncoded) Bytes() []byte {
	return m.buffer.Bytes()[m.offset : m.offset+m.size]
}

// Len returns the number of bytes in this fragment.
func (m *MsgAudioEncoded) Len() int { return m.size }

// Split divides this fragment at atBytes, returning a new message for the
// tail sharing the same backing buffer.
func (m *MsgAudioEncoded) Split(f *Factory, atBytes int) *MsgAudioEncoded {
	assertf(atBytes > 0 && atBytes < m.size, "msg: AudioEncoded.Split out of range")
	tail := f.encodedPool.Allocate()
	tail.buffer = m.buffer
	tail.offset = m.offset + atBytes
	tail.size = m.size - atBytes
	m.size = atBytes
	return tail
}

// Aggregate appends other's bytes onto this fragment's backing buffer and
// consumes other's reference. Only valid while this fragment is still the
// tail of its buffer (i.e. offset+size == len(buffer.Bytes())).
func (m *MsgAudioEncoded) Aggregate(other *MsgAudioEncoded) {
	assertf(m.offset+m.size == len(m.buffer.Bytes()), "msg: Aggregate on non-tail AudioEncoded fragment")
	m.buffer.Append(other.Bytes())
	m.size += other.size
	other.RemoveRef()
}
