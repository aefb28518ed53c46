package mp4

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const codecNameFieldSize = 32

// Mpeg4Info is the synthesised stream description the demuxer emits ahead
// of the first chunk of audio for a track: everything a codec needs to
// configure itself, plus its own variable-length descriptor (an esds/alac
// box payload, for instance).
type Mpeg4Info struct {
	CodecName      string
	SampleRate     uint32
	Timescale      uint32
	Channels       uint32
	BitDepth       uint32
	DurationUnits  uint64
	Descriptor     []byte
}

// Mpeg4InfoWriter serialises an Mpeg4Info to the big-endian wire format
// described for the container's emitted metadata block: a fixed header
// followed by the variable-length codec descriptor. Sample-size and seek
// tables, when present, are appended by the caller using
// WriteSampleSizeTable/WriteSeekTable in the order the wire format
// requires.
type Mpeg4InfoWriter struct {
	info Mpeg4Info
}

func NewMpeg4InfoWriter(info Mpeg4Info) *Mpeg4InfoWriter {
	return &Mpeg4InfoWriter{info: info}
}

// Write appends the fixed header and descriptor to buf and returns the
// extended slice.
func (w *Mpeg4InfoWriter) Write(buf []byte) ([]byte, error) {
	if len(w.info.CodecName) > codecNameFieldSize {
		return nil, invalidf("codec name %q exceeds %d bytes", w.info.CodecName, codecNameFieldSize)
	}
	var name [codecNameFieldSize]byte
	copy(name[:], w.info.CodecName)

	buf = append(buf, name[:]...)
	buf = appendU32(buf, w.info.SampleRate)
	buf = appendU32(buf, w.info.Timescale)
	buf = appendU32(buf, w.info.Channels)
	buf = appendU32(buf, w.info.BitDepth)
	buf = appendU64(buf, w.info.DurationUnits)
	buf = appendU32(buf, uint32(len(w.info.Descriptor)))
	buf = append(buf, w.info.Descriptor...)
	return buf, nil
}

// Mpeg4InfoReader parses the fixed header and descriptor produced by
// Mpeg4InfoWriter, leaving any trailing bytes (the serialized tables) in
// Remainder for the caller to continue parsing.
type Mpeg4InfoReader struct{}

func (Mpeg4InfoReader) Read(buf []byte) (info Mpeg4Info, remainder []byte, err error) {
	const fixedSize = codecNameFieldSize + 4 + 4 + 4 + 4 + 8 + 4
	if len(buf) < fixedSize {
		return Mpeg4Info{}, nil, invalidf("metadata block shorter than fixed header")
	}
	r := bytes.NewReader(buf)

	var name [codecNameFieldSize]byte
	if _, err := r.Read(name[:]); err != nil {
		return Mpeg4Info{}, nil, err
	}
	info.CodecName = cStringTrim(name[:])

	info.SampleRate = readU32(r)
	info.Timescale = readU32(r)
	info.Channels = readU32(r)
	info.BitDepth = readU32(r)
	info.DurationUnits = readU64(r)
	descLen := readU32(r)

	if uint64(r.Len()) < uint64(descLen) {
		return Mpeg4Info{}, nil, invalidf("metadata descriptor truncated")
	}
	info.Descriptor = make([]byte, descLen)
	if _, err := r.Read(info.Descriptor); err != nil {
		return Mpeg4Info{}, nil, err
	}

	remainder = buf[len(buf)-r.Len():]
	return info, remainder, nil
}

func cStringTrim(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func readU32(r *bytes.Reader) uint32 {
	var b [4]byte
	r.Read(b[:])
	return binary.BigEndian.Uint32(b[:])
}

func readU64(r *bytes.Reader) uint64 {
	var b [8]byte
	r.Read(b[:])
	return binary.BigEndian.Uint64(b[:])
}

// WriteSampleSizeTable serialises t as a count prefix followed by either a
// single default-size entry or one u32 per explicit sample.
func WriteSampleSizeTable(buf []byte, t *SampleSizeTable) []byte {
	buf = appendU32(buf, uint32(t.Count()))
	if t.defaultSize != 0 {
		buf = append(buf, 1) // uniform flag
		buf = appendU32(buf, t.defaultSize)
		return buf
	}
	buf = append(buf, 0)
	for _, size := range t.sizes {
		buf = appendU32(buf, size)
	}
	return buf
}

// ReadSampleSizeTable parses the format WriteSampleSizeTable produces.
func ReadSampleSizeTable(buf []byte) (*SampleSizeTable, []byte, error) {
	if len(buf) < 5 {
		return nil, nil, invalidf("sample-size table truncated")
	}
	r := bytes.NewReader(buf)
	count := readU32(r)
	uniformByte := make([]byte, 1)
	r.Read(uniformByte)

	if uniformByte[0] == 1 {
		defaultSize := readU32(r)
		t := NewSampleSizeTable(int(count), defaultSize)
		return t, buf[len(buf)-r.Len():], nil
	}

	t := NewSampleSizeTable(int(count), 0)
	for i := uint32(0); i < count; i++ {
		if r.Len() < 4 {
			return nil, nil, fmt.Errorf("%w: sample-size entry %d truncated", ErrFileInvalid, i)
		}
		if err := t.Append(readU32(r)); err != nil {
			return nil, nil, err
		}
	}
	return t, buf[len(buf)-r.Len():], nil
}

// WriteSeekTable serialises a non-fragmented SeekTable as three
// count-prefixed sequences, in the order chunkRuns, sampleRuns, offsets.
// Fragmented (sidx) tables are not carried over the wire — a fragmented
// stream's seek table is rebuilt locally from the moof/sidx boxes it
// observes as they stream past, never from a synthesised prefix.
func WriteSeekTable(buf []byte, t *SeekTable) []byte {
	buf = appendU32(buf, uint32(len(t.chunkRuns)))
	for _, r := range t.chunkRuns {
		buf = appendU32(buf, r.FirstChunk)
		buf = appendU32(buf, r.SamplesPerChunk)
		buf = appendU32(buf, r.SampleDescriptionIndex)
	}
	buf = appendU32(buf, uint32(len(t.sampleRuns)))
	for _, r := range t.sampleRuns {
		buf = appendU32(buf, r.SampleCount)
		buf = appendU32(buf, r.AudioSamplesPerSample)
	}
	buf = appendU32(buf, uint32(len(t.offsets)))
	for _, o := range t.offsets {
		buf = appendU64(buf, o)
	}
	return buf
}

// ReadSeekTable parses the format WriteSeekTable produces.
func ReadSeekTable(buf []byte) (*SeekTable, []byte, error) {
	r := bytes.NewReader(buf)
	t := NewSeekTable()

	if r.Len() < 4 {
		return nil, nil, invalidf("seek table: chunk-run count truncated")
	}
	chunkRunCount := readU32(r)
	for i := uint32(0); i < chunkRunCount; i++ {
		if r.Len() < 12 {
			return nil, nil, invalidf("seek table: chunk run %d truncated", i)
		}
		t.AddChunkRun(readU32(r), readU32(r), readU32(r))
	}

	if r.Len() < 4 {
		return nil, nil, invalidf("seek table: sample-run count truncated")
	}
	sampleRunCount := readU32(r)
	for i := uint32(0); i < sampleRunCount; i++ {
		if r.Len() < 8 {
			return nil, nil, invalidf("seek table: sample run %d truncated", i)
		}
		t.AddSampleRun(readU32(r), readU32(r))
	}

	if r.Len() < 4 {
		return nil, nil, invalidf("seek table: offset count truncated")
	}
	offsetCount := readU32(r)
	for i := uint32(0); i < offsetCount; i++ {
		if r.Len() < 8 {
			return nil, nil, invalidf("seek table: offset %d truncated", i)
		}
		t.AddOffset(readU64(r))
	}

	return t, buf[len(buf)-r.Len():], nil
}
