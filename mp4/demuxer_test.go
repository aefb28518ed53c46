package mp4

import (
	"bytes"
	"io"
	"testing"

	"audiopipeline/msg"
)

// byteSource feeds a fixed byte slice to a Cache in arbitrarily small
// chunks, so box boundaries never line up with fragment boundaries — the
// same condition the real pipeline queue produces.
type byteSource struct {
	factory *msg.Factory
	data    []byte
	chunk   int
	pos     int
}

func newByteSource(factory *msg.Factory, data []byte, chunk int) *byteSource {
	return &byteSource{factory: factory, data: data, chunk: chunk}
}

func (s *byteSource) Pull() (*msg.MsgAudioEncoded, error) {
	if s.pos >= len(s.data) {
		return nil, io.EOF
	}
	n := s.chunk
	if s.pos+n > len(s.data) {
		n = len(s.data) - s.pos
	}
	out := s.factory.CreateAudioEncoded(s.data[s.pos : s.pos+n])
	s.pos += n
	return out, nil
}

// buildClassicStream assembles a minimal, non-fragmented mp4 file holding a
// single "mp4a" track with four 4-byte samples, and returns its bytes
// alongside the samples it expects mdat to yield.
func buildClassicStream() (file []byte, samples [][]byte) {
	descriptor := []byte{0xAA, 0xBB, 0xCC}
	entry := sampleEntryBytes("mp4a", 2, 16, 44100<<16, esdsBoxBytes(descriptor))
	stsd := stsdBoxBytes(entry)
	stsz := stszBoxExplicit([]uint32{4, 4, 4, 4})
	stsc := stscBoxBytes([][3]uint32{{1, 4, 1}})
	stts := sttsBoxBytes([][2]uint32{{4, 1}})
	stco := stcoBoxBytes([]uint32{0})
	stbl := stblBoxBytes(stsd, stsz, stsc, stts, stco)
	minf := containerBoxBytes("minf", stbl)
	mdhd := mdhdBoxBytes(44100, 4)
	mdia := containerBoxBytes("mdia", mdhd, minf)
	trak := containerBoxBytes("trak", mdia)
	moov := containerBoxBytes("moov", trak)

	samples = [][]byte{[]byte("AAAA"), []byte("BBBB"), []byte("CCCC"), []byte("DDDD")}
	var mdatPayload []byte
	for _, s := range samples {
		mdatPayload = append(mdatPayload, s...)
	}
	mdat := box("mdat", mdatPayload)

	file = append(append([]byte{}, moov...), mdat...)
	return file, samples
}

func TestDemuxerNextInBand(t *testing.T) {
	factory := msg.NewFactory(msg.DefaultPoolSizes())
	file, samples := buildClassicStream()
	source := newByteSource(factory, file, 37) // deliberately unaligned with box boundaries

	d := NewDemuxer(source, factory, nil, nil, "")

	var prefixBytes []byte
	var gotSamples [][]byte
	for {
		m, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		enc, ok := m.(*msg.MsgAudioEncoded)
		if !ok {
			t.Fatalf("Next returned %T, want *msg.MsgAudioEncoded", m)
		}
		data := append([]byte(nil), enc.Bytes()...)
		enc.RemoveRef()

		if len(gotSamples) == 0 && prefixBytes == nil {
			prefixBytes = data
			continue
		}
		// Once the prefix is consumed, every remaining message is a sample
		// unless it still looks like prefix continuation — this fixture's
		// prefix fits in one chunk, so the first message after it is sample 0.
		gotSamples = append(gotSamples, data)
	}

	if len(gotSamples) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(gotSamples), len(samples))
	}
	for i, want := range samples {
		if !bytes.Equal(gotSamples[i], want) {
			t.Fatalf("sample %d = %q, want %q", i, gotSamples[i], want)
		}
	}

	info, remainder, err := (Mpeg4InfoReader{}).Read(prefixBytes)
	if err != nil {
		t.Fatalf("decoding prefix: %v", err)
	}
	if info.CodecName != "mp4a" {
		t.Fatalf("CodecName = %q, want mp4a", info.CodecName)
	}
	if info.SampleRate != 44100 || info.Channels != 2 || info.BitDepth != 16 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if !bytes.Equal(info.Descriptor, []byte{0xAA, 0xBB, 0xCC}) {
		t.Fatalf("Descriptor = %v, want AA BB CC", info.Descriptor)
	}

	sizes, remainder, err := ReadSampleSizeTable(remainder)
	if err != nil {
		t.Fatalf("ReadSampleSizeTable: %v", err)
	}
	if sizes.Count() != 4 {
		t.Fatalf("sample-size count = %d, want 4", sizes.Count())
	}

	seek, remainder, err := ReadSeekTable(remainder)
	if err != nil {
		t.Fatalf("ReadSeekTable: %v", err)
	}
	if len(remainder) != 0 {
		t.Fatalf("trailing bytes in prefix: %d", len(remainder))
	}
	res, err := seek.Offset(0)
	if err != nil || res.ByteOffset != 0 {
		t.Fatalf("seek.Offset(0) = (%+v, %v), want ByteOffset 0", res, err)
	}

	tbl := d.Tables()
	if tbl.Timescale != 44100 || tbl.DurationUnits != 4 {
		t.Fatalf("Tables timescale/duration = %d/%d, want 44100/4", tbl.Timescale, tbl.DurationUnits)
	}
}
