package mp4

import (
	"bytes"
	"testing"
)

func TestMpeg4InfoRoundTrip(t *testing.T) {
	info := Mpeg4Info{
		CodecName:     "mp4a",
		SampleRate:    44100,
		Timescale:     44100,
		Channels:      2,
		BitDepth:      16,
		DurationUnits: 123456,
		Descriptor:    []byte{1, 2, 3, 4, 5},
	}

	buf, err := NewMpeg4InfoWriter(info).Write(nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, remainder, err := (Mpeg4InfoReader{}).Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(remainder) != 0 {
		t.Fatalf("remainder = %d bytes, want 0", len(remainder))
	}
	if got.CodecName != info.CodecName || got.SampleRate != info.SampleRate ||
		got.Timescale != info.Timescale || got.Channels != info.Channels ||
		got.BitDepth != info.BitDepth || got.DurationUnits != info.DurationUnits {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, info)
	}
	if !bytes.Equal(got.Descriptor, info.Descriptor) {
		t.Fatalf("descriptor mismatch: got %v, want %v", got.Descriptor, info.Descriptor)
	}
}

func TestSampleSizeTableWireRoundTrip(t *testing.T) {
	uniform := NewSampleSizeTable(5, 99)
	buf := WriteSampleSizeTable(nil, uniform)
	got, remainder, err := ReadSampleSizeTable(buf)
	if err != nil {
		t.Fatalf("ReadSampleSizeTable (uniform): %v", err)
	}
	if len(remainder) != 0 {
		t.Fatalf("remainder = %d, want 0", len(remainder))
	}
	if got.Count() != 5 {
		t.Fatalf("Count() = %d, want 5", got.Count())
	}
	if size, _ := got.Size(0); size != 99 {
		t.Fatalf("Size(0) = %d, want 99", size)
	}

	explicit := NewSampleSizeTable(3, 0)
	explicit.Append(10)
	explicit.Append(20)
	explicit.Append(30)
	buf = WriteSampleSizeTable(nil, explicit)
	got, remainder, err = ReadSampleSizeTable(buf)
	if err != nil {
		t.Fatalf("ReadSampleSizeTable (explicit): %v", err)
	}
	if len(remainder) != 0 {
		t.Fatalf("remainder = %d, want 0", len(remainder))
	}
	for i, want := range []uint32{10, 20, 30} {
		if size, _ := got.Size(i); size != want {
			t.Fatalf("Size(%d) = %d, want %d", i, size, want)
		}
	}
}

func TestSeekTableWireRoundTrip(t *testing.T) {
	s := NewSeekTable()
	s.AddChunkRun(1, 4, 1)
	s.AddChunkRun(5, 2, 1)
	s.AddSampleRun(8, 1)
	s.AddSampleRun(4, 2)
	s.AddOffset(1000)
	s.AddOffset(2000)
	s.AddOffset(3000)

	buf := WriteSeekTable(nil, s)
	got, remainder, err := ReadSeekTable(buf)
	if err != nil {
		t.Fatalf("ReadSeekTable: %v", err)
	}
	if len(remainder) != 0 {
		t.Fatalf("remainder = %d, want 0", len(remainder))
	}

	wantRes, err := s.Offset(9)
	if err != nil {
		t.Fatalf("original Offset(9): %v", err)
	}
	gotRes, err := got.Offset(9)
	if err != nil {
		t.Fatalf("round-tripped Offset(9): %v", err)
	}
	if gotRes != wantRes {
		t.Fatalf("round-tripped seek table diverged: got %+v, want %+v", gotRes, wantRes)
	}
}

// TestMetadataPrefixConcatenation checks that the three serialisers chain
// together in the order the demuxer's buildMetadataPrefix writes them and
// can be parsed back in the same order.
func TestMetadataPrefixConcatenation(t *testing.T) {
	info := Mpeg4Info{CodecName: "mp4a", SampleRate: 48000, Timescale: 48000, Channels: 2, BitDepth: 16}
	sizes := NewSampleSizeTable(2, 0)
	sizes.Append(100)
	sizes.Append(200)
	seek := NewSeekTable()
	seek.AddChunkRun(1, 2, 1)
	seek.AddSampleRun(2, 1)
	seek.AddOffset(500)

	var buf []byte
	buf, err := NewMpeg4InfoWriter(info).Write(buf)
	if err != nil {
		t.Fatalf("Write info: %v", err)
	}
	buf = WriteSampleSizeTable(buf, sizes)
	buf = WriteSeekTable(buf, seek)

	gotInfo, rest, err := (Mpeg4InfoReader{}).Read(buf)
	if err != nil {
		t.Fatalf("Read info: %v", err)
	}
	if gotInfo.CodecName != "mp4a" {
		t.Fatalf("CodecName = %q, want mp4a", gotInfo.CodecName)
	}
	gotSizes, rest, err := ReadSampleSizeTable(rest)
	if err != nil {
		t.Fatalf("ReadSampleSizeTable: %v", err)
	}
	if gotSizes.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", gotSizes.Count())
	}
	gotSeek, rest, err := ReadSeekTable(rest)
	if err != nil {
		t.Fatalf("ReadSeekTable: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("trailing bytes after chained parse: %d", len(rest))
	}
	res, err := gotSeek.Offset(0)
	if err != nil || res.ByteOffset != 500 {
		t.Fatalf("Offset(0) = (%+v, %v), want ByteOffset 500", res, err)
	}
}
