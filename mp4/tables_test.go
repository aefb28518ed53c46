package mp4

import "testing"

// TestSeekTableOffsetRoundTrip exercises the four-step classic seek (stts
// then stsc then stco) and checks that seeking again to the audio sample a
// first seek returned reproduces the same chunk start.
func TestSeekTableOffsetRoundTrip(t *testing.T) {
	s := NewSeekTable()
	// Two chunks of 4 samples each, 1 audio sample per codec sample.
	s.AddChunkRun(1, 4, 1)
	s.AddSampleRun(8, 1)
	s.AddOffset(1000)
	s.AddOffset(2000)

	res, err := s.Offset(5)
	if err != nil {
		t.Fatalf("Offset(5): %v", err)
	}
	if res.ByteOffset != 2000 {
		t.Fatalf("ByteOffset = %d, want 2000", res.ByteOffset)
	}
	if res.AudioSample != 4 {
		t.Fatalf("AudioSample = %d, want 4", res.AudioSample)
	}

	again, err := s.Offset(res.AudioSample)
	if err != nil {
		t.Fatalf("re-seek: %v", err)
	}
	if again.ByteOffset != res.ByteOffset || again.AudioSample != res.AudioSample {
		t.Fatalf("re-seek did not reproduce original result: %+v vs %+v", again, res)
	}

	if _, err := s.Offset(8); err != ErrOutOfRange {
		t.Fatalf("Offset(8) (past end) = %v, want ErrOutOfRange", err)
	}
}

func TestSeekTableOffsetMultipleRuns(t *testing.T) {
	s := NewSeekTable()
	// stsc: chunk 1 holds 2 samples, chunk 2 onward holds 3.
	s.AddChunkRun(1, 2, 1)
	s.AddChunkRun(2, 3, 1)
	// stts: 2 samples @ 2 units/sample then 3 samples @ 1 unit/sample.
	s.AddSampleRun(2, 2)
	s.AddSampleRun(3, 1)
	s.AddOffset(100)
	s.AddOffset(200)

	// Audio sample 4 -> codec sample 2 (2 samples of span 2 = audio 0..3,
	// codec sample 2 starts chunk 2) -> chunk index 1 -> offset 200.
	res, err := s.Offset(4)
	if err != nil {
		t.Fatalf("Offset(4): %v", err)
	}
	if res.ByteOffset != 200 {
		t.Fatalf("ByteOffset = %d, want 200", res.ByteOffset)
	}
	if res.AudioSample != 4 {
		t.Fatalf("AudioSample = %d, want 4", res.AudioSample)
	}
}

// TestSeekTableSegmentOffset: a 3-segment sidx stream where seeking to
// segment 2 resolves to firstMoofOffset plus the cumulative size of
// segments 0 and 1.
func TestSeekTableSegmentOffset(t *testing.T) {
	s := NewSeekTable()
	s.StartFragmented(500)
	s.AddSegment(1000, 10)
	s.AddSegment(1500, 10)
	s.AddSegment(2000, 10)

	if s.SegmentCount() != 3 {
		t.Fatalf("SegmentCount() = %d, want 3", s.SegmentCount())
	}

	off, err := s.SegmentOffset(2)
	if err != nil {
		t.Fatalf("SegmentOffset(2): %v", err)
	}
	want := uint64(500 + 1000 + 1500)
	if off != want {
		t.Fatalf("SegmentOffset(2) = %d, want %d", off, want)
	}

	if _, err := s.Offset(0); err == nil {
		t.Fatalf("Offset on a fragmented table should fail")
	}
	if _, err := s.SegmentOffset(4); err != ErrOutOfRange {
		t.Fatalf("SegmentOffset(4) = %v, want ErrOutOfRange", err)
	}
}

func TestSampleSizeTableUniform(t *testing.T) {
	tbl := NewSampleSizeTable(3, 42)
	if tbl.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", tbl.Count())
	}
	size, err := tbl.Size(1)
	if err != nil || size != 42 {
		t.Fatalf("Size(1) = (%d, %v), want (42, nil)", size, err)
	}
	if err := tbl.Append(7); err == nil {
		t.Fatalf("Append on a uniform table should fail")
	}
}

func TestSampleSizeTableExplicit(t *testing.T) {
	tbl := NewSampleSizeTable(2, 0)
	if err := tbl.Append(10); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := tbl.Append(20); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := tbl.Append(30); err == nil {
		t.Fatalf("Append past capacity should fail")
	}
	size, err := tbl.Size(0)
	if err != nil || size != 10 {
		t.Fatalf("Size(0) = (%d, %v), want (10, nil)", size, err)
	}
	if _, err := tbl.Size(5); err != ErrOutOfRange {
		t.Fatalf("Size(5) = %v, want ErrOutOfRange", err)
	}
}
