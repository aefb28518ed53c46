package mp4

// SampleSizeTable holds the per-codec-sample byte count, either as an
// explicit ordered sequence (one entry per sample) or, when the file
// declares every sample the same size, a single defaultSampleSize shared
// by every index.
type SampleSizeTable struct {
	defaultSize uint32
	sizes       []uint32
	capacity    int
}

// NewSampleSizeTable preallocates room for capacity explicit entries. A
// defaultSize of 0 means sizes are explicit; non-zero means every sample
// is exactly defaultSize and Append is never called.
func NewSampleSizeTable(capacity int, defaultSize uint32) *SampleSizeTable {
	return &SampleSizeTable{defaultSize: defaultSize, capacity: capacity}
}

// Append records one more explicit sample size. It fails with
// ErrFileInvalid if the table was declared to hold a uniform
// defaultSampleSize, or if capacity is already exhausted.
func (t *SampleSizeTable) Append(size uint32) error {
	if t.defaultSize != 0 {
		return invalidf("stsz: Append called on a uniform-size table")
	}
	if len(t.sizes) >= t.capacity {
		return invalidf("stsz: sample count exceeds declared capacity %d", t.capacity)
	}
	t.sizes = append(t.sizes, size)
	return nil
}

// Size returns the byte size of the sample at the given zero-based index.
func (t *SampleSizeTable) Size(index int) (uint32, error) {
	if t.defaultSize != 0 {
		return t.defaultSize, nil
	}
	if index < 0 || index >= len(t.sizes) {
		return 0, ErrOutOfRange
	}
	return t.sizes[index], nil
}

// Count returns the number of samples the table describes.
func (t *SampleSizeTable) Count() int {
	if t.defaultSize != 0 {
		return t.capacity
	}
	return len(t.sizes)
}

// chunkRun is one stsc entry: starting at FirstChunk (1-based, matching
// the box's own convention), each chunk holds SamplesPerChunk codec
// samples described by SampleDescriptionIndex.
type chunkRun struct {
	FirstChunk             uint32
	SamplesPerChunk        uint32
	SampleDescriptionIndex uint32
}

// sampleRun is one stts entry: SampleCount consecutive codec samples each
// span AudioSamplesPerSample decoded audio samples.
type sampleRun struct {
	SampleCount           uint32
	AudioSamplesPerSample uint32
}

// SeekTable maps an audio-sample position to the byte offset of the chunk
// that contains it, for classically chunked (stsc/stco) streams, or maps a
// segment index to a byte offset for sidx-fragmented streams. A given
// instance is populated as one or the other, never both.
type SeekTable struct {
	chunkRuns  []chunkRun
	sampleRuns []sampleRun
	offsets    []uint64

	fragmented        bool
	firstMoofOffset   uint64
	segmentSizes      []uint64
	segmentDurations  []uint64 // whole seconds (duration / timescale); truncating division per sidx's own lossy convention
}

func NewSeekTable() *SeekTable { return &SeekTable{} }

// AddChunkRun appends one stsc run-length entry.
func (s *SeekTable) AddChunkRun(firstChunk, samplesPerChunk, sampleDescriptionIndex uint32) {
	s.chunkRuns = append(s.chunkRuns, chunkRun{firstChunk, samplesPerChunk, sampleDescriptionIndex})
}

// AddSampleRun appends one stts run-length entry.
func (s *SeekTable) AddSampleRun(sampleCount, audioSamplesPerSample uint32) {
	s.sampleRuns = append(s.sampleRuns, sampleRun{sampleCount, audioSamplesPerSample})
}

// AddOffset appends one stco/co64 per-chunk byte offset, in chunk order.
func (s *SeekTable) AddOffset(offset uint64) {
	s.offsets = append(s.offsets, offset)
}

// StartFragmented switches the table into sidx segment mode, anchored at
// the byte offset of the first moof box observed in the stream.
func (s *SeekTable) StartFragmented(firstMoofOffset uint64) {
	s.fragmented = true
	s.firstMoofOffset = firstMoofOffset
}

// AddSegment appends one sidx segment's size in bytes along with its
// duration in whole seconds (subsegment duration divided by the timescale)
// — any fractional remainder is discarded, a lossy conversion preserved
// as-is.
func (s *SeekTable) AddSegment(sizeBytes, durationUnits uint64) {
	s.segmentSizes = append(s.segmentSizes, sizeBytes)
	s.segmentDurations = append(s.segmentDurations, durationUnits)
}

// SegmentCount returns the number of sidx segments recorded.
func (s *SeekTable) SegmentCount() int { return len(s.segmentSizes) }

// codecSampleForAudio maps an audio-sample position to a codec-sample
// index by walking the stts run-length table.
func (s *SeekTable) codecSampleForAudio(audioSample uint64) (codecSample uint64, err error) {
	var audioSeen uint64
	var codecSeen uint64
	for _, run := range s.sampleRuns {
		span := uint64(run.SampleCount) * uint64(run.AudioSamplesPerSample)
		if audioSample < audioSeen+span {
			if run.AudioSamplesPerSample == 0 {
				return 0, invalidf("stts: zero-length audio run")
			}
			within := (audioSample - audioSeen) / uint64(run.AudioSamplesPerSample)
			return codecSeen + within, nil
		}
		audioSeen += span
		codecSeen += uint64(run.SampleCount)
	}
	return 0, ErrOutOfRange
}

// chunkForCodecSample maps a codec-sample index to a zero-based chunk
// index by walking the stsc run-length table, returning also the codec
// sample index at the start of that chunk.
func (s *SeekTable) chunkForCodecSample(codecSample uint64) (chunkIndex int, chunkStartSample uint64, err error) {
	if len(s.chunkRuns) == 0 {
		return 0, 0, invalidf("stsc: no chunk runs declared")
	}
	var sampleCursor uint64
	for i, run := range s.chunkRuns {
		var chunksInRun uint32
		if i+1 < len(s.chunkRuns) {
			chunksInRun = s.chunkRuns[i+1].FirstChunk - run.FirstChunk
		} else {
			// Last run spans every remaining chunk we have offsets for.
			remaining := uint32(len(s.offsets)) - (run.FirstChunk - 1)
			chunksInRun = remaining
		}
		runSamples := uint64(chunksInRun) * uint64(run.SamplesPerChunk)
		if codecSample < sampleCursor+runSamples {
			offsetWithinRun := codecSample - sampleCursor
			chunkOffsetInRun := offsetWithinRun / uint64(run.SamplesPerChunk)
			sampleAtChunkStart := sampleCursor + chunkOffsetInRun*uint64(run.SamplesPerChunk)
			absoluteChunk := int(run.FirstChunk-1) + int(chunkOffsetInRun)
			return absoluteChunk, sampleAtChunkStart, nil
		}
		sampleCursor += runSamples
	}
	return 0, 0, ErrOutOfRange
}

// SeekResult is the outcome of a classic chunked seek.
type SeekResult struct {
	ByteOffset uint64
	// AudioSample is the exact audio sample the chunk begins at, which may
	// be earlier than the requested position — callers discard leading
	// samples to reach the exact target.
	AudioSample uint64
}

// Offset implements the four-step seek algorithm: map the requested audio
// sample to a codec sample via stts, the codec sample to a chunk via stsc,
// and look up that chunk's byte offset. It returns ErrOutOfRange if the
// sample lies beyond every declared run.
func (s *SeekTable) Offset(audioSample uint64) (SeekResult, error) {
	if s.fragmented {
		return SeekResult{}, invalidf("Offset called on a fragmented (sidx) seek table")
	}
	codecSample, err := s.codecSampleForAudio(audioSample)
	if err != nil {
		return SeekResult{}, err
	}
	chunkIndex, chunkStartCodecSample, err := s.chunkForCodecSample(codecSample)
	if err != nil {
		return SeekResult{}, err
	}
	if chunkIndex < 0 || chunkIndex >= len(s.offsets) {
		return SeekResult{}, ErrOutOfRange
	}
	chunkStartAudioSample, err := s.audioSampleForCodec(chunkStartCodecSample)
	if err != nil {
		return SeekResult{}, err
	}
	return SeekResult{ByteOffset: s.offsets[chunkIndex], AudioSample: chunkStartAudioSample}, nil
}

// audioSampleForCodec is the inverse of codecSampleForAudio, used to
// report back the exact audio sample a chunk boundary lands on.
func (s *SeekTable) audioSampleForCodec(codecSample uint64) (uint64, error) {
	var audioSeen uint64
	var codecSeen uint64
	for _, run := range s.sampleRuns {
		if codecSample < codecSeen+uint64(run.SampleCount) {
			within := codecSample - codecSeen
			return audioSeen + within*uint64(run.AudioSamplesPerSample), nil
		}
		audioSeen += uint64(run.SampleCount) * uint64(run.AudioSamplesPerSample)
		codecSeen += uint64(run.SampleCount)
	}
	return 0, ErrOutOfRange
}

// SegmentOffset returns the absolute byte offset of the sidx segment at
// segmentIndex: firstMoofOffset plus the cumulative size of every earlier
// segment. Matches the fragmented seek path exercised when TrySeek is
// given a segment index rather than an audio sample.
func (s *SeekTable) SegmentOffset(segmentIndex int) (uint64, error) {
	if !s.fragmented {
		return 0, invalidf("SegmentOffset called on a non-fragmented seek table")
	}
	if segmentIndex < 0 || segmentIndex >= len(s.segmentSizes) {
		return 0, ErrOutOfRange
	}
	offset := s.firstMoofOffset
	for i := 0; i < segmentIndex; i++ {
		offset += s.segmentSizes[i]
	}
	return offset, nil
}
