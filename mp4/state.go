package mp4

// Tables is the shared parse state every box processor reads from and
// writes into as a BoxSwitcher walks a stream's box tree. One Tables
// instance lives for the lifetime of a single track/stream being demuxed.
type Tables struct {
	// Timescale and DurationUnits come from mdhd (or mehd for fragmented
	// streams where mdhd's duration is unreliable).
	Timescale     uint32
	DurationUnits uint64
	TrackID       uint32

	// Sample description (stsd) fields.
	CodecName   BoxID
	SampleRate  uint32
	BitDepth    uint32
	Channels    uint32
	Descriptor  []byte
	Protected   bool

	SampleSizes *SampleSizeTable
	Seek        *SeekTable

	// CENC (schm/tenc/senc).
	Scheme   BoxID
	KeyID    [16]byte
	IVSize   int
	IVs      [][]byte

	// Fragmented-stream (moof/traf/tfhd/trun) working state, reset by
	// each tfhd box.
	DefaultSampleSize     uint32
	DefaultSampleDuration uint32
	BaseDataOffset        uint64

	moofSeen bool
}

// NewTables returns an empty Tables ready for a BoxSwitcher to populate.
func NewTables() *Tables {
	return &Tables{Seek: NewSeekTable()}
}

// noteMoof anchors the fragmented seek table's first-moof offset the first
// time a "moof" box is observed at the root of the stream. startOffset is
// the byte offset of the box's own header (not its payload).
func (t *Tables) noteMoof(startOffset uint64) {
	if t.moofSeen {
		return
	}
	t.moofSeen = true
	t.Seek.StartFragmented(startOffset)
}

var cencScheme = idOf("cenc")
