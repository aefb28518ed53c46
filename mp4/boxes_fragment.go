package mp4

// Track fragment header flag bits (ISO BMFF §8.8.7).
const (
	tfhdBaseDataOffsetPresent       = 0x000001
	tfhdSampleDescriptionIndexFlag  = 0x000002
	tfhdDefaultSampleDurationFlag   = 0x000008
	tfhdDefaultSampleSizeFlag       = 0x000010
	tfhdDefaultSampleFlagsFlag      = 0x000020
)

// newTfhdBox parses the track fragment header's optional fields, seeding
// Tables.DefaultSampleSize/DefaultSampleDuration/BaseDataOffset that the
// following trun (and, transitively, mdat) reads against.
func newTfhdBox() BoxProcessor {
	return newLeafBox("tfhd", func(b []byte, t *Tables) error {
		if len(b) < 8 {
			return invalidf("tfhd: payload too short")
		}
		_, flags := fullBoxHeader(b)
		t.TrackID = be32(b[4:8])
		b = b[8:]

		t.BaseDataOffset = 0
		t.DefaultSampleDuration = 0
		t.DefaultSampleSize = 0

		if flags&tfhdBaseDataOffsetPresent != 0 {
			if len(b) < 8 {
				return invalidf("tfhd: base-data-offset truncated")
			}
			t.BaseDataOffset = be64(b[0:8])
			b = b[8:]
		}
		if flags&tfhdSampleDescriptionIndexFlag != 0 {
			if len(b) < 4 {
				return invalidf("tfhd: sample-description-index truncated")
			}
			b = b[4:]
		}
		if flags&tfhdDefaultSampleDurationFlag != 0 {
			if len(b) < 4 {
				return invalidf("tfhd: default-sample-duration truncated")
			}
			t.DefaultSampleDuration = be32(b[0:4])
			b = b[4:]
		}
		if flags&tfhdDefaultSampleSizeFlag != 0 {
			if len(b) < 4 {
				return invalidf("tfhd: default-sample-size truncated")
			}
			t.DefaultSampleSize = be32(b[0:4])
			b = b[4:]
		}
		if flags&tfhdDefaultSampleFlagsFlag != 0 {
			if len(b) < 4 {
				return invalidf("tfhd: default-sample-flags truncated")
			}
		}
		return nil
	})
}

// Track fragment run flag bits (ISO BMFF §8.8.8).
const (
	trunDataOffsetPresent         = 0x000001
	trunFirstSampleFlagsPresent   = 0x000004
	trunSampleDurationPresent     = 0x000100
	trunSampleSizePresent         = 0x000200
	trunSampleFlagsPresent        = 0x000400
	trunSampleCompositionTimeFlag = 0x000800
)

// newTrunBox parses a track fragment run's per-sample sizes, appending
// each to Tables.SampleSizes (falling back to DefaultSampleSize from tfhd
// when a run omits explicit sizes) so mdat can read exactly as many bytes
// as each sample declares.
func newTrunBox() BoxProcessor {
	return newLeafBox("trun", func(b []byte, t *Tables) error {
		if len(b) < 8 {
			return invalidf("trun: payload too short")
		}
		_, flags := fullBoxHeader(b)
		sampleCount := be32(b[4:8])
		b = b[8:]

		if flags&trunDataOffsetPresent != 0 {
			if len(b) < 4 {
				return invalidf("trun: data-offset truncated")
			}
			b = b[4:]
		}
		if flags&trunFirstSampleFlagsPresent != 0 {
			if len(b) < 4 {
				return invalidf("trun: first-sample-flags truncated")
			}
			b = b[4:]
		}

		if t.SampleSizes == nil {
			t.SampleSizes = NewSampleSizeTable(int(sampleCount), 0)
		}
		for i := uint32(0); i < sampleCount; i++ {
			size := t.DefaultSampleSize
			if flags&trunSampleDurationPresent != 0 {
				if len(b) < 4 {
					return invalidf("trun: sample %d duration truncated", i)
				}
				b = b[4:]
			}
			if flags&trunSampleSizePresent != 0 {
				if len(b) < 4 {
					return invalidf("trun: sample %d size truncated", i)
				}
				size = be32(b[0:4])
				b = b[4:]
			}
			if flags&trunSampleFlagsPresent != 0 {
				if len(b) < 4 {
					return invalidf("trun: sample %d flags truncated", i)
				}
				b = b[4:]
			}
			if flags&trunSampleCompositionTimeFlag != 0 {
				if len(b) < 4 {
					return invalidf("trun: sample %d composition-time truncated", i)
				}
				b = b[4:]
			}
			if err := t.SampleSizes.Append(size); err != nil {
				return err
			}
		}
		return nil
	})
}

// newSidxBox parses a segment index box into Tables.Seek's fragmented
// segment list: one (size, duration) pair per referenced segment.
// Segment duration is recorded in whole seconds (the subsegment duration
// divided by the timescale), discarding the fractional remainder.
func newSidxBox() BoxProcessor {
	return newLeafBox("sidx", func(b []byte, t *Tables) error {
		if len(b) < 4 {
			return invalidf("sidx: payload too short")
		}
		version, _ := fullBoxHeader(b)
		b = b[4:]
		if len(b) < 8 {
			return invalidf("sidx: payload too short")
		}
		timescale := be32(b[4:8])
		b = b[8:]

		var firstOffsetSize int
		if version == 0 {
			firstOffsetSize = 8 // earliest_presentation_time(4) + first_offset(4)
		} else {
			firstOffsetSize = 16 // earliest_presentation_time(8) + first_offset(8)
		}
		if len(b) < firstOffsetSize+2+2 {
			return invalidf("sidx: payload too short")
		}
		b = b[firstOffsetSize:]
		b = b[2:] // reserved
		refCount := be16(b[0:2])
		b = b[2:]

		if len(b) < int(refCount)*12 {
			return invalidf("sidx: reference table truncated")
		}
		for i := uint16(0); i < refCount; i++ {
			e := b[i*12 : i*12+12]
			referencedSize := be32(e[0:4]) & 0x7fffffff
			subSegmentDuration := be32(e[4:8])
			var segmentDuration uint64
			if timescale != 0 {
				segmentDuration = uint64(subSegmentDuration) / uint64(timescale)
			}
			t.Seek.AddSegment(uint64(referencedSize), segmentDuration)
		}
		return nil
	})
}
