package mp4

import "audiopipeline/msg"

// walkBoxes iterates the boxes packed back-to-back in an already-buffered
// byte slice, invoking dispatch with each box's id and payload. Used for
// in-memory sub-structures (stsd sample entries) where the cost of routing
// through the streaming Cache/BoxSwitcher machinery buys nothing — the
// whole slice is already resident.
func walkBoxes(b []byte, dispatch func(id BoxID, payload []byte) error) error {
	for len(b) > 0 {
		if len(b) < 8 {
			return invalidf("box: trailing bytes too short for a header")
		}
		size := be32(b[0:4])
		if size < 8 || uint64(size) > uint64(len(b)) {
			return invalidf("box: declared size %d out of range", size)
		}
		var id BoxID
		copy(id[:], b[4:8])
		if err := dispatch(id, b[8:size]); err != nil {
			return err
		}
		b = b[size:]
	}
	return nil
}

// stsdBox parses the sample description box: the fixed
// SampleEntry/AudioSampleEntry header that gives the codec format, channel
// count, declared bit depth and sample rate, followed by zero or more
// codec-specific child boxes (esds/alac/dfLa/dOps, or schm/tenc when the
// track is CENC-protected).
type stsdBox struct {
	codecBoxes func() []BoxProcessor
	done       bool
}

func newStsdBox(codecBoxes func() []BoxProcessor) BoxProcessor {
	return &stsdBox{codecBoxes: codecBoxes}
}

func (b *stsdBox) Recognise(id BoxID) bool { return id == idOf("stsd") }

func (b *stsdBox) Set(c *Cache, payloadBytes uint32, t *Tables) error {
	buf, err := c.Inspect(int(payloadBytes))
	if err != nil {
		return err
	}
	payload := append([]byte(nil), buf...)
	if err := c.Discard(int(payloadBytes)); err != nil {
		return err
	}

	if len(payload) < 8 {
		return invalidf("stsd: payload too short")
	}
	version, _ := fullBoxHeader(payload)
	if version != 0 {
		// Deliberately strict even though some protected files in the
		// wild carry version 1.
		return invalidf("stsd: unsupported version %d", version)
	}
	entryCount := be32(payload[4:8])
	if entryCount == 0 {
		b.done = true
		return nil
	}
	rest := payload[8:]
	if len(rest) < 8 {
		return invalidf("stsd: sample entry truncated")
	}
	entrySize := be32(rest[0:4])
	if uint64(entrySize) > uint64(len(rest)) {
		return invalidf("stsd: sample entry overruns stsd payload")
	}
	var format BoxID
	copy(format[:], rest[4:8])
	t.CodecName = format

	const audioEntryFixedSize = 8 + 6 + 2 + 8 + 2 + 2 + 2 + 2 + 4
	entry := rest[8:entrySize]
	if len(entry) < audioEntryFixedSize-8 {
		return invalidf("stsd: audio sample entry truncated")
	}
	// entry here begins after the 8-byte size+format header already
	// consumed above: reserved[6], data_reference_index(2), version(2),
	// revision(2), vendor(4), channels(2), sampleSize(2),
	// compressionID(2), packetSize(2), sampleRate(4, 16.16 fixed point).
	fields := entry[6+2:]
	if len(fields) < 20 {
		return invalidf("stsd: audio sample entry fields truncated")
	}
	t.Channels = uint32(be16(fields[8:10]))
	t.BitDepth = uint32(be16(fields[10:12]))
	t.SampleRate = be32(fields[16:20]) >> 16

	children := fields[20:]
	if err := walkBoxes(children, func(id BoxID, payload []byte) error {
		for _, p := range b.codecBoxes() {
			lb, ok := p.(*leafBox)
			if !ok || !lb.Recognise(id) {
				continue
			}
			return lb.parse(payload, t)
		}
		return nil // unrecognised child box (e.g. btrt) is simply skipped
	}); err != nil {
		return err
	}
	b.done = true
	return nil
}

func (b *stsdBox) Process(c *Cache) (msg.Msg, error) { return nil, nil }
func (b *stsdBox) Complete() bool                    { return b.done }
func (b *stsdBox) Reset()                            { b.done = false }
