package mp4

import (
	"errors"
	"io"

	"audiopipeline/msg"
)

// Demuxer drives a single MPEG-4 stream end to end: it parses the
// box tree, resolving metadata out-of-band if "mdat" precedes "moov", then
// emits the synthesised metadata prefix followed by one
// MsgAudioEncoded per codec sample, decrypting first when the track is
// CENC-protected.
type Demuxer struct {
	cache   *Cache
	factory *msg.Factory
	tables  *Tables

	moov BoxProcessor
	moof BoxProcessor
	sidx BoxProcessor
	mdat BoxProcessor

	blockWriter IContainerUrlBlockWriter
	uri         string

	metadataPrefix [][]byte
	prefixIndex    int

	active   BoxProcessor
	activeID BoxID
}

// NewDemuxer builds a Demuxer reading in-band data from source. blockWriter
// and uri may be zero-valued if the caller knows the stream never places
// "moov" after "mdat" — out-of-band resolution is only attempted if it is
// actually needed.
func NewDemuxer(source AudioEncodedSource, factory *msg.Factory, drm IMpegDRMProvider, blockWriter IContainerUrlBlockWriter, uri string) *Demuxer {
	tables := NewTables()
	moof, sidx, mdat := NewMoofProcessors(drm)
	return &Demuxer{
		cache:       NewCache(source, factory),
		factory:     factory,
		tables:      tables,
		moov:        NewMoovProcessors()[0],
		moof:        moof,
		sidx:        sidx,
		mdat:        mdat,
		blockWriter: blockWriter,
		uri:         uri,
	}
}

// Tables exposes the demuxer's parse state, chiefly for tests that want to
// assert on the populated SeekTable/SampleSizeTable directly.
func (d *Demuxer) Tables() *Tables { return d.tables }

// Next returns the next message the demuxer has to emit: first the
// synthesised metadata prefix (one or more MsgAudioEncoded, chunked to
// msg.MaxEncodedBytes), then one MsgAudioEncoded per codec sample. It
// returns (nil, io.EOF) once the container is exhausted.
func (d *Demuxer) Next() (msg.Msg, error) {
	if d.tables.SampleSizes != nil && d.prefixIndex < len(d.metadataPrefix) {
		chunk := d.metadataPrefix[d.prefixIndex]
		d.prefixIndex++
		return d.factory.CreateAudioEncoded(chunk), nil
	}

	for {
		if d.active != nil {
			m, err := d.resume()
			if err != nil {
				return nil, err
			}
			if m != nil {
				return m, nil
			}
			continue
		}

		startOffset := d.cache.Position()
		h, err := ReadBoxHeader(d.cache)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, err
		}
		childPayload := h.Size - 8

		switch {
		case h.ID == idOf("moov"):
			if d.tables.SampleSizes != nil {
				// Metadata was already resolved out-of-band; re-parsing the
				// in-band copy would double every seek-table entry.
				if err := d.cache.Discard(int(childPayload)); err != nil {
					return nil, err
				}
				continue
			}
			if err := d.parseSynchronously(d.moov, childPayload); err != nil {
				return nil, err
			}
			if err := d.buildMetadataPrefix(); err != nil {
				return nil, err
			}
		case h.ID == idOf("sidx"):
			if err := d.parseSynchronously(d.sidx, childPayload); err != nil {
				return nil, err
			}
		case h.ID == idOf("moof"):
			d.tables.noteMoof(startOffset)
			if err := d.parseSynchronously(d.moof, childPayload); err != nil {
				return nil, err
			}
		case h.ID == idOf("mdat"):
			if d.tables.SampleSizes == nil {
				if err := d.resolveOutOfBand(); err != nil {
					return nil, err
				}
				if err := d.buildMetadataPrefix(); err != nil {
					return nil, err
				}
			}
			if err := d.mdat.Set(d.cache, childPayload, d.tables); err != nil {
				return nil, err
			}
			d.active = d.mdat
			d.activeID = h.ID
		default:
			if err := d.cache.Discard(int(childPayload)); err != nil {
				return nil, err
			}
		}

		if d.tables.SampleSizes != nil && len(d.metadataPrefix) > 0 && d.prefixIndex < len(d.metadataPrefix) {
			chunk := d.metadataPrefix[d.prefixIndex]
			d.prefixIndex++
			return d.factory.CreateAudioEncoded(chunk), nil
		}
	}
}

func (d *Demuxer) resume() (msg.Msg, error) {
	proc := d.active
	if proc.Complete() {
		proc.Reset()
		d.active = nil
		return nil, nil
	}
	m, err := proc.Process(d.cache)
	if err != nil {
		return nil, err
	}
	if proc.Complete() {
		proc.Reset()
		d.active = nil
	}
	return m, nil
}

func (d *Demuxer) parseSynchronously(proc BoxProcessor, payloadBytes uint32) error {
	if err := proc.Set(d.cache, payloadBytes, d.tables); err != nil {
		return err
	}
	for !proc.Complete() {
		if _, err := proc.Process(d.cache); err != nil {
			return err
		}
	}
	proc.Reset()
	return nil
}

// resolveOutOfBand is invoked the first time "mdat" is encountered before
// "moov" has been parsed: it opens a second, independent cache
// over byte-range fetches against the stream's own URL and re-runs the
// moov parser against that, starting from the beginning of the file.
func (d *Demuxer) resolveOutOfBand() error {
	if d.blockWriter == nil {
		return invalidf("mdat encountered before moov and no out-of-band reader is configured")
	}
	reader := NewOutOfBandReader(d.blockWriter, d.factory, d.uri)
	oobCache := NewCache(reader, d.factory)
	sw := NewBoxSwitcher(oobCache, d.tables, d.moov)
	if _, err := sw.RunRoot(idOf("moov"), true); err != nil {
		return err
	}
	if d.tables.SampleSizes == nil {
		return invalidf("out-of-band search reached end of stream without finding moov")
	}
	return nil
}

// buildMetadataPrefix serialises Tables into the wire format downstream
// codecs consume and slices it into msg.MaxEncodedBytes-sized chunks, run
// once per stream as soon as the sample/seek tables are available.
func (d *Demuxer) buildMetadataPrefix() error {
	if len(d.metadataPrefix) > 0 {
		return nil
	}
	t := d.tables
	info := Mpeg4Info{
		CodecName:     t.CodecName.String(),
		SampleRate:    t.SampleRate,
		Timescale:     t.Timescale,
		Channels:      t.Channels,
		BitDepth:      t.BitDepth,
		DurationUnits: t.DurationUnits,
		Descriptor:    t.Descriptor,
	}

	var buf []byte
	// fLaC carries its own stream info inline via dfLa; the prefix omits
	// the fixed header entirely for that codec.
	if t.CodecName != idOf("fLaC") {
		var err error
		buf, err = NewMpeg4InfoWriter(info).Write(buf)
		if err != nil {
			return err
		}
	}
	if t.SampleSizes != nil {
		buf = WriteSampleSizeTable(buf, t.SampleSizes)
	}
	// Opus (sample entry "Opus", configured by its dOps box) needs only the
	// sample table, not the seek table, since Opus streams in this
	// pipeline are never seekable mid-track.
	if t.CodecName != idOf("Opus") && t.Seek != nil {
		buf = WriteSeekTable(buf, t.Seek)
	}

	d.metadataPrefix = chunkBytes(buf, msg.MaxEncodedBytes)
	d.prefixIndex = 0
	return nil
}

func chunkBytes(b []byte, chunkSize int) [][]byte {
	if len(b) == 0 {
		return nil
	}
	var chunks [][]byte
	for len(b) > 0 {
		n := chunkSize
		if n > len(b) {
			n = len(b)
		}
		chunks = append(chunks, append([]byte(nil), b[:n]...))
		b = b[n:]
	}
	return chunks
}
