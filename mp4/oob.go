package mp4

import (
	"bytes"
	"fmt"
	"io"

	"audiopipeline/msg"
)

// IContainerUrlBlockWriter is the abstract byte-range fetch the
// out-of-band reader uses to retrieve a "moov" box that was placed after
// "mdat" in the file. Concrete HTTP/range-request plumbing lives
// outside this package.
type IContainerUrlBlockWriter interface {
	TryGet(w io.Writer, url string, offset, bytes uint64) error
}

// Mpeg4OutOfBandReader implements AudioEncodedSource by pulling
// fixed-size byte ranges from the stream's own URL instead of the live
// pipeline. It is used to run a second root BoxSwitcher (RunRoot) over the file from
// the start, looking only for "moov", while normal in-band mdat reading
// stays paused.
type Mpeg4OutOfBandReader struct {
	writer    IContainerUrlBlockWriter
	factory   *msg.Factory
	uri       string
	offset    uint64
	chunkSize int
}

// NewOutOfBandReader returns a reader that starts at byte 0 of uri — the
// only offset that is always known to exist, since the demuxer has no idea
// where "moov" actually begins when it is forced to resolve metadata this
// way.
func NewOutOfBandReader(writer IContainerUrlBlockWriter, factory *msg.Factory, uri string) *Mpeg4OutOfBandReader {
	return &Mpeg4OutOfBandReader{writer: writer, factory: factory, uri: uri, chunkSize: msg.MaxEncodedBytes}
}

// Pull fetches the next chunk starting at the reader's current cursor.
func (r *Mpeg4OutOfBandReader) Pull() (*msg.MsgAudioEncoded, error) {
	var buf bytes.Buffer
	if err := r.writer.TryGet(&buf, r.uri, r.offset, uint64(r.chunkSize)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCacheException, err)
	}
	if buf.Len() == 0 {
		return nil, io.EOF
	}
	data := buf.Bytes()
	r.offset += uint64(len(data))
	return r.factory.CreateAudioEncoded(data), nil
}
