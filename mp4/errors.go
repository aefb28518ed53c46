// Package mp4 implements a streaming MPEG-4 (ISO BMFF) container demuxer:
// a box-processor state machine that consumes encoded audio fragments from
// an upstream cache and emits codec frames prefixed by a synthesised
// metadata block, with optional CENC decryption and out-of-band moov
// retrieval for streams that place their metadata after the media data.
package mp4

import "fmt"

// ErrFileInvalid corresponds to MediaMpeg4FileInvalid: any malformed or
// out-of-spec box. The container boundary converts this into an aborted
// track; the pipeline keeps running.
var ErrFileInvalid = fmt.Errorf("mp4: invalid or unsupported container structure")

// ErrOutOfRange corresponds to MediaMpeg4OutOfRange: a seek past the end of
// the declared content.
var ErrOutOfRange = fmt.Errorf("mp4: seek target is out of range")

// ErrStreamCorrupt corresponds to CodecStreamCorrupt: a decrypt failure or
// other mid-stream fatal condition.
var ErrStreamCorrupt = fmt.Errorf("mp4: stream is corrupt")

// ErrCacheException corresponds to AudioCacheException: the out-of-band
// reader could not fulfil a byte-range request.
var ErrCacheException = fmt.Errorf("mp4: out-of-band cache request failed")

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrFileInvalid, fmt.Sprintf(format, args...))
}
