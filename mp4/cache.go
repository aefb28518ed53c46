package mp4

import "audiopipeline/msg"

// AudioEncodedSource is the upstream supplier of encoded fragments the
// cache pulls from — ordinarily a pipeline element's queue, or, for
// out-of-band metadata retrieval, an Mpeg4OutOfBandReader.
type AudioEncodedSource interface {
	Pull() (*msg.MsgAudioEncoded, error)
}

// Cache coalesces a stream of MsgAudioEncoded fragments into one
// peekable/discardable byte stream, giving box processors the
// Inspect(n)/Discard(n)/Accumulate(n) primitives the container
// architecture is built on. It tracks its absolute stream position so
// box processors can record byte offsets (stco/co64/sidx).
type Cache struct {
	source   AudioEncodedSource
	factory  *msg.Factory
	buf      []byte
	position uint64
}

// NewCache wraps source. factory is used by Accumulate, to hand a caller a
// coalesced fragment as a proper pooled MsgAudioEncoded, and is handed out
// by Factory to box processors that mint their own messages.
func NewCache(source AudioEncodedSource, factory *msg.Factory) *Cache {
	return &Cache{source: source, factory: factory}
}

// Position returns the absolute byte offset of the next unread byte.
func (c *Cache) Position() uint64 { return c.position }

// Factory returns the pooled-message factory this cache hands completed
// fragments through, for box processors (mdat) that need to mint a
// replacement MsgAudioEncoded after CENC decryption.
func (c *Cache) Factory() *msg.Factory { return c.factory }

func (c *Cache) fill(n int) error {
	for len(c.buf) < n {
		m, err := c.source.Pull()
		if err != nil {
			return err
		}
		c.buf = append(c.buf, m.Bytes()...)
		m.RemoveRef()
	}
	return nil
}

// Inspect returns the next n bytes without consuming them, pulling more
// fragments from the source as needed.
func (c *Cache) Inspect(n int) ([]byte, error) {
	if err := c.fill(n); err != nil {
		return nil, err
	}
	return c.buf[:n], nil
}

// Discard consumes and drops the next n bytes.
func (c *Cache) Discard(n int) error {
	if err := c.fill(n); err != nil {
		return err
	}
	c.buf = c.buf[n:]
	c.position += uint64(n)
	return nil
}

// Accumulate consumes the next n bytes and returns them coalesced into a
// single pooled MsgAudioEncoded, for handing a complete codec sample
// downstream without the caller seeing fragment boundaries.
func (c *Cache) Accumulate(n int) (*msg.MsgAudioEncoded, error) {
	b, err := c.Inspect(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	if err := c.Discard(n); err != nil {
		return nil, err
	}
	return c.factory.CreateAudioEncoded(out), nil
}
