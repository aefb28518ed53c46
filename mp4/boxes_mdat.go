package mp4

import (
	"fmt"

	"audiopipeline/msg"
)

// mdatBox reads one codec sample at a time out of the media data box,
// sized against Tables.SampleSizes, decrypting it first if the track is
// CENC-protected. It is the one BoxProcessor that legitimately
// yields a pass-through message mid-box, once per sample, since a sample
// may itself span several MsgAudioEncoded fragments from upstream.
type mdatBox struct {
	drm    IMpegDRMProvider
	tables *Tables

	payloadBytes uint32
	consumed     uint32
	sampleIndex  int
	done         bool
}

func newMdatBox(drm IMpegDRMProvider) BoxProcessor {
	return &mdatBox{drm: drm}
}

func (b *mdatBox) Recognise(id BoxID) bool { return id == idOf("mdat") }

func (b *mdatBox) Set(c *Cache, payloadBytes uint32, t *Tables) error {
	b.tables = t
	b.payloadBytes = payloadBytes
	b.consumed = 0
	b.sampleIndex = 0
	b.done = payloadBytes == 0
	return nil
}

func (b *mdatBox) Process(c *Cache) (msg.Msg, error) {
	t := b.tables
	if t == nil || t.SampleSizes == nil {
		return nil, invalidf("mdat: no sample-size table available")
	}
	if b.sampleIndex >= t.SampleSizes.Count() || b.consumed >= b.payloadBytes {
		b.done = true
		return nil, nil
	}

	size, err := t.SampleSizes.Size(b.sampleIndex)
	if err != nil {
		return nil, err
	}
	if b.consumed+size > b.payloadBytes {
		return nil, invalidf("mdat: sample %d overruns mdat payload", b.sampleIndex)
	}

	encoded, err := c.Accumulate(int(size))
	if err != nil {
		return nil, err
	}

	var out *msg.MsgAudioEncoded
	if t.Protected {
		if b.drm == nil {
			encoded.RemoveRef()
			return nil, fmt.Errorf("%w: protected content with no DRM provider", ErrStreamCorrupt)
		}
		if b.sampleIndex >= len(t.IVs) {
			encoded.RemoveRef()
			return nil, fmt.Errorf("%w: missing IV for sample %d", ErrStreamCorrupt, b.sampleIndex)
		}
		plain := make([]byte, size)
		err := b.drm.Decrypt(t.KeyID, encoded.Bytes(), t.IVs[b.sampleIndex], plain)
		encoded.RemoveRef()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrStreamCorrupt, err)
		}
		out = c.Factory().CreateAudioEncoded(plain)
	} else {
		out = encoded
	}

	b.consumed += size
	b.sampleIndex++
	if b.sampleIndex >= t.SampleSizes.Count() || b.consumed >= b.payloadBytes {
		b.done = true
	}
	return out, nil
}

func (b *mdatBox) Complete() bool { return b.done }

func (b *mdatBox) Reset() {
	b.payloadBytes = 0
	b.consumed = 0
	b.sampleIndex = 0
	b.done = false
}
