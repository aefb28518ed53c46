package mp4

import (
	"encoding/binary"

	"audiopipeline/msg"
)

// fullBoxHeader reads the 4-byte version+flags prefix every "full box"
// (ISO BMFF §4.2) carries ahead of its type-specific payload.
func fullBoxHeader(b []byte) (version uint8, flags uint32) {
	version = b[0]
	flags = uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return
}

func be16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func be32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func be64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// leafBox adapts a plain parse function — given the box's full payload
// already read into memory — into a BoxProcessor. Every box in this demuxer
// except mdat fits entirely in memory (they carry metadata, never audio
// bytes), so none of them need Process's mid-box suspension ability.
type leafBox struct {
	id    BoxID
	parse func(payload []byte, t *Tables) error
	done  bool
}

func newLeafBox(id string, parse func([]byte, *Tables) error) *leafBox {
	return &leafBox{id: idOf(id), parse: parse}
}

func (b *leafBox) Recognise(id BoxID) bool { return b.id == id }

func (b *leafBox) Set(c *Cache, payloadBytes uint32, t *Tables) error {
	buf, err := c.Inspect(int(payloadBytes))
	if err != nil {
		return err
	}
	payload := append([]byte(nil), buf...)
	if err := c.Discard(int(payloadBytes)); err != nil {
		return err
	}
	if err := b.parse(payload, t); err != nil {
		return err
	}
	b.done = true
	return nil
}

func (b *leafBox) Process(c *Cache) (msg.Msg, error) { return nil, nil }
func (b *leafBox) Complete() bool                    { return b.done }
func (b *leafBox) Reset()                            { b.done = false }
