package mp4

import (
	"encoding/binary"
	"errors"
	"io"

	"audiopipeline/msg"
)

// BoxID is a 4-byte MPEG-4 box type code, e.g. "moov", "stsd".
type BoxID [4]byte

func idOf(s string) BoxID {
	var id BoxID
	copy(id[:], s)
	return id
}

func (id BoxID) String() string { return string(id[:]) }

// BoxHeader is the (size, id) pair that opens every box.
type BoxHeader struct {
	Size uint32 // total box size including this 8-byte header
	ID   BoxID
}

// ReadBoxHeader pulls the next 8-byte box header from c.
func ReadBoxHeader(c *Cache) (BoxHeader, error) {
	b, err := c.Inspect(8)
	if err != nil {
		return BoxHeader{}, err
	}
	var h BoxHeader
	h.Size = binary.BigEndian.Uint32(b[0:4])
	copy(h.ID[:], b[4:8])
	if err := c.Discard(8); err != nil {
		return BoxHeader{}, err
	}
	if h.Size < 8 {
		return BoxHeader{}, invalidf("box %q declares size %d smaller than its own header", h.ID, h.Size)
	}
	return h, nil
}

// BoxProcessor is implemented by every concrete box handler
// (stsd/stts/stsc/stco/co64/stsz/mdhd/tkhd/mehd/moov/moof/traf/tfhd/trun/
// sidx/esds/alac/dfLa/dOps/schm/tenc/senc/mdat). Set is handed the whole
// payload window and is expected to read it in full via c's
// Inspect/Discard/Accumulate primitives; Process exists for the rare
// processor (mdat) that must hand a pass-through message downstream mid-box.
type BoxProcessor interface {
	Recognise(id BoxID) bool
	Set(c *Cache, payloadBytes uint32, t *Tables) error
	Process(c *Cache) (msg.Msg, error)
	Complete() bool
	Reset()
}

// BoxSwitcher reads boxes from c until payloadBytes of a parent box have
// been consumed, dispatching each to the first registered processor whose
// Recognise matches, or discarding the payload of an unrecognised box.
type BoxSwitcher struct {
	cache      *Cache
	processors []BoxProcessor
	tables     *Tables

	// active/activeID track a box whose processor suspended mid-box by
	// yielding a pass-through message (only mdat does this, at the root).
	// RunRoot resumes it on the next call instead of reading a new header.
	active   BoxProcessor
	activeID BoxID
}

func NewBoxSwitcher(cache *Cache, tables *Tables, processors ...BoxProcessor) *BoxSwitcher {
	return &BoxSwitcher{cache: cache, processors: processors, tables: tables}
}

// Run consumes exactly payloadBytes from the cache, dispatching each child
// box found within to a matching processor. It returns the first
// pass-through message a processor yields, or (nil, nil) once the whole
// payload has been consumed without one.
func (sw *BoxSwitcher) Run(payloadBytes uint32) (msg.Msg, error) {
	var consumed uint32
	for consumed < payloadBytes {
		startOffset := sw.cache.Position()
		h, err := ReadBoxHeader(sw.cache)
		if err != nil {
			return nil, err
		}
		if h.ID == idOf("moof") && sw.tables != nil {
			sw.tables.noteMoof(startOffset)
		}
		childPayload := h.Size - 8
		consumed += h.Size
		if consumed > payloadBytes {
			return nil, invalidf("box %q overruns its parent's declared size", h.ID)
		}

		proc := sw.find(h.ID)
		if proc == nil {
			if err := sw.cache.Discard(int(childPayload)); err != nil {
				return nil, err
			}
			continue
		}

		if err := proc.Set(sw.cache, childPayload, sw.tables); err != nil {
			return nil, err
		}
		for !proc.Complete() {
			m, err := proc.Process(sw.cache)
			if err != nil {
				return nil, err
			}
			if m != nil {
				return m, nil
			}
		}
		proc.Reset()
	}
	return nil, nil
}

// RunRoot drives the switcher at the root of a stream, where no enclosing
// box declares a payload size. Without a target it consumes boxes until the
// underlying source reports io.EOF (in-band parsing of an entire stream);
// with hasTarget set it stops as soon as a box matching target has been
// fully processed (out-of-band "moov" retrieval).
func (sw *BoxSwitcher) RunRoot(target BoxID, hasTarget bool) (msg.Msg, error) {
	for {
		var id BoxID
		if sw.active == nil {
			startOffset := sw.cache.Position()
			h, err := ReadBoxHeader(sw.cache)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil, nil
				}
				return nil, err
			}
			if h.ID == idOf("moof") && sw.tables != nil {
				sw.tables.noteMoof(startOffset)
			}
			childPayload := h.Size - 8

			proc := sw.find(h.ID)
			if proc == nil {
				if err := sw.cache.Discard(int(childPayload)); err != nil {
					return nil, err
				}
				if hasTarget && h.ID == target {
					return nil, invalidf("box %q matched root target but has no registered processor", h.ID)
				}
				continue
			}
			if err := proc.Set(sw.cache, childPayload, sw.tables); err != nil {
				return nil, err
			}
			sw.active = proc
			sw.activeID = h.ID
		}
		id = sw.activeID
		proc := sw.active

		for !proc.Complete() {
			m, err := proc.Process(sw.cache)
			if err != nil {
				return nil, err
			}
			if m != nil {
				return m, nil
			}
		}
		proc.Reset()
		sw.active = nil
		if hasTarget && id == target {
			return nil, nil
		}
	}
}

func (sw *BoxSwitcher) find(id BoxID) BoxProcessor {
	for _, p := range sw.processors {
		if p.Recognise(id) {
			return p
		}
	}
	return nil
}

// containerBox implements BoxProcessor for boxes that are themselves just
// a sequence of child boxes (moov, trak, mdia, minf, stbl, mvex, moof,
// traf) — it recurses a BoxSwitcher built from the same registered leaf
// processors over its own payload.
type containerBox struct {
	ids        []BoxID
	children   func() []BoxProcessor
	pendingMsg msg.Msg
	done       bool
}

func newContainerBox(children func() []BoxProcessor, ids ...string) *containerBox {
	b := &containerBox{children: children}
	for _, s := range ids {
		b.ids = append(b.ids, idOf(s))
	}
	return b
}

func (b *containerBox) Recognise(id BoxID) bool {
	for _, want := range b.ids {
		if want == id {
			return true
		}
	}
	return false
}

func (b *containerBox) Set(c *Cache, payloadBytes uint32, t *Tables) error {
	sw := NewBoxSwitcher(c, t, b.children()...)
	m, err := sw.Run(payloadBytes)
	b.pendingMsg = m
	b.done = true
	return err
}

func (b *containerBox) Process(c *Cache) (msg.Msg, error) { return b.pendingMsg, nil }
func (b *containerBox) Complete() bool                    { return b.done }
func (b *containerBox) Reset()                            { b.pendingMsg = nil; b.done = false }
