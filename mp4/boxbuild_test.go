package mp4

import "encoding/binary"

// The helpers in this file assemble raw ISO BMFF box bytes for tests —
// small, hand-built fixtures rather than real encoder output, since only
// the handful of fields each box processor actually reads need to be
// correct.

func bU32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

func bU16(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}

func bU64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// box wraps payload in a box header of the given 4-char id.
func box(id string, payload []byte) []byte {
	out := make([]byte, 0, 8+len(payload))
	out = append(out, bU32(uint32(8+len(payload)))...)
	out = append(out, []byte(id)...)
	out = append(out, payload...)
	return out
}

// fullBoxPayload prepends the version+flags prefix every full box carries.
func fullBoxPayload(version uint8, flags uint32, rest []byte) []byte {
	out := make([]byte, 0, 4+len(rest))
	out = append(out, version, byte(flags>>16), byte(flags>>8), byte(flags))
	out = append(out, rest...)
	return out
}

func mdhdBoxBytes(timescale uint32, duration uint64) []byte {
	rest := make([]byte, 0, 16)
	rest = append(rest, bU32(0)...) // creation_time
	rest = append(rest, bU32(0)...) // modification_time
	rest = append(rest, bU32(timescale)...)
	rest = append(rest, bU32(uint32(duration))...)
	return box("mdhd", fullBoxPayload(0, 0, rest))
}

func stszBoxUniform(size uint32, count uint32) []byte {
	rest := append(bU32(size), bU32(count)...)
	return box("stsz", fullBoxPayload(0, 0, rest))
}

func stszBoxExplicit(sizes []uint32) []byte {
	rest := append(bU32(0), bU32(uint32(len(sizes)))...)
	for _, s := range sizes {
		rest = append(rest, bU32(s)...)
	}
	return box("stsz", fullBoxPayload(0, 0, rest))
}

func stscBoxBytes(runs [][3]uint32) []byte {
	rest := bU32(uint32(len(runs)))
	for _, r := range runs {
		rest = append(rest, bU32(r[0])...)
		rest = append(rest, bU32(r[1])...)
		rest = append(rest, bU32(r[2])...)
	}
	return box("stsc", fullBoxPayload(0, 0, rest))
}

func sttsBoxBytes(runs [][2]uint32) []byte {
	rest := bU32(uint32(len(runs)))
	for _, r := range runs {
		rest = append(rest, bU32(r[0])...)
		rest = append(rest, bU32(r[1])...)
	}
	return box("stts", fullBoxPayload(0, 0, rest))
}

func stcoBoxBytes(offsets []uint32) []byte {
	rest := bU32(uint32(len(offsets)))
	for _, o := range offsets {
		rest = append(rest, bU32(o)...)
	}
	return box("stco", fullBoxPayload(0, 0, rest))
}

// sampleEntryBytes builds one stsd AudioSampleEntry, including its own
// 8-byte size+format header, with format-specific children appended after
// the fixed 20-byte audio fields.
func sampleEntryBytes(format string, channels, sampleSize uint16, sampleRateFixed uint32, children []byte) []byte {
	entrySize := uint32(8 + 6 + 2 + 20 + len(children))
	out := make([]byte, 0, entrySize)
	out = append(out, bU32(entrySize)...)
	out = append(out, []byte(format)...)
	out = append(out, make([]byte, 6)...) // reserved
	out = append(out, bU16(1)...)         // data_reference_index
	out = append(out, bU16(0)...)         // version
	out = append(out, bU16(0)...)         // revision
	out = append(out, make([]byte, 4)...) // vendor
	out = append(out, bU16(channels)...)
	out = append(out, bU16(sampleSize)...)
	out = append(out, bU16(0)...) // compressionID
	out = append(out, bU16(0)...) // packetSize
	out = append(out, bU32(sampleRateFixed)...)
	out = append(out, children...)
	return out
}

func stsdBoxBytes(entry []byte) []byte {
	rest := append(bU32(1), entry...) // entry_count = 1
	return box("stsd", fullBoxPayload(0, 0, rest))
}

func esdsBoxBytes(descriptor []byte) []byte {
	return box("esds", fullBoxPayload(0, 0, descriptor))
}

func stblBoxBytes(children ...[]byte) []byte {
	var payload []byte
	for _, c := range children {
		payload = append(payload, c...)
	}
	return box("stbl", payload)
}

func containerBoxBytes(id string, children ...[]byte) []byte {
	var payload []byte
	for _, c := range children {
		payload = append(payload, c...)
	}
	return box(id, payload)
}

func schmBoxBytes(scheme string) []byte {
	rest := []byte(scheme)          // scheme_type
	rest = append(rest, bU32(0)...) // scheme_version
	return box("schm", fullBoxPayload(0, 0, rest))
}

func tencBoxBytes(keyID [16]byte, ivSize uint8) []byte {
	rest := []byte{0, 0, 0, ivSize}
	rest = append(rest, keyID[:]...)
	return box("tenc", fullBoxPayload(0, 0, rest))
}

func sencBoxBytes(ivs [][]byte) []byte {
	rest := bU32(uint32(len(ivs)))
	for _, iv := range ivs {
		rest = append(rest, iv...)
	}
	return box("senc", fullBoxPayload(0, 0, rest))
}

func tfhdBoxBytes(trackID uint32) []byte {
	rest := bU32(trackID)
	return box("tfhd", fullBoxPayload(0, 0, rest))
}

func trunBoxBytes(sizes []uint32) []byte {
	const trunSampleSizePresent = 0x000200
	rest := bU32(uint32(len(sizes)))
	for _, s := range sizes {
		rest = append(rest, bU32(s)...)
	}
	return box("trun", fullBoxPayload(0, trunSampleSizePresent, rest))
}

func sidxBoxBytes(timescale uint32, refs [][2]uint32) []byte {
	rest := bU32(0) // reference_ID
	rest = append(rest, bU32(timescale)...)
	rest = append(rest, bU32(0)...) // earliest_presentation_time
	rest = append(rest, bU32(0)...) // first_offset
	rest = append(rest, bU16(0)...) // reserved
	rest = append(rest, bU16(uint16(len(refs)))...)
	for _, r := range refs {
		rest = append(rest, bU32(r[0])...) // referenced_size
		rest = append(rest, bU32(r[1])...) // subsegment_duration
		rest = append(rest, bU32(0)...)    // sap
	}
	return box("sidx", fullBoxPayload(0, 0, rest))
}
