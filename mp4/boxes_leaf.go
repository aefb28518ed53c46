package mp4

// newMdhdBox parses the media header box: the timescale and duration that
// establish the track's own time units (distinct from, but convertible to,
// the pipeline jiffy timebase by the codec layer that reads Tables).
func newMdhdBox() BoxProcessor {
	return newLeafBox("mdhd", func(b []byte, t *Tables) error {
		if len(b) < 4 {
			return invalidf("mdhd: payload too short")
		}
		version, _ := fullBoxHeader(b)
		b = b[4:]
		switch version {
		case 0:
			if len(b) < 16 {
				return invalidf("mdhd: v0 payload too short")
			}
			t.Timescale = be32(b[8:12])
			t.DurationUnits = uint64(be32(b[12:16]))
		case 1:
			if len(b) < 28 {
				return invalidf("mdhd: v1 payload too short")
			}
			t.Timescale = be32(b[16:20])
			t.DurationUnits = be64(b[20:28])
		default:
			return invalidf("mdhd: unsupported version %d", version)
		}
		return nil
	})
}

// newTkhdBox parses just enough of the track header to recover the track
// ID, used to match this track's traf boxes in a fragmented stream.
func newTkhdBox() BoxProcessor {
	return newLeafBox("tkhd", func(b []byte, t *Tables) error {
		if len(b) < 4 {
			return invalidf("tkhd: payload too short")
		}
		version, _ := fullBoxHeader(b)
		b = b[4:]
		switch version {
		case 0:
			if len(b) < 12 {
				return invalidf("tkhd: v0 payload too short")
			}
			t.TrackID = be32(b[8:12])
		case 1:
			if len(b) < 20 {
				return invalidf("tkhd: v1 payload too short")
			}
			t.TrackID = be32(b[16:20])
		default:
			return invalidf("tkhd: unsupported version %d", version)
		}
		return nil
	})
}

// newMehdBox parses the movie extends header's fragment-mode duration,
// used only when present since it overrides mdhd's (frequently zero or
// stale) duration for fragmented streams.
func newMehdBox() BoxProcessor {
	return newLeafBox("mehd", func(b []byte, t *Tables) error {
		if len(b) < 4 {
			return invalidf("mehd: payload too short")
		}
		version, _ := fullBoxHeader(b)
		b = b[4:]
		switch version {
		case 0:
			if len(b) < 4 {
				return invalidf("mehd: v0 payload too short")
			}
			t.DurationUnits = uint64(be32(b[0:4]))
		case 1:
			if len(b) < 8 {
				return invalidf("mehd: v1 payload too short")
			}
			t.DurationUnits = be64(b[0:8])
		default:
			return invalidf("mehd: unsupported version %d", version)
		}
		return nil
	})
}

// newStszBox parses the sample size box into a SampleSizeTable: either a
// single uniform size shared by every sample, or one explicit u32 per
// sample.
func newStszBox() BoxProcessor {
	return newLeafBox("stsz", func(b []byte, t *Tables) error {
		if len(b) < 12 {
			return invalidf("stsz: payload too short")
		}
		uniform := be32(b[4:8])
		count := be32(b[8:12])
		b = b[12:]

		if uniform != 0 {
			t.SampleSizes = NewSampleSizeTable(int(count), uniform)
			return nil
		}
		if uint64(len(b)) < uint64(count)*4 {
			return invalidf("stsz: table truncated")
		}
		table := NewSampleSizeTable(int(count), 0)
		for i := uint32(0); i < count; i++ {
			if err := table.Append(be32(b[i*4 : i*4+4])); err != nil {
				return err
			}
		}
		t.SampleSizes = table
		return nil
	})
}

// newStscBox parses the sample-to-chunk run-length table.
func newStscBox() BoxProcessor {
	return newLeafBox("stsc", func(b []byte, t *Tables) error {
		if len(b) < 8 {
			return invalidf("stsc: payload too short")
		}
		count := be32(b[4:8])
		b = b[8:]
		if uint64(len(b)) < uint64(count)*12 {
			return invalidf("stsc: table truncated")
		}
		for i := uint32(0); i < count; i++ {
			e := b[i*12 : i*12+12]
			t.Seek.AddChunkRun(be32(e[0:4]), be32(e[4:8]), be32(e[8:12]))
		}
		return nil
	})
}

// newSttsBox parses the time-to-sample run-length table, which this
// demuxer reuses as the audio-sample-per-codec-sample conversion.
func newSttsBox() BoxProcessor {
	return newLeafBox("stts", func(b []byte, t *Tables) error {
		if len(b) < 8 {
			return invalidf("stts: payload too short")
		}
		count := be32(b[4:8])
		b = b[8:]
		if uint64(len(b)) < uint64(count)*8 {
			return invalidf("stts: table truncated")
		}
		for i := uint32(0); i < count; i++ {
			e := b[i*8 : i*8+8]
			t.Seek.AddSampleRun(be32(e[0:4]), be32(e[4:8]))
		}
		return nil
	})
}

// newStcoBox parses 32-bit chunk offsets.
func newStcoBox() BoxProcessor {
	return newLeafBox("stco", func(b []byte, t *Tables) error {
		if len(b) < 8 {
			return invalidf("stco: payload too short")
		}
		count := be32(b[4:8])
		b = b[8:]
		if uint64(len(b)) < uint64(count)*4 {
			return invalidf("stco: table truncated")
		}
		for i := uint32(0); i < count; i++ {
			t.Seek.AddOffset(uint64(be32(b[i*4 : i*4+4])))
		}
		return nil
	})
}

// newCo64Box parses 64-bit chunk offsets, used once a file's mdat exceeds
// 32-bit addressable size.
func newCo64Box() BoxProcessor {
	return newLeafBox("co64", func(b []byte, t *Tables) error {
		if len(b) < 8 {
			return invalidf("co64: payload too short")
		}
		count := be32(b[4:8])
		b = b[8:]
		if uint64(len(b)) < uint64(count)*8 {
			return invalidf("co64: table truncated")
		}
		for i := uint32(0); i < count; i++ {
			t.Seek.AddOffset(be64(b[i*8 : i*8+8]))
		}
		return nil
	})
}

// newSchmBox validates the protection scheme is cenc — any
// other scheme fails MediaMpeg4FileInvalid.
func newSchmBox() BoxProcessor {
	return newLeafBox("schm", func(b []byte, t *Tables) error {
		if len(b) < 8 {
			return invalidf("schm: payload too short")
		}
		var scheme BoxID
		copy(scheme[:], b[4:8])
		if scheme != cencScheme {
			return invalidf("schm: unsupported protection scheme %q", scheme)
		}
		t.Scheme = scheme
		t.Protected = true
		return nil
	})
}

// newTencBox parses the track encryption box: the default key ID and the
// per-sample IV size, which must be 8 or 16 bytes. An 8-byte IV is
// left-padded to 16 bytes at extraction time, not here.
func newTencBox() BoxProcessor {
	return newLeafBox("tenc", func(b []byte, t *Tables) error {
		if len(b) < 4+2+1+1+16 {
			return invalidf("tenc: payload too short")
		}
		b = b[4:] // version/flags
		// reserved(1), reserved(1), default_isProtected(1), default_Per_Sample_IV_Size(1)
		ivSize := int(b[3])
		if ivSize != 8 && ivSize != 16 {
			return invalidf("tenc: unsupported per-sample IV size %d", ivSize)
		}
		t.IVSize = ivSize
		copy(t.KeyID[:], b[4:20])
		return nil
	})
}

// newEsdsBox extracts the MPEG-4 elementary stream descriptor's raw bytes
// (decoder-specific-info and all) as the codec descriptor handed to the AAC
// decoder via the synthesised metadata prefix.
func newEsdsBox() BoxProcessor {
	return newLeafBox("esds", func(b []byte, t *Tables) error {
		if len(b) < 4 {
			return invalidf("esds: payload too short")
		}
		t.Descriptor = append([]byte(nil), b[4:]...)
		return nil
	})
}

// newAlacBox extracts the ALAC magic cookie (the codec's own specific
// config box) as the descriptor for the ALAC decoder.
func newAlacBox() BoxProcessor {
	return newLeafBox("alac", func(b []byte, t *Tables) error {
		if len(b) < 4 {
			return invalidf("alac: payload too short")
		}
		t.Descriptor = append([]byte(nil), b[4:]...)
		return nil
	})
}

// newDfLaBox extracts the raw FLAC STREAMINFO metadata block carried in a
// dfLa box for fLaC-coded tracks.
func newDfLaBox() BoxProcessor {
	return newLeafBox("dfLa", func(b []byte, t *Tables) error {
		if len(b) < 4 {
			return invalidf("dfLa: payload too short")
		}
		t.Descriptor = append([]byte(nil), b[4:]...)
		return nil
	})
}

// newDOpsBox extracts the OpusSpecificBox payload (not itself a full box)
// for Opus-coded tracks.
func newDOpsBox() BoxProcessor {
	return newLeafBox("dOps", func(b []byte, t *Tables) error {
		t.Descriptor = append([]byte(nil), b...)
		return nil
	})
}

// newSencBox parses one IV per sample (subsample encryption ranges are not
// modelled — whole-sample CENC only, matching mdat's per-sample decrypt
// granularity).
func newSencBox() BoxProcessor {
	return newLeafBox("senc", func(b []byte, t *Tables) error {
		if len(b) < 8 {
			return invalidf("senc: payload too short")
		}
		_, flags := fullBoxHeader(b)
		count := be32(b[4:8])
		b = b[8:]
		if t.IVSize == 0 {
			return invalidf("senc: no tenc IV size known")
		}
		ivs := make([][]byte, 0, count)
		for i := uint32(0); i < count; i++ {
			if len(b) < t.IVSize {
				return invalidf("senc: IV %d truncated", i)
			}
			iv := make([]byte, 16)
			copy(iv[16-t.IVSize:], b[:t.IVSize])
			ivs = append(ivs, iv)
			b = b[t.IVSize:]
			const useSubsampleEncryption = 0x000002
			if flags&useSubsampleEncryption != 0 {
				if len(b) < 2 {
					return invalidf("senc: subsample entry count truncated")
				}
				n := be16(b[0:2])
				b = b[2:]
				if len(b) < int(n)*6 {
					return invalidf("senc: subsample ranges truncated")
				}
				b = b[int(n)*6:]
			}
		}
		t.IVs = ivs
		return nil
	})
}
