package mp4

// codecLeafBoxes returns fresh instances of every box that can appear as a
// child of an audio sample entry inside stsd: the codec-specific
// descriptor boxes plus the CENC scheme/encryption boxes for protected
// ("enca") tracks. stsd flattens ISO BMFF's sinf/schi nesting and matches
// schm/tenc directly wherever they appear under the sample entry.
func codecLeafBoxes() []BoxProcessor {
	return []BoxProcessor{
		newEsdsBox(),
		newAlacBox(),
		newDfLaBox(),
		newDOpsBox(),
		newSchmBox(),
		newTencBox(),
	}
}

// stblBoxes returns the sample table's children: the size/chunk/time
// tables plus stsd itself.
func stblBoxes() []BoxProcessor {
	return []BoxProcessor{
		newStsdBox(codecLeafBoxes),
		newStszBox(),
		newStscBox(),
		newSttsBox(),
		newStcoBox(),
		newCo64Box(),
	}
}

// NewMoovProcessors builds the full set of box processors needed to parse
// a "moov" tree end to end: the nested container chain
// moov -> trak -> mdia -> minf -> stbl, plus mvex -> mehd for fragmented
// streams. Passed to NewBoxSwitcher/RunRoot as the registered processor
// set for both in-band and out-of-band ("moov"-only) parsing.
func NewMoovProcessors() []BoxProcessor {
	stbl := newContainerBox(stblBoxes, "stbl")
	minf := newContainerBox(func() []BoxProcessor {
		return []BoxProcessor{stbl}
	}, "minf")
	mdia := newContainerBox(func() []BoxProcessor {
		return []BoxProcessor{newMdhdBox(), minf}
	}, "mdia")
	trak := newContainerBox(func() []BoxProcessor {
		return []BoxProcessor{newTkhdBox(), mdia}
	}, "trak")
	mvex := newContainerBox(func() []BoxProcessor {
		return []BoxProcessor{newMehdBox()}
	}, "mvex")
	moov := newContainerBox(func() []BoxProcessor {
		return []BoxProcessor{trak, mvex}
	}, "moov")
	return []BoxProcessor{moov}
}

// trafBoxes returns a track fragment's children: its header, one or more
// sample runs, and optional per-sample encryption IVs.
func trafBoxes() []BoxProcessor {
	return []BoxProcessor{
		newTfhdBox(),
		newTrunBox(),
		newSencBox(),
	}
}

// NewMoofProcessors builds the box processor set for fragmented-stream
// "moof" trees: moof -> traf -> {tfhd, trun, senc}, alongside a root-level
// "sidx" segment index and the "mdat" sample reader. mdat is returned
// separately since the root switcher also needs direct access to it to
// drive CENC decryption against Tables.
func NewMoofProcessors(drm IMpegDRMProvider) (moof BoxProcessor, sidx BoxProcessor, mdat BoxProcessor) {
	traf := newContainerBox(trafBoxes, "traf")
	moof = newContainerBox(func() []BoxProcessor {
		return []BoxProcessor{traf}
	}, "moof")
	sidx = newSidxBox()
	mdat = newMdatBox(drm)
	return
}
