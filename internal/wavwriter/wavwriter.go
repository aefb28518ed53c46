// Package wavwriter implements msg.IPcmProcessor against a RIFF/WAVE
// file, hand-rolling the container with encoding/binary.
package wavwriter

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Writer accumulates playable PCM fragments into a 16/24/32-bit PCM WAVE
// file. The RIFF and data chunk sizes are placeholders until Close patches
// them in, since the total length isn't known until the stream ends.
type Writer struct {
	f             *os.File
	sampleRate    int
	bitsPerSample int
	numChannels   int
	dataBytes     uint32
	swap          []byte
}

const riffHeaderSize = 44

// NewWriter creates path and writes a placeholder WAVE header for a stream
// at sampleRate/bitsPerSample/numChannels.
func NewWriter(path string, sampleRate, bitsPerSample, numChannels int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wavwriter: create %s: %w", path, err)
	}
	w := &Writer{f: f, sampleRate: sampleRate, bitsPerSample: bitsPerSample, numChannels: numChannels}
	if err := w.writeHeader(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeHeader() error {
	var head [riffHeaderSize]byte
	copy(head[0:4], "RIFF")
	binary.LittleEndian.PutUint32(head[4:8], 36) // patched on Close
	copy(head[8:12], "WAVE")

	copy(head[12:16], "fmt ")
	binary.LittleEndian.PutUint32(head[16:20], 16)
	binary.LittleEndian.PutUint16(head[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(head[22:24], uint16(w.numChannels))
	binary.LittleEndian.PutUint32(head[24:28], uint32(w.sampleRate))
	blockAlign := w.numChannels * w.bitsPerSample / 8
	byteRate := w.sampleRate * blockAlign
	binary.LittleEndian.PutUint32(head[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(head[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(head[34:36], uint16(w.bitsPerSample))

	copy(head[36:40], "data")
	binary.LittleEndian.PutUint32(head[40:44], 0) // patched on Close

	_, err := w.f.Write(head[:])
	return err
}

// BeginBlock implements msg.IPcmProcessor.
func (w *Writer) BeginBlock() {}

// EndBlock implements msg.IPcmProcessor.
func (w *Writer) EndBlock() {}

// Flush implements msg.IPcmProcessor. The underlying file has no internal
// buffering to drain; Close is what finalises the WAVE header.
func (w *Writer) Flush() {}

// ProcessFragment implements msg.IPcmProcessor. samples arrive as
// subsampleBytes-wide big-endian signed integers, interleaved across
// numChannels; WAVE wants them little-endian, so each subsample is
// byte-swapped in place before writing.
func (w *Writer) ProcessFragment(samples []byte, numChannels int, subsampleBytes int) error {
	return w.write(samples, subsampleBytes)
}

// ProcessSilence implements msg.IPcmProcessor. The zero-filled buffer needs
// no byte-order conversion, but is still routed through write so dataBytes
// stays accurate.
func (w *Writer) ProcessSilence(samples []byte, numChannels int, subsampleBytes int) error {
	return w.write(samples, subsampleBytes)
}

func (w *Writer) write(samples []byte, subsampleBytes int) error {
	if subsampleBytes <= 1 {
		n, err := w.f.Write(samples)
		w.dataBytes += uint32(n)
		return err
	}
	if cap(w.swap) < len(samples) {
		w.swap = make([]byte, len(samples))
	}
	out := w.swap[:len(samples)]
	for off := 0; off+subsampleBytes <= len(samples); off += subsampleBytes {
		for i := 0; i < subsampleBytes; i++ {
			out[off+i] = samples[off+subsampleBytes-1-i]
		}
	}
	n, err := w.f.Write(out)
	w.dataBytes += uint32(n)
	return err
}

// Close patches the RIFF and data chunk sizes and closes the file.
func (w *Writer) Close() error {
	if _, err := w.f.Seek(4, 0); err != nil {
		return err
	}
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], 36+w.dataBytes)
	if _, err := w.f.Write(sz[:]); err != nil {
		return err
	}
	if _, err := w.f.Seek(40, 0); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(sz[:], w.dataBytes)
	if _, err := w.f.Write(sz[:]); err != nil {
		return err
	}
	return w.f.Close()
}
