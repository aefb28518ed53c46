package wavwriter

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestWriterRoundTripHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := NewWriter(path, 48000, 16, 2)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	// Two big-endian 16-bit samples, one per channel: 0x0102 and 0x0304.
	be := []byte{0x01, 0x02, 0x03, 0x04}
	if err := w.ProcessFragment(be, 2, 2); err != nil {
		t.Fatalf("ProcessFragment: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != riffHeaderSize+len(be) {
		t.Fatalf("file length = %d, want %d", len(data), riffHeaderSize+len(be))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers")
	}
	riffSize := binary.LittleEndian.Uint32(data[4:8])
	if riffSize != 36+uint32(len(be)) {
		t.Fatalf("riff size = %d, want %d", riffSize, 36+len(be))
	}
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if dataSize != uint32(len(be)) {
		t.Fatalf("data size = %d, want %d", dataSize, len(be))
	}

	payload := data[riffHeaderSize:]
	if payload[0] != 0x02 || payload[1] != 0x01 || payload[2] != 0x04 || payload[3] != 0x03 {
		t.Fatalf("payload = % x, want byte-swapped little-endian samples", payload)
	}
}

func TestWriterSilencePreservesZeroes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := NewWriter(path, 44100, 16, 1)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.ProcessSilence(make([]byte, 8), 1, 2); err != nil {
		t.Fatalf("ProcessSilence: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, b := range data[riffHeaderSize:] {
		if b != 0 {
			t.Fatalf("expected all-zero silence payload, got % x", data[riffHeaderSize:])
		}
	}
}
