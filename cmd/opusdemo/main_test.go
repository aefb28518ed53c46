package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunSynthesizesEncodesDecodesAndWritesWaveFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "opusdemo.wav")
	if err := run("", out, "", 0.1, 440.0, 32000); err != nil {
		t.Fatalf("run: %v", err)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() <= 44 {
		t.Fatalf("output file size = %d, want more than the bare RIFF header", info.Size())
	}
}

func TestRunDecodesSavedPacketFile(t *testing.T) {
	dir := t.TempDir()
	packetsPath := filepath.Join(dir, "tone.opus.packets")
	firstOut := filepath.Join(dir, "first.wav")
	if err := run("", firstOut, packetsPath, 0.1, 440.0, 32000); err != nil {
		t.Fatalf("run (synthesize+save): %v", err)
	}
	if _, err := os.Stat(packetsPath); err != nil {
		t.Fatalf("expected packet file to be saved: %v", err)
	}

	secondOut := filepath.Join(dir, "second.wav")
	if err := run(packetsPath, secondOut, "", 0, 0, 0); err != nil {
		t.Fatalf("run (decode from file): %v", err)
	}

	info, err := os.Stat(secondOut)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() <= 44 {
		t.Fatalf("output file size = %d, want more than the bare RIFF header", info.Size())
	}
}

func TestInt16ToBEBytesRoundTrip(t *testing.T) {
	samples := []int16{1, -1, 32767, -32768, 0}
	out := int16ToBEBytes(samples)
	if len(out) != len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(out), len(samples)*2)
	}
	for i, want := range samples {
		got := int16(uint16(out[2*i])<<8 | uint16(out[2*i+1]))
		if got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
}
