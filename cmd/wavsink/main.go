// Command wavsink demonstrates the msg.IPcmProcessor / MsgPlayablePcm.Read
// sink contract end to end: a synthesised tone is wrapped into
// MsgAudioPcm fragments, run through a MuterVolume the way a real pipeline
// would, converted to playable form, and read into a WAVE file.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"audiopipeline/internal/diag"
	"audiopipeline/internal/wavwriter"
	"audiopipeline/msg"
	"audiopipeline/mute"
)

const (
	sampleRate  = 48000
	bitDepth    = 16
	numChannels = 1
	fragmentLen = 960 // 20 ms @ 48 kHz, matching the pipeline's own frame size
)

func main() {
	out := flag.String("out", "tone.wav", "output WAVE file path")
	seconds := flag.Float64("seconds", 2.0, "tone duration in seconds")
	freq := flag.Float64("freq", 440.0, "tone frequency in Hz")
	fadeOut := flag.Bool("fade", true, "apply a ramp-down fade on the final fragment")
	flag.Parse()

	if err := run(*out, *seconds, *freq, *fadeOut); err != nil {
		fmt.Fprintf(os.Stderr, "wavsink: %v\n", err)
		os.Exit(1)
	}
}

func run(outPath string, seconds, freqHz float64, fadeOut bool) error {
	factory := msg.NewFactory(msg.DefaultPoolSizes())
	muter := mute.New(factory)

	writer, err := wavwriter.NewWriter(outPath, sampleRate, bitDepth, numChannels)
	if err != nil {
		return err
	}

	totalSamples := int(seconds * sampleRate)
	var trackOffset uint64
	for start := 0; start < totalSamples; start += fragmentLen {
		n := fragmentLen
		if start+n > totalSamples {
			n = totalSamples - start
		}
		fragment := sineFragment(start, n, freqHz)

		ramp := msg.Ramp{}
		if fadeOut && start+n >= totalSamples {
			ramp = msg.Ramp{Start: msg.RampMax, End: 0, Direction: msg.DirDown, Enabled: true}
		}

		pcm := factory.CreateAudioPcm(fragment, sampleRate, bitDepth, numChannels, trackOffset, ramp)
		trackOffset += pcm.Jiffies()

		stepped, err := muter.Pull(pcm)
		if err != nil {
			return fmt.Errorf("mute pull: %w", err)
		}
		playable := factory.ToPlayablePcm(stepped.(*msg.MsgAudioPcm))
		if err := playable.Read(writer); err != nil {
			return fmt.Errorf("read fragment: %w", err)
		}
		playable.RemoveRef()
	}

	if err := writer.Close(); err != nil {
		return err
	}

	diag.LogLifecycle("wavsink wrote file", "path", outPath, "seconds", seconds, "muter_state", muter.State().String())
	return nil
}

// sineFragment returns n interleaved mono samples starting at sample index
// start, packed as big-endian 16-bit signed integers matching the pipeline's
// own PCM byte convention.
func sineFragment(start, n int, freqHz float64) []byte {
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		t := float64(start+i) / float64(sampleRate)
		v := math.Sin(2 * math.Pi * freqHz * t)
		sample := int16(v * 0.25 * float64(math.MaxInt16))
		out[2*i] = byte(uint16(sample) >> 8)
		out[2*i+1] = byte(uint16(sample))
	}
	return out
}
