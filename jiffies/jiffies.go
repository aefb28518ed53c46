// Package jiffies defines the pipeline's shared timebase.
//
// A jiffy is 1/56,448,000 of a second — chosen so that a single sample at
// any supported PCM or DSD sample rate is an integer number of jiffies.
// Every duration and offset that crosses a pipeline stage boundary is
// expressed in jiffies so stages never need to know each other's sample
// rate to reason about timing.
package jiffies

import "fmt"

// PerSecond is the number of jiffies in one second: lcm(384000, 352800).
const PerSecond = 56448000

// ErrSampleRateInvalid is returned for any sample rate outside the fixed
// supported set.
var ErrSampleRateInvalid = fmt.Errorf("jiffies: sample rate not supported")

var pcmRates = map[uint]bool{
	7350: true, 8000: true, 11025: true, 12000: true, 14700: true,
	16000: true, 22050: true, 24000: true, 29400: true, 32000: true,
	44100: true, 48000: true, 88200: true, 96000: true, 176400: true,
	192000: true, 352800: true, 384000: true,
}

var dsdRates = map[uint]bool{
	2822400: true, 5644800: true, 11289600: true,
}

// PerSample returns the number of jiffies in a single sample at sampleRate.
// It returns ErrSampleRateInvalid if sampleRate is not one of the fixed
// supported PCM or DSD rates.
func PerSample(sampleRate uint) (uint64, error) {
	if sampleRate == 0 || PerSecond%uint64(sampleRate) != 0 {
		return 0, ErrSampleRateInvalid
	}
	if !pcmRates[sampleRate] && !dsdRates[sampleRate] {
		return 0, ErrSampleRateInvalid
	}
	return PerSecond / uint64(sampleRate), nil
}

// IsSupported reports whether sampleRate is one of the fixed supported
// PCM or DSD rates.
func IsSupported(sampleRate uint) bool {
	return pcmRates[sampleRate] || dsdRates[sampleRate]
}

// IsDsd reports whether sampleRate belongs to the DSD rate set.
func IsDsd(sampleRate uint) bool {
	return dsdRates[sampleRate]
}

// ToBytes converts a jiffy count to a byte count for PCM audio at the given
// channel count and bit depth (bits per subsample). bitDepth must be 8, 16,
// 24 or 32.
func ToBytes(jiffiesVal uint64, sampleRate uint, numChannels, bitDepth uint) (uint64, error) {
	perSample, err := PerSample(sampleRate)
	if err != nil {
		return 0, err
	}
	samples := jiffiesVal / perSample
	bytesPerSubsample := uint64(bitDepth / 8)
	return samples * uint64(numChannels) * bytesPerSubsample, nil
}

// FromBytes converts a byte count of packed PCM audio back to jiffies.
func FromBytes(bytesVal uint64, sampleRate uint, numChannels, bitDepth uint) (uint64, error) {
	perSample, err := PerSample(sampleRate)
	if err != nil {
		return 0, err
	}
	bytesPerSubsample := uint64(bitDepth / 8)
	bytesPerSample := uint64(numChannels) * bytesPerSubsample
	if bytesPerSample == 0 {
		return 0, fmt.Errorf("jiffies: zero bytes per sample")
	}
	samples := bytesVal / bytesPerSample
	return samples * perSample, nil
}

// songcastTicksPerSecond holds the two Songcast tick rates. The 44.1k
// family (44100, 88200, ...) uses 44100*256 ticks/s; the 48k family uses
// 48000*256. This table is read-only and initialised once at package load,
// mirroring the process-wide tables the original pipeline keeps for the
// same purpose.
var songcastTicksPerSecond = map[uint]uint64{}

func init() {
	for _, rates := range []map[uint]bool{pcmRates, dsdRates} {
		for r := range rates {
			if r%7350 == 0 || r%11025 == 0 {
				songcastTicksPerSecond[r] = 44100 * 256
			} else {
				songcastTicksPerSecond[r] = 48000 * 256
			}
		}
	}
}

// ToSongcastTicks converts a jiffy count to Songcast ticks for sampleRate.
func ToSongcastTicks(jiffiesVal uint64, sampleRate uint) (uint64, error) {
	if !IsSupported(sampleRate) {
		return 0, ErrSampleRateInvalid
	}
	ticksPerSecond := songcastTicksPerSecond[sampleRate]
	// 64-bit intermediate avoids overflow for any jiffiesVal representable
	// in a track-length field.
	return jiffiesVal * ticksPerSecond / PerSecond, nil
}

// FromSongcastTicks converts Songcast ticks back to jiffies for sampleRate.
func FromSongcastTicks(ticks uint64, sampleRate uint) (uint64, error) {
	if !IsSupported(sampleRate) {
		return 0, ErrSampleRateInvalid
	}
	ticksPerSecond := songcastTicksPerSecond[sampleRate]
	return ticks * PerSecond / ticksPerSecond, nil
}

// RoundUpSample rounds jiffiesVal up to the next whole-sample boundary at
// sampleRate.
func RoundUpSample(jiffiesVal uint64, sampleRate uint) (uint64, error) {
	perSample, err := PerSample(sampleRate)
	if err != nil {
		return 0, err
	}
	rem := jiffiesVal % perSample
	if rem == 0 {
		return jiffiesVal, nil
	}
	return jiffiesVal + (perSample - rem), nil
}

// RoundDownSample rounds jiffiesVal down to the previous whole-sample
// boundary at sampleRate.
func RoundDownSample(jiffiesVal uint64, sampleRate uint) (uint64, error) {
	perSample, err := PerSample(sampleRate)
	if err != nil {
		return 0, err
	}
	return jiffiesVal - (jiffiesVal % perSample), nil
}

// RoundUpSampleBlock rounds jiffiesVal up to the next sample-block boundary,
// where a block spans blockSamples samples (used for DSD sample-block
// alignment).
func RoundUpSampleBlock(jiffiesVal uint64, sampleRate uint, blockSamples uint) (uint64, error) {
	perSample, err := PerSample(sampleRate)
	if err != nil {
		return 0, err
	}
	if blockSamples == 0 {
		return 0, fmt.Errorf("jiffies: zero block size")
	}
	perBlock := perSample * uint64(blockSamples)
	rem := jiffiesVal % perBlock
	if rem == 0 {
		return jiffiesVal, nil
	}
	return jiffiesVal + (perBlock - rem), nil
}

// RoundDownSampleBlock rounds jiffiesVal down to the previous sample-block
// boundary.
func RoundDownSampleBlock(jiffiesVal uint64, sampleRate uint, blockSamples uint) (uint64, error) {
	perSample, err := PerSample(sampleRate)
	if err != nil {
		return 0, err
	}
	if blockSamples == 0 {
		return 0, fmt.Errorf("jiffies: zero block size")
	}
	perBlock := perSample * uint64(blockSamples)
	return jiffiesVal - (jiffiesVal % perBlock), nil
}
