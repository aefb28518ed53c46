// Command opusdemo exercises a real Opus decode path and hands the
// decoded PCM into the message substrate the way the decode stage of a
// real pipeline would: the decoder's output lands in a pooled
// EncodedAudio buffer and is then taken over zero-copy into a playable
// MsgAudioPcm, mirroring client/audio.go's playbackLoop decode step.
//
// With -in it decodes a real Opus packet file from disk (the length-
// prefixed framing this same binary writes via -save-packets); without
// -in it first synthesises and encodes a tone in memory so the decode
// path still runs against real Opus bytes, not a canned PCM buffer.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/hraban/opus.v2"

	"audiopipeline/internal/diag"
	"audiopipeline/internal/wavwriter"
	"audiopipeline/msg"
	"audiopipeline/mute"
)

const (
	sampleRate  = 48000
	numChannels = 1
	frameSize   = 960 // 20 ms @ 48 kHz, matching client/audio.go's FrameSize
	bitDepth    = 16
	maxPacket   = 1275 // RFC 6716 max Opus packet size
)

func main() {
	in := flag.String("in", "", "existing Opus packet file to decode (length-prefixed frames); empty synthesises one")
	out := flag.String("out", "opusdemo.wav", "output WAVE file path")
	savePackets := flag.String("save-packets", "", "when synthesising, also save the encoded packet file to this path")
	seconds := flag.Float64("seconds", 1.0, "tone duration in seconds (when synthesising)")
	freq := flag.Float64("freq", 440.0, "tone frequency in Hz (when synthesising)")
	bitrate := flag.Int("bitrate", 32000, "Opus encoder bitrate in bits/sec (when synthesising)")
	flag.Parse()

	if err := run(*in, *out, *savePackets, *seconds, *freq, *bitrate); err != nil {
		fmt.Fprintf(os.Stderr, "opusdemo: %v\n", err)
		os.Exit(1)
	}
}

// packetSource yields successive raw Opus packets to decode.
type packetSource interface {
	next() ([]byte, error) // io.EOF when exhausted
}

func run(inPath, outPath, savePacketsPath string, seconds, freqHz float64, bitrate int) error {
	var src packetSource
	if inPath != "" {
		f, err := os.Open(inPath)
		if err != nil {
			return fmt.Errorf("open opus packet file: %w", err)
		}
		defer f.Close()
		src = &filePacketSource{r: bufio.NewReader(f)}
	} else {
		packets, err := synthesizePackets(seconds, freqHz, bitrate)
		if err != nil {
			return err
		}
		if savePacketsPath != "" {
			if err := savePacketFile(savePacketsPath, packets); err != nil {
				return err
			}
		}
		src = &memPacketSource{packets: packets}
	}

	dec, err := opus.NewDecoder(sampleRate, numChannels)
	if err != nil {
		return fmt.Errorf("new opus decoder: %w", err)
	}

	factory := msg.NewFactory(msg.DefaultPoolSizes())
	muter := mute.New(factory)

	writer, err := wavwriter.NewWriter(outPath, sampleRate, bitDepth, numChannels)
	if err != nil {
		return err
	}

	decodedPcm := make([]int16, frameSize)
	var trackOffset uint64
	var framesDecoded int

	for {
		packet, err := src.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read packet %d: %w", framesDecoded, err)
		}

		decN, err := dec.Decode(packet, decodedPcm)
		if err != nil {
			return fmt.Errorf("opus decode frame %d: %w", framesDecoded, err)
		}
		framesDecoded++

		pcmBytes := int16ToBEBytes(decodedPcm[:decN])
		encodedBuf := factory.CreateAudioEncoded(pcmBytes)
		pcm := factory.CreateAudioPcmFromEncoded(encodedBuf, sampleRate, bitDepth, numChannels, trackOffset)
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

	diag.LogLifecycle("opusdemo wrote file", "path", outPath, "frames", framesDecoded, "muter_state", muter.State().String())
	return nil
}

// synthesizePackets encodes a sine tone into real Opus packets so the
// decode path downstream always runs against genuine Opus bytes.
func synthesizePackets(seconds, freqHz float64, bitrate int) ([][]byte, error) {
	enc, err := opus.NewEncoder(sampleRate, numChannels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("new opus encoder: %w", err)
	}
	if err := enc.SetBitrate(bitrate); err != nil {
		return nil, fmt.Errorf("set bitrate: %w", err)
	}

	totalSamples := int(seconds * sampleRate)
	scratch := make([]byte, maxPacket)
	var packets [][]byte

	for start := 0; start < totalSamples; start += frameSize {
		n := frameSize
		if start+n > totalSamples {
			n = totalSamples - start
		}
		srcPcm := sineInt16Frame(start, n, freqHz)
		if n < frameSize {
			// Opus requires a fixed frame size per Encode call; pad the
			// final short frame with silence.
			srcPcm = append(srcPcm, make([]int16, frameSize-n)...)
		}

		encLen, err := enc.Encode(srcPcm, scratch)
		if err != nil {
			return nil, fmt.Errorf("opus encode frame %d: %w", len(packets), err)
		}
		packet := make([]byte, encLen)
		copy(packet, scratch[:encLen])
		packets = append(packets, packet)
	}
	return packets, nil
}

// memPacketSource replays an in-memory slice of already-encoded packets.
type memPacketSource struct {
	packets [][]byte
	pos     int
}

func (s *memPacketSource) next() ([]byte, error) {
	if s.pos >= len(s.packets) {
		return nil, io.EOF
	}
	p := s.packets[s.pos]
	s.pos++
	return p, nil
}

// filePacketSource reads the uint16-length-prefixed packet framing this
// binary writes via savePacketFile.
type filePacketSource struct {
	r *bufio.Reader
}

func (s *filePacketSource) next() ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(s.r, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	packet := make([]byte, n)
	if _, err := io.ReadFull(s.r, packet); err != nil {
		return nil, err
	}
	return packet, nil
}

// savePacketFile writes packets in the uint16-length-prefixed framing
// filePacketSource reads back.
func savePacketFile(path string, packets [][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create packet file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var lenBuf [2]byte
	for _, p := range packets {
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(p)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err := w.Write(p); err != nil {
			return err
		}
	}
	return w.Flush()
}

func sineInt16Frame(start, n int, freqHz float64) []int16 {
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(start+i) / float64(sampleRate)
		v := math.Sin(2 * math.Pi * freqHz * t)
		out[i] = int16(v * 0.25 * float64(math.MaxInt16))
	}
	return out
}

// int16ToBEBytes packs native int16 PCM samples into the big-endian byte
// convention msg.MsgAudioPcm buffers use.
func int16ToBEBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[2*i] = byte(uint16(s) >> 8)
		out[2*i+1] = byte(uint16(s))
	}
	return out
}
