package audiofx

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errNotWAV = errors.New("audiofx: not a PCM16 WAV buffer")

// wavAudio is a decoded PCM16 WAV buffer.
type wavAudio struct {
	sampleRate int
	channels   int
	samples    []int16
	header     []byte // original bytes up to the data chunk payload
}

// decodeWAV parses a RIFF/WAVE buffer holding 16-bit PCM. Anything else
// (compressed codecs, other bit depths, raw streams) returns errNotWAV.
func decodeWAV(data []byte) (*wavAudio, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errNotWAV
	}

	var (
		sampleRate, channels, bitDepth int
		audioFormat                    int
		sawFmt                         bool
	)

	// Walk chunks until the data chunk.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errNotWAV
			}
			audioFormat = int(binary.LittleEndian.Uint16(data[body : body+2]))
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			sawFmt = true
		case "data":
			if !sawFmt || audioFormat != 1 || bitDepth != 16 || channels < 1 || sampleRate <= 0 {
				return nil, errNotWAV
			}
			pcm := data[body : body+size]
			samples := make([]int16, len(pcm)/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
			}
			return &wavAudio{
				sampleRate: sampleRate,
				channels:   channels,
				samples:    samples,
				header:     data[:body],
			}, nil
		}

		// Chunks are word aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}
	return nil, errNotWAV
}

// encode re-serializes the samples using the original header layout, fixing
// up the RIFF and data chunk sizes.
func (w *wavAudio) encode() []byte {
	out := make([]byte, len(w.header)+len(w.samples)*2)
	copy(out, w.header)
	for i, s := range w.samples {
		binary.LittleEndian.PutUint16(out[len(w.header)+i*2:], uint16(s))
	}
	dataSize := len(w.samples) * 2
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	binary.LittleEndian.PutUint32(out[len(w.header)-4:len(w.header)], uint32(dataSize))
	return out
}

// duration returns playback seconds.
func (w *wavAudio) duration() float64 {
	if w.sampleRate <= 0 || w.channels <= 0 {
		return 0
	}
	return float64(len(w.samples)) / float64(w.sampleRate*w.channels)
}

func (w *wavAudio) String() string {
	return fmt.Sprintf("wav(%dHz %dch %d samples)", w.sampleRate, w.channels, len(w.samples))
}
