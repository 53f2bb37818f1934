package audiofx

import (
	"encoding/binary"
	"math"
	"testing"
)

// makeWAV builds a minimal PCM16 mono WAV from the given samples.
func makeWAV(t *testing.T, sampleRate int, samples []int16) []byte {
	t.Helper()
	dataSize := len(samples) * 2
	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(s))
	}
	return buf
}

// sine generates a constant-amplitude sine wave.
func sine(n int, amplitude float64) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(amplitude * math.Sin(2*math.Pi*float64(i)/64))
	}
	return samples
}

func TestNormalizeReachesTarget(t *testing.T) {
	// Quiet signal well below -20 dBFS.
	wav := makeWAV(t, 22050, sine(4096, 1000))
	p := NewProcessor(-20.0, nil)

	out := p.Normalize(wav)
	decoded, err := decodeWAV(out)
	if err != nil {
		t.Fatalf("output not WAV: %v", err)
	}

	got := dbfs(decoded.samples)
	if math.Abs(got-(-20.0)) > 0.5 {
		t.Errorf("normalized level = %.1f dBFS, want -20.0 +- 0.5", got)
	}
}

func TestNormalizeAttenuatesLoudSignal(t *testing.T) {
	wav := makeWAV(t, 22050, sine(4096, 30000))
	p := NewProcessor(-20.0, nil)

	before := dbfs(mustDecode(t, wav).samples)
	out := p.Normalize(wav)
	after := dbfs(mustDecode(t, out).samples)

	if after >= before {
		t.Errorf("level should drop: before %.1f, after %.1f", before, after)
	}
}

func TestNormalizePassesThroughNonWAV(t *testing.T) {
	input := []byte("definitely not audio")
	p := NewProcessor(-20.0, nil)

	out := p.Normalize(input)
	if string(out) != string(input) {
		t.Error("non-WAV input should pass through unchanged")
	}
}

func TestNormalizeSilence(t *testing.T) {
	wav := makeWAV(t, 22050, make([]int16, 1024))
	p := NewProcessor(-20.0, nil)

	out := p.Normalize(wav)
	if string(out) != string(wav) {
		t.Error("silence should pass through unchanged")
	}
}

func TestCompressReducesPeaks(t *testing.T) {
	wav := makeWAV(t, 22050, sine(4096, 32000))
	p := NewProcessor(-20.0, nil)

	out := p.Compress(wav)
	decoded := mustDecode(t, out)

	var maxBefore, maxAfter float64
	for _, s := range mustDecode(t, wav).samples {
		maxBefore = math.Max(maxBefore, math.Abs(float64(s)))
	}
	for _, s := range decoded.samples {
		maxAfter = math.Max(maxAfter, math.Abs(float64(s)))
	}
	if maxAfter >= maxBefore {
		t.Errorf("peak should shrink: before %v, after %v", maxBefore, maxAfter)
	}
}

func TestCompressLeavesQuietSignalAlone(t *testing.T) {
	samples := sine(1024, 500) // far under the threshold
	wav := makeWAV(t, 22050, samples)
	p := NewProcessor(-20.0, nil)

	out := p.Compress(wav)
	decoded := mustDecode(t, out)
	for i, s := range decoded.samples {
		if s != samples[i] {
			t.Fatalf("sample %d changed: %d -> %d", i, samples[i], s)
		}
	}
}

func TestDuration(t *testing.T) {
	wav := makeWAV(t, 22050, make([]int16, 22050))
	p := NewProcessor(-20.0, nil)

	if got := p.Duration(wav); math.Abs(got-1.0) > 0.001 {
		t.Errorf("duration = %v, want 1.0", got)
	}
	if got := p.Duration([]byte("junk")); got != 0 {
		t.Errorf("non-WAV duration = %v, want 0", got)
	}
}

func TestDecodeRejectsNonPCM(t *testing.T) {
	wav := makeWAV(t, 22050, sine(64, 1000))
	binary.LittleEndian.PutUint16(wav[20:22], 3) // float format

	if _, err := decodeWAV(wav); err == nil {
		t.Error("expected error for non-PCM format")
	}
}

func mustDecode(t *testing.T, data []byte) *wavAudio {
	t.Helper()
	wav, err := decodeWAV(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return wav
}
