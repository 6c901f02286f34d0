package audio_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/lectara/lectara/pkg/audio"
)

func TestEncodeWAVLayout(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1}
	b := audio.EncodeWAV(samples, 16000)

	if want := 44 + 2*len(samples); len(b) != want {
		t.Fatalf("container length = %d, want %d", len(b), want)
	}
	if got := string(b[0:4]); got != "RIFF" {
		t.Errorf("bytes [0:4] = %q, want RIFF", got)
	}
	if got := string(b[8:12]); got != "WAVE" {
		t.Errorf("bytes [8:12] = %q, want WAVE", got)
	}
	if got := string(b[12:16]); got != "fmt " {
		t.Errorf("bytes [12:16] = %q, want \"fmt \"", got)
	}
	if got := string(b[36:40]); got != "data" {
		t.Errorf("bytes [36:40] = %q, want data", got)
	}

	dataSize := 2 * len(samples)
	if got := binary.LittleEndian.Uint32(b[4:8]); got != uint32(36+dataSize) {
		t.Errorf("RIFF size = %d, want %d", got, 36+dataSize)
	}
	if got := binary.LittleEndian.Uint16(b[20:22]); got != 1 {
		t.Errorf("audio format = %d, want 1 (PCM)", got)
	}
	if got := binary.LittleEndian.Uint16(b[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(b[24:28]); got != 16000 {
		t.Errorf("sample rate = %d, want 16000", got)
	}
	if got := binary.LittleEndian.Uint32(b[28:32]); got != 32000 {
		t.Errorf("byte rate = %d, want 32000", got)
	}
	if got := binary.LittleEndian.Uint16(b[32:34]); got != 2 {
		t.Errorf("block align = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint16(b[34:36]); got != 16 {
		t.Errorf("bits per sample = %d, want 16", got)
	}
	if got := binary.LittleEndian.Uint32(b[40:44]); got != uint32(dataSize) {
		t.Errorf("data size = %d, want %d", got, dataSize)
	}
}

func TestEncodeWAVScaling(t *testing.T) {
	tests := []struct {
		name   string
		sample float32
		want   int16
	}{
		{"zero", 0, 0},
		{"full positive", 1, 32767},
		{"full negative", -1, -32768},
		{"half positive", 0.5, 16383},
		{"half negative", -0.5, -16384},
		{"clamped above", 1.5, 32767},
		{"clamped below", -1.5, -32768},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := audio.EncodeWAV([]float32{tt.sample}, 16000)
			got := int16(binary.LittleEndian.Uint16(b[44:46]))
			if got != tt.want {
				t.Errorf("EncodeWAV(%v) sample = %d, want %d", tt.sample, got, tt.want)
			}
		})
	}
}

func TestWAVRoundTrip(t *testing.T) {
	in := make([]float32, 160)
	for i := range in {
		in[i] = float32(math.Sin(float64(i) / 10))
	}

	b := audio.EncodeWAV(in, 16000)
	out, rate, err := audio.DecodeWAV(b)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if rate != 16000 {
		t.Fatalf("rate = %d, want 16000", rate)
	}
	if len(out) != len(in) {
		t.Fatalf("decoded %d samples, want %d", len(out), len(in))
	}

	// One quantization step at 16 bits.
	const step = 1.0 / 32768.0
	for i := range in {
		if diff := math.Abs(float64(in[i] - out[i])); diff > step {
			t.Fatalf("sample %d: in=%v out=%v, diff %v exceeds one quantization step", i, in[i], out[i], diff)
		}
	}
}

func TestDecodeWAVErrors(t *testing.T) {
	valid := audio.EncodeWAV([]float32{0, 0.1}, 16000)

	notRIFF := append([]byte(nil), valid...)
	copy(notRIFF[0:4], "OGGS")

	notPCM := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint16(notPCM[20:22], 3)

	eightBit := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint16(eightBit[34:36], 8)

	tests := []struct {
		name string
		b    []byte
	}{
		{"too short", valid[:20]},
		{"missing magic", notRIFF},
		{"compressed format", notPCM},
		{"unsupported bit depth", eightBit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := audio.DecodeWAV(tt.b); err == nil {
				t.Error("DecodeWAV accepted malformed container")
			}
		})
	}
}

func TestPeakAmplitude(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		want    float64
	}{
		{"empty", nil, 0},
		{"silence", []float32{0, 0, 0}, 0},
		{"positive peak", []float32{0.1, 0.7, 0.2}, 0.7},
		{"negative peak", []float32{0.1, -0.9, 0.2}, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := audio.PeakAmplitude(tt.samples)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("PeakAmplitude = %v, want %v", got, tt.want)
			}
		})
	}
}
