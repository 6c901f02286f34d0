package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// wavHeaderSize is the fixed size of the RIFF/WAVE header written by
// [EncodeWAV]: 12 bytes of RIFF descriptor, 24 bytes of fmt sub-chunk, and
// 8 bytes of data sub-chunk header.
const wavHeaderSize = 44

// LowSignalPeak is the peak-amplitude threshold below which a capture is
// flagged with a low-signal advisory. The advisory is informational only and
// never blocks the pipeline.
const LowSignalPeak = 0.01

// EncodeWAV wraps normalized float samples in a 16-bit mono PCM RIFF/WAVE
// container at the given sample rate. Each sample is clamped to [-1, 1] and
// scaled by 32768 for negative values and 32767 for non-negative values, so
// the full float range maps onto the full int16 range without overflow.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	dataSize := len(samples) * 2
	buf := make([]byte, wavHeaderSize+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk: PCM, mono, 16-bit
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], 2)                    // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16)                   // bits per sample

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range samples {
		v := float64(s)
		if v < -1 {
			v = -1
		} else if v > 1 {
			v = 1
		}
		var q int16
		if v < 0 {
			q = int16(v * 32768)
		} else {
			q = int16(v * 32767)
		}
		binary.LittleEndian.PutUint16(buf[wavHeaderSize+i*2:], uint16(q))
	}

	return buf
}

// WrapPCM16 wraps raw 16-bit signed little-endian PCM bytes in a RIFF/WAVE
// container without re-quantizing. Used when the samples are already int16 and
// only the container is missing.
func WrapPCM16(pcm []byte, sampleRate, channels int) []byte {
	if channels < 1 {
		channels = 1
	}
	dataSize := len(pcm)
	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2

	buf := make([]byte, wavHeaderSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[wavHeaderSize:], pcm)
	return buf
}

// DecodeWAV extracts normalized float samples and the sample rate from a
// 16-bit PCM RIFF/WAVE container. Only the layout produced by [EncodeWAV]
// plus common single-data-chunk variants are supported; compressed or
// multi-chunk files return an error.
func DecodeWAV(b []byte) (samples []float32, sampleRate int, err error) {
	if len(b) < wavHeaderSize {
		return nil, 0, fmt.Errorf("wav: container too short (%d bytes)", len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("wav: missing RIFF/WAVE magic")
	}
	if string(b[12:16]) != "fmt " {
		return nil, 0, fmt.Errorf("wav: missing fmt chunk")
	}
	format := binary.LittleEndian.Uint16(b[20:22])
	if format != 1 {
		return nil, 0, fmt.Errorf("wav: unsupported audio format %d (want PCM)", format)
	}
	channels := int(binary.LittleEndian.Uint16(b[22:24]))
	sampleRate = int(binary.LittleEndian.Uint32(b[24:28]))
	bits := binary.LittleEndian.Uint16(b[34:36])
	if bits != 16 {
		return nil, 0, fmt.Errorf("wav: unsupported bit depth %d (want 16)", bits)
	}
	if channels <= 0 {
		return nil, 0, fmt.Errorf("wav: invalid channel count %d", channels)
	}

	// Locate the data chunk; some encoders insert extra chunks before it.
	off := 36
	for {
		if off+8 > len(b) {
			return nil, 0, fmt.Errorf("wav: no data chunk found")
		}
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		if id == "data" {
			off += 8
			if off+size > len(b) {
				size = len(b) - off
			}
			pcm := b[off : off+size]
			samples = PCM16ToFloat32Mono(pcm, channels)
			return samples, sampleRate, nil
		}
		off += 8 + size
	}
}

// PeakAmplitude returns the largest absolute sample value in samples.
// Returns 0 for an empty slice.
func PeakAmplitude(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		if v := math.Abs(float64(s)); v > peak {
			peak = v
		}
	}
	return peak
}
