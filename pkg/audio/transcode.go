package audio

import (
	"encoding/binary"
	"fmt"

	"layeh.com/gopus"
)

// ScoringSampleRate is the sample rate of the canonical container submitted to
// the scoring backend.
const ScoringSampleRate = 16000

// opusFrameSize is the maximum number of samples per channel in one Opus
// packet at 48 kHz (120 ms). Decoding with the maximum lets the decoder return
// however many samples the packet actually carries.
const opusFrameSize = 5760

// DecodeError reports that a captured byte stream could not be converted to
// the canonical scoring format. It is non-fatal: the caller forwards the
// original recording to the scoring backend unchanged.
type DecodeError struct {
	Container string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("audio: transcode %s capture: %v", e.Container, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TranscodeResult is the outcome of a successful transcode.
type TranscodeResult struct {
	// WAV is the canonical 16 kHz mono PCM container.
	WAV []byte

	// SampleCount is the number of samples encoded in WAV.
	SampleCount int

	// Peak is the peak absolute amplitude observed across all samples.
	Peak float64

	// LowSignal is set when Peak is below [LowSignalPeak]. Informational only:
	// scoring may still fail downstream, but capture does not abort.
	LowSignal bool
}

// Transcoder converts a captured [Recording] into the canonical scoring
// container: 16 kHz mono 16-bit PCM WAV. A Transcoder is stateless and safe
// for concurrent use.
type Transcoder struct{}

// Transcode decodes rec into normalized samples, resamples and down-mixes to
// 16 kHz mono as needed, and encodes the result as WAV. On any decode failure
// it returns a [*DecodeError]; the caller must then forward rec unchanged
// rather than dropping the attempt.
func (t Transcoder) Transcode(rec Recording) (TranscodeResult, error) {
	samples, err := t.decode(rec)
	if err != nil {
		return TranscodeResult{}, &DecodeError{Container: rec.Container, Err: err}
	}

	peak := PeakAmplitude(samples)

	res := TranscodeResult{
		WAV:         EncodeWAV(samples, ScoringSampleRate),
		SampleCount: len(samples),
		Peak:        peak,
		LowSignal:   peak < LowSignalPeak,
	}
	return res, nil
}

// decode converts the recording's container into 16 kHz mono float samples.
func (t Transcoder) decode(rec Recording) ([]float32, error) {
	switch rec.Container {
	case "pcm16":
		return t.decodePCM(rec.Data, rec.SampleRate, rec.Channels), nil

	case "wav":
		samples, rate, err := DecodeWAV(rec.Data)
		if err != nil {
			return nil, err
		}
		if rate != ScoringSampleRate {
			pcm := ResampleMono16(float32ToPCM16(samples), rate, ScoringSampleRate)
			samples = PCM16ToFloat32Mono(pcm, 1)
		}
		return samples, nil

	case "opus":
		pcm, channels, err := decodeOpusPackets(rec.Data, rec.SampleRate, rec.Channels)
		if err != nil {
			return nil, err
		}
		return t.decodePCM(pcm, rec.SampleRate, channels), nil

	default:
		return nil, fmt.Errorf("unknown container %q", rec.Container)
	}
}

// decodePCM normalizes raw 16-bit PCM to mono float samples at the scoring
// rate.
func (t Transcoder) decodePCM(pcm []byte, sampleRate, channels int) []float32 {
	if channels == 2 {
		pcm = StereoToMono(pcm)
	}
	if sampleRate > 0 && sampleRate != ScoringSampleRate {
		pcm = ResampleMono16(pcm, sampleRate, ScoringSampleRate)
	}
	return PCM16ToFloat32Mono(pcm, 1)
}

// decodeOpusPackets decodes a length-prefixed stream of Opus packets into
// interleaved 16-bit PCM. Each packet is preceded by a u32 little-endian
// length. A fresh decoder is used for the whole stream so decoder state is
// maintained across consecutive packets.
func decodeOpusPackets(data []byte, sampleRate, channels int) (pcm []byte, outChannels int, err error) {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	if channels <= 0 {
		channels = 1
	}
	dec, err := gopus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, 0, fmt.Errorf("create opus decoder: %w", err)
	}

	off := 0
	for off < len(data) {
		if off+4 > len(data) {
			return nil, 0, fmt.Errorf("truncated packet length at offset %d", off)
		}
		n := int(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
		if n <= 0 || off+n > len(data) {
			return nil, 0, fmt.Errorf("invalid packet length %d at offset %d", n, off-4)
		}
		frame, err := dec.Decode(data[off:off+n], opusFrameSize, false)
		if err != nil {
			return nil, 0, fmt.Errorf("opus decode: %w", err)
		}
		off += n
		for _, s := range frame {
			pcm = append(pcm, byte(s), byte(s>>8))
		}
	}
	return pcm, channels, nil
}
