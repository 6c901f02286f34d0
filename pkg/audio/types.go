package audio

import "time"

// AudioFrame represents a single frame of audio data flowing through the
// pipeline. Frames are the atomic unit of audio transport: captured from the
// microphone, streamed to the live recognizer, and buffered for transcoding.
type AudioFrame struct {
	// PCM audio data, 16-bit signed little-endian.
	Data []byte

	// SampleRate in Hz (e.g., 16000 for recognition input, 48000 for Opus).
	SampleRate int

	// Channels: 1 for mono (recognition input), 2 for stereo sources.
	Channels int

	// Timestamp marks when this frame was captured, relative to capture start.
	Timestamp time.Duration
}

// Recording is the raw captured byte stream handed back when a capture stops.
// The container is whatever the capture device natively produces; the
// transcoder is responsible for converting it to the canonical scoring format.
type Recording struct {
	// Container identifies the byte layout of Data. Known values:
	// "pcm16" (raw 16-bit LE PCM), "opus" (length-prefixed Opus packets),
	// "wav" (RIFF/WAVE).
	Container string

	// Data is the complete captured byte stream.
	Data []byte

	// SampleRate and Channels describe the capture format.
	SampleRate int
	Channels   int
}

// ContentType returns the MIME type matching the recording's container, for
// forwarding to the scoring backend.
func (r Recording) ContentType() string {
	switch r.Container {
	case "wav":
		return "audio/wav"
	case "opus":
		return "audio/opus"
	default:
		return "application/octet-stream"
	}
}
