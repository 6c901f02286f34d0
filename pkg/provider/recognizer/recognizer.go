// Package recognizer defines the Provider interface for live speech
// recognition backends.
//
// A recognizer wraps a streaming transcription engine (a local whisper.cpp
// model or server, or the Deepgram streaming API) and exposes a uniform
// interface. The central abstraction is SessionHandle: once opened, a session
// accepts raw PCM audio frames and emits two streams of Transcript values,
// low-latency partials for live progress tracking and authoritative finals.
//
// The recognizer is an optional capability. When no backend is configured the
// rest of the pipeline runs without live progress: recordings still stop on
// explicit request or timeout, never automatically.
//
// Implementations must be safe for concurrent use.
package recognizer

import (
	"context"
	"time"
)

// Transcript is a single recognition result. Both partial (interim) and final
// transcripts use this type.
type Transcript struct {
	// Text is the transcribed speech content.
	Text string

	// IsFinal indicates whether this is a final (authoritative) or partial
	// (interim) transcript.
	IsFinal bool

	// Confidence is the overall confidence score (0.0-1.0). Zero when the
	// backend does not report confidence.
	Confidence float64

	// Words contains per-word detail when the backend supports it. Nil
	// otherwise.
	Words []WordDetail

	// Timestamp marks when the utterance started, relative to session start.
	Timestamp time.Duration

	// Duration is the length of the utterance.
	Duration time.Duration
}

// WordDetail holds per-word metadata from backends that report it.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// StreamConfig describes the audio format and recognition hints for a new
// session.
type StreamConfig struct {
	// SampleRate is the audio sample rate in Hz. 16000 is the canonical
	// capture rate.
	SampleRate int

	// Channels is the number of audio channels. 1 = mono. Implementations may
	// downmix stereo internally.
	Channels int

	// Language is the BCP-47 language tag for recognition (e.g., "en",
	// "de-DE"). Empty lets the backend auto-detect, if supported.
	Language string

	// Hints is the vocabulary expected in this session, typically the words of
	// the sentence being read aloud. Backends that support vocabulary boosting
	// use it to improve recognition of the exact target words; others ignore
	// it.
	Hints []string
}

// SessionHandle represents one open recognition session, spanning a single
// recording.
//
// Callers must call Close when the session is no longer needed; failing to do
// so may leak goroutines and network connections inside the implementation.
// All methods must be safe for concurrent use.
type SessionHandle interface {
	// SendAudio delivers a chunk of raw PCM audio bytes for transcription. The
	// chunk must match the SampleRate, Channels, and 16-bit depth agreed in
	// StreamConfig. Calling SendAudio after Close returns an error.
	SendAudio(chunk []byte) error

	// Partials returns a read-only channel of low-latency interim transcripts,
	// suitable for live progress tracking but never authoritative. Closed when
	// the session ends.
	Partials() <-chan Transcript

	// Finals returns a read-only channel of authoritative transcripts. Closed
	// when the session ends.
	Finals() <-chan Transcript

	// Close terminates the session, flushes any pending audio, and releases
	// all associated resources. After Close returns the Partials and Finals
	// channels are closed. Calling Close more than once is safe and returns
	// nil.
	Close() error
}

// Provider is the abstraction over any live recognition backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// StartStream opens a new streaming recognition session with the given
	// audio format and hints. The returned SessionHandle is ready to accept
	// audio immediately. The caller owns the SessionHandle and must call Close
	// when done.
	StartStream(ctx context.Context, cfg StreamConfig) (SessionHandle, error)
}
