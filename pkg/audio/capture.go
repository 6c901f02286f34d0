// Package audio defines the capture, transcoding, and playback primitives of
// the Lectara practice pipeline.
//
// The three central abstractions are:
//
//   - [Device] acquires the microphone and returns a [Capture].
//   - [Transcoder] converts a captured [Recording] into the canonical
//     16 kHz mono WAV container the scoring backend expects.
//   - [Player] is an injectable playback sink for synthesized audio.
//
// Implementations of [Device] and [Player] are provided by platform adapter
// packages (e.g., audio/portaudio). The interfaces are intentionally narrow to
// keep the session controller decoupled from platform details.
package audio

import (
	"context"
	"errors"
)

// ErrPermissionDenied is returned by [Device.Start] when microphone access is
// refused by the platform. It is fatal to starting a session but recoverable:
// the user may grant access and retry.
var ErrPermissionDenied = errors.New("audio: microphone permission denied")

// Device acquires the microphone and starts captures. Only one capture may be
// live at a time; the session controller enforces this.
//
// Implementations must be safe for concurrent use.
type Device interface {
	// Start acquires the microphone and begins capturing. The supplied ctx
	// governs the lifetime of the acquisition attempt only; once started, the
	// capture remains live until [Capture.Stop] is called.
	//
	// Returns [ErrPermissionDenied] (possibly wrapped) if the platform refuses
	// microphone access.
	Start(ctx context.Context) (Capture, error)
}

// Capture is one live microphone capture. The underlying stream is exclusively
// owned by the Capture and is released exactly once, on the stop path,
// regardless of which trigger caused the stop.
//
// Implementations must be safe for concurrent use.
type Capture interface {
	// Frames returns a read-only channel of live PCM frames for the streaming
	// recognizer. The channel is closed when the capture stops.
	Frames() <-chan AudioFrame

	// Stop ends the capture, releases the microphone, and returns the complete
	// buffered byte stream. Stop is idempotent: the second and subsequent
	// calls are no-ops returning the same Recording and a nil error.
	Stop() (Recording, error)
}
