package audio

import "context"

// Player is an injectable playback sink for synthesized audio. It replaces
// any notion of an ambient, module-wide audio output: the owner (the
// application, scoped to its lifetime) constructs one Player, passes it to
// every component that plays audio, and closes it on shutdown.
//
// Implementations must be safe for concurrent use; concurrent Play calls are
// serialized by the implementation.
type Player interface {
	// Play decodes the WAV container and plays it to completion, or until ctx
	// is cancelled. Blocking: callers that must not wait run it on their own
	// goroutine.
	Play(ctx context.Context, wav []byte) error

	// Close releases the output device. Play calls after Close return an error.
	Close() error
}
