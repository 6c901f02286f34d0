// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider turns short utterances (a sentence to read aloud, a
// corrective phrase) into playable WAV audio. Narration is an optional
// capability: when no provider is configured, spoken feedback is skipped
// silently and the visual feedback stands alone.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"

	"github.com/lectara/lectara/pkg/types"
)

// Provider is the abstraction over any TTS backend.
//
// Utterances in this domain are single sentences, so synthesis is batch: one
// call, one complete WAV container. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Synthesize renders text as a WAV container using the given voice.
	// Implementations that cannot honor parts of the profile (speed, specific
	// voice) fall back to their defaults rather than failing.
	Synthesize(ctx context.Context, text string, voice types.VoiceProfile) ([]byte, error)

	// ListVoices returns the voice profiles currently available from this
	// provider. The catalogue may change between calls.
	ListVoices(ctx context.Context) ([]types.VoiceProfile, error)
}
