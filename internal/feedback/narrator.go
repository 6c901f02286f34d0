package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lectara/lectara/pkg/audio"
	"github.com/lectara/lectara/pkg/provider/tts"
	"github.com/lectara/lectara/pkg/types"
)

// DefaultSettleDelay is how long corrective narration waits after a verdict
// arrives, so the visual feedback lands before the voice does.
const DefaultSettleDelay = time.Second

// correctiveSpeed slows corrective narration slightly below the configured
// voice speed; the words being corrected are exactly the ones the reader
// struggled with.
const correctiveSpeed = 0.9

// Narrator speaks sentences and corrective feedback through a TTS provider
// and an audio player. Narration is an optional capability: a nil provider or
// any synthesis/playback failure degrades silently, leaving the visual
// feedback to stand alone.
type Narrator struct {
	tts    tts.Provider // nil when the capability is absent
	player audio.Player
	logger *slog.Logger

	delay time.Duration

	mu    sync.Mutex
	voice types.VoiceProfile
}

// NarratorOption is a functional option for configuring a Narrator.
type NarratorOption func(*Narrator)

// WithSettleDelay overrides the corrective settle delay. Used in tests.
func WithSettleDelay(d time.Duration) NarratorOption {
	return func(n *Narrator) { n.delay = d }
}

// WithVoice sets the initial voice profile.
func WithVoice(v types.VoiceProfile) NarratorOption {
	return func(n *Narrator) { n.voice = v }
}

// WithNarratorLogger replaces the default logger.
func WithNarratorLogger(l *slog.Logger) NarratorOption {
	return func(n *Narrator) { n.logger = l }
}

// NewNarrator creates a Narrator. provider may be nil.
func NewNarrator(provider tts.Provider, player audio.Player, opts ...NarratorOption) *Narrator {
	n := &Narrator{
		tts:    provider,
		player: player,
		logger: slog.Default(),
		delay:  DefaultSettleDelay,
		voice:  types.VoiceProfile{SpeedFactor: 1},
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// SetVoice switches the narration voice for subsequent utterances.
func (n *Narrator) SetVoice(v types.VoiceProfile) {
	n.mu.Lock()
	n.voice = v
	n.mu.Unlock()
}

// Voice returns the active voice profile.
func (n *Narrator) Voice() types.VoiceProfile {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.voice
}

// Voices lists the provider's available voices, or nil without a provider.
func (n *Narrator) Voices(ctx context.Context) ([]types.VoiceProfile, error) {
	if n.tts == nil {
		return nil, nil
	}
	return n.tts.ListVoices(ctx)
}

// Speak synthesizes text with the active voice and plays it to completion.
// This is the listen-to-the-sentence path; unlike corrective narration its
// failure is returned so the caller can tell the user.
func (n *Narrator) Speak(ctx context.Context, text string) error {
	if n.tts == nil {
		return fmt.Errorf("feedback: no narration voice available")
	}
	wav, err := n.tts.Synthesize(ctx, text, n.Voice())
	if err != nil {
		return fmt.Errorf("feedback: synthesize: %w", err)
	}
	if err := n.player.Play(ctx, wav); err != nil {
		return fmt.Errorf("feedback: play: %w", err)
	}
	return nil
}

// HandleResult reacts to a scored attempt. For an imperfect attempt it waits
// the settle delay and then speaks the corrective utterance at a slightly
// reduced speed. Runs in the calling goroutine; callers dispatch it
// asynchronously. Any failure is logged and swallowed.
func (n *Narrator) HandleResult(ctx context.Context, result types.PracticeResult) {
	text := CorrectiveText(result)
	if text == "" || n.tts == nil {
		return
	}

	select {
	case <-time.After(n.delay):
	case <-ctx.Done():
		return
	}

	voice := n.Voice()
	voice.SpeedFactor *= correctiveSpeed

	wav, err := n.tts.Synthesize(ctx, text, voice)
	if err != nil {
		n.logger.Warn("corrective narration unavailable", "error", err)
		return
	}
	if err := n.player.Play(ctx, wav); err != nil {
		n.logger.Warn("corrective playback failed", "error", err)
	}
}
