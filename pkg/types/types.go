// Package types defines the shared domain types used across all Lectara
// packages.
//
// These types form the lingua franca between the capture pipeline, the
// recognition monitor, the scoring client, and the feedback synthesizer. They
// are intentionally minimal: each package defines its own domain types, and
// only cross-cutting data structures live here to avoid circular imports.
package types

import "time"

// Sentence is one backend-identified unit of readable text in an open
// document. Sentences are produced by the document-processing backend, are
// immutable for the life of a session, and are ordered by GlobalIndex.
type Sentence struct {
	// GlobalIndex is the sentence's ordinal, unique across the whole document.
	GlobalIndex int `json:"global_index"`

	// Page is the 1-based page number the sentence appears on.
	Page int `json:"page"`

	// Text is the sentence content as extracted by the backend.
	Text string `json:"text"`
}

// WordStatus describes the judged state of one expected word in the active
// sentence.
type WordStatus string

const (
	// WordCorrect means the word was judged correctly pronounced (by the
	// scoring backend) or heard by the live recognizer while recording.
	WordCorrect WordStatus = "correct"

	// WordIncorrect means the scoring backend judged the word mispronounced.
	WordIncorrect WordStatus = "incorrect"

	// WordMissing means the scoring backend did not hear the word at all.
	WordMissing WordStatus = "missing"

	// WordPending means recording is in progress and the word has not yet been
	// heard by the live recognizer. Never produced by the scoring backend.
	WordPending WordStatus = "pending"

	// WordNone is the neutral state shown when no attempt is in progress and
	// no result is available.
	WordNone WordStatus = "none"
)

// IsValid reports whether s is a recognised word status.
func (s WordStatus) IsValid() bool {
	switch s {
	case WordCorrect, WordIncorrect, WordMissing, WordPending, WordNone:
		return true
	}
	return false
}

// WordFeedback pairs one expected word with its judged status.
type WordFeedback struct {
	Word   string     `json:"word"`
	Status WordStatus `json:"status"`
}

// PracticeResult is the authoritative outcome of one scored attempt. It is
// created only by the scoring backend, is immutable once received, and is
// superseded wholesale by the next attempt.
type PracticeResult struct {
	// Score is the overall pronunciation accuracy in [0, 1].
	Score float64 `json:"score"`

	// IsCorrect reports whether the backend judged the attempt acceptable.
	IsCorrect bool `json:"is_correct"`

	// Feedback is a human-readable summary sentence from the backend.
	Feedback string `json:"feedback"`

	// WordFeedback is the per-word judgement sequence, in expected-word order.
	WordFeedback []WordFeedback `json:"word_feedback"`

	// SpokenText is the backend's transcription of what was actually said.
	// May be empty when the backend does not report it.
	SpokenText string `json:"spoken_text,omitempty"`

	// ReceivedAt is when the result arrived, for attempt bookkeeping.
	ReceivedAt time.Time `json:"-"`
}

// VoiceProfile describes a synthesis voice offered by a TTS capability.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier.
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider identifies which TTS provider this voice belongs to.
	Provider string

	// Language is the BCP-47 language tag of the voice, when known.
	Language string

	// SpeedFactor adjusts speaking rate (0.5 to 2.0, 1.0 = default). Corrective
	// narration uses a slightly reduced rate.
	SpeedFactor float64
}
