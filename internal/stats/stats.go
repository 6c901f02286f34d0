// Package stats records scored practice attempts and derives progress
// reports from them: an overall session summary and a "weak words" report
// that surfaces words the reader keeps missing, grouped by how they sound.
package stats

import (
	"context"
	"time"

	"github.com/lectara/lectara/internal/words"
	"github.com/lectara/lectara/pkg/types"
)

// Attempt is one scored recording, as persisted.
type Attempt struct {
	// SentenceIndex is the sentence's GlobalIndex within its document.
	SentenceIndex int

	// Sentence is the expected text of the attempt.
	Sentence string

	// Score is the backend's accuracy for the attempt, in [0, 1].
	Score float64

	// IsCorrect reports whether the backend accepted the attempt.
	IsCorrect bool

	// MissedWords are the expected words the backend judged wrong, in
	// normalized form.
	MissedWords []string

	// At is when the attempt was scored.
	At time.Time
}

// Summary aggregates every recorded attempt.
type Summary struct {
	// Attempts is the total number of scored attempts.
	Attempts int

	// Correct is how many attempts the backend accepted.
	Correct int

	// Accuracy is Correct divided by Attempts, or 0 without attempts.
	Accuracy float64

	// CompletedSentences counts distinct sentences with at least one correct
	// attempt.
	CompletedSentences int
}

// Store persists attempts and answers progress queries. Implementations are
// safe for concurrent use.
type Store interface {
	// RecordAttempt appends one scored attempt.
	RecordAttempt(ctx context.Context, a Attempt) error

	// Summary aggregates all recorded attempts.
	Summary(ctx context.Context) (Summary, error)

	// WeakWords reports recurring missed words grouped phonetically.
	WeakWords(ctx context.Context) ([]WeakWordGroup, error)
}

// AttemptFromResult builds the Attempt record for a scored sentence. Missed
// words are the verdict entries judged wrong (incorrect, missing), normalized
// the same way live recognition normalizes them.
func AttemptFromResult(sentence types.Sentence, r types.PracticeResult) Attempt {
	var missed []string
	for _, wf := range r.WordFeedback {
		switch wf.Status {
		case types.WordCorrect, types.WordPending, types.WordNone:
		default:
			if w := words.Normalize(wf.Word); w != "" {
				missed = append(missed, w)
			}
		}
	}
	at := r.ReceivedAt
	if at.IsZero() {
		at = time.Now()
	}
	return Attempt{
		SentenceIndex: sentence.GlobalIndex,
		Sentence:      sentence.Text,
		Score:         r.Score,
		IsCorrect:     r.IsCorrect,
		MissedWords:   missed,
		At:            at,
	}
}
