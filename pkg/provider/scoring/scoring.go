// Package scoring defines the Provider interface for pronunciation scoring
// backends.
//
// A scoring provider receives a complete recording of a sentence read aloud
// and returns a graded PracticeResult: an overall score, a pass/fail verdict,
// human-readable feedback, and per-word statuses. Scoring is the only
// mandatory provider in the pipeline; without it an attempt cannot complete.
package scoring

import (
	"context"
	"errors"

	"github.com/lectara/lectara/pkg/types"
)

// ErrUnavailable indicates the scoring backend could not be reached or
// refused service. The attempt that triggered it is surfaced as an error and
// the session returns to idle; the recording is not retried automatically.
var ErrUnavailable = errors.New("scoring: backend unavailable")

// Submission is one complete recording to be graded.
type Submission struct {
	// Audio is the recorded audio container, canonically 16 kHz mono WAV.
	// When transcoding failed it is the raw capture instead; the backend
	// decides what it can do with it.
	Audio []byte

	// ContentType is the MIME type of Audio (e.g., "audio/wav").
	ContentType string

	// Sentence is the exact expected text the reader was shown.
	Sentence string
}

// Provider is the abstraction over any pronunciation scoring backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Evaluate submits the recording and blocks until the backend returns a
	// verdict or ctx is done. A transport failure or a 5xx response is
	// reported as an error wrapping ErrUnavailable.
	Evaluate(ctx context.Context, sub Submission) (types.PracticeResult, error)
}
