// Package feedback merges the three asynchronous sources of truth about an
// attempt (the authoritative backend verdict, the live recognition hints, and
// the neutral default) into one per-word status sequence, and drives the
// corrective narration spoken after an imperfect attempt.
package feedback

import (
	"strings"

	"github.com/lectara/lectara/internal/words"
	"github.com/lectara/lectara/pkg/types"
)

// CorrectivePrefix opens the corrective utterance naming the words to retry.
const CorrectivePrefix = "Let's try these words again: "

// View computes the word-status sequence rendered for the active sentence.
//
// Precedence: a backend verdict for the current attempt is authoritative and
// used verbatim, never locally recomputed. While recording, each expected
// word is "correct" if its normalized form is in the live recognized set and
// "pending" otherwise. With neither, every word is "none". Because the
// controller clears the verdict when a new recording starts, "pending" can
// never reappear over a verdict within the same attempt.
func View(sentence string, result *types.PracticeResult, recording bool, spoken map[string]struct{}) []types.WordFeedback {
	if result != nil {
		return result.WordFeedback
	}

	expected := strings.Fields(sentence)
	out := make([]types.WordFeedback, len(expected))
	for i, w := range expected {
		status := types.WordNone
		if recording {
			status = types.WordPending
			if _, ok := spoken[words.Normalize(w)]; ok {
				status = types.WordCorrect
			}
		}
		out[i] = types.WordFeedback{Word: w, Status: status}
	}
	return out
}

// CorrectiveWords returns the words a not-fully-correct verdict explicitly
// judged wrong: those whose status is neither correct, pending, nor none.
// Returns nil for a correct attempt.
func CorrectiveWords(result types.PracticeResult) []string {
	if result.IsCorrect {
		return nil
	}
	var missed []string
	for _, wf := range result.WordFeedback {
		switch wf.Status {
		case types.WordCorrect, types.WordPending, types.WordNone:
		default:
			missed = append(missed, wf.Word)
		}
	}
	return missed
}

// CorrectiveText builds the utterance spoken after an imperfect attempt, or
// "" when there is nothing to correct.
func CorrectiveText(result types.PracticeResult) string {
	missed := CorrectiveWords(result)
	if len(missed) == 0 {
		return ""
	}
	return CorrectivePrefix + strings.Join(missed, ", ")
}
