package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/lectara/lectara/internal/stats"
	"github.com/lectara/lectara/pkg/types"
)

func TestMemoryStoreSummary(t *testing.T) {
	ctx := context.Background()
	s := stats.NewMemoryStore()

	attempts := []stats.Attempt{
		{SentenceIndex: 0, Score: 0.5, IsCorrect: false},
		{SentenceIndex: 0, Score: 0.95, IsCorrect: true},
		{SentenceIndex: 1, Score: 0.9, IsCorrect: true},
		{SentenceIndex: 1, Score: 0.92, IsCorrect: true}, // repeat completion
	}
	for _, a := range attempts {
		if err := s.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
	}

	sum, err := s.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Attempts != 4 || sum.Correct != 3 {
		t.Errorf("Summary = %+v, want 4 attempts / 3 correct", sum)
	}
	if sum.Accuracy != 0.75 {
		t.Errorf("Accuracy = %v, want 0.75", sum.Accuracy)
	}
	if sum.CompletedSentences != 2 {
		t.Errorf("CompletedSentences = %d, want 2 distinct sentences", sum.CompletedSentences)
	}
}

func TestEmptySummary(t *testing.T) {
	sum, err := stats.NewMemoryStore().Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Attempts != 0 || sum.Accuracy != 0 {
		t.Errorf("empty Summary = %+v, want zeros", sum)
	}
}

func TestWeakWordsRequireRecurringMisses(t *testing.T) {
	ctx := context.Background()
	s := stats.NewMemoryStore()

	misses := [][]string{
		{"night", "through"},
		{"knight", "once"},
		{"night"},
	}
	for i, m := range misses {
		err := s.RecordAttempt(ctx, stats.Attempt{SentenceIndex: i, MissedWords: m})
		if err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
	}

	groups, err := s.WeakWords(ctx)
	if err != nil {
		t.Fatalf("WeakWords: %v", err)
	}
	// "night" was missed twice and qualifies; "knight", "through", "once" were
	// missed once each and do not.
	if len(groups) != 1 {
		t.Fatalf("groups = %+v, want exactly one recurring group", groups)
	}
	if groups[0].Misses != 2 || len(groups[0].Words) != 1 || groups[0].Words[0] != "night" {
		t.Errorf("group = %+v, want night missed twice", groups[0])
	}
}

func TestGroupWeakWordsMergesHomophones(t *testing.T) {
	// Both words recur; they share a Double Metaphone code and land in one
	// group ordered alphabetically.
	missed := []string{"night", "knight", "night", "knight", "sun", "sun"}

	groups := stats.GroupWeakWords(missed)
	if len(groups) != 2 {
		t.Fatalf("groups = %+v, want 2", groups)
	}
	first := groups[0]
	if first.Misses != 4 {
		t.Fatalf("most-missed group = %+v, want the 4-miss phonetic pair first", first)
	}
	if len(first.Words) != 2 || first.Words[0] != "knight" || first.Words[1] != "night" {
		t.Errorf("group words = %v, want [knight night]", first.Words)
	}
	if groups[1].Words[0] != "sun" || groups[1].Misses != 2 {
		t.Errorf("second group = %+v, want sun missed twice", groups[1])
	}
}

func TestAttemptFromResult(t *testing.T) {
	sentence := types.Sentence{GlobalIndex: 7, Page: 2, Text: "The knight rode on."}
	received := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	result := types.PracticeResult{
		Score:     0.6,
		IsCorrect: false,
		WordFeedback: []types.WordFeedback{
			{Word: "The", Status: types.WordCorrect},
			{Word: "knight", Status: types.WordIncorrect},
			{Word: "rode", Status: types.WordMissing},
			{Word: "on.", Status: types.WordCorrect},
		},
		ReceivedAt: received,
	}

	a := stats.AttemptFromResult(sentence, result)
	if a.SentenceIndex != 7 || a.Sentence != sentence.Text {
		t.Errorf("attempt identity = %+v", a)
	}
	if a.Score != 0.6 || a.IsCorrect {
		t.Errorf("attempt verdict = %+v", a)
	}
	if len(a.MissedWords) != 2 || a.MissedWords[0] != "knight" || a.MissedWords[1] != "rode" {
		t.Errorf("MissedWords = %v, want normalized [knight rode]", a.MissedWords)
	}
	if !a.At.Equal(received) {
		t.Errorf("At = %v, want the verdict's ReceivedAt", a.At)
	}
}
