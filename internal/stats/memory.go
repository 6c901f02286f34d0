package stats

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. It is the default when no database is
// configured; progress then lives only as long as the process.
type MemoryStore struct {
	mu       sync.Mutex
	attempts []Attempt
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// RecordAttempt appends a copy of a.
func (s *MemoryStore) RecordAttempt(_ context.Context, a Attempt) error {
	a.MissedWords = append([]string(nil), a.MissedWords...)
	s.mu.Lock()
	s.attempts = append(s.attempts, a)
	s.mu.Unlock()
	return nil
}

// Summary aggregates all recorded attempts.
func (s *MemoryStore) Summary(_ context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{Attempts: len(s.attempts)}
	completed := make(map[int]struct{})
	for _, a := range s.attempts {
		if a.IsCorrect {
			sum.Correct++
			completed[a.SentenceIndex] = struct{}{}
		}
	}
	sum.CompletedSentences = len(completed)
	if sum.Attempts > 0 {
		sum.Accuracy = float64(sum.Correct) / float64(sum.Attempts)
	}
	return sum, nil
}

// WeakWords groups recurring missed words across all attempts.
func (s *MemoryStore) WeakWords(_ context.Context) ([]WeakWordGroup, error) {
	s.mu.Lock()
	var missed []string
	for _, a := range s.attempts {
		missed = append(missed, a.MissedWords...)
	}
	s.mu.Unlock()
	return GroupWeakWords(missed), nil
}
