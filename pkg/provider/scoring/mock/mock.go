// Package mock provides a test double for the scoring Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/lectara/lectara/pkg/provider/scoring"
	"github.com/lectara/lectara/pkg/types"
)

// Provider is a mock implementation of scoring.Provider. Tests set Result or
// Err and inspect recorded submissions afterwards.
type Provider struct {
	mu sync.Mutex

	// Result is returned by Evaluate when Err is nil.
	Result types.PracticeResult

	// Err, if non-nil, is returned by Evaluate.
	Err error

	// Evaluations records every submission in order.
	Evaluations []scoring.Submission

	// Block, when non-nil, makes Evaluate wait until the channel is closed or
	// ctx is done. Used to test in-flight attempt handling.
	Block chan struct{}
}

var _ scoring.Provider = (*Provider)(nil)

// Evaluate records the submission and returns Result, Err.
func (p *Provider) Evaluate(ctx context.Context, sub scoring.Submission) (types.PracticeResult, error) {
	p.mu.Lock()
	p.Evaluations = append(p.Evaluations, sub)
	block := p.Block
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return types.PracticeResult{}, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return types.PracticeResult{}, p.Err
	}
	return p.Result, nil
}

// EvaluationCount returns the number of recorded submissions. Thread-safe.
func (p *Provider) EvaluationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Evaluations)
}

// LastSubmission returns the most recent submission and true, or false when
// none were recorded.
func (p *Provider) LastSubmission() (scoring.Submission, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Evaluations) == 0 {
		return scoring.Submission{}, false
	}
	return p.Evaluations[len(p.Evaluations)-1], true
}
