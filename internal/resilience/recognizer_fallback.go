package resilience

import (
	"context"

	"github.com/lectara/lectara/pkg/provider/recognizer"
)

// RecognizerFallback implements [recognizer.Provider] with automatic failover
// across recognition backends, typically a local whisper server backed by a
// hosted service.
type RecognizerFallback struct {
	group *FallbackGroup[recognizer.Provider]
}

var _ recognizer.Provider = (*RecognizerFallback)(nil)

// NewRecognizerFallback creates a [RecognizerFallback] preferring primary.
func NewRecognizerFallback(primary recognizer.Provider, primaryName string, cfg FallbackConfig) *RecognizerFallback {
	return &RecognizerFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional recognition provider.
func (f *RecognizerFallback) AddFallback(name string, provider recognizer.Provider) {
	f.group.AddFallback(name, provider)
}

// StartStream opens a recognition session on the first healthy provider.
// Failover covers stream setup only; once a session is handed out, errors on
// it belong to the caller.
func (f *RecognizerFallback) StartStream(ctx context.Context, cfg recognizer.StreamConfig) (recognizer.SessionHandle, error) {
	return ExecuteWithResult(f.group, func(p recognizer.Provider) (recognizer.SessionHandle, error) {
		return p.StartStream(ctx, cfg)
	})
}
