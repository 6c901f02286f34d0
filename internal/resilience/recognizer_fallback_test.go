package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/lectara/lectara/pkg/provider/recognizer"
	recmock "github.com/lectara/lectara/pkg/provider/recognizer/mock"
)

func TestRecognizerFallbackPrimarySuccess(t *testing.T) {
	primary := &recmock.Provider{Session: recmock.NewSession()}
	secondary := &recmock.Provider{Session: recmock.NewSession()}

	fb := NewRecognizerFallback(primary, "whisper", FallbackConfig{
		CircuitBreaker: BreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("deepgram", secondary)

	handle, err := fb.StartStream(context.Background(), recognizer.StreamConfig{
		SampleRate: 16000,
		Channels:   1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer handle.Close()

	if got := len(primary.Calls()); got != 1 {
		t.Fatalf("primary started %d streams, want 1", got)
	}
	if got := len(secondary.Calls()); got != 0 {
		t.Fatalf("secondary started %d streams, want 0", got)
	}
}

func TestRecognizerFallbackStartStreamFailover(t *testing.T) {
	primary := &recmock.Provider{StartStreamErr: errors.New("whisper server down")}
	secondary := &recmock.Provider{Session: recmock.NewSession()}

	fb := NewRecognizerFallback(primary, "whisper", FallbackConfig{
		CircuitBreaker: BreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("deepgram", secondary)

	cfg := recognizer.StreamConfig{SampleRate: 16000, Channels: 1, Hints: []string{"cat"}}
	handle, err := fb.StartStream(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer handle.Close()

	calls := secondary.Calls()
	if len(calls) != 1 {
		t.Fatalf("secondary started %d streams, want 1", len(calls))
	}
	if len(calls[0].Cfg.Hints) != 1 || calls[0].Cfg.Hints[0] != "cat" {
		t.Errorf("hints not forwarded to the fallback: %+v", calls[0].Cfg)
	}
}

func TestRecognizerFallbackAllFail(t *testing.T) {
	primary := &recmock.Provider{StartStreamErr: errors.New("whisper server down")}
	secondary := &recmock.Provider{StartStreamErr: errors.New("no api key")}

	fb := NewRecognizerFallback(primary, "whisper", FallbackConfig{
		CircuitBreaker: BreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("deepgram", secondary)

	_, err := fb.StartStream(context.Background(), recognizer.StreamConfig{})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}
