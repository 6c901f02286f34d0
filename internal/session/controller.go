// Package session implements the practice session state machine.
//
// A Controller coordinates one recording attempt at a time: it acquires the
// microphone, starts the optional live recognition monitor, arms the
// recording timeout, funnels every stop trigger (user request, auto-stop,
// timeout) through a single idempotent stop path, and carries the stopped
// recording through transcoding into scoring submission.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lectara/lectara/internal/monitor"
	"github.com/lectara/lectara/internal/words"
	"github.com/lectara/lectara/pkg/audio"
	"github.com/lectara/lectara/pkg/provider/recognizer"
	"github.com/lectara/lectara/pkg/provider/scoring"
	"github.com/lectara/lectara/pkg/types"
)

// DefaultTimeout is how long a recording may run before it is stopped
// regardless of recognition progress.
const DefaultTimeout = 10 * time.Second

// State is the controller's lifecycle state.
type State int

const (
	// StateIdle means no recording is in progress. The previous attempt's
	// result, if any, is available.
	StateIdle State = iota

	// StateRecording means the microphone is live.
	StateRecording

	// StateStopped means capture has ended and the recording is being
	// transcoded and submitted for scoring.
	StateStopped

	// StateError means the last attempt failed. The controller returns to
	// StateIdle immediately after surfacing the failure; the state is
	// observable through state-change callbacks.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StopReason identifies which trigger ended a recording.
type StopReason string

const (
	StopUser    StopReason = "user"
	StopAuto    StopReason = "auto"
	StopTimeout StopReason = "timeout"
)

// Controller drives practice attempts. At most one recording exists at a
// time. All methods are safe for concurrent use.
type Controller struct {
	device     audio.Device
	scorer     scoring.Provider
	recognizer recognizer.Provider // nil when the capability is absent
	transcoder audio.Transcoder
	logger     *slog.Logger

	timeout  time.Duration
	grace    time.Duration
	language string

	onResult    func(types.Sentence, types.PracticeResult)
	onError     func(error)
	onState     func(State)
	onLowSignal func(peak float64)

	mu       sync.Mutex
	state    State
	starting bool
	capture  audio.Capture
	mon      *monitor.Monitor
	timer    *time.Timer
	sentence types.Sentence
	result   *types.PracticeResult
	lastErr  error
	lastStop StopReason
	attempt  uint64
}

// Option is a functional option for configuring a Controller.
type Option func(*Controller)

// WithRecognizer enables live recognition. Without it the controller relies
// on explicit stop and the timeout alone.
func WithRecognizer(p recognizer.Provider) Option {
	return func(c *Controller) { c.recognizer = p }
}

// WithTimeout overrides the recording timeout. Defaults to 10 s.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithGraceDelay overrides the monitor's auto-stop grace delay.
func WithGraceDelay(d time.Duration) Option {
	return func(c *Controller) { c.grace = d }
}

// WithLanguage sets the recognition language forwarded to the recognizer.
func WithLanguage(lang string) Option {
	return func(c *Controller) { c.language = lang }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithOnResult registers the callback invoked when an attempt is scored. It
// receives the sentence the attempt was recorded against.
func WithOnResult(fn func(types.Sentence, types.PracticeResult)) Option {
	return func(c *Controller) { c.onResult = fn }
}

// WithOnError registers the callback invoked when an attempt fails after
// recording started (scoring unavailable, submission rejected).
func WithOnError(fn func(error)) Option {
	return func(c *Controller) { c.onError = fn }
}

// WithOnStateChange registers the callback invoked on every state
// transition, in transition order.
func WithOnStateChange(fn func(State)) Option {
	return func(c *Controller) { c.onState = fn }
}

// WithOnLowSignal registers the callback invoked when a stopped recording's
// peak amplitude fell below the audible threshold. The attempt still proceeds
// to scoring; the callback is advisory.
func WithOnLowSignal(fn func(peak float64)) Option {
	return func(c *Controller) { c.onLowSignal = fn }
}

// NewController creates a Controller. device captures audio and scorer grades
// it; both are required.
func NewController(device audio.Device, scorer scoring.Provider, opts ...Option) *Controller {
	c := &Controller{
		device:  device,
		scorer:  scorer,
		logger:  slog.Default(),
		timeout: DefaultTimeout,
		grace:   monitor.DefaultGraceDelay,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetTiming updates the recording timeout and grace delay for subsequent
// recordings. An in-flight recording keeps the values it started with.
// Non-positive values leave the corresponding setting unchanged.
func (c *Controller) SetTiming(timeout, grace time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timeout > 0 {
		c.timeout = timeout
	}
	if grace > 0 {
		c.grace = grace
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Sentence returns the sentence the current or most recent recording was
// pinned to.
func (c *Controller) Sentence() types.Sentence {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sentence
}

// Result returns the most recent attempt's result. Cleared when a new
// recording starts, so stale verdicts never outlive the attempt they graded.
func (c *Controller) Result() (types.PracticeResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return types.PracticeResult{}, false
	}
	return *c.result, true
}

// LastStopReason returns the trigger that ended the most recent recording.
// Empty before the first stop.
func (c *Controller) LastStopReason() StopReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStop
}

// LastError returns the most recent attempt failure, if any.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// RecognizedWords returns the live monitor's recognized-word set for the
// in-flight recording. Empty when not recording or when live recognition is
// absent.
func (c *Controller) RecognizedWords() map[string]struct{} {
	c.mu.Lock()
	mon := c.mon
	c.mu.Unlock()
	if mon == nil {
		return map[string]struct{}{}
	}
	return mon.Words()
}

// setState transitions to s and notifies the state-change callback. Caller
// must not hold c.mu.
func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	fn := c.onState
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// Start begins recording the given sentence. If a recording is already in
// progress the call is treated as a stop request for it (toggle semantics),
// not as an error. The sentence is pinned for the attempt: switching the
// active sentence mid-recording does not change what the recording is scored
// against.
//
// A microphone acquisition failure is returned to the caller (wrapped
// audio.ErrPermissionDenied when access was refused) and the controller
// stays retryable in StateIdle.
func (c *Controller) Start(ctx context.Context, sentence types.Sentence) error {
	c.mu.Lock()
	if c.state == StateRecording {
		c.mu.Unlock()
		c.Stop(StopUser)
		return nil
	}
	if c.state == StateStopped {
		c.mu.Unlock()
		return errors.New("session: previous attempt still being scored")
	}
	if c.starting {
		c.mu.Unlock()
		return errors.New("session: start already in progress")
	}
	c.starting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
	}()

	capture, err := c.device.Start(ctx)
	if err != nil {
		c.logger.Error("microphone acquisition failed", "error", err)
		c.setState(StateError)
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		c.setState(StateIdle)
		return fmt.Errorf("session: start capture: %w", err)
	}

	mon := c.startMonitor(ctx, capture, sentence)

	c.mu.Lock()
	c.capture = capture
	c.mon = mon
	c.sentence = sentence
	c.result = nil // prior verdict and live hints are gone for the new attempt
	c.lastErr = nil
	c.attempt++
	c.timer = time.AfterFunc(c.timeout, func() { c.Stop(StopTimeout) })
	c.mu.Unlock()
	c.setState(StateRecording)

	c.logger.Info("recording started",
		"sentence", sentence.GlobalIndex,
		"words", words.Count(sentence.Text),
		"live_recognition", mon != nil && c.recognizer != nil)
	return nil
}

// startMonitor opens a recognition stream and a monitor for it, and begins
// pumping capture frames into the stream. Recognition is best-effort: any
// failure degrades to timeout-only stopping without interrupting the session.
func (c *Controller) startMonitor(ctx context.Context, capture audio.Capture, sentence types.Sentence) *monitor.Monitor {
	if c.recognizer == nil {
		return monitor.Start(nil, sentence.Text, nil)
	}

	handle, err := c.recognizer.StartStream(ctx, recognizer.StreamConfig{
		SampleRate: audio.ScoringSampleRate,
		Channels:   1,
		Language:   c.language,
		Hints:      words.Split(words.Normalize(sentence.Text)),
	})
	if err != nil {
		c.logger.Warn("live recognition unavailable, relying on timeout", "error", err)
		return monitor.Start(nil, sentence.Text, nil)
	}

	mon := monitor.Start(handle, sentence.Text,
		func() { c.Stop(StopAuto) },
		monitor.WithGraceDelay(c.grace))

	go func() {
		for frame := range capture.Frames() {
			if err := handle.SendAudio(frame.Data); err != nil {
				return
			}
		}
	}()

	return mon
}

// Stop is the single authoritative stop entry point. The first trigger wins;
// any later trigger finds the session no longer recording and is a no-op, so
// the microphone is released exactly once and at most one scoring request is
// submitted per attempt.
func (c *Controller) Stop(reason StopReason) {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	c.state = StateStopped
	c.lastStop = reason
	timer := c.timer
	mon := c.mon
	capture := c.capture
	sentence := c.sentence
	c.timer = nil
	c.mon = nil
	c.capture = nil
	onState := c.onState
	c.mu.Unlock()

	if onState != nil {
		onState(StateStopped)
	}
	if timer != nil {
		timer.Stop()
	}

	// The monitor goes first: a late recognizer event must never race the
	// released microphone stream.
	mon.Stop()

	rec, err := capture.Stop()
	if err != nil {
		c.logger.Error("capture stop failed", "reason", reason, "error", err)
	}

	c.logger.Info("recording stopped", "reason", reason, "bytes", len(rec.Data))

	go c.finish(rec, sentence)
}

// finish transcodes the recording and submits it for scoring, then returns
// the controller to StateIdle whether or not the attempt succeeded.
func (c *Controller) finish(rec audio.Recording, sentence types.Sentence) {
	sub := scoring.Submission{Sentence: sentence.Text}

	res, err := c.transcoder.Transcode(rec)
	switch {
	case err == nil:
		if res.LowSignal {
			c.logger.Warn("low signal captured", "peak", res.Peak)
			if c.onLowSignal != nil {
				c.onLowSignal(res.Peak)
			}
		}
		sub.Audio = res.WAV
		sub.ContentType = "audio/wav"
	default:
		// Transcoding is best-effort: forward the raw capture unchanged and
		// let the backend decide what it can do with it.
		c.logger.Warn("transcode failed, forwarding raw capture", "error", err)
		sub.Audio = rec.Data
		sub.ContentType = rec.ContentType()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	verdict, err := c.scorer.Evaluate(ctx, sub)
	if err != nil {
		c.logger.Error("scoring submission failed", "error", err)
		c.mu.Lock()
		c.lastErr = err
		onError := c.onError
		c.mu.Unlock()
		c.setState(StateError)
		if onError != nil {
			onError(err)
		}
		c.setState(StateIdle)
		return
	}

	c.mu.Lock()
	c.result = &verdict
	onResult := c.onResult
	c.mu.Unlock()
	c.setState(StateIdle)

	c.logger.Info("attempt scored",
		"sentence", sentence.GlobalIndex,
		"score", verdict.Score,
		"correct", verdict.IsCorrect)
	if onResult != nil {
		onResult(sentence, verdict)
	}
}
