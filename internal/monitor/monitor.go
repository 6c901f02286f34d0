// Package monitor tracks live recognition progress during a recording and
// decides when enough has been said to stop capture early.
//
// The monitor consumes a recognizer session's partial and final transcripts
// and counts the spoken tokens. Once that count reaches the expected
// sentence's word count, the auto-stop callback is scheduled after a grace
// delay. The count includes duplicates: a sentence that repeats a word must
// still be completable by saying it as written. The monitor also accumulates
// the distinct normalized-word set, which feeds the live correct/pending
// coloring but plays no part in the stop decision. It never produces the
// authoritative score; it only shortens capture latency.
//
// Live recognition is an optional capability. A monitor constructed without a
// session is inert: it accumulates nothing and never fires, leaving the
// session to stop on explicit request or timeout alone.
package monitor

import (
	"sync"
	"time"

	"github.com/lectara/lectara/internal/words"
	"github.com/lectara/lectara/pkg/provider/recognizer"
)

// DefaultGraceDelay is how long after the auto-stop decision capture keeps
// running, so the tail of the last word is not truncated.
const DefaultGraceDelay = 500 * time.Millisecond

// Monitor follows one recording's live transcripts. Create one per recording
// with Start.
type Monitor struct {
	session    recognizer.SessionHandle
	expected   int
	grace      time.Duration
	onAutoStop func()

	mu            sync.Mutex
	spoken        map[string]struct{}
	finalTokens   int
	partialTokens int
	fired         bool
	timer         *time.Timer
	stopped       bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Option is a functional option for configuring a Monitor.
type Option func(*Monitor)

// WithGraceDelay overrides the auto-stop grace delay. Used in tests.
func WithGraceDelay(d time.Duration) Option {
	return func(m *Monitor) { m.grace = d }
}

// Start begins following session's transcripts for a recording of sentence.
// onAutoStop is invoked, once at most, after the grace delay when the spoken
// token count reaches the sentence's word count. A nil session yields an
// inert monitor.
func Start(session recognizer.SessionHandle, sentence string, onAutoStop func(), opts ...Option) *Monitor {
	m := &Monitor{
		session:    session,
		expected:   words.Count(sentence),
		grace:      DefaultGraceDelay,
		onAutoStop: onAutoStop,
		spoken:     make(map[string]struct{}),
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}

	if session != nil {
		m.wg.Add(2)
		go m.consume(session.Partials())
		go m.consume(session.Finals())
	}
	return m
}

// consume folds one transcript stream into the monitor's state.
func (m *Monitor) consume(ch <-chan recognizer.Transcript) {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case t, ok := <-ch:
			if !ok {
				return
			}
			m.observe(t)
		}
	}
}

// observe merges the transcript's normalized words into the spoken set for
// the live coloring and recounts the spoken tokens for the stop decision.
// Partials are cumulative for the running utterance, so each replaces the
// previous partial count; finals close an utterance and add to the running
// total. A zero expected count never fires: an empty sentence must not stop
// capture instantly.
func (m *Monitor) observe(t recognizer.Transcript) {
	tokens := words.Count(t.Text)

	m.mu.Lock()
	for w := range words.NormalizedSet(t.Text) {
		m.spoken[w] = struct{}{}
	}
	if t.IsFinal {
		m.finalTokens += tokens
		m.partialTokens = 0
	} else {
		m.partialTokens = tokens
	}
	heard := m.finalTokens + m.partialTokens
	if !m.fired && !m.stopped && m.expected > 0 && heard >= m.expected {
		m.fired = true
		// The recognizer stays open through the grace window: capture is
		// still running and a final arriving late must still color the last
		// word. Both are shut down together when the timer fires.
		m.timer = time.AfterFunc(m.grace, m.autoStop)
	}
	m.mu.Unlock()
}

// autoStop runs when the grace delay elapses: stop capture first, then the
// recognizer.
func (m *Monitor) autoStop() {
	m.onAutoStop()
	m.session.Close()
}

// Words returns a copy of the recognized-word set accumulated so far.
func (m *Monitor) Words() map[string]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{}, len(m.spoken))
	for w := range m.spoken {
		out[w] = struct{}{}
	}
	return out
}

// TokensHeard reports the spoken token count the stop decision currently
// sees: every finalized token plus the running partial.
func (m *Monitor) TokensHeard() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finalTokens + m.partialTokens
}

// Fired reports whether the auto-stop decision has been made.
func (m *Monitor) Fired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fired
}

// Stop halts the monitor: any pending grace timer is cancelled so a late
// auto-stop cannot race a manual stop, the recognizer session is closed, and
// the consuming goroutines are joined. Safe to call repeatedly.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
	}
	close(m.done)
	m.mu.Unlock()

	if m.session != nil {
		m.session.Close()
	}
	m.wg.Wait()
}
