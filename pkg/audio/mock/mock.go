// Package mock provides scripted audio.Device, audio.Capture, and
// audio.Player implementations for tests.
package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lectara/lectara/pkg/audio"
)

// Device is a scripted audio.Device. The zero value starts captures that
// return an empty pcm16 recording.
type Device struct {
	// StartErr, when non-nil, is returned by Start (e.g.
	// audio.ErrPermissionDenied).
	StartErr error

	// Recording is what the started capture returns from Stop.
	Recording audio.Recording

	mu       sync.Mutex
	captures []*Capture
}

// Start returns a new scripted capture, or StartErr when set.
func (d *Device) Start(_ context.Context) (audio.Capture, error) {
	if d.StartErr != nil {
		return nil, d.StartErr
	}
	c := NewCapture(d.Recording)
	d.mu.Lock()
	d.captures = append(d.captures, c)
	d.mu.Unlock()
	return c, nil
}

// Captures returns every capture started so far, in order.
func (d *Device) Captures() []*Capture {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Capture, len(d.captures))
	copy(out, d.captures)
	return out
}

// Capture is a scripted audio.Capture. Frames pushed via EmitFrame appear on
// the Frames channel; Stop releases are counted so tests can assert
// exactly-once semantics.
type Capture struct {
	rec    audio.Recording
	frames chan audio.AudioFrame

	stopOnce sync.Once
	releases atomic.Int32
}

// NewCapture creates a live scripted capture that will return rec from Stop.
func NewCapture(rec audio.Recording) *Capture {
	return &Capture{
		rec:    rec,
		frames: make(chan audio.AudioFrame, 64),
	}
}

// Frames returns the scripted frame channel.
func (c *Capture) Frames() <-chan audio.AudioFrame { return c.frames }

// EmitFrame pushes a frame to the Frames channel. No-op once the channel is
// full.
func (c *Capture) EmitFrame(f audio.AudioFrame) {
	select {
	case c.frames <- f:
	default:
	}
}

// Stop closes the frame channel and returns the scripted recording. The
// underlying "microphone" release is counted once regardless of how many
// times Stop is called.
func (c *Capture) Stop() (audio.Recording, error) {
	c.stopOnce.Do(func() {
		c.releases.Add(1)
		close(c.frames)
	})
	return c.rec, nil
}

// Releases reports how many times the capture released its stream. Anything
// other than 1 after a stop indicates a lifecycle bug.
func (c *Capture) Releases() int { return int(c.releases.Load()) }

// Player is a scripted audio.Player that records every Play call.
type Player struct {
	// PlayErr, when non-nil, is returned by Play.
	PlayErr error

	mu     sync.Mutex
	played [][]byte
}

// Play records the WAV bytes and returns PlayErr.
func (p *Player) Play(_ context.Context, wav []byte) error {
	p.mu.Lock()
	p.played = append(p.played, wav)
	p.mu.Unlock()
	return p.PlayErr
}

// Close is a no-op.
func (p *Player) Close() error { return nil }

// Played returns the WAV payloads passed to Play, in order.
func (p *Player) Played() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.played))
	copy(out, p.played)
	return out
}
