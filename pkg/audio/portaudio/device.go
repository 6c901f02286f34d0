// Package portaudio implements the audio.Device and audio.Player interfaces
// on top of the PortAudio library, providing default-microphone capture and
// default-output playback.
//
// PortAudio global state is initialised once per process; construct at most
// one [Device] and one [Player] and close them on shutdown.
package portaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/lectara/lectara/pkg/audio"
)

const (
	// defaultSampleRate matches the scoring container rate so captures need no
	// resampling on the happy path.
	defaultSampleRate = 16000

	// framesPerBuffer is the PortAudio read granularity: 1024 samples = 64 ms
	// at 16 kHz, small enough for responsive live recognition.
	framesPerBuffer = 1024
)

var (
	initOnce sync.Once
	initErr  error
)

// initialize sets up the PortAudio runtime once per process.
func initialize() error {
	initOnce.Do(func() {
		initErr = portaudio.Initialize()
	})
	return initErr
}

// Device captures from the default microphone. It implements [audio.Device].
type Device struct {
	sampleRate int
}

// Option is a functional option for configuring a Device.
type Option func(*Device)

// WithSampleRate overrides the capture sample rate. Defaults to 16000 Hz.
func WithSampleRate(rate int) Option {
	return func(d *Device) { d.sampleRate = rate }
}

// NewDevice initialises PortAudio and returns a Device for the default input.
func NewDevice(opts ...Option) (*Device, error) {
	if err := initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	d := &Device{sampleRate: defaultSampleRate}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Start acquires the default microphone and begins capturing mono 16-bit PCM.
// An open or start failure is reported as [audio.ErrPermissionDenied]: on
// every supported platform the dominant cause is the OS refusing microphone
// access to the process.
func (d *Device) Start(ctx context.Context) (audio.Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(d.sampleRate), framesPerBuffer, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrPermissionDenied, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: %v", audio.ErrPermissionDenied, err)
	}

	c := &capture{
		stream:     stream,
		buf:        buf,
		sampleRate: d.sampleRate,
		frames:     make(chan audio.AudioFrame, 64),
		done:       make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// capture is one live microphone capture. It implements [audio.Capture].
type capture struct {
	stream     *portaudio.Stream
	buf        []int16
	sampleRate int

	frames chan audio.AudioFrame
	done   chan struct{}

	mu       sync.Mutex
	captured []byte

	stopOnce sync.Once
	rec      audio.Recording
}

// Frames returns the live PCM frame channel. Closed when the capture stops.
func (c *capture) Frames() <-chan audio.AudioFrame { return c.frames }

// readLoop drains the PortAudio stream into the capture buffer and the live
// frame channel until Stop closes done.
func (c *capture) readLoop() {
	defer close(c.frames)

	var elapsed time.Duration
	frameDur := time.Duration(len(c.buf)) * time.Second / time.Duration(c.sampleRate)

	for {
		select {
		case <-c.done:
			return
		default:
		}

		available, err := c.stream.AvailableToRead()
		if err != nil || available < len(c.buf) {
			// Not enough buffered input yet; back off briefly.
			select {
			case <-c.done:
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		if err := c.stream.Read(); err != nil {
			select {
			case <-c.done:
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		chunk := make([]byte, len(c.buf)*2)
		for i, s := range c.buf {
			chunk[i*2] = byte(s)
			chunk[i*2+1] = byte(s >> 8)
		}

		c.mu.Lock()
		c.captured = append(c.captured, chunk...)
		c.mu.Unlock()

		frame := audio.AudioFrame{
			Data:       chunk,
			SampleRate: c.sampleRate,
			Channels:   1,
			Timestamp:  elapsed,
		}
		elapsed += frameDur

		// Never block capture on a slow recognizer; drop the frame instead.
		select {
		case c.frames <- frame:
		default:
		}
	}
}

// Stop ends the capture, releases the microphone exactly once, and returns
// the buffered PCM stream. Safe to call repeatedly; later calls return the
// same Recording.
func (c *capture) Stop() (audio.Recording, error) {
	c.stopOnce.Do(func() {
		close(c.done)
		_ = c.stream.Stop()
		_ = c.stream.Close()

		c.mu.Lock()
		data := c.captured
		c.captured = nil
		c.mu.Unlock()

		c.rec = audio.Recording{
			Container:  "pcm16",
			Data:       data,
			SampleRate: c.sampleRate,
			Channels:   1,
		}
	})
	return c.rec, nil
}
