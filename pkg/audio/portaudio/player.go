package portaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/lectara/lectara/pkg/audio"
)

// Player plays WAV audio through the default output device. It implements
// [audio.Player]. Concurrent Play calls are serialized; the second caller
// waits for the first to finish.
type Player struct {
	mu     sync.Mutex
	closed bool
}

// NewPlayer initialises PortAudio and returns a Player for the default output.
func NewPlayer() (*Player, error) {
	if err := initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	return &Player{}, nil
}

// Play decodes wav and writes it to the default output stream, blocking until
// playback completes or ctx is cancelled.
func (p *Player) Play(ctx context.Context, wav []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("portaudio: player is closed")
	}

	samples, rate, err := audio.DecodeWAV(wav)
	if err != nil {
		return fmt.Errorf("portaudio: decode playback audio: %w", err)
	}

	buf := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(rate), framesPerBuffer, &buf)
	if err != nil {
		return fmt.Errorf("portaudio: open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("portaudio: start output stream: %w", err)
	}
	defer stream.Stop()

	for off := 0; off < len(samples); off += framesPerBuffer {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range buf {
			if off+i < len(samples) {
				s := samples[off+i]
				if s < 0 {
					buf[i] = int16(s * 32768)
				} else {
					buf[i] = int16(s * 32767)
				}
			} else {
				buf[i] = 0
			}
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("portaudio: write output: %w", err)
		}
	}
	return nil
}

// Close marks the player unusable. The PortAudio runtime itself is shared and
// left running for any remaining capture device.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
