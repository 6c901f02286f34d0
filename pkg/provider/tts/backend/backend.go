// Package backend implements the tts Provider against the Lectara practice
// API, which renders speech server-side (POST /api/practice/tts) and returns
// WAV bytes. The server chooses the actual voice; the profile's speed factor
// is forwarded as a speaking rate hint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lectara/lectara/pkg/provider/tts"
	"github.com/lectara/lectara/pkg/types"
)

const ttsPath = "/api/practice/tts"

// baseSpeakingRate is the server's default speaking rate in words per minute.
// SpeedFactor scales it.
const baseSpeakingRate = 150

var _ tts.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// Provider synthesizes speech through the practice API.
type Provider struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Provider for the practice API at baseURL.
func New(baseURL string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		return nil, errors.New("backend: baseURL must not be empty")
	}
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Synthesize posts the text and returns the WAV response body.
func (p *Provider) Synthesize(ctx context.Context, text string, voice types.VoiceProfile) ([]byte, error) {
	if text == "" {
		return nil, errors.New("backend: text must not be empty")
	}

	payload := map[string]any{"text": text}
	if voice.SpeedFactor > 0 && voice.SpeedFactor != 1 {
		payload["rate"] = int(baseSpeakingRate * voice.SpeedFactor)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("backend: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+ttsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("backend: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend: tts returned HTTP %d", resp.StatusCode)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: read audio response: %w", err)
	}
	if len(wav) == 0 {
		return nil, errors.New("backend: tts returned empty audio")
	}
	return wav, nil
}

// ListVoices returns the single server-chosen voice. The practice API does
// not expose a voice catalogue.
func (p *Provider) ListVoices(_ context.Context) ([]types.VoiceProfile, error) {
	return []types.VoiceProfile{
		{
			ID:          "server-default",
			Name:        "Server default",
			Provider:    "backend",
			SpeedFactor: 1,
		},
	}, nil
}
