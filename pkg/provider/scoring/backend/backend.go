// Package backend implements the scoring Provider against the Lectara
// practice API. Recordings are submitted as multipart uploads to
// POST /api/practice/evaluate-pronunciation and the JSON verdict is mapped to
// a types.PracticeResult.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/lectara/lectara/pkg/provider/scoring"
	"github.com/lectara/lectara/pkg/types"
)

const evaluatePath = "/api/practice/evaluate-pronunciation"

var _ scoring.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
// Defaults to 60 s; wav2vec2 inference on a CPU-only backend is slow.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient.Timeout = d }
}

// Provider submits recordings to the practice API for grading.
type Provider struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Provider for the practice API at baseURL (e.g.,
// "http://localhost:5000").
func New(baseURL string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		return nil, errors.New("backend: baseURL must not be empty")
	}
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// evaluateResponse is the JSON verdict returned by the practice API. The
// expected text travels in a form field named "word" even though it holds a
// full sentence; the field name is part of the API contract.
type evaluateResponse struct {
	Success      bool    `json:"success"`
	IsCorrect    bool    `json:"is_correct"`
	Score        float64 `json:"score"`
	Feedback     string  `json:"feedback"`
	WordFeedback []struct {
		Word   string `json:"word"`
		Status string `json:"status"`
	} `json:"word_feedback"`
	SpokenText string `json:"spoken_text"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

// Evaluate uploads the recording and expected sentence and maps the verdict.
// Transport failures and 5xx responses wrap scoring.ErrUnavailable.
func (p *Provider) Evaluate(ctx context.Context, sub scoring.Submission) (types.PracticeResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := createAudioPart(mw, sub.ContentType)
	if err != nil {
		return types.PracticeResult{}, fmt.Errorf("backend: create audio part: %w", err)
	}
	if _, err := fw.Write(sub.Audio); err != nil {
		return types.PracticeResult{}, fmt.Errorf("backend: write audio part: %w", err)
	}
	if err := mw.WriteField("word", sub.Sentence); err != nil {
		return types.PracticeResult{}, fmt.Errorf("backend: write sentence field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return types.PracticeResult{}, fmt.Errorf("backend: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+evaluatePath, &body)
	if err != nil {
		return types.PracticeResult{}, fmt.Errorf("backend: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return types.PracticeResult{}, fmt.Errorf("%w: %v", scoring.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return types.PracticeResult{}, fmt.Errorf("%w: server returned HTTP %d", scoring.ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return types.PracticeResult{}, fmt.Errorf("backend: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.PracticeResult{}, fmt.Errorf("%w: read response: %v", scoring.ErrUnavailable, err)
	}

	var ev evaluateResponse
	if err := json.Unmarshal(data, &ev); err != nil {
		return types.PracticeResult{}, fmt.Errorf("backend: parse verdict: %w", err)
	}
	if !ev.Success {
		msg := ev.Error
		if msg == "" {
			msg = ev.Message
		}
		return types.PracticeResult{}, fmt.Errorf("backend: evaluation rejected: %s", msg)
	}

	result := types.PracticeResult{
		Score:      ev.Score,
		IsCorrect:  ev.IsCorrect,
		Feedback:   ev.Feedback,
		SpokenText: ev.SpokenText,
		ReceivedAt: time.Now(),
	}
	for _, wf := range ev.WordFeedback {
		result.WordFeedback = append(result.WordFeedback, types.WordFeedback{
			Word:   wf.Word,
			Status: types.WordStatus(wf.Status),
		})
	}
	return result, nil
}

// createAudioPart creates the "audio" form file with the recording's real
// content type instead of multipart's default application/octet-stream.
func createAudioPart(mw *multipart.Writer, contentType string) (io.Writer, error) {
	name := "recording.wav"
	if contentType != "audio/wav" && contentType != "" {
		name = "recording.bin"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return mw.CreatePart(h)
}
