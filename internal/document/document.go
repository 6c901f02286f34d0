// Package document is the client for the document-processing backend. The
// backend ingests an uploaded document, splits it into ordered practice
// sentences, and serves them with their page positions. Lectara consumes the
// sentence list; rendering the document itself is the frontend's concern.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/lectara/lectara/pkg/types"
)

const (
	uploadPath = "/upload-pdf"
	loadPath   = "/load-pdf"
)

// Document is one processed document with its ordered sentence list.
type Document struct {
	// Filename is the backend's stored name, unique per upload.
	Filename string

	// OriginalFilename is the name the document was uploaded under.
	OriginalFilename string

	// URL is where the rendered document can be fetched from.
	URL string

	// Pages is the page count.
	Pages int

	// Sentences is the full practice list, ordered by GlobalIndex.
	Sentences []types.Sentence
}

// Client talks to the document-processing backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithTimeout sets the per-request timeout. Uploads of large documents take
// a while to process; the default is 2 minutes.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.http.Timeout = d }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// documentResponse is the backend's JSON shape for both upload and load.
type documentResponse struct {
	Success          bool             `json:"success"`
	Filename         string           `json:"filename"`
	OriginalFilename string           `json:"original_filename"`
	PDFURL           string           `json:"pdf_url"`
	TotalSentences   int              `json:"total_sentences"`
	Pages            int              `json:"pages"`
	Sentences        []types.Sentence `json:"sentences"`
	Error            string           `json:"error"`
}

// Upload sends a document for processing and returns its sentence list.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (Document, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("pdf", filename)
	if err != nil {
		return Document{}, fmt.Errorf("document: build upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return Document{}, fmt.Errorf("document: build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Document{}, fmt.Errorf("document: build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &body)
	if err != nil {
		return Document{}, fmt.Errorf("document: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

// Load re-opens a previously uploaded document by its stored filename.
func (c *Client) Load(ctx context.Context, filename string) (Document, error) {
	payload, err := json.Marshal(map[string]string{"filename": filename})
	if err != nil {
		return Document{}, fmt.Errorf("document: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loadPath, bytes.NewReader(payload))
	if err != nil {
		return Document{}, fmt.Errorf("document: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (Document, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("document: backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return Document{}, fmt.Errorf("document: read response: %w", err)
	}

	var dr documentResponse
	if err := json.Unmarshal(raw, &dr); err != nil {
		return Document{}, fmt.Errorf("document: decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !dr.Success {
		msg := dr.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return Document{}, fmt.Errorf("document: backend rejected request: %s", msg)
	}

	return Document{
		Filename:         dr.Filename,
		OriginalFilename: dr.OriginalFilename,
		URL:              dr.PDFURL,
		Pages:            dr.Pages,
		Sentences:        dr.Sentences,
	}, nil
}
