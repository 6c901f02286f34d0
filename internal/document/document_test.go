package document_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lectara/lectara/internal/document"
)

func TestLoadReturnsOrderedSentences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/load-pdf" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["filename"] != "abc_story.pdf" {
			t.Errorf("filename = %q", body["filename"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":         true,
			"filename":        "abc_story.pdf",
			"pdf_url":         "http://example.test/static/uploads/abc_story.pdf",
			"total_sentences": 2,
			"pages":           1,
			"sentences": []map[string]any{
				{"global_index": 0, "page": 1, "text": "The cat sat."},
				{"global_index": 1, "page": 1, "text": "The dog ran."},
			},
		})
	}))
	defer srv.Close()

	doc, err := document.New(srv.URL).Load(context.Background(), "abc_story.pdf")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Filename != "abc_story.pdf" || doc.Pages != 1 {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Sentences) != 2 {
		t.Fatalf("got %d sentences, want 2", len(doc.Sentences))
	}
	if doc.Sentences[1].GlobalIndex != 1 || doc.Sentences[1].Text != "The dog ran." {
		t.Errorf("sentences[1] = %+v", doc.Sentences[1])
	}
}

func TestUploadSendsMultipartDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload-pdf" {
			t.Errorf("path = %q", r.URL.Path)
		}
		file, header, err := r.FormFile("pdf")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		if header.Filename != "story.pdf" {
			t.Errorf("uploaded filename = %q", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "%PDF-fake" {
			t.Errorf("uploaded content = %q", content)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":           true,
			"filename":          "uuid_story.pdf",
			"original_filename": "story.pdf",
			"pages":             3,
			"sentences":         []map[string]any{{"global_index": 0, "page": 1, "text": "Hi."}},
		})
	}))
	defer srv.Close()

	doc, err := document.New(srv.URL).Upload(context.Background(), "story.pdf", strings.NewReader("%PDF-fake"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.Filename != "uuid_story.pdf" || doc.OriginalFilename != "story.pdf" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestLoadSurfacesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "PDF file not found"})
	}))
	defer srv.Close()

	_, err := document.New(srv.URL).Load(context.Background(), "missing.pdf")
	if err == nil || !strings.Contains(err.Error(), "PDF file not found") {
		t.Fatalf("err = %v, want the backend's message", err)
	}
}
