package backend_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lectara/lectara/pkg/provider/tts/backend"
	"github.com/lectara/lectara/pkg/types"
)

func TestSynthesize(t *testing.T) {
	wav := []byte("RIFFfakeWAVEdata")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/practice/tts" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["text"] != "the cat sat" {
			t.Errorf("text = %v", req["text"])
		}
		if rate, ok := req["rate"].(float64); !ok || rate != 135 {
			t.Errorf("rate = %v, want 135", req["rate"])
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(wav)
	}))
	defer srv.Close()

	p, err := backend.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := p.Synthesize(context.Background(), "the cat sat", types.VoiceProfile{SpeedFactor: 0.9})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(got, wav) {
		t.Errorf("audio = %q, want %q", got, wav)
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	p, err := backend.New("http://localhost:5000")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), "", types.VoiceProfile{}); err == nil {
		t.Error("Synthesize accepted empty text")
	}
}

func TestSynthesizeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := backend.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), "hi", types.VoiceProfile{}); err == nil {
		t.Error("Synthesize ignored a server error")
	}
}

func TestListVoices(t *testing.T) {
	p, err := backend.New("http://localhost:5000")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 1 || voices[0].Provider != "backend" {
		t.Errorf("voices = %+v, want one backend profile", voices)
	}
}
