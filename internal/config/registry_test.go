package config_test

import (
	"errors"
	"testing"

	"github.com/lectara/lectara/internal/config"
	"github.com/lectara/lectara/pkg/provider/recognizer"
	recmock "github.com/lectara/lectara/pkg/provider/recognizer/mock"
	"github.com/lectara/lectara/pkg/provider/tts"
	ttsmock "github.com/lectara/lectara/pkg/provider/tts/mock"
)

func TestRegistryCreateTTS(t *testing.T) {
	r := config.NewRegistry()

	var gotEntry config.ProviderEntry
	r.RegisterTTS("coqui", func(e config.ProviderEntry) (tts.Provider, error) {
		gotEntry = e
		return &ttsmock.Provider{}, nil
	})

	entry := config.ProviderEntry{Name: "coqui", BaseURL: "http://localhost:5002"}
	p, err := r.CreateTTS(entry)
	if err != nil {
		t.Fatalf("CreateTTS: %v", err)
	}
	if p == nil {
		t.Fatal("CreateTTS returned nil provider")
	}
	if gotEntry.BaseURL != entry.BaseURL {
		t.Errorf("factory received %+v, want the config entry", gotEntry)
	}
}

func TestRegistryUnregisteredName(t *testing.T) {
	r := config.NewRegistry()
	_, err := r.CreateRecognizer(config.ProviderEntry{Name: "nonexistent"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("err = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistryOverwrite(t *testing.T) {
	r := config.NewRegistry()
	first := &recmock.Provider{}
	second := &recmock.Provider{}

	r.RegisterRecognizer("whisper", func(config.ProviderEntry) (recognizer.Provider, error) {
		return first, nil
	})
	r.RegisterRecognizer("whisper", func(config.ProviderEntry) (recognizer.Provider, error) {
		return second, nil
	})

	p, err := r.CreateRecognizer(config.ProviderEntry{Name: "whisper"})
	if err != nil {
		t.Fatalf("CreateRecognizer: %v", err)
	}
	if p != second {
		t.Error("later registration did not overwrite the earlier one")
	}
}
