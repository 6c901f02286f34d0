package config_test

import (
	"strings"
	"testing"

	"github.com/lectara/lectara/internal/config"
)

const validYAML = `
server:
  listen_addr: ":9090"
  log_level: info
backend:
  base_url: http://localhost:5000/api/practice
session:
  record_timeout_ms: 10000
  grace_delay_ms: 500
  language: en
providers:
  capture:
    name: portaudio
  recognizer:
    name: whisper
    base_url: http://localhost:8178
  recognizer_fallbacks:
    - name: deepgram
      api_key: dg-key
      model: nova-3
  scoring:
    name: backend
  tts:
    name: coqui
    base_url: http://localhost:5002
  tts_fallbacks:
    - name: backend
voice:
  preferred: p287
  speed_factor: 1.0
layout:
  cluster_tolerance: 10
stats:
  postgres_dsn: "postgres://localhost/lectara"
notify:
  enabled: true
`

func TestLoadFromReaderValid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Backend.BaseURL != "http://localhost:5000/api/practice" {
		t.Errorf("backend.base_url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Session.RecordTimeoutMs != 10000 || cfg.Session.GraceDelayMs != 500 {
		t.Errorf("session = %+v", cfg.Session)
	}
	if cfg.Providers.Recognizer.Name != "whisper" {
		t.Errorf("recognizer = %+v", cfg.Providers.Recognizer)
	}
	if len(cfg.Providers.RecognizerFallbacks) != 1 || cfg.Providers.RecognizerFallbacks[0].Model != "nova-3" {
		t.Errorf("recognizer_fallbacks = %+v", cfg.Providers.RecognizerFallbacks)
	}
	if cfg.Voice.Preferred != "p287" || cfg.Voice.SpeedFactor != 1.0 {
		t.Errorf("voice = %+v", cfg.Voice)
	}
	if cfg.Layout.ClusterTolerance != 10 {
		t.Errorf("cluster_tolerance = %d", cfg.Layout.ClusterTolerance)
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	yaml := `
backend:
  base_url: http://localhost:5000
  basse_url: oops
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("misspelled field was accepted")
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantSub string
	}{
		{
			name:    "bad log level",
			mutate:  func(c *config.Config) { c.Server.LogLevel = "bananas" },
			wantSub: "server.log_level",
		},
		{
			name:    "missing backend",
			mutate:  func(c *config.Config) { c.Backend.BaseURL = "" },
			wantSub: "backend.base_url",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *config.Config) { c.Session.RecordTimeoutMs = -1 },
			wantSub: "record_timeout_ms",
		},
		{
			name:    "speed factor out of range",
			mutate:  func(c *config.Config) { c.Voice.SpeedFactor = 3.5 },
			wantSub: "speed_factor",
		},
		{
			name: "fallbacks without primary recognizer",
			mutate: func(c *config.Config) {
				c.Providers.Recognizer = config.ProviderEntry{}
			},
			wantSub: "recognizer_fallbacks",
		},
		{
			name:    "negative cluster tolerance",
			mutate:  func(c *config.Config) { c.Layout.ClusterTolerance = -2 },
			wantSub: "cluster_tolerance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
			if err != nil {
				t.Fatalf("baseline config invalid: %v", err)
			}
			tt.mutate(cfg)
			err = config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidateCollectsAllFailures(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("baseline config invalid: %v", err)
	}
	cfg.Server.LogLevel = "loud"
	cfg.Voice.SpeedFactor = 9

	err = config.Validate(cfg)
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, want := range []string{"server.log_level", "speed_factor"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error %q is missing %q", err, want)
		}
	}
}

func TestMinimalConfigIsValid(t *testing.T) {
	yaml := `
backend:
  base_url: http://localhost:5000/api/practice
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("minimal config rejected: %v", err)
	}
	if cfg.Providers.Recognizer.Name != "" || cfg.Providers.TTS.Name != "" {
		t.Errorf("unexpected defaults: %+v", cfg.Providers)
	}
}
