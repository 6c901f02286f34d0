package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per capability. Used by
// [Validate] to warn about unrecognised names.
var ValidProviderNames = map[string][]string{
	"capture":    {"portaudio"},
	"recognizer": {"whisper", "whisper-native", "deepgram"},
	"scoring":    {"backend"},
	"tts":        {"coqui", "backend"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Unknown fields are rejected so typos fail loudly.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing every validation failure found; advisory conditions
// are logged instead.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Backend.BaseURL == "" && cfg.Providers.Scoring.BaseURL == "" {
		errs = append(errs, errors.New("backend.base_url is required (it is where attempts are scored)"))
	}

	if cfg.Session.RecordTimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("session.record_timeout_ms %d must not be negative", cfg.Session.RecordTimeoutMs))
	}
	if cfg.Session.GraceDelayMs < 0 {
		errs = append(errs, fmt.Errorf("session.grace_delay_ms %d must not be negative", cfg.Session.GraceDelayMs))
	}

	validateProviderName("capture", cfg.Providers.Capture.Name)
	validateProviderName("recognizer", cfg.Providers.Recognizer.Name)
	for _, e := range cfg.Providers.RecognizerFallbacks {
		validateProviderName("recognizer", e.Name)
	}
	validateProviderName("scoring", cfg.Providers.Scoring.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	for _, e := range cfg.Providers.TTSFallbacks {
		validateProviderName("tts", e.Name)
	}

	if cfg.Providers.Recognizer.Name == "" {
		slog.Warn("no recognizer configured; recordings stop only on request or timeout")
	}
	if cfg.Providers.Recognizer.Name == "" && len(cfg.Providers.RecognizerFallbacks) > 0 {
		errs = append(errs, errors.New("providers.recognizer_fallbacks set without providers.recognizer"))
	}
	if cfg.Providers.TTS.Name == "" && len(cfg.Providers.TTSFallbacks) > 0 {
		errs = append(errs, errors.New("providers.tts_fallbacks set without providers.tts"))
	}
	if cfg.Providers.TTS.Name == "" {
		slog.Warn("no tts provider configured; corrective narration is disabled")
	}

	if sf := cfg.Voice.SpeedFactor; sf != 0 && (sf < 0.5 || sf > 2.0) {
		errs = append(errs, fmt.Errorf("voice.speed_factor %.2f is out of range [0.5, 2.0]", sf))
	}

	if cfg.Layout.ClusterTolerance < 0 {
		errs = append(errs, fmt.Errorf("layout.cluster_tolerance %d must not be negative", cfg.Layout.ClusterTolerance))
	}

	if cfg.Stats.PostgresDSN == "" {
		slog.Warn("stats.postgres_dsn is empty; practice statistics will not survive restarts")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok || slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
