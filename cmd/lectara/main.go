// Command lectara is the main entry point for the Lectara reading practice
// engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lectara/lectara/internal/app"
	"github.com/lectara/lectara/internal/config"
	"github.com/lectara/lectara/internal/observe"
	"github.com/lectara/lectara/internal/resilience"
	"github.com/lectara/lectara/pkg/audio"
	audioportaudio "github.com/lectara/lectara/pkg/audio/portaudio"
	"github.com/lectara/lectara/pkg/provider/recognizer"
	"github.com/lectara/lectara/pkg/provider/recognizer/deepgram"
	"github.com/lectara/lectara/pkg/provider/recognizer/whisper"
	"github.com/lectara/lectara/pkg/provider/scoring"
	scoringbackend "github.com/lectara/lectara/pkg/provider/scoring/backend"
	"github.com/lectara/lectara/pkg/provider/tts"
	ttsbackend "github.com/lectara/lectara/pkg/provider/tts/backend"
	"github.com/lectara/lectara/pkg/provider/tts/coqui"
)

// version is stamped by the release build.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "lectara: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "lectara: %v\n", err)
		}
		return 1
	}

	logger, level := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("lectara starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}
	if providers.Player != nil {
		defer func() {
			if err := providers.Player.Close(); err != nil {
				slog.Warn("player close error", "err", err)
			}
		}()
	}

	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg, providers,
		app.WithLogLevelVar(level),
		app.WithConfigWatch(*configPath),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("engine ready, press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping")
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the provider
// from the real implementation packages. Backend-served capabilities default
// their endpoint to backend.base_url.
func registerBuiltinProviders(reg *config.Registry, cfg *config.Config) {
	reg.RegisterCapture("portaudio", func(entry config.ProviderEntry) (audio.Device, error) {
		var opts []audioportaudio.Option
		if rate := optInt(entry.Options, "sample_rate"); rate > 0 {
			opts = append(opts, audioportaudio.WithSampleRate(rate))
		}
		return audioportaudio.NewDevice(opts...)
	})

	reg.RegisterRecognizer("whisper", func(entry config.ProviderEntry) (recognizer.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterRecognizer("whisper-native", func(entry config.ProviderEntry) (recognizer.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.NativeOption
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	reg.RegisterRecognizer("deepgram", func(entry config.ProviderEntry) (recognizer.Provider, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, deepgram.WithLanguage(lang))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	reg.RegisterScoring("backend", func(entry config.ProviderEntry) (scoring.Provider, error) {
		base := entry.BaseURL
		if base == "" {
			base = cfg.Backend.BaseURL
		}
		var opts []scoringbackend.Option
		if cfg.Backend.TimeoutMs > 0 {
			opts = append(opts, scoringbackend.WithTimeout(time.Duration(cfg.Backend.TimeoutMs)*time.Millisecond))
		}
		return scoringbackend.New(base, opts...)
	})

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []coqui.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, coqui.WithLanguage(lang))
		}
		return coqui.New(entry.BaseURL, opts...)
	})

	reg.RegisterTTS("backend", func(entry config.ProviderEntry) (tts.Provider, error) {
		base := entry.BaseURL
		if base == "" {
			base = cfg.Backend.BaseURL
		}
		return ttsbackend.New(base)
	})
}

// buildProviders instantiates the providers named in cfg and returns them in
// an [app.Providers] struct. Recognizer and TTS fallback lists become
// circuit-breaker failover groups.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	captureEntry := cfg.Providers.Capture
	if captureEntry.Name == "" {
		captureEntry.Name = "portaudio"
	}
	device, err := reg.CreateCapture(captureEntry)
	if err != nil {
		return nil, fmt.Errorf("create capture device %q: %w", captureEntry.Name, err)
	}
	ps.Device = device
	slog.Info("provider created", "kind", "capture", "name", captureEntry.Name)

	if name := cfg.Providers.Recognizer.Name; name != "" {
		primary, err := reg.CreateRecognizer(cfg.Providers.Recognizer)
		if err != nil {
			return nil, fmt.Errorf("create recognizer %q: %w", name, err)
		}
		if len(cfg.Providers.RecognizerFallbacks) > 0 {
			group := resilience.NewRecognizerFallback(primary, name, resilience.FallbackConfig{})
			for _, entry := range cfg.Providers.RecognizerFallbacks {
				fb, err := reg.CreateRecognizer(entry)
				if err != nil {
					return nil, fmt.Errorf("create recognizer fallback %q: %w", entry.Name, err)
				}
				group.AddFallback(entry.Name, fb)
				slog.Info("provider created", "kind", "recognizer", "name", entry.Name, "role", "fallback")
			}
			ps.Recognizer = group
		} else {
			ps.Recognizer = primary
		}
		slog.Info("provider created", "kind", "recognizer", "name", name)
	}

	scoringEntry := cfg.Providers.Scoring
	if scoringEntry.Name == "" {
		scoringEntry.Name = "backend"
	}
	scorer, err := reg.CreateScoring(scoringEntry)
	if err != nil {
		return nil, fmt.Errorf("create scoring provider %q: %w", scoringEntry.Name, err)
	}
	ps.Scoring = scorer
	slog.Info("provider created", "kind", "scoring", "name", scoringEntry.Name)

	if name := cfg.Providers.TTS.Name; name != "" {
		primary, err := reg.CreateTTS(cfg.Providers.TTS)
		if err != nil {
			return nil, fmt.Errorf("create tts provider %q: %w", name, err)
		}
		if len(cfg.Providers.TTSFallbacks) > 0 {
			group := resilience.NewTTSFallback(primary, name, resilience.FallbackConfig{})
			for _, entry := range cfg.Providers.TTSFallbacks {
				fb, err := reg.CreateTTS(entry)
				if err != nil {
					return nil, fmt.Errorf("create tts fallback %q: %w", entry.Name, err)
				}
				group.AddFallback(entry.Name, fb)
				slog.Info("provider created", "kind", "tts", "name", entry.Name, "role", "fallback")
			}
			ps.TTS = group
		} else {
			ps.TTS = primary
		}
		slog.Info("provider created", "kind", "tts", "name", name)

		player, err := audioportaudio.NewPlayer()
		if err != nil {
			slog.Warn("audio playback unavailable, narration disabled", "err", err)
		} else {
			ps.Player = player
		}
	}

	return ps, nil
}

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Lectara startup summary       ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Capture", orDefault(cfg.Providers.Capture.Name, "portaudio"), "")
	printProvider("Recognizer", cfg.Providers.Recognizer.Name, cfg.Providers.Recognizer.Model)
	printProvider("Scoring", orDefault(cfg.Providers.Scoring.Name, "backend"), "")
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	fmt.Printf("║  Backend      : %-21s ║\n", trimTo(cfg.Backend.BaseURL, 21))
	if cfg.Stats.PostgresDSN != "" {
		fmt.Printf("║  Stats        : %-21s ║\n", "postgres")
	} else {
		fmt.Printf("║  Stats        : %-21s ║\n", "in-memory")
	}
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Diagnostics  : %-21s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	fmt.Printf("║  %-12s : %-21s ║\n", kind, trimTo(value, 21))
}

func trimTo(s string, n int) string {
	if len(s) > n {
		return s[:n-1] + "…"
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func newLogger(level config.LogLevel) (*slog.Logger, *slog.LevelVar) {
	lvl := new(slog.LevelVar)
	switch level {
	case config.LogDebug:
		lvl.Set(slog.LevelDebug)
	case config.LogWarn:
		lvl.Set(slog.LevelWarn)
	case config.LogError:
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), lvl
}

// optString extracts a string value from a provider Options map. Returns ""
// if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}

// optInt extracts an int value from a provider Options map. YAML decodes
// small numbers as int, so only that case is handled.
func optInt(opts map[string]any, key string) int {
	if opts == nil {
		return 0
	}
	n, _ := opts[key].(int)
	return n
}
