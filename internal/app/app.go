// Package app wires all Lectara subsystems into a running practice engine.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run blocks serving the diagnostics listener and config watcher,
// and Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithStatsStore,
// WithNotifier, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/lectara/lectara/internal/config"
	"github.com/lectara/lectara/internal/document"
	"github.com/lectara/lectara/internal/feedback"
	"github.com/lectara/lectara/internal/health"
	"github.com/lectara/lectara/internal/layout"
	"github.com/lectara/lectara/internal/notify"
	"github.com/lectara/lectara/internal/observe"
	"github.com/lectara/lectara/internal/session"
	"github.com/lectara/lectara/internal/stats"
	"github.com/lectara/lectara/pkg/audio"
	"github.com/lectara/lectara/pkg/provider/recognizer"
	"github.com/lectara/lectara/pkg/provider/scoring"
	"github.com/lectara/lectara/pkg/provider/tts"
	"github.com/lectara/lectara/pkg/types"
)

// Providers holds one interface value per provider slot. Nil means the
// capability is absent. Populated by main.go via the config registry;
// Recognizer and TTS may be failover wrappers around several providers.
type Providers struct {
	Device     audio.Device
	Recognizer recognizer.Provider
	Scoring    scoring.Provider
	TTS        tts.Provider
	Player     audio.Player
}

// App owns all subsystem lifetimes and coordinates the practice pipeline:
// document loading, layout binding, the recording session controller,
// feedback narration, and attempt statistics.
type App struct {
	cfg       *config.Config
	providers *Providers

	docs       *document.Client
	store      stats.Store
	notifier   *notify.Notifier
	metrics    *observe.Metrics
	narrator   *feedback.Narrator // nil without a TTS provider and player
	controller *session.Controller
	level      *slog.LevelVar

	mu          sync.RWMutex
	doc         *document.Document
	index       *layout.Index
	currentPage int
	active      int // global index of the active sentence
	recStart    time.Time
	attemptSpan trace.Span

	watchPath string
	watcher   *config.Watcher

	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStatsStore injects an attempts store instead of creating one from
// config.
func WithStatsStore(s stats.Store) Option {
	return func(a *App) { a.store = s }
}

// WithNotifier injects a notifier instead of creating one from config.
func WithNotifier(n *notify.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithMetrics injects a metrics instance instead of the process-wide default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithDocumentClient injects a document client instead of creating one from
// config.
func WithDocumentClient(c *document.Client) Option {
	return func(a *App) { a.docs = c }
}

// WithLogLevelVar hands the App the level variable behind the process logger
// so config hot-reload can retune verbosity.
func WithLogLevelVar(v *slog.LevelVar) Option {
	return func(a *App) { a.level = v }
}

// WithConfigWatch enables hot-reload by polling the given config file while
// the App runs.
func WithConfigWatch(path string) Option {
	return func(a *App) { a.watchPath = path }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry); Device and Scoring
// are required, everything else degrades gracefully when absent.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.Device == nil {
		return nil, errors.New("app: a capture device is required")
	}
	if providers.Scoring == nil {
		return nil, errors.New("app: a scoring provider is required")
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
		active:    -1,
	}
	for _, o := range opts {
		o(a)
	}

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.notifier == nil {
		a.notifier = notify.New(cfg.Notify.Enabled)
	}

	if err := a.initStats(ctx); err != nil {
		return nil, fmt.Errorf("app: init stats: %w", err)
	}
	a.initDocuments()
	a.initNarrator(ctx)
	a.initController()

	return a, nil
}

// initStats selects the attempts store: Postgres when a DSN is configured,
// otherwise in-memory for the life of the process.
func (a *App) initStats(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	if dsn := a.cfg.Stats.PostgresDSN; dsn != "" {
		store, err := stats.NewPostgresStore(ctx, dsn)
		if err != nil {
			return err
		}
		a.store = store
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
		slog.Info("attempt statistics persisted to postgres")
		return nil
	}
	a.store = stats.NewMemoryStore()
	slog.Info("attempt statistics kept in memory")
	return nil
}

// initDocuments creates the backend document client.
func (a *App) initDocuments() {
	if a.docs != nil {
		return
	}
	base := a.cfg.Backend.DocumentURL
	if base == "" {
		base = a.cfg.Backend.BaseURL
	}
	a.docs = document.New(base)
}

// initNarrator creates the feedback narrator when both a TTS provider and a
// player are present, and resolves the configured voice.
func (a *App) initNarrator(ctx context.Context) {
	if a.providers.TTS == nil || a.providers.Player == nil {
		slog.Info("narration disabled", "tts", a.providers.TTS != nil, "player", a.providers.Player != nil)
		return
	}
	a.narrator = feedback.NewNarrator(a.providers.TTS, a.providers.Player)
	a.applyVoice(ctx, a.cfg.Voice)
}

// applyVoice resolves the preferred voice against the provider's catalogue
// and applies the configured speed factor. Resolution failures keep the
// provider's default voice; narration still works.
func (a *App) applyVoice(ctx context.Context, vc config.VoiceConfig) {
	if a.narrator == nil {
		return
	}
	voice := a.narrator.Voice()
	if vc.Preferred != "" {
		voices, err := a.narrator.Voices(ctx)
		if err != nil {
			slog.Warn("voice listing failed, keeping current voice", "error", err)
		} else {
			for _, v := range voices {
				if v.Name == vc.Preferred || v.ID == vc.Preferred {
					speed := voice.SpeedFactor
					voice = v
					voice.SpeedFactor = speed
					break
				}
			}
		}
	}
	if vc.SpeedFactor > 0 {
		voice.SpeedFactor = vc.SpeedFactor
	}
	a.narrator.SetVoice(voice)
	slog.Info("narration voice selected", "voice", voice.ID, "speed", voice.SpeedFactor)
}

// initController builds the session controller with every callback wired to
// the app: scored results feed statistics and narration, errors feed
// notifications, state changes feed the active-recordings gauge.
func (a *App) initController() {
	opts := []session.Option{
		msOption(a.cfg.Session.RecordTimeoutMs, session.WithTimeout),
		msOption(a.cfg.Session.GraceDelayMs, session.WithGraceDelay),
		session.WithLanguage(a.cfg.Session.Language),
		session.WithOnResult(a.handleResult),
		session.WithOnError(a.handleError),
		session.WithOnStateChange(a.handleState),
		session.WithOnLowSignal(a.handleLowSignal),
	}
	if a.providers.Recognizer != nil {
		opts = append(opts, session.WithRecognizer(a.providers.Recognizer))
	}
	a.controller = session.NewController(a.providers.Device, a.providers.Scoring, opts...)
}

// msOption converts a millisecond config value into a duration option,
// degenerating to a no-op for non-positive values so controller defaults
// survive an absent setting.
func msOption(ms int, opt func(time.Duration) session.Option) session.Option {
	if ms <= 0 {
		return func(*session.Controller) {}
	}
	return opt(time.Duration(ms) * time.Millisecond)
}

// Controller exposes the session controller for direct state queries.
func (a *App) Controller() *session.Controller { return a.controller }

// handleResult runs on every scored attempt: it closes the attempt span,
// records the attempt, counts it, and hands the verdict to the narrator for
// corrective speech.
func (a *App) handleResult(sentence types.Sentence, result types.PracticeResult) {
	ctx := context.Background()

	status := "incorrect"
	if result.IsCorrect {
		status = "correct"
	}
	reason := string(a.controller.LastStopReason())
	observe.EndAttemptSpan(a.takeAttemptSpan(), reason, status, nil)
	a.metrics.RecordAttempt(ctx, reason, status)

	if err := a.store.RecordAttempt(ctx, stats.AttemptFromResult(sentence, result)); err != nil {
		slog.Warn("attempt not recorded", "error", err)
	}

	if a.narrator != nil {
		go a.narrator.HandleResult(ctx, result)
	}
}

// handleError surfaces attempt failures that happen after recording started.
func (a *App) handleError(err error) {
	observe.EndAttemptSpan(a.takeAttemptSpan(), string(a.controller.LastStopReason()), "error", err)
	a.metrics.RecordProviderError(context.Background(), a.cfg.Providers.Scoring.Name, "scoring")
	a.notifier.Error("Attempt could not be scored: " + err.Error())
}

// takeAttemptSpan returns the in-flight attempt span, if any, and clears it so
// the span ends exactly once.
func (a *App) takeAttemptSpan() trace.Span {
	a.mu.Lock()
	defer a.mu.Unlock()
	span := a.attemptSpan
	a.attemptSpan = nil
	return span
}

// handleState keeps the active-recordings gauge, the recording-duration
// histogram, and the attempt span in step with the controller's lifecycle.
func (a *App) handleState(s session.State) {
	ctx := context.Background()
	switch s {
	case session.StateRecording:
		sentence := a.controller.Sentence()
		_, span := observe.StartAttemptSpan(ctx, sentence.GlobalIndex, sentence.Page)
		a.mu.Lock()
		a.recStart = time.Now()
		a.attemptSpan = span
		a.mu.Unlock()
		a.metrics.ActiveRecordings.Add(ctx, 1)
	case session.StateStopped:
		a.mu.Lock()
		start := a.recStart
		a.mu.Unlock()
		a.metrics.ActiveRecordings.Add(ctx, -1)
		if !start.IsZero() {
			a.metrics.RecordingDuration.Record(ctx, time.Since(start).Seconds())
		}
	}
}

func (a *App) handleLowSignal(peak float64) {
	a.metrics.LowSignalCaptures.Add(context.Background(), 1)
	a.notifier.LowSignal()
	slog.Debug("low signal advisory raised", "peak", peak)
}

// Run blocks until ctx is cancelled, serving the diagnostics listener (when
// configured) and watching the config file for hot-reloadable changes.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.watchPath != "" {
		w, err := config.NewWatcher(a.watchPath, a.applyConfig)
		if err != nil {
			return fmt.Errorf("app: start config watcher: %w", err)
		}
		a.watcher = w
		a.closers = append(a.closers, func() error {
			w.Stop()
			return nil
		})
	}

	if addr := a.cfg.Server.ListenAddr; addr != "" {
		srv := a.diagnosticsServer(addr)
		g.Go(func() error {
			slog.Info("diagnostics listener started", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("app: diagnostics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	} else {
		g.Go(func() error {
			<-ctx.Done()
			return nil
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); err == nil && ctxErr != nil {
		return ctxErr
	}
	return err
}

// diagnosticsServer builds the health and metrics endpoint server.
func (a *App) diagnosticsServer(addr string) *http.Server {
	checkers := []health.Checker{
		{Name: "scoring", Check: func(context.Context) error {
			if a.providers.Scoring == nil {
				return errors.New("no scoring provider")
			}
			return nil
		}},
	}
	if p, ok := a.store.(interface{ Ping(context.Context) error }); ok {
		checkers = append(checkers, health.Checker{Name: "stats", Check: p.Ping})
	}

	mux := http.NewServeMux()
	health.New(checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(a.metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// applyConfig reacts to a validated config change. Only a few settings are
// hot-reloadable: log level, voice, and session timing. Everything else
// needs a restart.
func (a *App) applyConfig(old, new *config.Config) {
	d := config.Diff(old, new)

	if d.LogLevelChanged && a.level != nil {
		a.level.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.VoiceChanged {
		a.applyVoice(context.Background(), d.NewVoice)
	}
	if d.SessionChanged {
		a.controller.SetTiming(
			time.Duration(d.NewSession.RecordTimeoutMs)*time.Millisecond,
			time.Duration(d.NewSession.GraceDelayMs)*time.Millisecond,
		)
		slog.Info("session timing changed",
			"record_timeout_ms", d.NewSession.RecordTimeoutMs,
			"grace_delay_ms", d.NewSession.GraceDelayMs)
	}

	a.mu.Lock()
	a.cfg = new
	a.mu.Unlock()
}

// slogLevel converts a config log level to the slog scale.
func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		// A live recording must not outlast the process.
		a.controller.Stop(session.StopUser)

		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				slog.Warn("closer error", "index", i, "error", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
