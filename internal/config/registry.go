package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lectara/lectara/pkg/audio"
	"github.com/lectara/lectara/pkg/provider/recognizer"
	"github.com/lectara/lectara/pkg/provider/scoring"
	"github.com/lectara/lectara/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// capability. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	capture    map[string]func(ProviderEntry) (audio.Device, error)
	recognizer map[string]func(ProviderEntry) (recognizer.Provider, error)
	scoring    map[string]func(ProviderEntry) (scoring.Provider, error)
	tts        map[string]func(ProviderEntry) (tts.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		capture:    make(map[string]func(ProviderEntry) (audio.Device, error)),
		recognizer: make(map[string]func(ProviderEntry) (recognizer.Provider, error)),
		scoring:    make(map[string]func(ProviderEntry) (scoring.Provider, error)),
		tts:        make(map[string]func(ProviderEntry) (tts.Provider, error)),
	}
}

// RegisterCapture registers a capture device factory under name. Subsequent
// calls with the same name overwrite the previous registration.
func (r *Registry) RegisterCapture(name string, factory func(ProviderEntry) (audio.Device, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capture[name] = factory
}

// RegisterRecognizer registers a recognition provider factory under name.
func (r *Registry) RegisterRecognizer(name string, factory func(ProviderEntry) (recognizer.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recognizer[name] = factory
}

// RegisterScoring registers a scoring provider factory under name.
func (r *Registry) RegisterScoring(name string, factory func(ProviderEntry) (scoring.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scoring[name] = factory
}

// RegisterTTS registers a synthesis provider factory under name.
func (r *Registry) RegisterTTS(name string, factory func(ProviderEntry) (tts.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = factory
}

// CreateCapture instantiates a capture device from entry.Name. Returns
// [ErrProviderNotRegistered] when no factory is registered for that name.
func (r *Registry) CreateCapture(entry ProviderEntry) (audio.Device, error) {
	r.mu.RLock()
	factory, ok := r.capture[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: capture/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateRecognizer instantiates a recognition provider from entry.Name.
func (r *Registry) CreateRecognizer(entry ProviderEntry) (recognizer.Provider, error) {
	r.mu.RLock()
	factory, ok := r.recognizer[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: recognizer/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateScoring instantiates a scoring provider from entry.Name.
func (r *Registry) CreateScoring(entry ProviderEntry) (scoring.Provider, error) {
	r.mu.RLock()
	factory, ok := r.scoring[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: scoring/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateTTS instantiates a synthesis provider from entry.Name.
func (r *Registry) CreateTTS(entry ProviderEntry) (tts.Provider, error) {
	r.mu.RLock()
	factory, ok := r.tts[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tts/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
