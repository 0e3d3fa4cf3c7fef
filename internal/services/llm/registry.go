package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/config"
	"github.com/sirupsen/logrus"
)

// Factory builds a backend for one model of a provider
type Factory func(ctx context.Context, model string) (Backend, error)

// Registry resolves "provider/model" identifiers into backends and performs
// bounded remote calls against them
type Registry struct {
	timeout   time.Duration
	mu        sync.Mutex
	factories map[string]Factory
	backends  map[string]Backend
}

// NewRegistry creates a registry with the openai, gemini, http and mock providers
func NewRegistry(cfg config.LLMConfig) *Registry {
	r := &Registry{
		timeout:   cfg.RequestTimeout,
		factories: make(map[string]Factory),
		backends:  make(map[string]Backend),
	}
	r.Register("openai", func(_ context.Context, model string) (Backend, error) {
		return NewOpenAIBackend(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, model)
	})
	r.Register("gemini", func(ctx context.Context, model string) (Backend, error) {
		return NewGeminiBackend(ctx, cfg.GeminiAPIKey, model)
	})
	r.Register("http", func(_ context.Context, model string) (Backend, error) {
		return NewHTTPBackend(cfg.HTTPEndpoint, cfg.HTTPAPIKey, model)
	})
	r.Register("mock", func(_ context.Context, model string) (Backend, error) {
		return NewMockBackend(model), nil
	})
	return r
}

// Register adds or replaces a provider
func (r *Registry) Register(provider string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[provider] = factory
}

// Set installs a ready backend under an identifier
func (r *Registry) Set(id string, backend Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[id] = backend
}

// Resolve returns the backend for an identifier, building it on first use
func (r *Registry) Resolve(ctx context.Context, id string) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if backend, ok := r.backends[id]; ok {
		return backend, nil
	}

	provider, model, ok := strings.Cut(id, "/")
	if !ok || provider == "" || model == "" {
		return nil, fmt.Errorf("invalid backend id %q, expected provider/model", id)
	}
	factory, ok := r.factories[provider]
	if !ok {
		return nil, fmt.Errorf("unknown backend provider %q", provider)
	}
	backend, err := factory(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend %s: %w", id, err)
	}
	r.backends[id] = backend
	logrus.Infof("LLM backend %s initialized", id)
	return backend, nil
}

// Complete performs one remote call under the configured timeout.
// Every failure, including an empty response, is returned as *RemoteError.
func (r *Registry) Complete(ctx context.Context, id string, prompt Prompt) (string, error) {
	backend, err := r.Resolve(ctx, id)
	if err != nil {
		return "", NewRemoteError(id, 0, err.Error(), err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	content, err := backend.Complete(ctx, prompt)
	if err != nil {
		return "", asRemoteError(id, err)
	}
	if strings.TrimSpace(content) == "" {
		return "", NewRemoteError(id, 0, "empty response", nil)
	}
	logrus.Debugf("LLM backend %s answered in %v (%d chars)", id, time.Since(start), len(content))
	return content, nil
}
