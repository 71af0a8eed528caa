// Package agent binds the configured inference provider to the two model
// roles of an analysis: reading a statement out of documents and writing the
// report.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"counterparty_analyzer/pkg/config"
	"counterparty_analyzer/pkg/core/llm"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"
)

// ManualProvider is the provider name for runs without a model: uploaded
// text is the model output.
const ManualProvider = "manual"

type Manager struct {
	mu        sync.RWMutex
	active    string
	model     string
	providers map[string]llm.Provider
	limiter   *rate.Limiter
	timeout   time.Duration
}

// NewManager registers every provider the configuration can reach and
// selects cfg.Provider as the active one.
func NewManager(cfg config.InferenceConfig) *Manager {
	m := &Manager{
		active:  cfg.Provider,
		model:   cfg.Model,
		timeout: cfg.Timeout(),
		limiter: newLimiter(cfg.RequestsPerMinute),
		providers: map[string]llm.Provider{
			"ollama": llm.NewOllamaProvider(llm.OllamaConfig{
				BaseURL:       cfg.BaseURL,
				Model:         cfg.Model,
				Timeout:       cfg.Timeout(),
				Temperature:   cfg.Temperature,
				NumCtx:        cfg.NumCtx,
				NumPredict:    cfg.NumPredict,
				RepeatPenalty: cfg.RepeatPenalty,
				RepeatLastN:   cfg.RepeatLastN,
			}),
			"gemini": &llm.GeminiProvider{
				Model:       cfg.Model,
				APIKey:      cfg.GeminiAPIKey,
				Temperature: cfg.Temperature,
			},
			"anthropic": llm.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.Model, cfg.Temperature, cfg.NumPredict),
			"deepseek":  llm.NewDeepSeekProvider(cfg.DeepSeekAPIKey, cfg.Model, "", cfg.Temperature, cfg.Timeout()),
		},
	}
	log.Info().Str("provider", m.active).Str("model", m.model).Int("rpm", cfg.RequestsPerMinute).Msg("inference manager ready")
	return m
}

// NewManagerWithProvider wraps a single provider. Used by tests and tools.
func NewManagerWithProvider(p llm.Provider, timeout time.Duration, requestsPerMinute int) *Manager {
	return &Manager{
		active:    p.Name(),
		providers: map[string]llm.Provider{p.Name(): p},
		limiter:   newLimiter(requestsPerMinute),
		timeout:   timeout,
	}
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// GetProviderByName returns a registered provider or nil.
func (m *Manager) GetProviderByName(name string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providers[name]
}

// SetGlobalProvider switches the active provider.
func (m *Manager) SetGlobalProvider(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[name]; !ok && name != ManualProvider {
		return fmt.Errorf("provider %s not found", name)
	}
	m.active = name
	log.Info().Str("provider", name).Msg("global provider changed")
	return nil
}

// ActiveProvider returns the name of the active provider.
func (m *Manager) ActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// IsManual reports whether no model is configured.
func (m *Manager) IsManual() bool {
	return m.ActiveProvider() == ManualProvider
}

// Providers lists registered provider names in sorted order.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute sends one prompt to the active provider.
func (m *Manager) Execute(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	return m.ExecuteWith(ctx, m.ActiveProvider(), prompt, systemPrompt, options)
}

// ExecuteWith sends one prompt to the named provider, waiting for the rate
// limiter and bounding the call by the configured timeout. Timeouts and
// cancelled waits are reported as llm.ErrUnavailable.
func (m *Manager) ExecuteWith(ctx context.Context, name, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	provider := m.GetProviderByName(name)
	if provider == nil {
		return "", fmt.Errorf("%w: no provider for %q", llm.ErrUnavailable, name)
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limit wait: %v", llm.ErrUnavailable, err)
		}
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := provider.GenerateResponse(ctx, prompt, systemPrompt, options)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %s timed out after %s: %v", llm.ErrUnavailable, name, m.timeout, err)
		}
		log.Error().Err(err).Str("provider", name).Dur("elapsed", time.Since(start)).Msg("inference call failed")
		return "", err
	}
	log.Debug().Str("provider", name).Dur("elapsed", time.Since(start)).Int("chars", len(out)).Msg("inference call complete")
	return out, nil
}

// Health reports the state of the active provider. Providers without a
// health check are reported as reachable with the configured model.
func (m *Manager) Health(ctx context.Context) llm.Health {
	name := m.ActiveProvider()
	if name == ManualProvider {
		return llm.Health{Reachable: true, ModelAvailable: true, ConfiguredModel: ManualProvider}
	}
	provider := m.GetProviderByName(name)
	if provider == nil {
		return llm.Health{ConfiguredModel: m.model, Error: fmt.Sprintf("provider %s not registered", name)}
	}
	if hc, ok := provider.(llm.HealthChecker); ok {
		return hc.Health(ctx)
	}
	return llm.Health{Reachable: true, ModelAvailable: true, ConfiguredModel: m.model}
}
