// Package llm holds the language-model providers used for statement
// extraction and report writing.
package llm

import (
	"context"
	"errors"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	Name() string
}

// HealthChecker is implemented by providers that can report reachability.
type HealthChecker interface {
	Health(ctx context.Context) Health
}

// Health describes the state of an inference backend.
type Health struct {
	Reachable       bool     `json:"reachable"`
	ModelAvailable  bool     `json:"model_available"`
	ConfiguredModel string   `json:"configured_model"`
	AvailableModels []string `json:"available_models,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// ErrUnavailable marks failures to reach the inference backend at all, as
// opposed to a backend that answered with an error.
var ErrUnavailable = errors.New("inference backend unavailable")

// Option keys understood by the providers.
const (
	OptJSON        = "json"        // bool: request a JSON-only answer
	OptTemperature = "temperature" // float64
	OptMaxTokens   = "max_tokens"  // int
	OptModel       = "model"       // string
	OptStep        = "step"        // string: log label
)

// ExtractionOptions are the settings for the structured extraction call.
func ExtractionOptions() map[string]interface{} {
	return map[string]interface{}{
		OptJSON:        true,
		OptTemperature: 0.1,
		OptMaxTokens:   4096,
		OptStep:        "extraction",
	}
}

// ReportOptions are the settings for the report call; provider defaults apply.
func ReportOptions() map[string]interface{} {
	return map[string]interface{}{
		OptStep: "report",
	}
}

func optString(options map[string]interface{}, key, def string) string {
	if v, ok := options[key].(string); ok && v != "" {
		return v
	}
	return def
}

func optFloat(options map[string]interface{}, key string, def float64) float64 {
	switch v := options[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return def
}

func optInt(options map[string]interface{}, key string, def int) int {
	switch v := options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func optBool(options map[string]interface{}, key string) bool {
	v, _ := options[key].(bool)
	return v
}
