package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/phuslu/log"
)

// OllamaConfig holds the chat options sent with every request.
type OllamaConfig struct {
	BaseURL       string
	Model         string
	Timeout       time.Duration
	Temperature   float64
	NumCtx        int
	NumPredict    int
	RepeatPenalty float64
	RepeatLastN   int
}

// OllamaProvider talks to a local Ollama server over /api/chat.
type OllamaProvider struct {
	config OllamaConfig
	client *resty.Client
}

// Ensure interface compliance
var _ Provider = (*OllamaProvider)(nil)
var _ HealthChecker = (*OllamaProvider)(nil)

// NewOllamaProvider creates a provider for the given server.
func NewOllamaProvider(config OllamaConfig) *OllamaProvider {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(config.BaseURL, "/"))
	client.SetTimeout(config.Timeout)
	client.SetHeader("Content-Type", "application/json")

	return &OllamaProvider{config: config, client: client}
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`
}

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ollamaMessage        `json:"messages"`
	Stream   bool                   `json:"stream"`
	Format   string                 `json:"format,omitempty"`
	Options  map[string]interface{} `json:"options"`
}

type ollamaChatResponse struct {
	Message         ollamaMessage `json:"message"`
	DoneReason      string        `json:"done_reason"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// GenerateResponse sends one non-streaming chat request.
func (p *OllamaProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	step := optString(options, OptStep, "chat")
	model := optString(options, OptModel, p.config.Model)

	req := ollamaChatRequest{
		Model: model,
		Messages: []ollamaMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream: false,
		Options: map[string]interface{}{
			"num_ctx":        p.config.NumCtx,
			"temperature":    optFloat(options, OptTemperature, p.config.Temperature),
			"num_predict":    optInt(options, OptMaxTokens, p.config.NumPredict),
			"repeat_penalty": p.config.RepeatPenalty,
			"repeat_last_n":  p.config.RepeatLastN,
		},
	}
	if optBool(options, OptJSON) {
		req.Format = "json"
	}

	log.Info().Str("step", step).Str("model", model).
		Int("num_ctx", p.config.NumCtx).
		Bool("json", req.Format != "").
		Int("prompt_chars", len(prompt)).
		Msg("sending request to ollama")

	var out ollamaChatResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/api/chat")
	if err != nil {
		if isConnectionError(err) {
			return "", fmt.Errorf("%w: ollama at %s: %v", ErrUnavailable, p.config.BaseURL, err)
		}
		return "", fmt.Errorf("OLLAMA_API_CALL_ERROR: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("OLLAMA_API_ERROR: status=%d body=%s", resp.StatusCode(), truncate(resp.String(), 500))
	}

	log.Info().Str("step", step).
		Str("done_reason", out.DoneReason).
		Int("prompt_tokens", out.PromptEvalCount).
		Int("eval_tokens", out.EvalCount).
		Int("content_chars", len(out.Message.Content)).
		Msg("ollama response received")

	content := out.Message.Content
	switch {
	case content == "" && out.Message.Thinking != "":
		log.Warn().Str("step", step).Int("thinking_chars", len(out.Message.Thinking)).
			Str("done_reason", out.DoneReason).
			Msg("ollama content is empty but thinking is not; raise num_predict")
	case content == "":
		log.Warn().Str("step", step).Str("body", truncate(resp.String(), 500)).Msg("ollama returned empty content")
	}
	return content, nil
}

// Health checks connectivity and whether the configured model is pulled.
func (p *OllamaProvider) Health(ctx context.Context) Health {
	h := Health{ConfiguredModel: p.config.Model}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var tags ollamaTagsResponse
	resp, err := p.client.R().SetContext(ctx).SetResult(&tags).Get("/api/tags")
	if err != nil {
		h.Error = fmt.Sprintf("cannot connect to ollama at %s: %v", p.config.BaseURL, err)
		return h
	}
	if resp.IsError() {
		h.Error = fmt.Sprintf("ollama /api/tags status %d", resp.StatusCode())
		return h
	}

	h.Reachable = true
	for _, m := range tags.Models {
		h.AvailableModels = append(h.AvailableModels, m.Name)
		if strings.Contains(m.Name, p.config.Model) {
			h.ModelAvailable = true
		}
	}
	return h
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	return errors.As(err, &opErr) || errors.As(err, &dnsErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
