package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/phuslu/log"
)

// AnthropicProvider implements the Provider interface for Claude models.
type AnthropicProvider struct {
	model       string
	temperature float64
	maxTokens   int
	client      anthropic.Client
	configured  bool
}

// Ensure interface compliance
var _ Provider = (*AnthropicProvider)(nil)

// NewAnthropicProvider creates a Claude provider. An empty key yields a
// provider that reports itself unavailable on every call.
func NewAnthropicProvider(apiKey, model string, temperature float64, maxTokens int) *AnthropicProvider {
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &AnthropicProvider{
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		configured:  apiKey != "",
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	if !p.configured {
		return "", fmt.Errorf("%w: ANTHROPIC_API_KEY not set", ErrUnavailable)
	}

	model := optString(options, OptModel, p.model)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(optInt(options, OptMaxTokens, p.maxTokens)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(optFloat(options, OptTemperature, p.temperature)),
	}

	system := systemPrompt
	if optBool(options, OptJSON) {
		system = strings.TrimSpace(system + "\n\nRespond with a single JSON object and nothing else.")
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	log.Info().Str("step", optString(options, OptStep, "chat")).Str("model", model).
		Str("stop_reason", string(resp.StopReason)).
		Int64("prompt_tokens", resp.Usage.InputTokens).
		Int64("eval_tokens", resp.Usage.OutputTokens).
		Msg("claude response received")

	return response.String(), nil
}
