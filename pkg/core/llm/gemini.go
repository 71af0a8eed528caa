package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/phuslu/log"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider talks to the Gemini API. The client is created on first use
// and reused.
type GeminiProvider struct {
	Model       string
	APIKey      string
	Temperature float64

	once      sync.Once
	client    *genai.Client
	clientErr error
}

var _ Provider = (*GeminiProvider)(nil)

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) genaiClient(ctx context.Context) (*genai.Client, error) {
	p.once.Do(func() {
		p.client, p.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return p.client, p.clientErr
}

// generationConfig maps provider options onto a GenAI request config.
func (p *GeminiProvider) generationConfig(systemPrompt string, options map[string]interface{}) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(optFloat(options, OptTemperature, p.Temperature))),
	}
	if n := optInt(options, OptMaxTokens, 0); n > 0 {
		cfg.MaxOutputTokens = int32(n)
	}
	if optBool(options, OptJSON) {
		cfg.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	return cfg
}

// GenerateResponse runs one generateContent call.
func (p *GeminiProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("%w: GEMINI_API_KEY not set", ErrUnavailable)
	}
	model := optString(options, OptModel, p.Model)
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := p.genaiClient(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: gemini client: %v", ErrUnavailable, err)
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), p.generationConfig(systemPrompt, options))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	if u := result.UsageMetadata; u != nil {
		log.Info().Str("step", optString(options, OptStep, "chat")).Str("model", model).
			Int("prompt_tokens", int(u.PromptTokenCount)).
			Int("eval_tokens", int(u.CandidatesTokenCount)).
			Msg("gemini response received")
	}
	return result.Text(), nil
}
