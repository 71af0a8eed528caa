package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const deepSeekBaseURL = "https://api.deepseek.com"

// DeepSeekProvider calls the OpenAI-compatible DeepSeek chat API.
type DeepSeekProvider struct {
	apiKey      string
	model       string
	temperature float64
	client      *resty.Client
}

// Ensure interface compliance
var _ Provider = (*DeepSeekProvider)(nil)

// NewDeepSeekProvider creates a provider; baseURL may be empty for the public API.
func NewDeepSeekProvider(apiKey, model, baseURL string, temperature float64, timeout time.Duration) *DeepSeekProvider {
	if baseURL == "" {
		baseURL = deepSeekBaseURL
	}
	if model == "" {
		model = "deepseek-chat"
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")

	return &DeepSeekProvider{apiKey: apiKey, model: model, temperature: temperature, client: client}
}

func (p *DeepSeekProvider) Name() string { return "deepseek" }

// DeepSeekRequest is the chat completion request body
type DeepSeekRequest struct {
	Messages       []Message      `json:"messages"`
	Model          string         `json:"model"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat ResponseFormat `json:"response_format"`
	Stream         bool           `json:"stream"`
	Temperature    float64        `json:"temperature"`
}

type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type DeepSeekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *DeepSeekProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("%w: DEEPSEEK_API_KEY not set", ErrUnavailable)
	}

	format := "text"
	if optBool(options, OptJSON) {
		format = "json_object"
	}
	reqBody := DeepSeekRequest{
		Messages: []Message{
			{Content: systemPrompt, Role: "system"},
			{Content: prompt, Role: "user"},
		},
		Model:          optString(options, OptModel, p.model),
		MaxTokens:      optInt(options, OptMaxTokens, 4096),
		ResponseFormat: ResponseFormat{Type: format},
		Stream:         false,
		Temperature:    optFloat(options, OptTemperature, p.temperature),
	}

	var response DeepSeekResponse
	res, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetBody(reqBody).
		SetResult(&response).
		Post("/chat/completions")
	if err != nil {
		if isConnectionError(err) {
			return "", fmt.Errorf("%w: deepseek: %v", ErrUnavailable, err)
		}
		return "", fmt.Errorf("DEEPSEEK_API_CALL_ERROR: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("DEEPSEEK_API_ERROR: status=%d body=%s", res.StatusCode(), truncate(res.String(), 500))
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("DEEPSEEK_NO_CHOICES: %s", truncate(res.String(), 500))
	}

	return response.Choices[0].Message.Content, nil
}
