package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOllama(url string) *OllamaProvider {
	return NewOllamaProvider(OllamaConfig{
		BaseURL:       url,
		Model:         "gpt-oss:20b",
		Timeout:       5 * time.Second,
		Temperature:   0.3,
		NumCtx:        65536,
		NumPredict:    2048,
		RepeatPenalty: 1.3,
		RepeatLastN:   256,
	})
}

func TestOllamaExtractionRequest(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{\"a\":1}"},"done_reason":"stop","prompt_eval_count":10,"eval_count":5}`))
	}))
	defer srv.Close()

	out, err := newTestOllama(srv.URL).GenerateResponse(context.Background(), "docs", "sys", ExtractionOptions())
	require.NoError(t, err)

	assert.Equal(t, `{"a":1}`, out)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	assert.Equal(t, "gpt-oss:20b", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, "docs", got.Messages[1].Content)
	assert.Equal(t, 0.1, got.Options["temperature"])
	assert.Equal(t, float64(4096), got.Options["num_predict"])
	assert.Equal(t, float64(65536), got.Options["num_ctx"])
}

func TestOllamaReportUsesConfiguredOptions(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"content":"<h2>ok</h2>"}}`))
	}))
	defer srv.Close()

	out, err := newTestOllama(srv.URL).GenerateResponse(context.Background(), "calc", "sys", ReportOptions())
	require.NoError(t, err)

	assert.Equal(t, "<h2>ok</h2>", out)
	assert.Empty(t, got.Format)
	assert.Equal(t, 0.3, got.Options["temperature"])
	assert.Equal(t, float64(2048), got.Options["num_predict"])
}

func TestOllamaEmptyContentIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"content":"","thinking":"long thoughts"},"done_reason":"length"}`))
	}))
	defer srv.Close()

	out, err := newTestOllama(srv.URL).GenerateResponse(context.Background(), "p", "s", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOllamaHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestOllama(srv.URL).GenerateResponse(context.Background(), "p", "s", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestOllamaUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestOllama(url).GenerateResponse(context.Background(), "p", "s", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))

	h := newTestOllama(url).Health(context.Background())
	assert.False(t, h.Reachable)
	assert.NotEmpty(t, h.Error)
}

func TestOllamaHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:8b"},{"name":"gpt-oss:20b"}]}`))
	}))
	defer srv.Close()

	h := newTestOllama(srv.URL).Health(context.Background())
	assert.True(t, h.Reachable)
	assert.True(t, h.ModelAvailable)
	assert.Equal(t, "gpt-oss:20b", h.ConfiguredModel)
	assert.Equal(t, []string{"llama3:8b", "gpt-oss:20b"}, h.AvailableModels)
}

func TestDeepSeekRequest(t *testing.T) {
	var got DeepSeekRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer srv.Close()

	p := NewDeepSeekProvider("key", "", srv.URL, 0.3, 5*time.Second)
	out, err := p.GenerateResponse(context.Background(), "docs", "sys", ExtractionOptions())
	require.NoError(t, err)

	assert.Equal(t, "{}", out)
	assert.Equal(t, "deepseek-chat", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.Equal(t, 0.1, got.Temperature)
}

func TestDeepSeekNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewDeepSeekProvider("key", "", srv.URL, 0.3, 5*time.Second).
		GenerateResponse(context.Background(), "p", "s", nil)
	assert.ErrorContains(t, err, "DEEPSEEK_NO_CHOICES")
}

func TestMissingKeysAreUnavailable(t *testing.T) {
	providers := []Provider{
		&GeminiProvider{},
		NewAnthropicProvider("", "claude-sonnet-4-5", 0.3, 0),
		NewDeepSeekProvider("", "", "", 0.3, time.Second),
	}
	for _, p := range providers {
		t.Run(p.Name(), func(t *testing.T) {
			_, err := p.GenerateResponse(context.Background(), "p", "s", nil)
			assert.True(t, errors.Is(err, ErrUnavailable))
		})
	}
}

func TestGeminiGenerationConfig(t *testing.T) {
	p := &GeminiProvider{Temperature: 0.7}

	cfg := p.generationConfig("Ти аналітик.", ExtractionOptions())
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.1, float64(*cfg.Temperature), 1e-6)
	assert.Equal(t, int32(4096), cfg.MaxOutputTokens)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "Ти аналітик.", cfg.SystemInstruction.Parts[0].Text)

	cfg = p.generationConfig("", ReportOptions())
	assert.InDelta(t, 0.7, float64(*cfg.Temperature), 1e-6)
	assert.Empty(t, cfg.ResponseMIMEType)
	assert.Nil(t, cfg.SystemInstruction)
}
