package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// OCR recognizes text in images and scanned documents.
type OCR interface {
	Recognize(ctx context.Context, mimeType string, data []byte) (string, error)
}

const ocrPrompt = "Розпізнай увесь текст на зображенні або у відсканованому документі. " +
	"Таблиці фінансової звітності відтвори рядок за рядком, значення колонок розділяй табуляцією. " +
	"Зберігай коди рядків, знаки та дужки біля чисел. Поверни лише розпізнаний текст."

// GeminiOCR uses a multimodal Gemini model as the recognizer.
type GeminiOCR struct {
	apiKey string
	model  string
}

// Ensure interface compliance
var _ OCR = (*GeminiOCR)(nil)

// NewGeminiOCR creates a recognizer for the given model.
func NewGeminiOCR(apiKey, model string) *GeminiOCR {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiOCR{apiKey: apiKey, model: model}
}

// Recognize sends the document as an inline blob and returns the text parts
// of the first candidate.
func (g *GeminiOCR) Recognize(ctx context.Context, mimeType string, data []byte) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("OCR_UNAVAILABLE: GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("OCR_CLIENT_ERROR: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx,
		genai.Text(ocrPrompt),
		genai.Blob{MIMEType: mimeType, Data: data},
	)
	if err != nil {
		return "", fmt.Errorf("OCR_GENERATION_ERROR: %w", err)
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("OCR_EMPTY: no text recognized")
	}
	return sb.String(), nil
}
