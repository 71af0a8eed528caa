package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/phuslu/log"
)

// charsPerToken approximates tokenization of Cyrillic text.
const charsPerToken = 3.5

var (
	horizontalSpace = regexp.MustCompile(`[^\S\n\t]+`)
	extraNewlines   = regexp.MustCompile(`\n{3,}`)
)

// FileText is the extracted text of one uploaded file.
type FileText struct {
	Name string
	Text string
}

// CleanText collapses runs of spaces and limits blank lines to one. Tabs
// are kept as column separators.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = extraNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// EstimateTokens is a rough token count for text.
func EstimateTokens(text string) int {
	return int(float64(utf8.RuneCountInString(text)) / charsPerToken)
}

// Truncate cuts text to about maxTokens. The cut moves back to the last
// full line when that keeps at least 80% of the budget, and a notice is
// appended. The flag reports whether anything was cut.
func Truncate(text string, maxTokens int) (string, bool) {
	current := EstimateTokens(text)
	if current <= maxTokens {
		return text, false
	}

	target := int(float64(maxTokens) * charsPerToken)
	runes := []rune(text)
	if target > len(runes) {
		target = len(runes)
	}
	truncated := string(runes[:target])
	if idx := strings.LastIndex(truncated, "\n"); idx >= 0 && utf8.RuneCountInString(truncated[:idx]) > target*8/10 {
		truncated = truncated[:idx]
	}

	log.Warn().Int("from_tokens", current).Int("to_tokens", EstimateTokens(truncated)).Msg("document text truncated")

	notice := fmt.Sprintf("\n\n[УВАГА: Текст було скорочено через перевищення ліміту токенів. "+
		"Оригінальний розмір: ~%d токенів, ліміт: %d токенів.]", current, maxTokens)
	return truncated + notice, true
}

// Combine joins file texts in upload order under per-file headers.
func Combine(files []FileText) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		parts = append(parts, fmt.Sprintf("=== FILE: %s ===\n%s", f.Name, f.Text))
	}
	return strings.Join(parts, "\n\n")
}
