package utils

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Report markup is GitHub-flavoured so indicator tables render.
var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// fenceLanguages are the info strings a model wraps a whole report in.
var fenceLanguages = []string{"markdown", "md", "html", ""}

// CleanMarkdown trims the output and unwraps it when the whole answer is a
// single fenced block.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(cleaned, "```"), "```")
	firstLine, rest, _ := strings.Cut(inner, "\n")
	lang := strings.ToLower(strings.TrimSpace(firstLine))
	for _, l := range fenceLanguages {
		if lang == l {
			return strings.TrimSpace(rest)
		}
	}
	return cleaned
}

// RenderMarkdown converts GitHub-flavoured Markdown to HTML.
func RenderMarkdown(input string) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(input), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
