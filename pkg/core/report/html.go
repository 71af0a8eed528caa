package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"counterparty_analyzer/pkg/core/utils"
)

var htmlTagPattern = regexp.MustCompile(`(?i)<(h[1-6]|p|div|table|ul|ol|section|article|br)[\s>/]`)

// RenderHTML converts the report model's output into sanitized HTML.
// Markdown is rendered; HTML is passed through. Either way the result is
// stripped of active content.
func RenderHTML(markup string) (string, error) {
	cleaned := utils.CleanMarkdown(markup)
	if cleaned == "" {
		return "", nil
	}

	body := cleaned
	if !htmlTagPattern.MatchString(cleaned) {
		rendered, err := utils.RenderMarkdown(cleaned)
		if err != nil {
			return "", fmt.Errorf("REPORT_RENDER_ERROR: %w", err)
		}
		body = rendered
	}
	return Sanitize(body)
}

// Sanitize drops scripts, embedded objects, event handler attributes and
// javascript: URLs from an HTML fragment.
func Sanitize(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	RemoveActiveContent(doc)

	html, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize HTML: %w", err)
	}
	return strings.TrimSpace(html), nil
}

// RemoveActiveContent strips everything that could execute in a browser.
func RemoveActiveContent(doc *goquery.Document) {
	doc.Find("script, style, iframe, object, embed, link, meta, base, form").Remove()

	doc.Find("*").Each(func(i int, sel *goquery.Selection) {
		node := sel.Get(0)
		var drop []string
		for _, attr := range node.Attr {
			name := strings.ToLower(attr.Key)
			switch {
			case strings.HasPrefix(name, "on"):
				drop = append(drop, attr.Key)
			case name == "href" || name == "src" || name == "action" || name == "formaction":
				if isScriptURL(attr.Val) {
					drop = append(drop, attr.Key)
				}
			}
		}
		for _, key := range drop {
			sel.RemoveAttr(key)
		}
	})
}

func isScriptURL(v string) bool {
	v = strings.ToLower(strings.Join(strings.Fields(v), ""))
	return strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:") ||
		(strings.HasPrefix(v, "data:") && !strings.HasPrefix(v, "data:image/"))
}
