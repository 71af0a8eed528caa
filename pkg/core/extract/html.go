package extract

import (
	"fmt"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// noiseSelector matches elements that never carry statement data.
const noiseSelector = "script, style, noscript, iframe, svg, nav, header, footer, form, button, img"

// extractHTML converts an HTML statement export to Markdown. Tables are cut
// out before conversion and rendered on a span-aware grid so that column
// alignment of financial rows survives.
func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style := strings.ToLower(strings.ReplaceAll(sel.AttrOr("style", ""), " ", ""))
		if strings.Contains(style, "display:none") {
			sel.Remove()
		}
	})

	tables := make(map[string]string)
	// Outer tables only; nested ones are rendered with their parent.
	doc.Find("table").Not("table table").Each(func(i int, sel *goquery.Selection) {
		placeholder := fmt.Sprintf("TABLEPLACEHOLDER%d", i+1)
		tables[placeholder] = tableToMarkdown(sel)
		sel.ReplaceWithHtml("<p>" + placeholder + "</p>")
	})

	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		body, _ = doc.Html()
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML: %w", err)
	}

	for placeholder, table := range tables {
		markdown = strings.Replace(markdown, placeholder, table, 1)
	}
	return markdown, nil
}

// tableToMarkdown lays the table out on a virtual grid. Cells covered by a
// colspan or rowspan are left blank so values stay in their columns.
func tableToMarkdown(table *goquery.Selection) string {
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return ""
	}

	cols := 0
	rows.Each(func(_ int, tr *goquery.Selection) {
		width := 0
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			width += span(cell, "colspan")
		})
		if width > cols {
			cols = width
		}
	})
	if cols == 0 {
		return ""
	}

	grid := make([][]string, rows.Length())
	filled := make([][]bool, rows.Length())
	for i := range grid {
		grid[i] = make([]string, cols)
		filled[i] = make([]bool, cols)
	}

	rows.Each(func(r int, tr *goquery.Selection) {
		c := 0
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			for c < cols && filled[r][c] {
				c++
			}
			if c >= cols {
				return
			}
			colspan, rowspan := span(cell, "colspan"), span(cell, "rowspan")
			for dr := 0; dr < rowspan && r+dr < len(grid); dr++ {
				for dc := 0; dc < colspan && c+dc < cols; dc++ {
					filled[r+dr][c+dc] = true
				}
			}
			grid[r][c] = cellText(cell.Text())
			c += colspan
		})
	})

	var sb strings.Builder
	sb.WriteString("\n")
	for i, row := range grid {
		sb.WriteString("|")
		for _, cell := range row {
			sb.WriteString(" " + cell + " |")
		}
		sb.WriteString("\n")
		if i == 0 {
			sb.WriteString("|" + strings.Repeat(" --- |", cols) + "\n")
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func span(cell *goquery.Selection, attr string) int {
	n, err := strconv.Atoi(cell.AttrOr(attr, "1"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func cellText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	return strings.ReplaceAll(text, "|", "&#124;")
}
