package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDOCX returns body paragraphs first, then each table as
// tab-separated rows under a "--- Table N ---" header.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("failed to read document body: %w", err)
			}
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("word/document.xml not found")
	}
	defer body.Close()

	paragraphs, tables, err := walkDocument(xml.NewDecoder(body))
	if err != nil {
		return "", err
	}

	parts := paragraphs
	for i, rows := range tables {
		lines := append([]string{fmt.Sprintf("--- Table %d ---", i+1)}, rows...)
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n"), nil
}

// walkDocument streams WordprocessingML. Nested tables are flattened into
// the cell that contains them.
func walkDocument(dec *xml.Decoder) (paragraphs []string, tables [][]string, err error) {
	var (
		tableDepth int
		inText     bool
		para       strings.Builder
		cell       strings.Builder
		row        []string
		table      []string
	)

	write := func(s string) {
		if tableDepth > 0 {
			cell.WriteString(s)
		} else {
			para.WriteString(s)
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("malformed document body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					table = nil
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell.Reset()
				}
			case "p":
				if tableDepth == 0 {
					para.Reset()
				}
			case "t":
				inText = true
			case "tab":
				write(" ")
			case "br":
				write("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tableDepth == 0 {
					if text := strings.TrimSpace(para.String()); text != "" {
						paragraphs = append(paragraphs, text)
					}
				} else {
					cell.WriteString("\n")
				}
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.TrimSpace(cell.String()))
				}
			case "tr":
				if tableDepth == 1 {
					table = append(table, strings.Join(row, "\t"))
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 {
					tables = append(tables, table)
				}
			}
		case xml.CharData:
			if inText {
				write(string(t))
			}
		}
	}
	return paragraphs, tables, nil
}
