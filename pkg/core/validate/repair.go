package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"counterparty_analyzer/pkg/core/utils"
)

// A fenced block is preferred over braces found elsewhere in the output.
var (
	fencedBlock = regexp.MustCompile("(?is)```(?:json)?[ \t]*\r?\n?(.*?)```")
	openFence   = regexp.MustCompile("(?i)```(?:json)?[ \t]*\r?\n")
)

// locatePayload finds the JSON object in model output. The body of the first
// code fence holding an object wins; a fence the model never closed counts
// too. Without a fence the first balanced object in the text is used.
func locatePayload(text string) (string, bool) {
	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		if span, ok := balancedSpan(m[1]); ok {
			return span, true
		}
	}
	if loc := openFence.FindStringIndex(text); loc != nil && !strings.Contains(text[loc[1]:], "```") {
		if span, ok := balancedSpan(text[loc[1]:]); ok {
			return span, true
		}
	}
	return balancedSpan(text)
}

// balancedSpan returns the span from the first '{' to its balanced closing
// brace, skipping braces inside string literals. Output without a closing
// brace is returned up to the end so the repair steps can finish it.
func balancedSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return strings.TrimSpace(text[start:]), true
}

// decodeObject strictly parses a JSON object, keeping numbers as json.Number.
func decodeObject(text string) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("top-level value is %T, not an object", v)
	}
	return obj, nil
}

// repairStep is one bounded, cumulative fix applied to a failing payload.
// apply returns the new text and whether the step made a change.
type repairStep struct {
	name  string
	apply func(text string) (string, bool)
}

func (v *Validator) repairSteps() []repairStep {
	steps := []repairStep{
		{name: "trailing_commas", apply: removeTrailingCommas},
		{name: "close_brackets", apply: func(text string) (string, bool) {
			return closeBrackets(text, v.maxUnclosed)
		}},
		{name: "single_quotes", apply: coerceSingleQuotes},
		{name: "relaxed_syntax", apply: relaxedSyntax},
	}
	if v.lenientRepair {
		steps = append(steps, repairStep{name: "library_repair", apply: libraryRepair})
	}
	return steps
}

// removeTrailingCommas drops commas directly followed by a closing bracket.
func removeTrailingCommas(text string) (string, bool) {
	var b strings.Builder
	b.Grow(len(text))
	changed := false
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(text) && isJSONSpace(text[j]) {
				j++
			}
			if j < len(text) && (text[j] == '}' || text[j] == ']') {
				changed = true
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String(), changed
}

// closeBrackets finishes output that was cut off: it terminates an open
// string, drops a dangling comma and appends the missing closers. It refuses
// to invent more than maxUnclosed closers or to fix mismatched brackets.
func closeBrackets(text string, maxUnclosed int) (string, bool) {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 || !matches(stack[len(stack)-1], c) {
				return text, false
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) == 0 || len(stack) > maxUnclosed {
		return text, false
	}

	out := text
	if inString {
		out += `"`
	}
	out = strings.TrimRightFunc(out, func(r rune) bool { return r < 128 && isJSONSpace(byte(r)) })
	out = strings.TrimSuffix(out, ",")
	if strings.HasSuffix(out, ":") {
		return text, false
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			out += "}"
		} else {
			out += "]"
		}
	}
	return out, true
}

// coerceSingleQuotes rewrites single-quoted strings as double-quoted ones.
// Apostrophes inside double-quoted strings are left alone.
func coerceSingleQuotes(text string) (string, bool) {
	var b strings.Builder
	b.Grow(len(text))
	changed := false
	inDouble, inSingle, escaped := false, false, false
	for _, r := range text {
		switch {
		case inDouble:
			b.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inDouble = false
			}
		case inSingle:
			switch {
			case escaped:
				escaped = false
				if r == '\'' {
					b.WriteRune(r)
				} else {
					b.WriteRune('\\')
					b.WriteRune(r)
				}
			case r == '\\':
				escaped = true
			case r == '\'':
				inSingle = false
				b.WriteRune('"')
			case r == '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
		case r == '"':
			inDouble = true
			b.WriteRune(r)
		case r == '\'':
			inSingle = true
			changed = true
			b.WriteRune('"')
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), changed
}

func relaxedSyntax(text string) (string, bool) {
	out, err := utils.ParseHJSON(text)
	if err != nil {
		return text, false
	}
	return out, true
}

func libraryRepair(text string) (string, bool) {
	out, err := utils.RepairJSON(text)
	if err != nil || out == text {
		return text, false
	}
	return out, true
}

func matches(open, closer byte) bool {
	return (open == '{' && closer == '}') || (open == '[' && closer == ']')
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
