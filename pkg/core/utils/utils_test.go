package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHJSON_RelaxedSyntax(t *testing.T) {
	out, err := ParseHJSON("{\n  # comment\n  company_name: ACME\n  total: 5\n}")
	require.NoError(t, err)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "ACME", v["company_name"])
	assert.Equal(t, 5.0, v["total"])
}

func TestRepairJSON_UnquotedKeys(t *testing.T) {
	out, err := RepairJSON(`{a: 1, "b": 2,}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":2}`, out)
}

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"markdown fence", "```markdown\n# Title\n```", "# Title"},
		{"html fence", "```html\n<p>x</p>\n```", "<p>x</p>"},
		{"plain fence", "```\ntext\n```", "text"},
		{"md fence", "```md\n- a\n```", "- a"},
		{"no fence", "  # Title  ", "# Title"},
		{"code language kept", "```go\nx := 1\n```", "```go\nx := 1\n```"},
		{"inline fence only", "```", "```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanMarkdown(tt.input))
		})
	}
}

func TestRenderMarkdown_Table(t *testing.T) {
	html, err := RenderMarkdown("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>1</td>")
}
