package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"counterparty_analyzer/pkg/core/analysis"
	"counterparty_analyzer/pkg/core/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statement = `{"company_name":"ТОВ Контрагент","period":"2024",
 "balance_start":{"total_assets":1000,"total_equity":600,"total_liabilities":400,"current_assets":200,"current_liabilities":100},
 "balance_end":{"total_assets":1200,"total_equity":700,"total_liabilities":500,"current_assets":300,"current_liabilities":150},
 "income_current":{"revenue":2000,"net_profit":100}}`

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeStatement(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statement.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCalcCommand(t *testing.T) {
	out, err := runCmd(t, "calc", writeStatement(t, statement))
	require.NoError(t, err)
	assert.Contains(t, out, "ТОВ Контрагент")
	assert.Contains(t, out, "Ліквідність")
	assert.Contains(t, out, "Коефіцієнт поточної ліквідності")
}

func TestCalcCommandIncomplete(t *testing.T) {
	out, err := runCmd(t, "calc", writeStatement(t, `{"company_name":"X"}`))
	require.Error(t, err)
	assert.Contains(t, out, "extraction_incomplete")
	assert.Contains(t, out, "retry: resubmit")
}

func TestValidateCommandJSON(t *testing.T) {
	out, err := runCmd(t, "--json", "validate", writeStatement(t, "```json\n"+statement+"\n```"))
	require.NoError(t, err)
	assert.Contains(t, out, `"period": "2024"`)
}

func TestCatalogCommand(t *testing.T) {
	out, err := runCmd(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "liquidity")
	assert.Contains(t, out, "current_ratio")
}

func TestFormatValue(t *testing.T) {
	v := 45.6
	ratio := 1.23456
	assert.Equal(t, "н/д", formatValue(analysis.IndicatorResult{}))
	assert.Equal(t, "46", formatValue(analysis.IndicatorResult{Value: &v, Unit: analysis.UnitDays}))
	assert.Equal(t, "1.235", formatValue(analysis.IndicatorResult{Value: &ratio}))
}

func TestRenderWarnings(t *testing.T) {
	var buf bytes.Buffer
	renderWarnings(&buf, []validate.Warning{{Field: "balance_end.total_assets", Message: "balance does not reconcile"}})
	assert.Contains(t, buf.String(), "balance_end.total_assets")
}
