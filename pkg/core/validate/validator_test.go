package validate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counterparty_analyzer/pkg/models"
)

const minimalPayload = `{"company_name":"ТОВ Тест","period":"2024",
 "balance_start":{"total_assets":1000,"total_equity":600,"total_liabilities":400,"current_assets":200,"current_liabilities":100},
 "balance_end":{"total_assets":1200,"total_equity":700,"total_liabilities":500,"current_assets":300,"current_liabilities":150},
 "income_current":{"revenue":2000,"net_profit":100}}`

func recordJSON(t *testing.T, res *Result) string {
	t.Helper()
	data, err := json.Marshal(res.Record)
	require.NoError(t, err)
	return string(data)
}

func TestValidate_BarePayload(t *testing.T) {
	res, err := New().Validate(minimalPayload)
	require.NoError(t, err)

	rec := res.Record
	assert.Equal(t, "ТОВ Тест", rec.CompanyName())
	assert.Equal(t, "2024", rec.Period())

	v, ok := rec.Balance(models.PeriodEnd, models.ItemCurrentAssets)
	require.True(t, ok)
	assert.Equal(t, 300.0, v)
	v, ok = rec.Income(models.ItemNetProfit)
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
	assert.Empty(t, res.Repairs)
	assert.Empty(t, res.Warnings)
}

func TestValidate_FencedPayloadMatchesBare(t *testing.T) {
	bare, err := New().Validate(minimalPayload)
	require.NoError(t, err)

	fenced := "Ось результат аналізу:\n```json\n" + minimalPayload + "\n```\nЯкщо потрібно, можу уточнити {деталі}."
	got, err := New().Validate(fenced)
	require.NoError(t, err)

	assert.Equal(t, recordJSON(t, bare), recordJSON(t, got))
	assert.Equal(t, bare.Warnings, got.Warnings)
}

func TestValidate_FenceWinsOverBracesInProse(t *testing.T) {
	bare, err := New().Validate(minimalPayload)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"json fence", "Формат відповіді {код: значення}:\n```json\n" + minimalPayload + "\n```"},
		{"bare fence", "Поля {company_name, period} заповнено.\n```\n" + minimalPayload + "\n```\nГотово."},
		{"unclosed fence", "Шаблон {ключ: число}\n```json\n" + minimalPayload},
		{"prose fence before payload fence", "```\nбез даних\n```\n```json\n" + minimalPayload + "\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Validate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, recordJSON(t, bare), recordJSON(t, got))
		})
	}
}

func TestValidate_RepairBound(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantRepairs []string
		wantFormat  bool
	}{
		{
			name:        "single trailing comma",
			input:       strings.Replace(minimalPayload, `"net_profit":100}`, `"net_profit":100,}`, 1),
			wantRepairs: []string{"trailing_commas"},
		},
		{
			name:        "one missing closing brace",
			input:       strings.TrimSuffix(minimalPayload, "}"),
			wantRepairs: []string{"close_brackets"},
		},
		{
			name:        "truncated inside a string",
			input:       strings.TrimSuffix(minimalPayload, "}") + `,"note":"trunc`,
			wantRepairs: []string{"close_brackets"},
		},
		{
			name:       "two missing closing braces",
			input:      strings.TrimSuffix(minimalPayload, "}}"),
			wantFormat: true,
		},
		{
			name:       "mismatched closer",
			input:      strings.Replace(minimalPayload, `"net_profit":100}}`, `"net_profit":100]}`, 1),
			wantFormat: true,
		},
		{
			name:       "no object at all",
			input:      "Вибачте, я не можу обробити цей документ.",
			wantFormat: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().Validate(tt.input)
			if tt.wantFormat {
				require.Error(t, err)
				assert.True(t, IsFormatError(err), "got %v", err)
				assert.Contains(t, err.Error(), "EXTRACTION_FORMAT_ERROR")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRepairs, res.Repairs)
		})
	}
}

func TestValidate_MaxUnclosedOption(t *testing.T) {
	input := strings.TrimSuffix(minimalPayload, "}}")
	res, err := New(WithMaxUnclosed(2)).Validate(input)
	require.NoError(t, err)
	assert.Equal(t, []string{"close_brackets"}, res.Repairs)
}

func TestValidate_SingleQuotes(t *testing.T) {
	input := strings.ReplaceAll(minimalPayload, `"`, `'`)
	res, err := New().Validate(input)
	require.NoError(t, err)
	assert.Equal(t, []string{"single_quotes"}, res.Repairs)
	assert.Equal(t, "ТОВ Тест", res.Record.CompanyName())
}

func TestValidate_RelaxedSyntax(t *testing.T) {
	input := `{
  # model commentary
  company_name: "ACME"
  period: "2024"
  balance_start: {
    total_assets: 1000
    total_equity: 600
    total_liabilities: 400
  }
  balance_end: {
    total_assets: 1100
    total_equity: 650
    total_liabilities: 450
  }
  income_current: {
    net_profit: 50
  }
}`
	res, err := New().Validate(input)
	require.NoError(t, err)
	assert.Equal(t, []string{"relaxed_syntax"}, res.Repairs)

	v, ok := res.Record.Balance(models.PeriodEnd, models.ItemTotalEquity)
	require.True(t, ok)
	assert.Equal(t, 650.0, v)
}

func TestValidate_MissingTotalEquity(t *testing.T) {
	input := strings.ReplaceAll(minimalPayload, `"total_equity":600,`, "")
	input = strings.ReplaceAll(input, `"total_equity":700,`, "")

	_, err := New().Validate(input)
	require.Error(t, err)

	var incomplete *IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"balance_start.total_equity", "balance_end.total_equity"}, incomplete.Missing)
	assert.Contains(t, err.Error(), "total_equity")
	assert.True(t, IsIncompleteError(err))
}

func TestValidate_MissingSection(t *testing.T) {
	_, err := New().Validate(`{"company_name":"X","balance_start":{"total_assets":1,"total_equity":1,"total_liabilities":0}}`)
	var incomplete *IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Contains(t, incomplete.Missing, "balance_end.total_assets")
	assert.Contains(t, incomplete.Missing, "income_current.net_profit")
}

func TestValidate_AliasesAndDerivations(t *testing.T) {
	input := `{"Компанія":"ПрАТ Приклад","Період":"2023",
	 "balance_start":{"р.1300":"1 000,0","р.1495":"600","р.1595":"100","р.1695":"300","1195 Оборотні активи":"500"},
	 "balance_end":{"Активи":"1200","Власний капітал":"700","Довгострокові зобов’язання":"200","Поточні зобов'язання":"300"},
	 "income_current":{"2000":"5 000","р.2355":"(120)"}}`

	res, err := New().Validate(input)
	require.NoError(t, err)
	rec := res.Record

	assert.Equal(t, "ПрАТ Приклад", rec.CompanyName())
	v, _ := rec.Balance(models.PeriodStart, models.ItemTotalAssets)
	assert.Equal(t, 1000.0, v)
	v, _ = rec.Balance(models.PeriodStart, models.ItemCurrentAssets)
	assert.Equal(t, 500.0, v)
	v, _ = rec.Balance(models.PeriodStart, models.ItemTotalLiabilities)
	assert.Equal(t, 400.0, v)
	v, _ = rec.Balance(models.PeriodEnd, models.ItemTotalLiabilities)
	assert.Equal(t, 500.0, v)
	v, _ = rec.Income(models.ItemRevenue)
	assert.Equal(t, 5000.0, v)
	v, _ = rec.Income(models.ItemNetProfit)
	assert.Equal(t, -120.0, v)

	var fields []string
	for _, w := range res.Warnings {
		fields = append(fields, w.Field)
	}
	assert.Contains(t, fields, "balance_start.total_liabilities")
	assert.Contains(t, fields, "income_current.net_profit")
}

func TestValidate_DropsUnparsableValues(t *testing.T) {
	input := strings.Replace(minimalPayload, `"revenue":2000`, `"revenue":"н/д","cash":"see note 4","inventory":{"value":"1 500"}`, 1)
	input = strings.Replace(input, `"income_current":{`, `"income_current":{"gross_profit":null,`, 1)

	res, err := New().Validate(input)
	require.NoError(t, err)

	_, ok := res.Record.Income(models.ItemRevenue)
	assert.False(t, ok, "unparsable value must be absent, not zero")
	v, ok := res.Record.Income(models.ItemInventory)
	assert.True(t, ok, "unknown keys are preserved")
	assert.Equal(t, 1500.0, v)

	var dropped int
	for _, w := range res.Warnings {
		if strings.Contains(w.Message, "dropped") {
			dropped++
		}
	}
	assert.Equal(t, 3, dropped)
}

func TestValidate_DuplicateAliasKeepsFirstSortedKey(t *testing.T) {
	input := strings.Replace(minimalPayload, `"current_assets":300`, `"current_assets":300,"1195":310`, 1)
	res, err := New().Validate(input)
	require.NoError(t, err)

	v, _ := res.Record.Balance(models.PeriodEnd, models.ItemCurrentAssets)
	assert.Equal(t, 310.0, v)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0].Message, "duplicates current_assets")
}

func TestValidate_BalanceMismatchIsWarningOnly(t *testing.T) {
	input := strings.Replace(minimalPayload, `"total_assets":1200`, `"total_assets":1500`, 1)
	res, err := New().Validate(input)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "balance_end", res.Warnings[0].Field)
	assert.Contains(t, res.Warnings[0].Message, "balance identity")
}

func TestValidate_MissingCompanyAndPeriodWarn(t *testing.T) {
	input := strings.Replace(minimalPayload, `"company_name":"ТОВ Тест","period":"2024",`, "", 1)
	res, err := New().Validate(input)
	require.NoError(t, err)
	assert.Equal(t, "", res.Record.CompanyName())
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, "company_name", res.Warnings[0].Field)
	assert.Equal(t, "period", res.Warnings[1].Field)
}

func TestValidate_Deterministic(t *testing.T) {
	input := "```json\n" + strings.Replace(minimalPayload, `"current_assets":300`, `"current_assets":"300,5","1195":"301"`, 1) + "\n```"
	first, err := New().Validate(input)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := New().Validate(input)
		require.NoError(t, err)
		assert.Equal(t, recordJSON(t, first), recordJSON(t, again))
		assert.Equal(t, first.Warnings, again.Warnings)
	}
}

func TestConsistencyWarnings_Tolerance(t *testing.T) {
	items := map[string]float64{
		models.ItemTotalAssets:      1000,
		models.ItemTotalLiabilities: 400,
		models.ItemTotalEquity:      595,
	}
	assert.Empty(t, consistencyWarnings(models.SectionBalanceEnd, items, 0.01))

	items[models.ItemTotalEquity] = 580
	warnings := consistencyWarnings(models.SectionBalanceEnd, items, 0.01)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.SectionBalanceEnd, warnings[0].Field)
	assert.Contains(t, warnings[0].Message, "off by 20.00")
}
