package validate

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counterparty_analyzer/pkg/models"
)

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
	}{
		{"json number", json.Number("1234.5"), 1234.5},
		{"float", 42.0, 42},
		{"negative float kept", -17.5, -17.5},
		{"grouped with spaces and decimal comma", "1 234,5", 1234.5},
		{"nbsp grouping", "1 234 567", 1234567},
		{"parenthesised negative", "(1 500)", -1500},
		{"unicode minus", "−250", -250},
		{"unit marker", "12 тис. грн", 12},
		{"currency prefix", "₴ 900", 900},
		{"comma thousands", "1,234,567", 1234567},
		{"dot thousands", "1.234.567", 1234567},
		{"comma thousands dot decimal", "1,234.56", 1234.56},
		{"dot thousands comma decimal", "1.234,56", 1234.56},
		{"apostrophe grouping", "1'000", 1000},
		{"wrapped value", map[string]interface{}{"value": "7,5"}, 7.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceNumber(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCoerceNumber_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{"nil", nil},
		{"dash", "-"},
		{"em dash", "—"},
		{"null string", "null"},
		{"none", "None"},
		{"text", "see note"},
		{"mixed garbage", "12abc34"},
		{"overflow", json.Number("1e400")},
		{"infinity", math.Inf(1)},
		{"nan", math.NaN()},
		{"nested wrapper", map[string]interface{}{"value": map[string]interface{}{"value": 1.0}}},
		{"object without value", map[string]interface{}{"amount": 1.0}},
		{"array", []interface{}{1.0, 2.0}},
		{"bool", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coerceNumber(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestCanonicalItem(t *testing.T) {
	tests := []struct {
		section string
		raw     string
		want    string
		known   bool
	}{
		{models.SectionBalanceEnd, "total_assets", models.ItemTotalAssets, true},
		{models.SectionBalanceEnd, "Assets Total", models.ItemTotalAssets, true},
		{models.SectionBalanceEnd, "Активи", models.ItemTotalAssets, true},
		{models.SectionBalanceEnd, "р.1195", models.ItemCurrentAssets, true},
		{models.SectionBalanceEnd, "Р. 1165", models.ItemCash, true},
		{models.SectionBalanceEnd, "рядок 1100", models.ItemInventory, true},
		{models.SectionBalanceEnd, "1495 Власний капітал", models.ItemTotalEquity, true},
		{models.SectionBalanceStart, "Total-Current-Liabilities", models.ItemCurrentLiabilities, true},
		{models.SectionIncomeCurrent, "2350", models.ItemNetProfit, true},
		{models.SectionIncomeCurrent, "Net Income", models.ItemNetProfit, true},
		{models.SectionBalanceEnd, "2350", "", false},
		{models.SectionBalanceEnd, "11950", "", false},
		{models.SectionBalanceEnd, "goodwill", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := canonicalItem(tt.section, tt.raw)
			assert.Equal(t, tt.known, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
