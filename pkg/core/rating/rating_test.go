package rating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestBuiltinRulesCoverRealLine(t *testing.T) {
	rules := map[string]Rule{
		"higher":   HigherIsBetter(1.5, 1),
		"lower":    LowerIsBetter(60, 90),
		"target":   TargetRange(0.1, 0.25, 0.75, 0.9),
		"positive": PositiveIsGreen(Red),
		"nonneg":   NonNegativeIsGreen(Orange),
		"nonpos":   NonPositiveIsGreen(Orange),
		"profit":   ProfitabilityRule(0.05),
	}
	for name, r := range rules {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, r.Validate())
			for _, v := range []float64{-1e12, -1, 0, 0.1, 0.25, 0.75, 1, 1.5, 60, 90, 1e12} {
				assert.NotEqual(t, Undefined, r.Classify(f(v)), "value %v", v)
			}
		})
	}
}

func TestHigherIsBetter_Boundaries(t *testing.T) {
	r := HigherIsBetter(1.5, 1)
	tests := []struct {
		value float64
		want  Rating
	}{
		{2.0, Green},
		{1.5, Green},
		{1.4999, Orange},
		{1.0, Orange},
		{0.9999, Red},
		{-3, Red},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Classify(f(tt.value)), "value %v", tt.value)
	}
}

func TestTargetRange_Boundaries(t *testing.T) {
	r := TargetRange(0.1, 0.25, 0.75, 0.9)
	assert.Equal(t, Red, r.Classify(f(0.05)))
	assert.Equal(t, Orange, r.Classify(f(0.1)))
	assert.Equal(t, Green, r.Classify(f(0.25)))
	assert.Equal(t, Green, r.Classify(f(0.75)))
	assert.Equal(t, Orange, r.Classify(f(0.9)))
	assert.Equal(t, Red, r.Classify(f(0.95)))
}

func TestClassify_UndefinedInputs(t *testing.T) {
	r := HigherIsBetter(1.5, 1)
	assert.Equal(t, Undefined, r.Classify(nil))
	assert.Equal(t, Undefined, r.Classify(f(math.NaN())))
	assert.Equal(t, Undefined, r.Classify(f(math.Inf(1))))
	assert.Equal(t, Undefined, r.Classify(f(math.Inf(-1))))
}

func TestValidate_RejectsBrokenRules(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr string
	}{
		{
			name:    "empty",
			rule:    Rule{},
			wantErr: "RATING_RULE_EMPTY",
		},
		{
			name: "gap below",
			rule: Rule{Bands: []Band{
				{Rating: Green, From: f(0), FromInclusive: true},
			}},
			wantErr: "RATING_RULE_GAP",
		},
		{
			name: "gap between",
			rule: Rule{Bands: []Band{
				{Rating: Red, To: f(1)},
				{Rating: Green, From: f(2), FromInclusive: true},
			}},
			wantErr: "RATING_RULE_GAP",
		},
		{
			name: "boundary claimed twice",
			rule: Rule{Bands: []Band{
				{Rating: Red, To: f(1), ToInclusive: true},
				{Rating: Green, From: f(1), FromInclusive: true},
			}},
			wantErr: "RATING_RULE_OVERLAP",
		},
		{
			name: "boundary claimed by none",
			rule: Rule{Bands: []Band{
				{Rating: Red, To: f(1)},
				{Rating: Green, From: f(1)},
			}},
			wantErr: "RATING_RULE_GAP",
		},
		{
			name: "bad rating",
			rule: Rule{Bands: []Band{
				{Rating: Undefined},
			}},
			wantErr: "RATING_RULE_INVALID",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTable(t *testing.T) {
	table, err := NewTable(map[string]Rule{"current_ratio": HigherIsBetter(1.5, 1)})
	require.NoError(t, err)

	assert.Equal(t, Green, table.Classify("current_ratio", f(2)))
	assert.Equal(t, Undefined, table.Classify("unknown", f(2)))
	assert.Equal(t, "≥ 1.5", table.Norm("current_ratio"))

	_, err = NewTable(map[string]Rule{"broken": {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indicator broken")
}
