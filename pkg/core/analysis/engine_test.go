package analysis

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counterparty_analyzer/pkg/core/calc"
	"counterparty_analyzer/pkg/core/rating"
	"counterparty_analyzer/pkg/models"
)

// fullRecord has every input the default catalogue reads, in both periods.
func fullRecord() *models.FinancialStatement {
	return models.NewFinancialStatement("ТОВ Контрагент", "2024",
		map[string]float64{
			models.ItemCurrentAssets: 400, models.ItemCurrentLiabilities: 200, models.ItemInventory: 100,
			models.ItemCash: 50, models.ItemTotalAssets: 1000, models.ItemTotalEquity: 600,
			models.ItemTotalLiabilities: 400, models.ItemReceivables: 150, models.ItemAccountsPayable: 120,
			models.ItemLongTermLiabilities: 200, models.ItemFixedAssetsGross: 800, models.ItemFixedAssetsNet: 500,
			models.ItemAccumulatedDepreciation: -300,
		},
		map[string]float64{
			models.ItemCurrentAssets: 450, models.ItemCurrentLiabilities: 225, models.ItemInventory: 120,
			models.ItemCash: 80, models.ItemTotalAssets: 1100, models.ItemTotalEquity: 650,
			models.ItemTotalLiabilities: 450, models.ItemReceivables: 160, models.ItemAccountsPayable: 130,
			models.ItemLongTermLiabilities: 225, models.ItemFixedAssetsGross: 850, models.ItemFixedAssetsNet: 520,
			models.ItemAccumulatedDepreciation: -330,
		},
		map[string]float64{
			models.ItemRevenue: 2000, models.ItemCostOfSales: -1400, models.ItemNetProfit: 100,
			models.ItemOperatingProfit: 150,
		},
	)
}

func defaultEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	return NewEngine(catalog, opts...)
}

func TestDefaultCatalog_Shape(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	assert.Equal(t, 29, catalog.Len())

	counts := map[Block]int{}
	for _, d := range catalog.Definitions() {
		counts[d.Block]++
	}
	assert.Equal(t, map[Block]int{
		BlockLiquidity:     3,
		BlockStability:     2,
		BlockActivity:      6,
		BlockCashFlow:      5,
		BlockStructure:     7,
		BlockProfitability: 6,
	}, counts)
}

func TestCalculate_FullRecordResolvesEverything(t *testing.T) {
	report := defaultEngine(t).Calculate(fullRecord())

	assert.Equal(t, 29, report.Count())
	assert.Empty(t, report.Undefined())
	assert.Equal(t, 0, report.Summary.Undefined)
	assert.Equal(t, "ТОВ Контрагент", report.CompanyName)

	var order []Block
	for _, b := range report.Blocks {
		order = append(order, b.ID)
	}
	assert.Equal(t, []Block{BlockLiquidity, BlockStability, BlockActivity, BlockCashFlow, BlockStructure, BlockProfitability}, order)
	assert.Equal(t, "current_ratio", report.Blocks[0].Indicators[0].ID)
	assert.Equal(t, "ronca", report.Blocks[5].Indicators[5].ID)

	tests := []struct {
		id     string
		value  float64
		rating rating.Rating
	}{
		{"current_ratio", 2.0, rating.Green},
		{"quick_ratio", 1.466667, rating.Green},
		{"absolute_liquidity", 0.355556, rating.Green},
		{"autonomy", 0.590909, rating.Green},
		{"leverage", 0.692308, rating.Green},
		{"asset_turnover", 1.904762, rating.Green},
		{"inventory_turnover", 12.727273, rating.Green},
		{"receivables_days", 28.2875, rating.Green},
		{"operating_cash_flow", 100 + 30 - 20 - 10 + 10, rating.Green},
		{"net_cash_change", 30, rating.Green},
		{"net_working_capital", 225, rating.Green},
		{"depreciation_ratio", 0.388235, rating.Green},
		{"roe", 0.16, rating.Green},
		{"ros", 0.05, rating.Green},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			ind, ok := report.Indicator(tt.id)
			require.True(t, ok)
			require.NotNil(t, ind.Value, ind.Diagnostic)
			assert.InDelta(t, tt.value, *ind.Value, 1e-6)
			assert.Equal(t, tt.rating, ind.Rating)
			assert.NotEmpty(t, ind.FormulaText)
			assert.NotEmpty(t, ind.Norm)
		})
	}
}

func TestCalculate_ConcreteCurrentRatioScenario(t *testing.T) {
	// Green threshold for the current ratio is >= 1.5.
	engine := defaultEngine(t)
	rule, ok := engine.Catalog().Rule("current_ratio")
	require.True(t, ok)
	assert.Equal(t, "≥ 1.5", rule.Norm)

	rec := models.NewFinancialStatement("", "",
		map[string]float64{models.ItemCurrentAssets: 200, models.ItemCurrentLiabilities: 100},
		map[string]float64{models.ItemCurrentAssets: 300, models.ItemCurrentLiabilities: 150},
		nil)
	ind, ok := engine.Calculate(rec).Indicator("current_ratio")
	require.True(t, ok)
	require.NotNil(t, ind.Value)
	assert.Equal(t, 2.0, *ind.Value)
	assert.Equal(t, rating.Green, ind.Rating)
}

func TestCalculate_ZeroCurrentLiabilities(t *testing.T) {
	rec := models.NewFinancialStatement("", "", nil,
		map[string]float64{models.ItemCurrentAssets: 300, models.ItemCurrentLiabilities: 0, models.ItemCash: 10},
		nil)
	report := defaultEngine(t).Calculate(rec)

	for _, id := range []string{"current_ratio", "absolute_liquidity"} {
		ind, ok := report.Indicator(id)
		require.True(t, ok)
		assert.Nil(t, ind.Value, id)
		assert.Equal(t, rating.Undefined, ind.Rating, id)
		assert.Equal(t, "division by zero", ind.Diagnostic, id)
	}
	assert.Equal(t, 29, report.Count())
}

func TestCalculate_MissingInputsShortCircuit(t *testing.T) {
	calls := 0
	defs := DefaultDefinitions()
	defs[0].Formula = func(in calc.Inputs) calc.Result {
		calls++
		return calc.CurrentRatio(in)
	}
	catalog, err := NewCatalog(defs, nil)
	require.NoError(t, err)

	report := NewEngine(catalog).Calculate(models.NewFinancialStatement("", "", nil, nil, nil))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 29, report.Summary.Undefined)

	ind, _ := report.Indicator("current_ratio")
	assert.Equal(t, "missing inputs: balance_end.current_assets, balance_end.current_liabilities", ind.Diagnostic)
}

func TestCalculate_PartialFailureIsolation(t *testing.T) {
	t.Run("unsatisfiable requirement", func(t *testing.T) {
		defs := DefaultDefinitions()
		defs[7].Requires = append(defs[7].Requires, Need{Scope: calc.ScopeEnd, Keys: []string{"nonexistent_line"}})
		catalog, err := NewCatalog(defs, nil)
		require.NoError(t, err)

		report := NewEngine(catalog).Calculate(fullRecord())
		undefined := report.Undefined()
		require.Len(t, undefined, 1)
		assert.Equal(t, defs[7].ID, undefined[0].ID)
		assert.Contains(t, undefined[0].Diagnostic, "nonexistent_line")
		assert.Equal(t, 28, report.Count()-len(undefined))
	})

	t.Run("panicking formula", func(t *testing.T) {
		defs := DefaultDefinitions()
		defs[12].Formula = func(calc.Inputs) calc.Result { panic("boom") }
		catalog, err := NewCatalog(defs, nil)
		require.NoError(t, err)

		report := NewEngine(catalog).Calculate(fullRecord())
		undefined := report.Undefined()
		require.Len(t, undefined, 1)
		assert.Equal(t, defs[12].ID, undefined[0].ID)
		assert.Equal(t, "formula fault: boom", undefined[0].Diagnostic)
		assert.Equal(t, rating.Undefined, undefined[0].Rating)
		assert.Equal(t, 28, report.Summary.Green+report.Summary.Orange+report.Summary.Red)
	})
}

func TestCalculate_Deterministic(t *testing.T) {
	engine := defaultEngine(t)
	first, err := json.Marshal(engine.Calculate(fullRecord()))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again, err := json.Marshal(engine.Calculate(fullRecord()))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestCalculate_ConcurrentUse(t *testing.T) {
	engine := defaultEngine(t)
	want, err := json.Marshal(engine.Calculate(fullRecord()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, _ := json.Marshal(engine.Calculate(fullRecord()))
			results[i] = string(data)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, string(want), got)
	}
}

func TestCalculate_Totality(t *testing.T) {
	engine := defaultEngine(t)
	for _, v := range []float64{0, -1, 1e-300, 1e300, -1e300} {
		items := map[string]float64{}
		for _, k := range []string{
			models.ItemCurrentAssets, models.ItemCurrentLiabilities, models.ItemInventory, models.ItemCash,
			models.ItemTotalAssets, models.ItemTotalEquity, models.ItemTotalLiabilities, models.ItemReceivables,
			models.ItemAccountsPayable, models.ItemLongTermLiabilities, models.ItemFixedAssetsGross,
			models.ItemFixedAssetsNet, models.ItemAccumulatedDepreciation,
		} {
			items[k] = v
		}
		income := map[string]float64{
			models.ItemRevenue: v, models.ItemCostOfSales: v, models.ItemNetProfit: v, models.ItemOperatingProfit: v,
		}
		report := engine.Calculate(models.NewFinancialStatement("", "", items, items, income))
		require.Equal(t, 29, report.Count())
		for _, b := range report.Blocks {
			for _, ind := range b.Indicators {
				if ind.Value == nil {
					assert.Equal(t, rating.Undefined, ind.Rating)
					continue
				}
				assert.NotEqual(t, rating.Undefined, ind.Rating, "%s = %v", ind.ID, *ind.Value)
			}
		}
	}
}

func TestCalculate_StrictAveraging(t *testing.T) {
	rec := models.NewFinancialStatement("", "", nil,
		map[string]float64{models.ItemTotalAssets: 1000},
		map[string]float64{models.ItemRevenue: 1500})

	lenient, _ := defaultEngine(t).Calculate(rec).Indicator("asset_turnover")
	require.NotNil(t, lenient.Value)
	assert.Equal(t, 1.5, *lenient.Value)
	assert.Contains(t, lenient.FormulaText, "single period")

	strict, _ := defaultEngine(t, WithAverageFallback(false)).Calculate(rec).Indicator("asset_turnover")
	assert.Nil(t, strict.Value)
	assert.Equal(t, "missing inputs: average.total_assets", strict.Diagnostic)
}

func TestNewCatalog_Overrides(t *testing.T) {
	catalog, err := NewCatalog(DefaultDefinitions(), map[string]rating.Rule{
		"current_ratio": rating.HigherIsBetter(2.5, 2.0),
	})
	require.NoError(t, err)

	ind, _ := NewEngine(catalog).Calculate(fullRecord()).Indicator("current_ratio")
	assert.Equal(t, rating.Orange, ind.Rating)
	assert.Equal(t, "≥ 2.5", ind.Norm)
}

func TestNewCatalog_Rejects(t *testing.T) {
	gap := rating.Rule{Bands: []rating.Band{{Rating: rating.Green, From: ptr(0), FromInclusive: true}}}

	_, err := NewCatalog(DefaultDefinitions(), map[string]rating.Rule{"current_ratio": gap})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATING_RULE_GAP")

	_, err = NewCatalog(DefaultDefinitions(), map[string]rating.Rule{"no_such": rating.HigherIsBetter(1, 0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown indicator no_such")

	defs := DefaultDefinitions()
	defs[0], defs[4] = defs[4], defs[0]
	_, err = NewCatalog(defs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "breaks block order")

	defs = DefaultDefinitions()
	defs[1].ID = defs[0].ID
	_, err = NewCatalog(defs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate indicator")
}
