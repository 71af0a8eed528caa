package analysis

import (
	"fmt"

	"counterparty_analyzer/pkg/core/calc"
	"counterparty_analyzer/pkg/core/rating"
	"counterparty_analyzer/pkg/models"
)

// Block is one of the six thematic groups of indicators.
type Block string

const (
	BlockLiquidity     Block = "liquidity"
	BlockStability     Block = "financial_stability"
	BlockActivity      Block = "business_activity"
	BlockCashFlow      Block = "cash_flow"
	BlockStructure     Block = "balance_structure"
	BlockProfitability Block = "profitability"
)

// BlockInfo pairs a block with its report title.
type BlockInfo struct {
	ID    Block
	Title string
}

// Blocks lists the blocks in report order.
var Blocks = []BlockInfo{
	{BlockLiquidity, "Ліквідність"},
	{BlockStability, "Фінансова стійкість"},
	{BlockActivity, "Ділова активність"},
	{BlockCashFlow, "Грошові потоки"},
	{BlockStructure, "Структура балансу"},
	{BlockProfitability, "Рентабельність"},
}

// Unit describes how an indicator value reads.
type Unit string

const (
	UnitRatio  Unit = "ratio"
	UnitDays   Unit = "days"
	UnitAmount Unit = "amount"
)

// Need is one required input. Any of Keys satisfies it.
type Need struct {
	Scope calc.Scope
	Keys  []string
}

func need(scope calc.Scope, keys ...string) Need {
	return Need{Scope: scope, Keys: keys}
}

func (n Need) String() string {
	name := n.Keys[0]
	for _, k := range n.Keys[1:] {
		name += "|" + k
	}
	return n.Scope.String() + "." + name
}

// IndicatorDefinition is a static catalogue entry.
type IndicatorDefinition struct {
	ID          string
	Block       Block
	DisplayName string
	Unit        Unit
	Formula     calc.Formula
	Rule        rating.Rule
	Requires    []Need
}

// Catalog is the validated, read-only indicator catalogue with its rating
// table. Build it once at start-up.
type Catalog struct {
	defs  []IndicatorDefinition
	table *rating.Table
}

// NewCatalog validates the definitions and applies threshold overrides.
// Definitions must be grouped by block in report order; every rule must cover
// the real line.
func NewCatalog(defs []IndicatorDefinition, overrides map[string]rating.Rule) (*Catalog, error) {
	order := make(map[Block]int, len(Blocks))
	for i, b := range Blocks {
		order[b.ID] = i
	}

	seen := make(map[string]bool, len(defs))
	rules := make(map[string]rating.Rule, len(defs))
	last := -1
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("CATALOG_INVALID: indicator without id")
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("CATALOG_INVALID: duplicate indicator %s", d.ID)
		}
		seen[d.ID] = true
		pos, ok := order[d.Block]
		if !ok {
			return nil, fmt.Errorf("CATALOG_INVALID: indicator %s has unknown block %q", d.ID, d.Block)
		}
		if pos < last {
			return nil, fmt.Errorf("CATALOG_INVALID: indicator %s breaks block order", d.ID)
		}
		last = pos
		if d.Formula == nil {
			return nil, fmt.Errorf("CATALOG_INVALID: indicator %s has no formula", d.ID)
		}
		for _, n := range d.Requires {
			if len(n.Keys) == 0 {
				return nil, fmt.Errorf("CATALOG_INVALID: indicator %s has an empty requirement", d.ID)
			}
		}
		rules[d.ID] = d.Rule
	}

	for id, rule := range overrides {
		if !seen[id] {
			return nil, fmt.Errorf("CATALOG_INVALID: threshold override for unknown indicator %s", id)
		}
		if rule.Norm == "" {
			rule.Norm = rules[id].Norm
		}
		rules[id] = rule
	}

	table, err := rating.NewTable(rules)
	if err != nil {
		return nil, fmt.Errorf("CATALOG_INVALID: %w", err)
	}
	return &Catalog{defs: append([]IndicatorDefinition(nil), defs...), table: table}, nil
}

// DefaultCatalog builds the standard 29-indicator catalogue.
func DefaultCatalog() (*Catalog, error) {
	return NewCatalog(DefaultDefinitions(), nil)
}

// Definitions returns the catalogue entries in order.
func (c *Catalog) Definitions() []IndicatorDefinition {
	return append([]IndicatorDefinition(nil), c.defs...)
}

// Len is the number of indicators.
func (c *Catalog) Len() int { return len(c.defs) }

// Classify rates a value with the effective rule of an indicator.
func (c *Catalog) Classify(id string, v *float64) rating.Rating {
	return c.table.Classify(id, v)
}

// Norm is the human-readable norm of an indicator.
func (c *Catalog) Norm(id string) string {
	return c.table.Norm(id)
}

// Rule returns the effective rating rule of an indicator.
func (c *Catalog) Rule(id string) (rating.Rule, bool) {
	return c.table.Rule(id)
}

func ptr(v float64) *float64 { return &v }

// leverageRule: negative equity is red, up to 1.0 is healthy, above 2.0 is red.
func leverageRule() rating.Rule {
	return rating.Rule{
		Norm: "0 – 1",
		Bands: []rating.Band{
			{Rating: rating.Red, To: ptr(0)},
			{Rating: rating.Green, From: ptr(0), FromInclusive: true, To: ptr(1), ToInclusive: true},
			{Rating: rating.Orange, From: ptr(1), To: ptr(2), ToInclusive: true},
			{Rating: rating.Red, From: ptr(2)},
		},
	}
}

// DefaultDefinitions is the standard catalogue: 3 liquidity, 2 stability,
// 6 activity, 5 cash flow, 7 balance structure and 6 profitability indicators.
func DefaultDefinitions() []IndicatorDefinition {
	end, avg, both, income := calc.ScopeEnd, calc.ScopeAverage, calc.ScopeBoth, calc.ScopeIncome
	cashFlowInputs := []Need{
		need(income, models.ItemNetProfit),
		need(both, models.ItemInventory),
		need(both, models.ItemReceivables),
		need(both, models.ItemAccountsPayable),
	}

	return []IndicatorDefinition{
		// Liquidity
		{
			ID:          "current_ratio",
			Block:       BlockLiquidity,
			Unit:        UnitRatio,
			DisplayName: "Коефіцієнт поточної ліквідності",
			Formula:     calc.CurrentRatio,
			Rule:        rating.HigherIsBetter(1.5, 1.0),
			Requires:    []Need{need(end, models.ItemCurrentAssets), need(end, models.ItemCurrentLiabilities)},
		},
		{
			ID:          "quick_ratio",
			Block:       BlockLiquidity,
			Unit:        UnitRatio,
			DisplayName: "Коефіцієнт швидкої ліквідності",
			Formula:     calc.QuickRatio,
			Rule:        rating.HigherIsBetter(1.0, 0.6),
			Requires:    []Need{need(end, models.ItemCurrentAssets), need(end, models.ItemInventory), need(end, models.ItemCurrentLiabilities)},
		},
		{
			ID:          "absolute_liquidity",
			Block:       BlockLiquidity,
			Unit:        UnitRatio,
			DisplayName: "Коефіцієнт абсолютної ліквідності",
			Formula:     calc.AbsoluteLiquidity,
			Rule:        rating.HigherIsBetter(0.2, 0.1),
			Requires:    []Need{need(end, models.ItemCash), need(end, models.ItemCurrentLiabilities)},
		},

		// Financial stability
		{
			ID:          "autonomy",
			Block:       BlockStability,
			Unit:        UnitRatio,
			DisplayName: "Коефіцієнт автономії",
			Formula:     calc.Autonomy,
			Rule:        rating.HigherIsBetter(0.5, 0.3),
			Requires:    []Need{need(end, models.ItemTotalEquity), need(end, models.ItemTotalAssets)},
		},
		{
			ID:          "leverage",
			Block:       BlockStability,
			Unit:        UnitRatio,
			DisplayName: "Коефіцієнт фінансового левериджу",
			Formula:     calc.Leverage,
			Rule:        leverageRule(),
			Requires:    []Need{need(end, models.ItemTotalLiabilities), need(end, models.ItemTotalEquity)},
		},

		// Business activity
		{
			ID:          "asset_turnover",
			Block:       BlockActivity,
			Unit:        UnitRatio,
			DisplayName: "Оборотність активів",
			Formula:     calc.AssetTurnover,
			Rule:        rating.HigherIsBetter(1.0, 0.5),
			Requires:    []Need{need(income, models.ItemRevenue), need(avg, models.ItemTotalAssets)},
		},
		{
			ID:          "inventory_turnover",
			Block:       BlockActivity,
			Unit:        UnitRatio,
			DisplayName: "Оборотність запасів",
			Formula:     calc.InventoryTurnover,
			Rule:        rating.HigherIsBetter(4, 2),
			Requires:    []Need{need(income, models.ItemCostOfSales), need(avg, models.ItemInventory)},
		},
		{
			ID:          "receivables_turnover",
			Block:       BlockActivity,
			Unit:        UnitRatio,
			DisplayName: "Оборотність дебіторської заборгованості",
			Formula:     calc.ReceivablesTurnover,
			Rule:        rating.HigherIsBetter(6, 3),
			Requires:    []Need{need(income, models.ItemRevenue), need(avg, models.ItemReceivables)},
		},
		{
			ID:          "receivables_days",
			Block:       BlockActivity,
			Unit:        UnitDays,
			DisplayName: "Період погашення дебіторської заборгованості, днів",
			Formula:     calc.ReceivablesDays,
			Rule:        rating.LowerIsBetter(60, 90),
			Requires:    []Need{need(income, models.ItemRevenue), need(avg, models.ItemReceivables)},
		},
		{
			ID:          "payables_turnover",
			Block:       BlockActivity,
			Unit:        UnitRatio,
			DisplayName: "Оборотність кредиторської заборгованості",
			Formula:     calc.PayablesTurnover,
			Rule:        rating.HigherIsBetter(4, 2),
			Requires:    []Need{need(income, models.ItemCostOfSales), need(avg, models.ItemAccountsPayable)},
		},
		{
			ID:          "payables_days",
			Block:       BlockActivity,
			Unit:        UnitDays,
			DisplayName: "Період погашення кредиторської заборгованості, днів",
			Formula:     calc.PayablesDays,
			Rule:        rating.LowerIsBetter(60, 120),
			Requires:    []Need{need(income, models.ItemCostOfSales), need(avg, models.ItemAccountsPayable)},
		},

		// Cash flow
		{
			ID:          "operating_cash_flow",
			Block:       BlockCashFlow,
			Unit:        UnitAmount,
			DisplayName: "Операційний грошовий потік",
			Formula:     calc.OperatingCashFlow,
			Rule:        rating.PositiveIsGreen(rating.Red),
			Requires:    cashFlowInputs,
		},
		{
			ID:          "investing_cash_flow",
			Block:       BlockCashFlow,
			Unit:        UnitAmount,
			DisplayName: "Інвестиційний грошовий потік",
			Formula:     calc.InvestingCashFlow,
			Rule:        rating.NonPositiveIsGreen(rating.Orange),
			Requires:    []Need{need(both, models.ItemNonCurrentAssets)},
		},
		{
			ID:          "financing_cash_flow",
			Block:       BlockCashFlow,
			Unit:        UnitAmount,
			DisplayName: "Фінансовий грошовий потік",
			Formula:     calc.FinancingCashFlow,
			Rule:        rating.NonNegativeIsGreen(rating.Orange),
			Requires:    []Need{need(both, models.ItemTotalEquity), need(income, models.ItemNetProfit), need(both, models.ItemLongTermLiabilities)},
		},
		{
			ID:          "free_cash_flow",
			Block:       BlockCashFlow,
			Unit:        UnitAmount,
			DisplayName: "Вільний грошовий потік",
			Formula:     calc.FreeCashFlow,
			Rule:        rating.NonNegativeIsGreen(rating.Red),
			Requires:    cashFlowInputs,
		},
		{
			ID:          "net_cash_change",
			Block:       BlockCashFlow,
			Unit:        UnitAmount,
			DisplayName: "Чиста зміна грошових коштів",
			Formula:     calc.NetCashChange,
			Rule:        rating.NonNegativeIsGreen(rating.Orange),
			Requires:    []Need{need(both, models.ItemCash)},
		},

		// Balance structure
		{
			ID:          "current_assets_share",
			Block:       BlockStructure,
			Unit:        UnitRatio,
			DisplayName: "Частка оборотних активів",
			Formula:     calc.CurrentAssetsShare,
			Rule:        rating.TargetRange(0.1, 0.25, 0.75, 0.9),
			Requires:    []Need{need(end, models.ItemCurrentAssets), need(end, models.ItemTotalAssets)},
		},
		{
			ID:          "non_current_assets_share",
			Block:       BlockStructure,
			Unit:        UnitRatio,
			DisplayName: "Частка необоротних активів",
			Formula:     calc.NonCurrentAssetsShare,
			Rule:        rating.TargetRange(0.1, 0.25, 0.75, 0.9),
			Requires:    []Need{need(end, models.ItemNonCurrentAssets), need(end, models.ItemTotalAssets)},
		},
		{
			ID:          "depreciation_ratio",
			Block:       BlockStructure,
			Unit:        UnitRatio,
			DisplayName: "Коефіцієнт зносу основних засобів",
			Formula:     calc.DepreciationRatio,
			Rule:        rating.LowerIsBetter(0.5, 0.75),
			Requires:    []Need{need(end, models.ItemAccumulatedDepreciation), need(end, models.ItemFixedAssetsGross)},
		},
		{
			ID:          "fixed_assets_validity",
			Block:       BlockStructure,
			Unit:        UnitRatio,
			DisplayName: "Коефіцієнт придатності основних засобів",
			Formula:     calc.FixedAssetsValidity,
			Rule:        rating.HigherIsBetter(0.5, 0.25),
			Requires:    []Need{need(end, models.ItemFixedAssetsNet), need(end, models.ItemFixedAssetsGross)},
		},
		{
			ID:          "receivables_share",
			Block:       BlockStructure,
			Unit:        UnitRatio,
			DisplayName: "Частка дебіторської заборгованості в оборотних активах",
			Formula:     calc.ReceivablesShare,
			Rule:        rating.LowerIsBetter(0.5, 0.7),
			Requires:    []Need{need(end, models.ItemReceivables), need(end, models.ItemCurrentAssets)},
		},
		{
			ID:          "inventory_share",
			Block:       BlockStructure,
			Unit:        UnitRatio,
			DisplayName: "Частка запасів в оборотних активах",
			Formula:     calc.InventoryShare,
			Rule:        rating.LowerIsBetter(0.5, 0.7),
			Requires:    []Need{need(end, models.ItemInventory), need(end, models.ItemCurrentAssets)},
		},
		{
			ID:          "net_working_capital",
			Block:       BlockStructure,
			Unit:        UnitAmount,
			DisplayName: "Чистий оборотний капітал",
			Formula:     calc.NetWorkingCapital,
			Rule:        rating.PositiveIsGreen(rating.Red),
			Requires:    []Need{need(end, models.ItemCurrentAssets), need(end, models.ItemCurrentLiabilities)},
		},

		// Profitability
		{
			ID:          "roa",
			Block:       BlockProfitability,
			Unit:        UnitRatio,
			DisplayName: "Рентабельність активів (ROA)",
			Formula:     calc.ROA,
			Rule:        rating.ProfitabilityRule(0.05),
			Requires:    []Need{need(income, models.ItemNetProfit), need(avg, models.ItemTotalAssets)},
		},
		{
			ID:          "roe",
			Block:       BlockProfitability,
			Unit:        UnitRatio,
			DisplayName: "Рентабельність власного капіталу (ROE)",
			Formula:     calc.ROE,
			Rule:        rating.ProfitabilityRule(0.10),
			Requires:    []Need{need(income, models.ItemNetProfit), need(avg, models.ItemTotalEquity)},
		},
		{
			ID:          "roce",
			Block:       BlockProfitability,
			Unit:        UnitRatio,
			DisplayName: "Рентабельність задіяного капіталу (ROCE)",
			Formula:     calc.ROCE,
			Rule:        rating.ProfitabilityRule(0.10),
			Requires:    []Need{need(income, models.ItemOperatingProfit, models.ItemProfitBeforeTax), need(avg, models.ItemTotalEquity), need(avg, models.ItemLongTermLiabilities)},
		},
		{
			ID:          "ros",
			Block:       BlockProfitability,
			Unit:        UnitRatio,
			DisplayName: "Рентабельність продажів (ROS)",
			Formula:     calc.ROS,
			Rule:        rating.ProfitabilityRule(0.05),
			Requires:    []Need{need(income, models.ItemNetProfit), need(income, models.ItemRevenue)},
		},
		{
			ID:          "roca",
			Block:       BlockProfitability,
			Unit:        UnitRatio,
			DisplayName: "Рентабельність оборотних активів (ROCA)",
			Formula:     calc.ROCA,
			Rule:        rating.ProfitabilityRule(0.10),
			Requires:    []Need{need(income, models.ItemNetProfit), need(avg, models.ItemCurrentAssets)},
		},
		{
			ID:          "ronca",
			Block:       BlockProfitability,
			Unit:        UnitRatio,
			DisplayName: "Рентабельність необоротних активів (RONCA)",
			Formula:     calc.RONCA,
			Rule:        rating.ProfitabilityRule(0.10),
			Requires:    []Need{need(income, models.ItemNetProfit), need(avg, models.ItemNonCurrentAssets)},
		},
	}
}
