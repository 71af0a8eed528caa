package calc

import "counterparty_analyzer/pkg/models"

// =============================================================================
// LIQUIDITY
// =============================================================================

// CurrentRatio = current assets / current liabilities (closing balance).
func CurrentRatio(in Inputs) Result {
	return divide(in.End(models.ItemCurrentAssets), in.End(models.ItemCurrentLiabilities))
}

// QuickRatio = (current assets - inventory) / current liabilities.
func QuickRatio(in Inputs) Result {
	liquid := Combine("", plus(in.End(models.ItemCurrentAssets)), minus(in.End(models.ItemInventory)))
	return divide(liquid, in.End(models.ItemCurrentLiabilities))
}

// AbsoluteLiquidity = cash / current liabilities.
func AbsoluteLiquidity(in Inputs) Result {
	return divide(in.End(models.ItemCash), in.End(models.ItemCurrentLiabilities))
}

// =============================================================================
// FINANCIAL STABILITY
// =============================================================================

// Autonomy = equity / total assets.
func Autonomy(in Inputs) Result {
	return divide(in.End(models.ItemTotalEquity), in.End(models.ItemTotalAssets))
}

// Leverage = total liabilities / equity. Negative equity gives a negative
// value, which the rating table treats as red.
func Leverage(in Inputs) Result {
	return divide(in.End(models.ItemTotalLiabilities), in.End(models.ItemTotalEquity))
}

// =============================================================================
// BUSINESS ACTIVITY
// =============================================================================

func AssetTurnover(in Inputs) Result {
	return divide(in.Income(models.ItemRevenue), in.Average(models.ItemTotalAssets))
}

func InventoryTurnover(in Inputs) Result {
	return divide(in.Income(models.ItemCostOfSales).Abs(), in.Average(models.ItemInventory))
}

func ReceivablesTurnover(in Inputs) Result {
	return divide(in.Income(models.ItemRevenue), in.Average(models.ItemReceivables))
}

// ReceivablesDays is the average collection period.
func ReceivablesDays(in Inputs) Result {
	return days(in.Average(models.ItemReceivables), in.Income(models.ItemRevenue))
}

func PayablesTurnover(in Inputs) Result {
	return divide(in.Income(models.ItemCostOfSales).Abs(), in.Average(models.ItemAccountsPayable))
}

// PayablesDays is the average payment period.
func PayablesDays(in Inputs) Result {
	return days(in.Average(models.ItemAccountsPayable), in.Income(models.ItemCostOfSales).Abs())
}

// =============================================================================
// CASH FLOW (indirect method from balance deltas)
// =============================================================================

// depreciation prefers the income statement charge and falls back to the
// growth of accumulated depreciation. When neither is available it counts as
// zero and says so in the formula text.
func depreciation(in Inputs) Operand {
	if d := in.Income(models.ItemDepreciation); d.OK {
		return d.Abs()
	}
	end := in.End(models.ItemAccumulatedDepreciation).Abs()
	start := in.Start(models.ItemAccumulatedDepreciation).Abs()
	if end.OK && start.OK {
		d := Combine("", plus(end), minus(start))
		d.Label = "Δaccumulated_depreciation"
		return d
	}
	return Operand{Label: "depreciation"}.OrZero()
}

func operatingCashFlow(in Inputs) Operand {
	return Combine("",
		plus(in.Income(models.ItemNetProfit)),
		plus(depreciation(in)),
		minus(in.Delta(models.ItemInventory)),
		minus(in.Delta(models.ItemReceivables)),
		plus(in.Delta(models.ItemAccountsPayable)),
	)
}

// capitalExpenditures uses an explicit capex line when the model extracted
// one, otherwise approximates it from fixed-asset growth.
func capitalExpenditures(in Inputs) Operand {
	if c := in.Income(models.ItemCapitalExpenditures); c.OK {
		return c.Abs()
	}
	if d := in.Delta(models.ItemFixedAssetsGross); d.OK {
		return d
	}
	if d := in.Delta(models.ItemFixedAssetsNet); d.OK {
		return Combine("", plus(d), plus(depreciation(in)))
	}
	if d := in.Delta(models.ItemNonCurrentAssets); d.OK {
		return Combine("", plus(d), plus(depreciation(in)))
	}
	return Operand{Label: "capex"}
}

// OperatingCashFlow = net profit + depreciation - Δinventory - Δreceivables + Δpayables.
func OperatingCashFlow(in Inputs) Result {
	return amount("operating_cash_flow", operatingCashFlow(in))
}

// InvestingCashFlow = -(Δnon-current assets + depreciation).
func InvestingCashFlow(in Inputs) Result {
	return amount("investing_cash_flow", Combine("",
		minus(in.Delta(models.ItemNonCurrentAssets)),
		minus(depreciation(in)),
	))
}

// FinancingCashFlow = (Δequity - net profit) + Δdebt, where debt is long-term
// liabilities plus short-term loans and the current portion of long-term debt.
func FinancingCashFlow(in Inputs) Result {
	return amount("financing_cash_flow", Combine("",
		plus(in.Delta(models.ItemTotalEquity)),
		minus(in.Income(models.ItemNetProfit)),
		plus(in.Delta(models.ItemLongTermLiabilities)),
		plus(in.Delta(models.ItemShortTermLoans).OrZero()),
		plus(in.Delta(models.ItemCurrentPortionDebt).OrZero()),
	))
}

// FreeCashFlow = operating cash flow - capital expenditures.
func FreeCashFlow(in Inputs) Result {
	ocf := operatingCashFlow(in)
	ocf.Label = "operating_cash_flow"
	capex := capitalExpenditures(in)
	if !capex.OK {
		return undefined("free_cash_flow = operating_cash_flow - capex", "", "capital expenditures not determinable")
	}
	capex.Label = "capex"
	return amount("free_cash_flow", Combine("", plus(ocf), minus(capex)))
}

func NetCashChange(in Inputs) Result {
	return amount("net_cash_change", in.Delta(models.ItemCash))
}

// =============================================================================
// BALANCE STRUCTURE
// =============================================================================

func CurrentAssetsShare(in Inputs) Result {
	return divide(in.End(models.ItemCurrentAssets), in.End(models.ItemTotalAssets))
}

func NonCurrentAssetsShare(in Inputs) Result {
	return divide(in.End(models.ItemNonCurrentAssets), in.End(models.ItemTotalAssets))
}

// DepreciationRatio = accumulated depreciation / gross fixed assets.
func DepreciationRatio(in Inputs) Result {
	return divide(in.End(models.ItemAccumulatedDepreciation).Abs(), in.End(models.ItemFixedAssetsGross))
}

// FixedAssetsValidity = net fixed assets / gross fixed assets.
func FixedAssetsValidity(in Inputs) Result {
	return divide(in.End(models.ItemFixedAssetsNet), in.End(models.ItemFixedAssetsGross))
}

func ReceivablesShare(in Inputs) Result {
	return divide(in.End(models.ItemReceivables), in.End(models.ItemCurrentAssets))
}

func InventoryShare(in Inputs) Result {
	return divide(in.End(models.ItemInventory), in.End(models.ItemCurrentAssets))
}

// NetWorkingCapital = current assets - current liabilities.
func NetWorkingCapital(in Inputs) Result {
	return amount("net_working_capital", Combine("",
		plus(in.End(models.ItemCurrentAssets)),
		minus(in.End(models.ItemCurrentLiabilities)),
	))
}

// =============================================================================
// PROFITABILITY
// =============================================================================

func ROA(in Inputs) Result {
	return divide(in.Income(models.ItemNetProfit), in.Average(models.ItemTotalAssets))
}

// ROE is undefined when average equity is not positive: a ratio over
// negative equity has no meaningful sign.
func ROE(in Inputs) Result {
	equity := in.Average(models.ItemTotalEquity)
	if equity.OK && !equity.Value.IsPositive() {
		return undefined("net_profit / "+equity.Label, equity.Text, "non-positive average equity")
	}
	return divide(in.Income(models.ItemNetProfit), equity)
}

// ROCE = operating profit / average capital employed (equity + long-term
// liabilities). Profit before tax stands in for operating profit when the
// latter was not extracted.
func ROCE(in Inputs) Result {
	profit := in.Income(models.ItemOperatingProfit)
	if !profit.OK {
		profit = in.Income(models.ItemProfitBeforeTax)
	}
	capital := Combine("",
		plus(in.Average(models.ItemTotalEquity)),
		plus(in.Average(models.ItemLongTermLiabilities)),
	)
	if capital.OK && !capital.Value.IsPositive() {
		return undefined(profit.Label+" / "+capital.Label, capital.Text, "non-positive capital employed")
	}
	return divide(profit, capital)
}

func ROS(in Inputs) Result {
	return divide(in.Income(models.ItemNetProfit), in.Income(models.ItemRevenue))
}

func ROCA(in Inputs) Result {
	return divide(in.Income(models.ItemNetProfit), in.Average(models.ItemCurrentAssets))
}

func RONCA(in Inputs) Result {
	return divide(in.Income(models.ItemNetProfit), in.Average(models.ItemNonCurrentAssets))
}
