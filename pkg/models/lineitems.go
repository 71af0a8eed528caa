package models

// Canonical line-item keys used throughout the statement record.
// Balance-sheet items may appear in either period; income items only in
// the current-period income statement.
const (
	// Balance sheet: assets
	ItemIntangibleAssets        = "intangible_assets"
	ItemFixedAssetsNet          = "fixed_assets_net"
	ItemFixedAssetsGross        = "fixed_assets_gross"
	ItemAccumulatedDepreciation = "accumulated_depreciation"
	ItemNonCurrentAssets        = "non_current_assets"
	ItemInventory               = "inventory"
	ItemReceivables             = "receivables"
	ItemOtherReceivables        = "other_receivables"
	ItemCurrentInvestments      = "current_investments"
	ItemCash                    = "cash"
	ItemCurrentAssets           = "current_assets"
	ItemTotalAssets             = "total_assets"

	// Balance sheet: equity and liabilities
	ItemTotalEquity             = "total_equity"
	ItemLongTermLiabilities     = "long_term_liabilities"
	ItemShortTermLoans          = "short_term_loans"
	ItemCurrentPortionDebt      = "current_portion_lt_debt"
	ItemAccountsPayable         = "accounts_payable"
	ItemOtherCurrentLiabilities = "other_current_liabilities"
	ItemCurrentLiabilities      = "current_liabilities"
	ItemTotalLiabilities        = "total_liabilities"

	// Income statement
	ItemRevenue             = "revenue"
	ItemCostOfSales         = "cost_of_sales"
	ItemGrossProfit         = "gross_profit"
	ItemOperatingProfit     = "operating_profit"
	ItemFinanceCosts        = "finance_costs"
	ItemProfitBeforeTax     = "profit_before_tax"
	ItemNetProfit           = "net_profit"
	ItemNetLoss             = "net_loss"
	ItemDepreciation        = "depreciation"
	ItemCapitalExpenditures = "capital_expenditures"
)

// MandatoryBalanceItems must be present in both balance-sheet periods of a
// valid record.
var MandatoryBalanceItems = []string{ItemTotalAssets, ItemTotalEquity, ItemTotalLiabilities}

// MandatoryIncomeItems must be present in the income statement of a valid record.
var MandatoryIncomeItems = []string{ItemNetProfit}
