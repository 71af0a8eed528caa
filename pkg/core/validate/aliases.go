package validate

import (
	"strings"
	"unicode"

	"counterparty_analyzer/pkg/models"
)

// Section identifiers accepted at the top level of the payload.
const (
	fieldCompanyName = "company_name"
	fieldPeriod      = "period"
)

var sectionAliases = map[string]string{
	"company_name":   fieldCompanyName,
	"company":        fieldCompanyName,
	"name":           fieldCompanyName,
	"компанія":       fieldCompanyName,
	"назва_компанії": fieldCompanyName,
	"підприємство":   fieldCompanyName,

	"period":           fieldPeriod,
	"reporting_period": fieldPeriod,
	"період":           fieldPeriod,
	"звітний_період":   fieldPeriod,

	"balance_start":               models.SectionBalanceStart,
	"balance_begin":               models.SectionBalanceStart,
	"opening_balance":             models.SectionBalanceStart,
	"start":                       models.SectionBalanceStart,
	"баланс_на_початок":           models.SectionBalanceStart,
	"на_початок_періоду":          models.SectionBalanceStart,
	"на_початок_звітного_періоду": models.SectionBalanceStart,

	"balance_end":                models.SectionBalanceEnd,
	"closing_balance":            models.SectionBalanceEnd,
	"end":                        models.SectionBalanceEnd,
	"баланс_на_кінець":           models.SectionBalanceEnd,
	"на_кінець_періоду":          models.SectionBalanceEnd,
	"на_кінець_звітного_періоду": models.SectionBalanceEnd,

	"income_current":                models.SectionIncomeCurrent,
	"income":                        models.SectionIncomeCurrent,
	"income_statement":              models.SectionIncomeCurrent,
	"financial_results":             models.SectionIncomeCurrent,
	"фінансові_результати":          models.SectionIncomeCurrent,
	"звіт_про_фінансові_результати": models.SectionIncomeCurrent,
}

// balanceAliases maps normalized keys (English names, Ukrainian names and
// national form line codes) to canonical balance-sheet keys.
var balanceAliases = map[string]string{
	"1000":                        models.ItemIntangibleAssets,
	"intangible_assets":           models.ItemIntangibleAssets,
	"нематеріальні_активи":        models.ItemIntangibleAssets,
	"1010":                        models.ItemFixedAssetsNet,
	"fixed_assets_net":            models.ItemFixedAssetsNet,
	"fixed_assets":                models.ItemFixedAssetsNet,
	"основні_засоби":              models.ItemFixedAssetsNet,
	"1011":                        models.ItemFixedAssetsGross,
	"fixed_assets_gross":          models.ItemFixedAssetsGross,
	"первісна_вартість":           models.ItemFixedAssetsGross,
	"1012":                        models.ItemAccumulatedDepreciation,
	"accumulated_depreciation":    models.ItemAccumulatedDepreciation,
	"знос":                        models.ItemAccumulatedDepreciation,
	"1095":                        models.ItemNonCurrentAssets,
	"non_current_assets":          models.ItemNonCurrentAssets,
	"total_non_current_assets":    models.ItemNonCurrentAssets,
	"необоротні_активи":           models.ItemNonCurrentAssets,
	"1100":                        models.ItemInventory,
	"inventory":                   models.ItemInventory,
	"inventories":                 models.ItemInventory,
	"запаси":                      models.ItemInventory,
	"1125":                        models.ItemReceivables,
	"receivables":                 models.ItemReceivables,
	"trade_receivables":           models.ItemReceivables,
	"accounts_receivable":         models.ItemReceivables,
	"дебіторська_заборгованість":  models.ItemReceivables,
	"1155":                        models.ItemOtherReceivables,
	"other_receivables":           models.ItemOtherReceivables,
	"1160":                        models.ItemCurrentInvestments,
	"current_investments":         models.ItemCurrentInvestments,
	"1165":                        models.ItemCash,
	"cash":                        models.ItemCash,
	"cash_and_equivalents":        models.ItemCash,
	"гроші_та_їх_еквіваленти":     models.ItemCash,
	"грошові_кошти":               models.ItemCash,
	"1195":                        models.ItemCurrentAssets,
	"current_assets":              models.ItemCurrentAssets,
	"total_current_assets":        models.ItemCurrentAssets,
	"оборотні_активи":             models.ItemCurrentAssets,
	"1300":                        models.ItemTotalAssets,
	"1900":                        models.ItemTotalAssets,
	"total_assets":                models.ItemTotalAssets,
	"assets_total":                models.ItemTotalAssets,
	"assets":                      models.ItemTotalAssets,
	"активи":                      models.ItemTotalAssets,
	"баланс":                      models.ItemTotalAssets,
	"1495":                        models.ItemTotalEquity,
	"total_equity":                models.ItemTotalEquity,
	"equity":                      models.ItemTotalEquity,
	"власний_капітал":             models.ItemTotalEquity,
	"1595":                        models.ItemLongTermLiabilities,
	"long_term_liabilities":       models.ItemLongTermLiabilities,
	"non_current_liabilities":     models.ItemLongTermLiabilities,
	"довгострокові_зобов'язання":  models.ItemLongTermLiabilities,
	"1600":                        models.ItemShortTermLoans,
	"short_term_loans":            models.ItemShortTermLoans,
	"короткострокові_кредити":     models.ItemShortTermLoans,
	"1610":                        models.ItemCurrentPortionDebt,
	"current_portion_lt_debt":     models.ItemCurrentPortionDebt,
	"current_portion_of_debt":     models.ItemCurrentPortionDebt,
	"1615":                        models.ItemAccountsPayable,
	"accounts_payable":            models.ItemAccountsPayable,
	"trade_payables":              models.ItemAccountsPayable,
	"кредиторська_заборгованість": models.ItemAccountsPayable,
	"1690":                        models.ItemOtherCurrentLiabilities,
	"other_current_liabilities":   models.ItemOtherCurrentLiabilities,
	"1695":                        models.ItemCurrentLiabilities,
	"current_liabilities":         models.ItemCurrentLiabilities,
	"total_current_liabilities":   models.ItemCurrentLiabilities,
	"поточні_зобов'язання":        models.ItemCurrentLiabilities,
	"total_liabilities":           models.ItemTotalLiabilities,
	"liabilities":                 models.ItemTotalLiabilities,
	"liabilities_total":           models.ItemTotalLiabilities,
	"зобов'язання":                models.ItemTotalLiabilities,
}

// incomeAliases maps normalized keys to canonical income statement keys.
var incomeAliases = map[string]string{
	"2000":                  models.ItemRevenue,
	"revenue":               models.ItemRevenue,
	"net_revenue":           models.ItemRevenue,
	"sales":                 models.ItemRevenue,
	"чистий_дохід":          models.ItemRevenue,
	"2050":                  models.ItemCostOfSales,
	"cost_of_sales":         models.ItemCostOfSales,
	"cost_of_goods_sold":    models.ItemCostOfSales,
	"собівартість":          models.ItemCostOfSales,
	"2090":                  models.ItemGrossProfit,
	"gross_profit":          models.ItemGrossProfit,
	"валовий_прибуток":      models.ItemGrossProfit,
	"2190":                  models.ItemOperatingProfit,
	"operating_profit":      models.ItemOperatingProfit,
	"ebit":                  models.ItemOperatingProfit,
	"2250":                  models.ItemFinanceCosts,
	"finance_costs":         models.ItemFinanceCosts,
	"interest_expense":      models.ItemFinanceCosts,
	"фінансові_витрати":     models.ItemFinanceCosts,
	"2290":                  models.ItemProfitBeforeTax,
	"profit_before_tax":     models.ItemProfitBeforeTax,
	"2350":                  models.ItemNetProfit,
	"net_profit":            models.ItemNetProfit,
	"net_income":            models.ItemNetProfit,
	"чистий_прибуток":       models.ItemNetProfit,
	"2355":                  models.ItemNetLoss,
	"net_loss":              models.ItemNetLoss,
	"чистий_збиток":         models.ItemNetLoss,
	"2515":                  models.ItemDepreciation,
	"depreciation":          models.ItemDepreciation,
	"amortisation":          models.ItemDepreciation,
	"амортизація":           models.ItemDepreciation,
	"capital_expenditures":  models.ItemCapitalExpenditures,
	"capex":                 models.ItemCapitalExpenditures,
	"капітальні_інвестиції": models.ItemCapitalExpenditures,
}

var rowPrefixes = []string{"р.", "р ", "рядок", "row", "line", "код"}

// normalizeKey lowercases a raw key, strips row-number prefixes and folds
// separators to underscores.
func normalizeKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "’", "'")
	key = strings.ReplaceAll(key, "ʼ", "'")
	for _, p := range rowPrefixes {
		if strings.HasPrefix(key, p) {
			rest := strings.TrimLeft(key[len(p):], " .:_")
			if rest != "" && unicode.IsDigit([]rune(rest)[0]) {
				key = rest
				break
			}
		}
	}

	var b strings.Builder
	lastSep := false
	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
			lastSep = false
			continue
		}
		if !lastSep {
			b.WriteByte('_')
			lastSep = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// lineCode returns the leading four-digit form code of a normalized key, if any.
func lineCode(key string) string {
	if len(key) < 4 {
		return ""
	}
	for i := 0; i < 4; i++ {
		if key[i] < '0' || key[i] > '9' {
			return ""
		}
	}
	if len(key) > 4 && key[4] >= '0' && key[4] <= '9' {
		return ""
	}
	return key[:4]
}

// canonicalItem resolves a raw line-item key within a section.
func canonicalItem(section, raw string) (string, bool) {
	table := balanceAliases
	if section == models.SectionIncomeCurrent {
		table = incomeAliases
	}
	key := normalizeKey(raw)
	if code := lineCode(key); code != "" {
		if canon, ok := table[code]; ok {
			return canon, true
		}
	}
	canon, ok := table[key]
	return canon, ok
}

// canonicalSection resolves a top-level key.
func canonicalSection(raw string) (string, bool) {
	s, ok := sectionAliases[normalizeKey(raw)]
	return s, ok
}
