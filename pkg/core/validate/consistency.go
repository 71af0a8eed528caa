package validate

import (
	"fmt"
	"math"

	"counterparty_analyzer/pkg/models"
)

// =============================================================================
// BALANCE SHEET CONSISTENCY
// =============================================================================

// consistencyWarnings flags balance sheets that do not add up. A mismatch is
// reported but never rejects the record: statements are often extracted with
// rounding or a missed minor line.
func consistencyWarnings(section string, items map[string]float64, relTolerance float64) []Warning {
	var out []Warning

	assets, okA := items[models.ItemTotalAssets]
	liabilities, okL := items[models.ItemTotalLiabilities]
	equity, okE := items[models.ItemTotalEquity]
	if okA && okL && okE {
		computed := liabilities + equity
		if diff := assets - computed; math.Abs(diff) > relTolerance*math.Abs(assets) {
			out = append(out, Warning{
				Field: section,
				Message: fmt.Sprintf("balance identity off by %.2f: total_assets %.2f vs liabilities + equity %.2f",
					diff, assets, computed),
			})
		}
	}

	if current, ok := items[models.ItemCurrentAssets]; ok && okA && current > assets {
		out = append(out, Warning{
			Field:   section + "." + models.ItemCurrentAssets,
			Message: fmt.Sprintf("current assets %.2f exceed total assets %.2f", current, assets),
		})
	}
	if current, ok := items[models.ItemCurrentLiabilities]; ok && okL && current > liabilities {
		out = append(out, Warning{
			Field:   section + "." + models.ItemCurrentLiabilities,
			Message: fmt.Sprintf("current liabilities %.2f exceed total liabilities %.2f", current, liabilities),
		})
	}
	return out
}

// =============================================================================
// INCOME STATEMENT CONSISTENCY
// =============================================================================

// incomeWarnings cross-checks gross profit against revenue and cost of sales.
func incomeWarnings(items map[string]float64) []Warning {
	revenue, okR := items[models.ItemRevenue]
	cost, okC := items[models.ItemCostOfSales]
	gross, okG := items[models.ItemGrossProfit]
	if !okR || !okC || !okG {
		return nil
	}
	expected := revenue - math.Abs(cost)
	if math.Abs(expected-gross) <= 0.01*math.Max(math.Abs(revenue), 1) {
		return nil
	}
	return []Warning{{
		Field:   models.SectionIncomeCurrent + "." + models.ItemGrossProfit,
		Message: fmt.Sprintf("gross profit %.2f differs from revenue - cost of sales = %.2f", gross, expected),
	}}
}
