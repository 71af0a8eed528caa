// Package report prepares calculated indicators for the report-writing
// model and turns the model's markup into safe HTML.
package report

import (
	"fmt"
	"strings"

	"counterparty_analyzer/pkg/core/analysis"
)

// FormatForModel renders the analysis report as the plain-text calculation
// sheet handed to the report model. Blocks are numbered in report order and
// every indicator carries its formula text, rating and norm.
func FormatForModel(r *analysis.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Компанія: %s\n", orUnknown(r.CompanyName))
	fmt.Fprintf(&sb, "Період: %s\n\n", orUnknown(r.Period))

	for i, block := range r.Blocks {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, block.Title)
		if len(block.Indicators) == 0 {
			sb.WriteString("   (немає даних для розрахунку)\n")
		}
		for _, ind := range block.Indicators {
			fmt.Fprintf(&sb, "   - %s: %s [%s:%s] (норма: %s)\n",
				ind.Name, ind.FormulaText, ind.Rating, ind.Rating.Label(), ind.Norm)
		}
		sb.WriteString("\n")
	}

	undefined := r.Undefined()
	if len(undefined) == 0 {
		sb.WriteString("ОБМЕЖЕННЯ: немає, усі показники розраховано.\n")
		return sb.String()
	}
	sb.WriteString("ОБМЕЖЕННЯ:\n")
	for _, ind := range undefined {
		fmt.Fprintf(&sb, "   - %s: %s\n", ind.Name, ind.Diagnostic)
	}
	return sb.String()
}

// Summary is a one-line rating tally, e.g. for CLI output and logs.
func Summary(r *analysis.Report) string {
	s := r.Summary
	return fmt.Sprintf("норма: %d, увага: %d, ризик: %d, н/д: %d", s.Green, s.Orange, s.Red, s.Undefined)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "н/д"
	}
	return s
}
