package main

import (
	"fmt"
	"io"
	"strings"

	"counterparty_analyzer/pkg/core/analysis"
	"counterparty_analyzer/pkg/core/rating"
	"counterparty_analyzer/pkg/core/validate"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	blockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	nameStyle  = lipgloss.NewStyle().Width(46)
	valueStyle = lipgloss.NewStyle().Width(14).Align(lipgloss.Right)
	normStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	ratingStyles = map[rating.Rating]lipgloss.Style{
		rating.Green:     lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		rating.Orange:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
		rating.Red:       lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		rating.Undefined: lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

func ratingCell(r rating.Rating) string {
	return ratingStyles[r].Width(8).Render(r.Label())
}

func formatValue(ind analysis.IndicatorResult) string {
	if ind.Value == nil {
		return "н/д"
	}
	if ind.Unit == analysis.UnitDays {
		return fmt.Sprintf("%.0f", *ind.Value)
	}
	return fmt.Sprintf("%.3f", *ind.Value)
}

// renderReport prints the indicator table grouped by block.
func renderReport(w io.Writer, r *analysis.Report) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s · %s", orDash(r.CompanyName), orDash(r.Period))))
	for _, b := range r.Blocks {
		fmt.Fprintln(w, blockStyle.Render(b.Title))
		for _, ind := range b.Indicators {
			fmt.Fprintf(w, "  %s%s  %s %s\n",
				nameStyle.Render(ind.Name),
				valueStyle.Render(formatValue(ind)),
				ratingCell(ind.Rating),
				normStyle.Render(ind.Norm))
		}
		fmt.Fprintln(w)
	}

	s := r.Summary
	fmt.Fprintf(w, "%s %d  %s %d  %s %d  %s %d\n",
		ratingCell(rating.Green), s.Green,
		ratingCell(rating.Orange), s.Orange,
		ratingCell(rating.Red), s.Red,
		ratingCell(rating.Undefined), s.Undefined)

	if undefined := r.Undefined(); len(undefined) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, blockStyle.Render("Обмеження"))
		for _, ind := range undefined {
			fmt.Fprintf(w, "  %s: %s\n", ind.Name, normStyle.Render(ind.Diagnostic))
		}
	}
}

func renderWarnings(w io.Writer, warnings []validate.Warning) {
	for _, warn := range warnings {
		fmt.Fprintln(w, warnStyle.Render("! "+warn.String()))
	}
}

// renderCatalog lists every indicator with its effective bands.
func renderCatalog(w io.Writer, c *analysis.Catalog) {
	var current analysis.Block
	for _, def := range c.Definitions() {
		if def.Block != current {
			current = def.Block
			fmt.Fprintln(w, blockStyle.Render(string(current)))
		}
		rule, _ := c.Rule(def.ID)
		bands := make([]string, 0, len(rule.Bands))
		for _, b := range rule.Bands {
			bands = append(bands, ratingStyles[b.Rating].Render(b.String()))
		}
		fmt.Fprintf(w, "  %s %s\n    %s\n", nameStyle.Render(def.ID), def.DisplayName, strings.Join(bands, "  "))
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
