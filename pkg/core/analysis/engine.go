// Package analysis runs the indicator catalogue over a validated statement
// record and assembles the rated report.
package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/phuslu/log"

	"counterparty_analyzer/pkg/core/calc"
	"counterparty_analyzer/pkg/core/rating"
	"counterparty_analyzer/pkg/models"
)

const valuePlaces = 6

// Engine orchestrates the formula library and the rating table. It holds
// only read-only configuration and is safe for concurrent use.
type Engine struct {
	catalog         *Catalog
	averageFallback bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithAverageFallback toggles the single-period fallback for averages.
func WithAverageFallback(enabled bool) Option {
	return func(e *Engine) { e.averageFallback = enabled }
}

// NewEngine creates an engine over a validated catalogue. Averages fall back
// to a single period unless disabled.
func NewEngine(catalog *Catalog, opts ...Option) *Engine {
	e := &Engine{catalog: catalog, averageFallback: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the engine's catalogue.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Calculate evaluates every indicator in catalogue order. Faults are
// contained per indicator: the report always has one result per definition.
func (e *Engine) Calculate(rec *models.FinancialStatement) *Report {
	report := &Report{Record: rec}
	if rec != nil {
		report.CompanyName = rec.CompanyName()
		report.Period = rec.Period()
	}

	in := calc.NewInputs(rec, e.averageFallback)
	byBlock := make(map[Block][]IndicatorResult, len(Blocks))
	for _, def := range e.catalog.defs {
		res := e.evaluate(def, in)
		report.Summary.add(res.Rating)
		byBlock[def.Block] = append(byBlock[def.Block], res)
	}

	for _, b := range Blocks {
		if len(byBlock[b.ID]) == 0 {
			continue
		}
		report.Blocks = append(report.Blocks, BlockResult{
			ID:         b.ID,
			Title:      b.Title,
			Indicators: byBlock[b.ID],
		})
	}
	return report
}

func (e *Engine) evaluate(def IndicatorDefinition, in calc.Inputs) (res IndicatorResult) {
	res = IndicatorResult{
		ID:     def.ID,
		Name:   def.DisplayName,
		Unit:   def.Unit,
		Rating: rating.Undefined,
		Norm:   e.catalog.Norm(def.ID),
	}

	if missing := missingInputs(def.Requires, in); len(missing) > 0 {
		res.FormulaText = def.ID + " = undefined (missing inputs)"
		res.Diagnostic = "missing inputs: " + strings.Join(missing, ", ")
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("indicator", def.ID).Str("panic", fmt.Sprint(r)).Msg("indicator formula fault")
			res.Value = nil
			res.Rating = rating.Undefined
			res.FormulaText = def.ID + " = undefined (formula fault)"
			res.Diagnostic = fmt.Sprintf("formula fault: %v", r)
		}
	}()

	out := def.Formula(in)
	res.FormulaText = out.Text
	if !out.Defined {
		res.Diagnostic = out.Reason
		return res
	}

	v := out.Value.Round(valuePlaces).InexactFloat64()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		res.Diagnostic = "value out of range"
		return res
	}
	res.Value = &v
	res.Rating = e.catalog.Classify(def.ID, &v)
	return res
}

func missingInputs(needs []Need, in calc.Inputs) []string {
	var missing []string
	for _, n := range needs {
		satisfied := false
		for _, key := range n.Keys {
			if in.Available(n.Scope, key) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, n.String())
		}
	}
	return missing
}
