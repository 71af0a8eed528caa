package calc

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"counterparty_analyzer/pkg/models"
)

// Scope says which part of the record a formula reads a key from.
type Scope int

const (
	// ScopeEnd reads the closing balance.
	ScopeEnd Scope = iota
	// ScopeStart reads the opening balance.
	ScopeStart
	// ScopeBoth needs the key in both balances (deltas).
	ScopeBoth
	// ScopeAverage needs the key for a two-period average; with the
	// single-period fallback either balance is enough.
	ScopeAverage
	// ScopeIncome reads the income statement.
	ScopeIncome
)

func (s Scope) String() string {
	switch s {
	case ScopeEnd:
		return models.SectionBalanceEnd
	case ScopeStart:
		return models.SectionBalanceStart
	case ScopeBoth:
		return "balance_start+balance_end"
	case ScopeAverage:
		return "average"
	case ScopeIncome:
		return models.SectionIncomeCurrent
	}
	return "unknown"
}

// Inputs gives formulas read-only access to one statement record.
type Inputs struct {
	rec             *models.FinancialStatement
	averageFallback bool
}

// NewInputs wraps a record. With averageFallback an average over a key
// present in only one balance uses that single value.
func NewInputs(rec *models.FinancialStatement, averageFallback bool) Inputs {
	return Inputs{rec: rec, averageFallback: averageFallback}
}

// Available reports whether the key can be read in the given scope.
func (in Inputs) Available(scope Scope, key string) bool {
	if in.rec == nil {
		return false
	}
	_, okS := in.lookup(models.PeriodStart, key)
	_, okE := in.lookup(models.PeriodEnd, key)
	switch scope {
	case ScopeEnd:
		return okE
	case ScopeStart:
		return okS
	case ScopeBoth:
		return okS && okE
	case ScopeAverage:
		if in.averageFallback {
			return okS || okE
		}
		return okS && okE
	case ScopeIncome:
		_, ok := in.rec.Income(key)
		return ok
	}
	return false
}

// lookup reads a balance value. Non-current assets fall back to
// total_assets - current_assets when the line itself is missing.
func (in Inputs) lookup(p models.Period, key string) (decimal.Decimal, bool) {
	if in.rec == nil {
		return decimal.Zero, false
	}
	if v, ok := in.rec.Balance(p, key); ok {
		return decimal.NewFromFloat(v), true
	}
	if key == models.ItemNonCurrentAssets {
		ta, okTA := in.rec.Balance(p, models.ItemTotalAssets)
		ca, okCA := in.rec.Balance(p, models.ItemCurrentAssets)
		if okTA && okCA {
			return decimal.NewFromFloat(ta).Sub(decimal.NewFromFloat(ca)), true
		}
	}
	return decimal.Zero, false
}

// End reads a closing-balance value.
func (in Inputs) End(key string) Operand {
	v, ok := in.lookup(models.PeriodEnd, key)
	return valueOperand(key, v, ok)
}

// Start reads an opening-balance value.
func (in Inputs) Start(key string) Operand {
	v, ok := in.lookup(models.PeriodStart, key)
	return valueOperand(key+"₀", v, ok)
}

// Income reads an income statement value.
func (in Inputs) Income(key string) Operand {
	if in.rec == nil {
		return Operand{Label: key}
	}
	v, ok := in.rec.Income(key)
	return valueOperand(key, decimal.NewFromFloat(v), ok)
}

// Average is (start + end) / 2, or the single available value when the
// fallback policy allows it.
func (in Inputs) Average(key string) Operand {
	s, okS := in.lookup(models.PeriodStart, key)
	e, okE := in.lookup(models.PeriodEnd, key)
	label := "avg(" + key + ")"
	switch {
	case okS && okE:
		return Operand{
			Label: label,
			Value: s.Add(e).Div(decimal.NewFromInt(2)),
			Text:  fmt.Sprintf("(%s + %s) / 2", fmtAmount(s), fmtAmount(e)),
			OK:    true,
		}
	case okE && in.averageFallback:
		return Operand{Label: label, Value: e, Text: fmtAmount(e), OK: true,
			Notes: []string{label + ": single period (balance_end)"}}
	case okS && in.averageFallback:
		return Operand{Label: label, Value: s, Text: fmtAmount(s), OK: true,
			Notes: []string{label + ": single period (balance_start)"}}
	}
	return Operand{Label: label}
}

// Delta is end minus start; both balances are required.
func (in Inputs) Delta(key string) Operand {
	s, okS := in.lookup(models.PeriodStart, key)
	e, okE := in.lookup(models.PeriodEnd, key)
	label := "Δ" + key
	if !okS || !okE {
		return Operand{Label: label}
	}
	return Operand{
		Label: label,
		Value: e.Sub(s),
		Text:  fmt.Sprintf("(%s - %s)", fmtAmount(e), fmtAmount(s)),
		OK:    true,
	}
}

// Operand is one labelled formula input with its substituted text.
type Operand struct {
	Label string
	Value decimal.Decimal
	Text  string
	OK    bool
	Notes []string

	// Missing names the absent inputs of a composite operand.
	Missing []string
}

func (o Operand) missing() []string {
	if o.OK {
		return nil
	}
	if len(o.Missing) > 0 {
		return o.Missing
	}
	return []string{o.Label}
}

func valueOperand(label string, v decimal.Decimal, ok bool) Operand {
	if !ok {
		return Operand{Label: label}
	}
	return Operand{Label: label, Value: v, Text: fmtAmount(v), OK: true}
}

// Abs takes the magnitude. Costs are reported with either sign.
func (o Operand) Abs() Operand {
	if !o.OK || !o.Value.IsNegative() {
		o.Label = "|" + o.Label + "|"
		return o
	}
	o.Label = "|" + o.Label + "|"
	o.Value = o.Value.Abs()
	o.Text = fmtAmount(o.Value)
	return o
}

// OrZero turns an absent optional operand into an explicit zero and notes it.
func (o Operand) OrZero() Operand {
	if o.OK {
		return o
	}
	return Operand{
		Label: o.Label,
		Value: decimal.Zero,
		Text:  fmtAmount(decimal.Zero),
		OK:    true,
		Notes: []string{o.Label + " absent, counted as 0"},
	}
}

// Term is a signed operand in a linear combination.
type Term struct {
	Sign int
	Op   Operand
}

func plus(o Operand) Term  { return Term{Sign: 1, Op: o} }
func minus(o Operand) Term { return Term{Sign: -1, Op: o} }

// Combine builds a composite operand from a signed sum of terms. The
// composite is absent when any term is absent.
func Combine(label string, terms ...Term) Operand {
	out := Operand{Label: label, OK: true}
	var labels, texts []string
	for i, t := range terms {
		sign := "+"
		if t.Sign < 0 {
			sign = "-"
		}
		text := t.Op.Text
		if t.Op.Value.IsNegative() && !strings.HasPrefix(text, "(") {
			text = "(" + text + ")"
		}
		switch {
		case i == 0 && t.Sign > 0:
			labels = append(labels, t.Op.Label)
			texts = append(texts, text)
		case i == 0:
			labels = append(labels, "-"+t.Op.Label)
			texts = append(texts, "-"+text)
		default:
			labels = append(labels, sign, t.Op.Label)
			texts = append(texts, sign, text)
		}

		if !t.Op.OK {
			out.OK = false
			out.Missing = append(out.Missing, t.Op.missing()...)
			continue
		}
		if t.Sign < 0 {
			out.Value = out.Value.Sub(t.Op.Value)
		} else {
			out.Value = out.Value.Add(t.Op.Value)
		}
		out.Notes = append(out.Notes, t.Op.Notes...)
	}
	if label == "" {
		out.Label = "(" + strings.Join(labels, " ") + ")"
	}
	if !out.OK {
		return Operand{Label: out.Label, Missing: out.Missing}
	}
	out.Text = "(" + strings.Join(texts, " ") + ")"
	return out
}

func fmtAmount(d decimal.Decimal) string {
	return d.StringFixed(amountPlaces)
}
