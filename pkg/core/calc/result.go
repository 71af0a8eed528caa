package calc

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ratioPlaces  int32 = 4
	amountPlaces int32 = 2
	divPrecision int32 = 10
	daysInYear         = 365
)

// Result is the outcome of one formula. Undefined results carry a reason and
// still render their formula text so the audit trail shows what was missing.
type Result struct {
	Value   decimal.Decimal
	Defined bool
	Text    string
	Reason  string
}

// Formula computes one indicator. Formulas are pure and total: every numeric
// edge case yields an undefined Result instead of an error or panic.
type Formula func(in Inputs) Result

func undefined(expr, substituted, reason string) Result {
	text := expr
	if substituted != "" {
		text += " = " + substituted
	}
	return Result{Text: text + " = undefined (" + reason + ")", Reason: reason}
}

func defined(expr, substituted string, v decimal.Decimal, places int32, notes []string) Result {
	text := fmt.Sprintf("%s = %s = %s", expr, substituted, v.StringFixed(places))
	if len(notes) > 0 {
		text += " [" + strings.Join(notes, "; ") + "]"
	}
	return Result{Value: v, Defined: true, Text: text}
}

func absent(ops ...Operand) []string {
	var labels []string
	for _, o := range ops {
		labels = append(labels, o.missing()...)
	}
	return labels
}

func notesOf(ops ...Operand) []string {
	var notes []string
	for _, o := range ops {
		notes = append(notes, o.Notes...)
	}
	return notes
}

// divide renders num / den as a ratio.
func divide(num, den Operand) Result {
	return quotient(num.Label+" / "+den.Label, num, den, decimal.NewFromInt(1), ratioPlaces)
}

// days renders num / den × 365 as a period in days.
func days(num, den Operand) Result {
	return quotient(num.Label+" / "+den.Label+" × 365", num, den, decimal.NewFromInt(daysInYear), amountPlaces)
}

func quotient(expr string, num, den Operand, factor decimal.Decimal, places int32) Result {
	if missing := absent(num, den); len(missing) > 0 {
		return undefined(expr, "", "missing "+strings.Join(missing, ", "))
	}
	sub := num.Text + " / " + den.Text
	if !factor.Equal(decimal.NewFromInt(1)) {
		sub += " × " + factor.String()
	}
	if den.Value.IsZero() {
		return undefined(expr, sub, "division by zero")
	}
	v := num.Value.Mul(factor).DivRound(den.Value, divPrecision)
	return defined(expr, sub, v, places, notesOf(num, den))
}

// amount renders a composite operand as a money amount.
func amount(name string, op Operand) Result {
	expr := name + " = " + unwrap(op.Label)
	if !op.OK {
		return undefined(expr, "", "missing "+strings.Join(op.missing(), ", "))
	}
	return defined(expr, unwrap(op.Text), op.Value, amountPlaces, op.Notes)
}

func unwrap(s string) string {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && balancedInside(s[1:len(s)-1]) {
		return s[1 : len(s)-1]
	}
	return s
}

func balancedInside(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
