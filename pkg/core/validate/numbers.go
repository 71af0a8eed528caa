package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var (
	errEmptyValue    = errors.New("empty value")
	errNonFinite     = errors.New("non-finite number")
	errNotNumeric    = errors.New("not a number")
	errNestedTooDeep = errors.New("nested value object")
)

var emptyMarkers = map[string]bool{
	"": true, "-": true, "–": true, "—": true,
	"null": true, "none": true, "n/a": true, "na": true, "н/д": true,
}

var numberSpaces = strings.NewReplacer(
	" ", "", "\u00a0", "", "\u2007", "", "\u2009", "", "\u202f", "",
	"'", "", "\u2019", "", "\t", "",
)

// coerceNumber converts a leaf value from the model payload to a finite
// float64. Objects of the form {"value": x} are unwrapped one level.
func coerceNumber(v interface{}) (float64, error) {
	return coerce(v, true)
}

func coerce(v interface{}, unwrap bool) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, errEmptyValue
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return 0, errNotNumeric
		}
		return finite(f)
	case float64:
		return finite(t)
	case int:
		return float64(t), nil
	case string:
		return parseNumericString(t)
	case map[string]interface{}:
		inner, ok := t["value"]
		if !ok || !unwrap {
			return 0, errNestedTooDeep
		}
		return coerce(inner, false)
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}

func finite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNonFinite
	}
	return f, nil
}

// parseNumericString handles the ways financial figures are written in
// statements: "(1 234,5)" for negatives, comma decimal separators, grouping
// spaces and apostrophes, unicode minus signs, and trailing unit markers such
// as "тис. грн".
func parseNumericString(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if emptyMarkers[strings.ToLower(s)] {
		return 0, errEmptyValue
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.ReplaceAll(s, "\u2212", "-")
	s = numberSpaces.Replace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.Is(unicode.Sc, r) })
	s = strings.TrimRightFunc(s, func(r rune) bool { return isUnitRune(r) || r == '.' })
	if s == "" || s == "-" || s == "+" {
		return 0, errEmptyValue
	}

	s = normalizeSeparators(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errNotNumeric
	}
	if negative {
		f = -math.Abs(f)
	}
	return finite(f)
}

func isUnitRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(unicode.Sc, r) || r == '%' || unicode.IsSpace(r)
}

// normalizeSeparators decides which of ',' and '.' is the decimal separator.
// A lone comma is decimal. When both appear, the rightmost one is decimal and
// the other groups thousands. Repeated identical separators group thousands.
func normalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")
	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		return strings.Replace(s, ",", ".", 1)
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}
