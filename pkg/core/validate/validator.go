// Package validate turns language-model output into a validated financial
// statement record.
//
// Recovery is bounded and deterministic: the payload is cut out of any
// surrounding prose, parsed strictly, and on failure a fixed list of repair
// steps is applied once each in order. The same input text always produces
// the same record, warnings or error.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phuslu/log"

	"counterparty_analyzer/pkg/models"
)

// Warning is a non-fatal observation made while normalizing the payload.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Field == "" {
		return w.Message
	}
	return w.Field + ": " + w.Message
}

// Result is a validated record plus everything the validator observed.
type Result struct {
	Record   *models.FinancialStatement `json:"record"`
	Warnings []Warning                  `json:"warnings"`
	// Repairs lists the repair steps that changed the payload, in order.
	Repairs []string `json:"repairs,omitempty"`
}

// Validator holds the immutable recovery policy.
type Validator struct {
	maxUnclosed      int
	lenientRepair    bool
	balanceTolerance float64
}

// Option configures a Validator.
type Option func(*Validator)

// WithMaxUnclosed sets how many missing closing brackets may be appended.
func WithMaxUnclosed(n int) Option {
	return func(v *Validator) { v.maxUnclosed = n }
}

// WithLenientRepair enables the general-purpose repair library as the final step.
func WithLenientRepair(enabled bool) Option {
	return func(v *Validator) { v.lenientRepair = enabled }
}

// WithBalanceTolerance sets the relative tolerance of the balance identity check.
func WithBalanceTolerance(pct float64) Option {
	return func(v *Validator) { v.balanceTolerance = pct }
}

// New returns a Validator with one-bracket repair, no library repair and a
// 1% balance tolerance unless overridden.
func New(opts ...Option) *Validator {
	v := &Validator{
		maxUnclosed:      1,
		balanceTolerance: 0.01,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate recovers a statement record from raw model output. It returns a
// *FormatError when no JSON object can be recovered and an *IncompleteError
// when mandatory totals are missing.
func (v *Validator) Validate(raw string) (*Result, error) {
	payload, ok := locatePayload(raw)
	if !ok {
		return nil, &FormatError{Reason: "no JSON object found in model output"}
	}

	obj, repairs, err := v.parse(payload)
	if err != nil {
		return nil, err
	}

	res, err := v.build(obj)
	if err != nil {
		return nil, err
	}
	res.Repairs = repairs
	for _, w := range res.Warnings {
		log.Warn().Str("field", w.Field).Msg(w.Message)
	}
	return res, nil
}

func (v *Validator) parse(payload string) (map[string]interface{}, []string, error) {
	obj, err := decodeObject(payload)
	if err == nil {
		return obj, nil, nil
	}

	text := payload
	lastErr := err
	var tried, applied []string
	for _, step := range v.repairSteps() {
		tried = append(tried, step.name)
		next, changed := step.apply(text)
		if !changed {
			continue
		}
		text = next
		applied = append(applied, step.name)

		obj, err = decodeObject(text)
		if err == nil {
			return obj, applied, nil
		}
		lastErr = err
	}
	return nil, nil, &FormatError{
		Reason:   "payload is not valid JSON",
		Attempts: tried,
		Err:      lastErr,
	}
}

func (v *Validator) build(obj map[string]interface{}) (*Result, error) {
	res := &Result{}
	warn := func(field, format string, args ...interface{}) {
		res.Warnings = append(res.Warnings, Warning{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	var company, period string
	sections := make(map[string]map[string]float64, 3)
	for _, key := range sortedKeys(obj) {
		name, ok := canonicalSection(key)
		if !ok {
			warn(key, "unrecognised top-level key ignored")
			continue
		}
		switch name {
		case fieldCompanyName:
			company = textValue(obj[key])
		case fieldPeriod:
			period = textValue(obj[key])
		default:
			if _, dup := sections[name]; dup {
				warn(key, "duplicate %s section ignored", name)
				continue
			}
			items, ok := obj[key].(map[string]interface{})
			if !ok {
				warn(key, "section is %T, not an object", obj[key])
				continue
			}
			sections[name] = normalizeSection(name, items, warn)
		}
	}

	if company == "" {
		warn(fieldCompanyName, "company name not provided")
	}
	if period == "" {
		warn(fieldPeriod, "reporting period not provided")
	}

	start := sections[models.SectionBalanceStart]
	end := sections[models.SectionBalanceEnd]
	income := sections[models.SectionIncomeCurrent]
	deriveBalance(models.SectionBalanceStart, start, warn)
	deriveBalance(models.SectionBalanceEnd, end, warn)
	deriveIncome(income, warn)

	if missing := missingMandatory(start, end, income); len(missing) > 0 {
		return nil, &IncompleteError{Missing: missing}
	}

	res.Warnings = append(res.Warnings, consistencyWarnings(models.SectionBalanceStart, start, v.balanceTolerance)...)
	res.Warnings = append(res.Warnings, consistencyWarnings(models.SectionBalanceEnd, end, v.balanceTolerance)...)
	res.Warnings = append(res.Warnings, incomeWarnings(income)...)

	res.Record = models.NewFinancialStatement(company, period, start, end, income)
	return res, nil
}

type warnFunc func(field, format string, args ...interface{})

// normalizeSection maps raw keys to canonical ones and coerces values.
// Keys are visited in sorted order so alias collisions resolve the same way
// every time: the first key wins.
func normalizeSection(section string, raw map[string]interface{}, warn warnFunc) map[string]float64 {
	out := make(map[string]float64, len(raw))
	source := make(map[string]string, len(raw))
	for _, key := range sortedKeys(raw) {
		field := section + "." + key
		canon, known := canonicalItem(section, key)
		if !known {
			canon = normalizeKey(key)
			if canon == "" {
				warn(field, "empty key ignored")
				continue
			}
		}

		value, err := coerceNumber(raw[key])
		if err != nil {
			warn(field, "value %v dropped: %v", raw[key], err)
			continue
		}
		if prev, dup := source[canon]; dup {
			warn(field, "duplicates %s (from %q); keeping the first value", canon, prev)
			continue
		}
		out[canon] = value
		source[canon] = key
	}
	return out
}

func deriveBalance(section string, items map[string]float64, warn warnFunc) {
	if items == nil {
		return
	}
	if _, ok := items[models.ItemTotalLiabilities]; ok {
		return
	}
	lt, okLT := items[models.ItemLongTermLiabilities]
	cl, okCL := items[models.ItemCurrentLiabilities]
	if okLT && okCL {
		items[models.ItemTotalLiabilities] = lt + cl
		warn(section+"."+models.ItemTotalLiabilities, "derived as long_term_liabilities + current_liabilities")
	}
}

func deriveIncome(items map[string]float64, warn warnFunc) {
	if items == nil {
		return
	}
	if _, ok := items[models.ItemNetProfit]; ok {
		return
	}
	if loss, ok := items[models.ItemNetLoss]; ok {
		items[models.ItemNetProfit] = -abs(loss)
		warn(models.SectionIncomeCurrent+"."+models.ItemNetProfit, "derived from net_loss")
	}
}

func missingMandatory(start, end, income map[string]float64) []string {
	var missing []string
	for _, sec := range []struct {
		name  string
		items map[string]float64
	}{
		{models.SectionBalanceStart, start},
		{models.SectionBalanceEnd, end},
	} {
		for _, key := range models.MandatoryBalanceItems {
			if _, ok := sec.items[key]; !ok {
				missing = append(missing, sec.name+"."+key)
			}
		}
	}
	for _, key := range models.MandatoryIncomeItems {
		if _, ok := income[key]; !ok {
			missing = append(missing, models.SectionIncomeCurrent+"."+key)
		}
	}
	return missing
}

func textValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
