// Package rating classifies indicator values into traffic-light categories.
//
// Every rule is a list of contiguous bands that together cover the whole
// real line, so any finite value lands in exactly one band. Missing or
// non-finite values are always Undefined.
package rating

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Rating is a traffic-light category.
type Rating string

const (
	Green     Rating = "green"
	Orange    Rating = "orange"
	Red       Rating = "red"
	Undefined Rating = "undefined"
)

// Label is the short human label used in reports.
func (r Rating) Label() string {
	switch r {
	case Green:
		return "норма"
	case Orange:
		return "увага"
	case Red:
		return "ризик"
	default:
		return "н/д"
	}
}

// Band is one interval of a rule. A nil bound is unbounded.
type Band struct {
	Rating        Rating   `yaml:"rating" json:"rating"`
	From          *float64 `yaml:"from,omitempty" json:"from,omitempty"`
	To            *float64 `yaml:"to,omitempty" json:"to,omitempty"`
	FromInclusive bool     `yaml:"from_inclusive" json:"from_inclusive"`
	ToInclusive   bool     `yaml:"to_inclusive" json:"to_inclusive"`
}

// Contains reports whether v falls inside the band.
func (b Band) Contains(v float64) bool {
	if b.From != nil {
		if v < *b.From || (v == *b.From && !b.FromInclusive) {
			return false
		}
	}
	if b.To != nil {
		if v > *b.To || (v == *b.To && !b.ToInclusive) {
			return false
		}
	}
	return true
}

func (b Band) String() string {
	lo, hi := "(-∞", "+∞)"
	if b.From != nil {
		br := "("
		if b.FromInclusive {
			br = "["
		}
		lo = br + formatBound(*b.From)
	}
	if b.To != nil {
		br := ")"
		if b.ToInclusive {
			br = "]"
		}
		hi = formatBound(*b.To) + br
	}
	return fmt.Sprintf("%s: %s, %s", b.Rating, lo, hi)
}

// Rule is the full band set for one indicator plus its human-readable norm.
type Rule struct {
	Norm  string `yaml:"norm" json:"norm"`
	Bands []Band `yaml:"bands" json:"bands"`
}

// Validate checks that the bands are well formed, contiguous and cover the
// real line without overlap.
func (r Rule) Validate() error {
	if len(r.Bands) == 0 {
		return fmt.Errorf("RATING_RULE_EMPTY: no bands")
	}
	bands := append([]Band(nil), r.Bands...)
	sort.SliceStable(bands, func(i, j int) bool {
		if bands[i].From == nil {
			return bands[j].From != nil
		}
		if bands[j].From == nil {
			return false
		}
		return *bands[i].From < *bands[j].From
	})

	for i, b := range bands {
		switch b.Rating {
		case Green, Orange, Red:
		default:
			return fmt.Errorf("RATING_RULE_INVALID: band %d has rating %q", i, b.Rating)
		}
		if b.From != nil && (math.IsNaN(*b.From) || math.IsInf(*b.From, 0)) {
			return fmt.Errorf("RATING_RULE_INVALID: band %d has non-finite lower bound", i)
		}
		if b.To != nil && (math.IsNaN(*b.To) || math.IsInf(*b.To, 0)) {
			return fmt.Errorf("RATING_RULE_INVALID: band %d has non-finite upper bound", i)
		}
		if b.From != nil && b.To != nil {
			if *b.From > *b.To || (*b.From == *b.To && !(b.FromInclusive && b.ToInclusive)) {
				return fmt.Errorf("RATING_RULE_INVALID: band %s is empty", b)
			}
		}
	}

	if bands[0].From != nil {
		return fmt.Errorf("RATING_RULE_GAP: values below %s are not covered", formatBound(*bands[0].From))
	}
	last := bands[len(bands)-1]
	if last.To != nil {
		return fmt.Errorf("RATING_RULE_GAP: values above %s are not covered", formatBound(*last.To))
	}
	for i := 1; i < len(bands); i++ {
		prev, cur := bands[i-1], bands[i]
		if prev.To == nil || cur.From == nil {
			return fmt.Errorf("RATING_RULE_OVERLAP: %s and %s overlap", prev, cur)
		}
		if *prev.To != *cur.From {
			return fmt.Errorf("RATING_RULE_GAP: %s and %s are not contiguous", prev, cur)
		}
		if prev.ToInclusive == cur.FromInclusive {
			if prev.ToInclusive {
				return fmt.Errorf("RATING_RULE_OVERLAP: %s claimed by two bands", formatBound(*cur.From))
			}
			return fmt.Errorf("RATING_RULE_GAP: %s claimed by no band", formatBound(*cur.From))
		}
	}
	return nil
}

// Classify maps a value to its band rating. Nil and non-finite values are
// Undefined.
func (r Rule) Classify(v *float64) Rating {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Undefined
	}
	for _, b := range r.Bands {
		if b.Contains(*v) {
			return b.Rating
		}
	}
	return Undefined
}

// Table holds validated rules keyed by indicator id.
type Table struct {
	rules map[string]Rule
}

// NewTable validates every rule and returns the lookup table.
func NewTable(rules map[string]Rule) (*Table, error) {
	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	t := &Table{rules: make(map[string]Rule, len(rules))}
	for _, id := range ids {
		if err := rules[id].Validate(); err != nil {
			return nil, fmt.Errorf("indicator %s: %w", id, err)
		}
		t.rules[id] = rules[id]
	}
	return t, nil
}

// Classify rates a value for an indicator. Unknown indicators are Undefined.
func (t *Table) Classify(id string, v *float64) Rating {
	rule, ok := t.rules[id]
	if !ok {
		return Undefined
	}
	return rule.Classify(v)
}

// Norm returns the human-readable norm of an indicator.
func (t *Table) Norm(id string) string {
	return t.rules[id].Norm
}

// Rule returns the rule registered for an indicator.
func (t *Table) Rule(id string) (Rule, bool) {
	r, ok := t.rules[id]
	return r, ok
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinNorm(parts ...string) string {
	return strings.Join(parts, "; ")
}
