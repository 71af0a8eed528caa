package analysis

import (
	"counterparty_analyzer/pkg/core/rating"
	"counterparty_analyzer/pkg/models"
)

// IndicatorResult is the computed value and rating of one indicator.
// Value is nil when the indicator is undefined.
type IndicatorResult struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Unit        Unit          `json:"unit"`
	Value       *float64      `json:"value"`
	FormulaText string        `json:"formula_text"`
	Rating      rating.Rating `json:"rating"`
	Norm        string        `json:"norm"`
	Diagnostic  string        `json:"diagnostic,omitempty"`
}

// Defined reports whether the indicator produced a value.
func (r IndicatorResult) Defined() bool { return r.Value != nil }

// BlockResult holds the indicators of one block in catalogue order.
type BlockResult struct {
	ID         Block             `json:"id"`
	Title      string            `json:"title"`
	Indicators []IndicatorResult `json:"indicators"`
}

// Summary counts indicators per rating.
type Summary struct {
	Green     int `json:"green"`
	Orange    int `json:"orange"`
	Red       int `json:"red"`
	Undefined int `json:"undefined"`
}

// Timing holds per-stage durations in seconds. The engine leaves it zero;
// the pipeline fills it in.
type Timing struct {
	Extraction  float64 `json:"extraction"`
	Parse       float64 `json:"parse"`
	Validation  float64 `json:"validation"`
	Calculation float64 `json:"calculation"`
	Report      float64 `json:"report"`
	Total       float64 `json:"total"`
}

// Report is the full indicator result set for one statement record.
type Report struct {
	CompanyName string                     `json:"company_name"`
	Period      string                     `json:"period"`
	Blocks      []BlockResult              `json:"blocks"`
	Summary     Summary                    `json:"summary"`
	Record      *models.FinancialStatement `json:"record"`
	Timing      Timing                     `json:"timing"`
}

// Indicator looks up a result by id.
func (r *Report) Indicator(id string) (IndicatorResult, bool) {
	for _, b := range r.Blocks {
		for _, ind := range b.Indicators {
			if ind.ID == id {
				return ind, true
			}
		}
	}
	return IndicatorResult{}, false
}

// Undefined lists the indicators without a value, in report order.
func (r *Report) Undefined() []IndicatorResult {
	var out []IndicatorResult
	for _, b := range r.Blocks {
		for _, ind := range b.Indicators {
			if !ind.Defined() {
				out = append(out, ind)
			}
		}
	}
	return out
}

// Count is the total number of indicators in the report.
func (r *Report) Count() int {
	n := 0
	for _, b := range r.Blocks {
		n += len(b.Indicators)
	}
	return n
}

func (s *Summary) add(r rating.Rating) {
	switch r {
	case rating.Green:
		s.Green++
	case rating.Orange:
		s.Orange++
	case rating.Red:
		s.Red++
	default:
		s.Undefined++
	}
}
