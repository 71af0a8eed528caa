package models

import (
	"encoding/json"
	"sort"
)

// Period selects one of the two balance-sheet columns.
type Period string

const (
	PeriodStart Period = "balance_start"
	PeriodEnd   Period = "balance_end"
)

// Section names as they appear in the serialized record.
const (
	SectionBalanceStart  = string(PeriodStart)
	SectionBalanceEnd    = string(PeriodEnd)
	SectionIncomeCurrent = "income_current"
)

// FinancialStatement is a validated statement record: two balance-sheet
// snapshots plus one income statement. It is built once by the validator and
// never mutated afterwards; accessors hand out copies.
type FinancialStatement struct {
	companyName  string
	period       string
	balanceStart map[string]float64
	balanceEnd   map[string]float64
	income       map[string]float64
}

// NewFinancialStatement copies the given sections into a new record.
func NewFinancialStatement(company, period string, start, end, income map[string]float64) *FinancialStatement {
	return &FinancialStatement{
		companyName:  company,
		period:       period,
		balanceStart: copyItems(start),
		balanceEnd:   copyItems(end),
		income:       copyItems(income),
	}
}

func (s *FinancialStatement) CompanyName() string { return s.companyName }

func (s *FinancialStatement) Period() string { return s.period }

// Balance returns a balance-sheet value for the requested period.
func (s *FinancialStatement) Balance(p Period, key string) (float64, bool) {
	var items map[string]float64
	switch p {
	case PeriodStart:
		items = s.balanceStart
	case PeriodEnd:
		items = s.balanceEnd
	default:
		return 0, false
	}
	v, ok := items[key]
	return v, ok
}

// Income returns a current-period income statement value.
func (s *FinancialStatement) Income(key string) (float64, bool) {
	v, ok := s.income[key]
	return v, ok
}

// BalanceItems returns a copy of one balance-sheet period.
func (s *FinancialStatement) BalanceItems(p Period) map[string]float64 {
	if p == PeriodStart {
		return copyItems(s.balanceStart)
	}
	return copyItems(s.balanceEnd)
}

// IncomeItems returns a copy of the income statement.
func (s *FinancialStatement) IncomeItems() map[string]float64 {
	return copyItems(s.income)
}

// Keys lists the keys of a section in sorted order.
func (s *FinancialStatement) Keys(section string) []string {
	var items map[string]float64
	switch section {
	case SectionBalanceStart:
		items = s.balanceStart
	case SectionBalanceEnd:
		items = s.balanceEnd
	case SectionIncomeCurrent:
		items = s.income
	}
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type statementJSON struct {
	CompanyName   string             `json:"company_name"`
	Period        string             `json:"period"`
	BalanceStart  map[string]float64 `json:"balance_start"`
	BalanceEnd    map[string]float64 `json:"balance_end"`
	IncomeCurrent map[string]float64 `json:"income_current"`
}

// MarshalJSON renders the record in the same shape the validator accepts.
func (s *FinancialStatement) MarshalJSON() ([]byte, error) {
	return json.Marshal(statementJSON{
		CompanyName:   s.companyName,
		Period:        s.period,
		BalanceStart:  s.balanceStart,
		BalanceEnd:    s.balanceEnd,
		IncomeCurrent: s.income,
	})
}

func copyItems(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
