package bas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Income category keys with special meaning. Other keys are classified by
// their suffix: "...GstFree" or "...Gst".
const (
	CategoryIncomeGSTFree = "incomeGstFree"
	CategoryIncomeGST     = "incomeGst"
	CategoryTotalIncome   = "totalIncome"

	suffixGSTFree = "GstFree"
	suffixGST     = "Gst"
)

// Financial year conventions.
const (
	FYStartJuly    = "july"
	FYStartJanuary = "january"
)

// IncomeCategory maps an income category to its BAS code.
type IncomeCategory struct {
	Enabled bool   `json:"enabled"`
	Label   string `json:"label"`
	BasCode string `json:"basCode"`
}

// ExpenseEntity is an expense payee or account linked to a BAS code.
type ExpenseEntity struct {
	Enabled     bool    `json:"enabled"`
	BasCode     string  `json:"basCode"`
	BusinessUse float64 `json:"businessUse" validate:"gte=0,lte=100"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	HeadID      string  `json:"headId"`
}

// QuarterlySettings selects the financial-year convention.
type QuarterlySettings struct {
	FinancialYearStart string `json:"financialYearStart" validate:"omitempty,oneof=july january July January"`
	ReportingPeriod    string `json:"reportingPeriod" validate:"omitempty,oneof=quarterly monthly annually"`
}

// CategoryConfig is a clinic's BAS category mapping.
type CategoryConfig struct {
	IncomeCategories  map[string]IncomeCategory `json:"incomeCategories"`
	ExpenseEntities   map[string]ExpenseEntity  `json:"expenseEntities" validate:"dive"`
	QuarterlySettings QuarterlySettings         `json:"quarterlySettings"`
}

// ErrInvalidConfig wraps save-time validation failures.
var ErrInvalidConfig = errors.New("bas: invalid category config")

var validate = validator.New()

// Validate checks a config before the records layer stores it.
func (c CategoryConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// FinancialYearStart normalizes the configured convention; anything other than
// January means the Australian July-June year.
func (c CategoryConfig) FinancialYearStart() string {
	if strings.EqualFold(strings.TrimSpace(c.QuarterlySettings.FinancialYearStart), FYStartJanuary) {
		return FYStartJanuary
	}
	return FYStartJuly
}

// businessUsePercent returns the share of an entity's spend that is business
// use. Unset values count as full business use.
func (e ExpenseEntity) businessUsePercent() float64 {
	if e.BusinessUse <= 0 {
		return 100
	}
	return e.BusinessUse
}

type categoryKind int

const (
	kindOther categoryKind = iota
	kindGSTFree
	kindGST
	kindTotal
)

func classifyCategory(key string) categoryKind {
	switch {
	case key == CategoryTotalIncome:
		return kindTotal
	case strings.HasSuffix(key, suffixGSTFree):
		return kindGSTFree
	case strings.HasSuffix(key, suffixGST):
		return kindGST
	default:
		return kindOther
	}
}
