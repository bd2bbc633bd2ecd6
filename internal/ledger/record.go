// Package ledger models the stored transaction log the engine reads. Records are
// created and deleted by the records layer; this package only builds them from
// calculations and reads them back.
package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicbooks/clinicbooks/internal/arrangement"
	"github.com/clinicbooks/clinicbooks/internal/calc"
)

// DateLayout is the ISO date format used for entry dates.
const DateLayout = "2006-01-02"

// ErrNotFound indicates a missing clinic record.
var ErrNotFound = errors.New("ledger: not found")

// IncomeRecord is one calculated income transaction.
type IncomeRecord struct {
	ID                string                     `json:"id"`
	ClinicID          string                     `json:"clinicId"`
	EntryDate         string                     `json:"entryDate"`
	Inputs            calc.RawInput              `json:"inputs"`
	Calculations      map[string]decimal.Decimal `json:"calculations"`
	Method            string                     `json:"method"`
	GSTPercent        float64                    `json:"gstPercent"`
	CommissionPercent float64                    `json:"commissionPercent"`
	DentistPayable    decimal.Decimal            `json:"dentistPayable"`
	BASRefund         decimal.Decimal            `json:"basRefund"`
	GSTFree           bool                       `json:"gstFree,omitempty"`
	CreatedAt         time.Time                  `json:"createdAt"`
}

// ExpenseRecord is one calculated expense transaction.
type ExpenseRecord struct {
	ID           string                     `json:"id"`
	ClinicID     string                     `json:"clinicId"`
	EntityID     string                     `json:"entityId"`
	EntryDate    string                     `json:"entryDate"`
	Inputs       calc.RawInput              `json:"inputs"`
	Calculations map[string]decimal.Decimal `json:"calculations"`
	GSTPercent   float64                    `json:"gstPercent"`
	CreatedAt    time.Time                  `json:"createdAt"`
}

// NewIncomeRecord assembles a record from a calculation.
func NewIncomeRecord(clinicID string, entryDate time.Time, in calc.Input, a arrangement.FinancialArrangement, result calc.Result) IncomeRecord {
	return IncomeRecord{
		ID:                uuid.NewString(),
		ClinicID:          clinicID,
		EntryDate:         entryDate.Format(DateLayout),
		Inputs:            in.Raw(),
		Calculations:      result.Calculations(),
		Method:            result.Method,
		GSTPercent:        a.CommissionSplitting.GSTPercent,
		CommissionPercent: a.CommissionSplitting.CommissionPercent,
		DentistPayable:    result.DentistPayable,
		BASRefund:         result.BASRefund,
		CreatedAt:         time.Now().UTC(),
	}
}

// NewExpenseRecord assembles a record from an expense breakdown.
func NewExpenseRecord(clinicID, entityID string, entryDate time.Time, gstPercent float64, breakdown calc.ExpenseBreakdown) ExpenseRecord {
	return ExpenseRecord{
		ID:           uuid.NewString(),
		ClinicID:     clinicID,
		EntityID:     entityID,
		EntryDate:    entryDate.Format(DateLayout),
		Inputs:       calc.RawInput{"amount": breakdown.TotalAmount, "entityId": entityID},
		Calculations: breakdown.Calculations(),
		GSTPercent:   gstPercent,
		CreatedAt:    time.Now().UTC(),
	}
}

// ParseEntryDate reads an ISO date, tolerating a trailing time component.
func ParseEntryDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Amounts are the BAS-relevant totals of one record.
type Amounts struct {
	Gross decimal.Decimal
	GST   decimal.Decimal
	Net   decimal.Decimal
}

// BASAmounts returns the record's sales figures. ok is false when the record
// carries no calculations.
func (r IncomeRecord) BASAmounts() (Amounts, bool) {
	if len(r.Calculations) == 0 {
		return Amounts{}, false
	}
	gross, ok := r.Calculations["basG1"]
	if !ok {
		gross = calc.Coerce(r.Inputs[arrangement.FieldGrossPatientFee])
	}
	gst := r.Calculations["bas1A"]
	return Amounts{Gross: gross, GST: gst, Net: gross.Sub(gst)}, true
}

// IsGSTFree reports whether the record belongs in GST-free income.
func (r IncomeRecord) IsGSTFree() bool {
	if r.GSTFree {
		return true
	}
	a, ok := r.BASAmounts()
	return ok && a.GST.IsZero()
}

// BASAmounts returns the record's purchase figures.
func (r ExpenseRecord) BASAmounts() (Amounts, bool) {
	if len(r.Calculations) == 0 {
		return Amounts{}, false
	}
	gross := r.Calculations["totalAmount"]
	gst := r.Calculations["gstAmount"]
	net, ok := r.Calculations["netAmount"]
	if !ok {
		net = gross.Sub(gst)
	}
	return Amounts{Gross: gross, GST: gst, Net: net}, true
}
