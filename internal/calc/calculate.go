// Package calc turns a single transaction and a clinic's financial arrangement
// into a payout breakdown with BAS figures. Everything here is pure.
package calc

import (
	"fmt"

	"github.com/clinicbooks/clinicbooks/internal/arrangement"
)

// Calculate normalizes raw figures, selects the arrangement's method and runs
// it. An arrangement that maps to no method yields arrangement.ErrUnknownMethod.
func Calculate(raw RawInput, a arrangement.FinancialArrangement) (Result, error) {
	method, err := arrangement.Select(a)
	if err != nil {
		return Result{}, err
	}
	return Apply(method, Normalize(raw))
}

// Apply runs one method against populated figures.
func Apply(method arrangement.Method, in Input) (Result, error) {
	switch m := method.(type) {
	case arrangement.NetWithoutSuper:
		return calculateNet(m, in), nil
	case arrangement.NetWithSuper:
		return calculateNetSuper(m, in), nil
	case arrangement.GrossBasic:
		return calculateGrossBasic(m, in), nil
	case arrangement.GrossLabGST:
		return calculateGrossLabGST(m, in), nil
	case arrangement.GrossMerchantBank:
		return calculateGrossMerchantBank(m, in), nil
	case arrangement.GrossPatientGST:
		return calculateGrossPatientGST(m, in), nil
	case arrangement.GrossOutwork:
		return calculateGrossOutwork(m, in), nil
	default:
		return Result{}, fmt.Errorf("%w: %T", arrangement.ErrUnknownMethod, method)
	}
}
