package arrangement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidArrangement wraps save-time validation failures.
var ErrInvalidArrangement = errors.New("arrangement: invalid configuration")

var validate = validator.New()

// Validate checks an arrangement before it is persisted by the records layer.
// Calculators never call it; they tolerate whatever they are given.
func (a FinancialArrangement) Validate() error {
	if err := validate.Struct(a); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fe.Namespace())
			}
			return fmt.Errorf("%w: %s", ErrInvalidArrangement, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidArrangement, err)
	}
	if !a.CommissionSplitting.GSTOnCommission && a.GrossMethod.SelectedMethod == "" {
		return fmt.Errorf("%w: grossMethod.selectedMethod required", ErrInvalidArrangement)
	}
	return nil
}
