package calc

import "github.com/shopspring/decimal"

// Intermediate keys exposed on results. Reporting renders them as an audit
// trail, so every calculator publishes each step it takes.
const (
	KeyGrossPatientFee      = "grossPatientFee"
	KeyLabFee               = "labFee"
	KeyNetFee               = "netFee"
	KeyCommission           = "commission"
	KeyCommissionComponent  = "commissionComponent"
	KeySuperComponent       = "superComponent"
	KeyGSTOnCommission      = "gstOnCommission"
	KeyTotalPayable         = "totalPayable"
	KeyServiceFee           = "serviceFee"
	KeyGSTOnServiceFee      = "gstOnServiceFee"
	KeyTotalServiceFee      = "totalServiceFee"
	KeyRemittedToDentist    = "remittedToDentist"
	KeyGSTOnLabFee          = "gstOnLabFee"
	KeyMerchantFeeWithGST   = "merchantFeeWithGst"
	KeyMerchantGSTComponent = "merchantGstComponent"
	KeyBankFee              = "bankFee"
	KeyGSTOnPatientFee      = "gstOnPatientFee"
	KeyPatientFeeExGST      = "patientFeeExGst"
	KeyMerchantFeeCost      = "merchantFeeCost"
	KeyOutworkCost          = "outworkCost"
	KeyOutworkCharge        = "outworkCharge"
	KeyServiceSubtotal      = "serviceSubtotal"
	KeyGSTOnServiceSubtotal = "gstOnServiceSubtotal"
)

// Line is one labelled step of a calculation.
type Line struct {
	Label       string          `json:"label"`
	Key         string          `json:"key"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Result is the breakdown of a single income transaction.
type Result struct {
	Method         string          `json:"method"`
	Lines          []Line          `json:"lines"`
	DentistPayable decimal.Decimal `json:"dentistPayable"`
	BASRefund      decimal.Decimal `json:"basRefund"`
	BasG1          decimal.Decimal `json:"basG1"`
	BasG3          decimal.Decimal `json:"basG3"`
	BasG11         decimal.Decimal `json:"basG11"`
	Bas1A          decimal.Decimal `json:"bas1A"`
	Bas1B          decimal.Decimal `json:"bas1B"`
}

// Value returns the amount recorded under key.
func (r Result) Value(key string) (decimal.Decimal, bool) {
	for _, line := range r.Lines {
		if line.Key == key {
			return line.Amount, true
		}
	}
	return decimal.Zero, false
}

// Calculations flattens the result into the key/amount map stored on
// transaction records, including the payout and BAS figures.
func (r Result) Calculations() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(r.Lines)+7)
	for _, line := range r.Lines {
		out[line.Key] = line.Amount
	}
	out["dentistPayable"] = r.DentistPayable
	out["basRefund"] = r.BASRefund
	out["basG1"] = r.BasG1
	out["basG3"] = r.BasG3
	out["basG11"] = r.BasG11
	out["bas1A"] = r.Bas1A
	out["bas1B"] = r.Bas1B
	return out
}

// sheet accumulates labelled lines in calculation order.
type sheet struct {
	lines []Line
}

func (s *sheet) add(key, description string, amount decimal.Decimal) decimal.Decimal {
	label := string(rune('A' + len(s.lines)))
	s.lines = append(s.lines, Line{Label: label, Key: key, Description: description, Amount: amount})
	return amount
}
