package calc

import (
	"github.com/shopspring/decimal"

	"github.com/clinicbooks/clinicbooks/internal/arrangement"
)

// ExpenseBreakdown splits a GST-inclusive expense into BAS purchase figures.
type ExpenseBreakdown struct {
	NetAmount   decimal.Decimal `json:"netAmount"`
	GSTAmount   decimal.Decimal `json:"gstAmount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	GSTCredit   decimal.Decimal `json:"gstCredit"`
	BasG10      decimal.Decimal `json:"basG10"`
	BasG11      decimal.Decimal `json:"basG11"`
	Bas1B       decimal.Decimal `json:"bas1B"`
}

// CalculateExpenseGST always treats amount as GST-inclusive. GST-free, input
// taxed and exclusive treatments are not supported.
func CalculateExpenseGST(amount decimal.Decimal, gstPercent float64) ExpenseBreakdown {
	rate := arrangement.Fraction(gstPercent)
	gst := decimal.Zero
	if !one.Add(rate).IsZero() {
		gst = amount.Div(one.Add(rate)).Mul(rate)
	}
	net := amount.Sub(gst)
	return ExpenseBreakdown{
		NetAmount:   net,
		GSTAmount:   gst,
		TotalAmount: amount,
		GSTCredit:   gst,
		BasG10:      amount,
		BasG11:      net,
		Bas1B:       gst,
	}
}

// Calculations flattens the breakdown into the stored record map.
func (e ExpenseBreakdown) Calculations() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"netAmount":   e.NetAmount,
		"gstAmount":   e.GSTAmount,
		"totalAmount": e.TotalAmount,
		"gstCredit":   e.GSTCredit,
		"basG10":      e.BasG10,
		"basG11":      e.BasG11,
		"bas1B":       e.Bas1B,
	}
}
