package calc

import (
	"github.com/shopspring/decimal"

	"github.com/clinicbooks/clinicbooks/internal/arrangement"
)

// serviceFees appends the service fee, its GST and their sum, computed on
// netFee, and returns the GST and total.
func serviceFees(s *sheet, netFee, rate, gstRate decimal.Decimal) (gst, total decimal.Decimal) {
	fee := s.add(KeyServiceFee, "Service and facility fee", netFee.Mul(rate))
	gst = s.add(KeyGSTOnServiceFee, "GST on service and facility fee", fee.Mul(gstRate))
	total = s.add(KeyTotalServiceFee, "Total service and facility fee", fee.Add(gst))
	return gst, total
}

// grossResult fills the BAS mapping shared by the gross family: patient fees
// are the dentist's GST-free sales and the service fee is a purchase.
func grossResult(method string, s sheet, remitted, refund, purchases decimal.Decimal) Result {
	return Result{
		Method:         method,
		Lines:          s.lines,
		DentistPayable: remitted,
		BASRefund:      refund,
		BasG11:         purchases,
		Bas1B:          refund,
	}
}

func calculateGrossBasic(m arrangement.GrossBasic, in Input) Result {
	var s sheet
	s.add(KeyGrossPatientFee, "Gross patient fee", in.GrossPatientFee)
	s.add(KeyLabFee, "Lab fee", in.LabFee)
	netFee := s.add(KeyNetFee, "Net fee", in.GrossPatientFee.Sub(in.LabFee))
	gst, total := serviceFees(&s, netFee, m.ServiceFee, m.ServiceGST)
	remitted := s.add(KeyRemittedToDentist, "Remitted to dentist", netFee.Sub(total))

	r := grossResult(m.Name(), s, remitted, gst, total)
	r.BasG1 = in.GrossPatientFee
	r.BasG3 = in.GrossPatientFee
	return r
}

// calculateGrossLabGST derives GST on the lab fee from configuration; any
// entered gstOnLabFee is ignored.
func calculateGrossLabGST(m arrangement.GrossLabGST, in Input) Result {
	var s sheet
	s.add(KeyGrossPatientFee, "Gross patient fee", in.GrossPatientFee)
	s.add(KeyLabFee, "Lab fee", in.LabFee)
	netFee := s.add(KeyNetFee, "Net fee", in.GrossPatientFee.Sub(in.LabFee))
	gst, total := serviceFees(&s, netFee, m.ServiceFee, m.ServiceGST)
	labGST := s.add(KeyGSTOnLabFee, "GST on lab fee", in.LabFee.Mul(m.LabGST))
	remitted := s.add(KeyRemittedToDentist, "Remitted to dentist", netFee.Sub(total).Sub(labGST))

	r := grossResult(m.Name(), s, remitted, gst.Add(labGST), total)
	r.BasG1 = in.GrossPatientFee
	r.BasG3 = in.GrossPatientFee
	return r
}

func calculateGrossMerchantBank(m arrangement.GrossMerchantBank, in Input) Result {
	var s sheet
	s.add(KeyGrossPatientFee, "Gross patient fee", in.GrossPatientFee)
	s.add(KeyLabFee, "Lab fee", in.LabFee)
	netFee := s.add(KeyNetFee, "Net fee", in.GrossPatientFee.Sub(in.LabFee))
	gst, total := serviceFees(&s, netFee, m.ServiceFee, m.ServiceGST)
	merchant := s.add(KeyMerchantFeeWithGST, "Merchant fee including GST", in.MerchantFeeWithGST)
	merchantGST := s.add(KeyMerchantGSTComponent, "GST component of merchant fee", InclusiveGST(merchant, m.GST))
	bank := s.add(KeyBankFee, "Bank fee", in.BankFee)
	remitted := s.add(KeyRemittedToDentist, "Remitted to dentist", netFee.Sub(total).Sub(merchant).Sub(bank))

	r := grossResult(m.Name(), s, remitted, gst.Add(merchantGST), total.Add(merchant).Add(bank))
	r.BasG1 = in.GrossPatientFee
	r.BasG3 = in.GrossPatientFee
	return r
}

// calculateGrossPatientGST backs patient GST out of the fee first. The lab fee
// is added back to the remittance because the dentist pays the lab.
func calculateGrossPatientGST(m arrangement.GrossPatientGST, in Input) Result {
	var s sheet
	s.add(KeyGrossPatientFee, "Gross patient fee", in.GrossPatientFee)
	patientGST := s.add(KeyGSTOnPatientFee, "GST on patient fee", in.GSTOnPatientFee)
	exGST := s.add(KeyPatientFeeExGST, "Patient fee excluding GST", in.GrossPatientFee.Sub(patientGST))
	s.add(KeyLabFee, "Lab fee", in.LabFee)
	netFee := s.add(KeyNetFee, "Net fee", exGST.Sub(in.LabFee))
	gst, total := serviceFees(&s, netFee, m.ServiceFee, m.ServiceGST)
	remitted := s.add(KeyRemittedToDentist, "Remitted to dentist", netFee.Sub(total).Add(in.LabFee))

	r := grossResult(m.Name(), s, remitted, gst, total)
	r.BasG1 = in.GrossPatientFee
	r.Bas1A = patientGST
	r.BasG3 = exGST
	return r
}

// calculateGrossOutwork levies the service fee and an outwork charge (at the
// GST rate) on the post-outwork fee, then applies GST again to their sum.
func calculateGrossOutwork(m arrangement.GrossOutwork, in Input) Result {
	var s sheet
	s.add(KeyGrossPatientFee, "Gross patient fee", in.GrossPatientFee)
	s.add(KeyLabFee, "Lab fee", in.LabFee)
	s.add(KeyMerchantFeeCost, "Merchant fee cost", in.MerchantFeeCost)
	labGST := s.add(KeyGSTOnLabFee, "GST on lab fee", in.LabFee.Mul(m.LabGST))
	outwork := s.add(KeyOutworkCost, "Outwork cost", in.LabFee.Add(in.MerchantFeeCost).Add(labGST))
	netFee := s.add(KeyNetFee, "Net fee after outwork", in.GrossPatientFee.Sub(outwork))
	fee := s.add(KeyServiceFee, "Service and facility fee", netFee.Mul(m.ServiceFee))
	charge := s.add(KeyOutworkCharge, "Outwork charge", netFee.Mul(m.GST))
	subtotal := s.add(KeyServiceSubtotal, "Service subtotal", fee.Add(charge))
	gst := s.add(KeyGSTOnServiceSubtotal, "GST on service subtotal", subtotal.Mul(m.ServiceGST))
	total := s.add(KeyTotalServiceFee, "Total service and facility fee", subtotal.Add(gst))
	remitted := s.add(KeyRemittedToDentist, "Remitted to dentist", netFee.Sub(total))

	r := grossResult(m.Name(), s, remitted, gst, total)
	r.BasG1 = in.GrossPatientFee
	r.BasG3 = in.GrossPatientFee
	return r
}

// InclusiveGST extracts the GST component from a GST-inclusive amount. A zero
// or negative rate yields zero rather than dividing.
func InclusiveGST(amount, rate decimal.Decimal) decimal.Decimal {
	if rate.Sign() <= 0 {
		return decimal.Zero
	}
	return amount.Mul(rate).Div(one.Add(rate))
}
