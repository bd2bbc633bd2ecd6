package calc

import (
	"github.com/shopspring/decimal"

	"github.com/clinicbooks/clinicbooks/internal/arrangement"
)

var one = decimal.NewFromInt(1)

func netFeeBase(in Input, labPaidByClinic bool) decimal.Decimal {
	if labPaidByClinic {
		return in.GrossPatientFee.Sub(in.LabFee)
	}
	return in.GrossPatientFee
}

func calculateNet(m arrangement.NetWithoutSuper, in Input) Result {
	var s sheet
	s.add(KeyGrossPatientFee, "Gross patient fee", in.GrossPatientFee)
	s.add(KeyLabFee, "Lab fee", in.LabFee)
	netFee := s.add(KeyNetFee, "Net fee", netFeeBase(in, m.LabPaidByClinic))
	commission := s.add(KeyCommission, "Commission", netFee.Mul(m.Commission))
	gst := s.add(KeyGSTOnCommission, "GST on commission", commission.Mul(m.GST))
	total := s.add(KeyTotalPayable, "Total payable", commission.Add(gst))

	return Result{
		Method:         m.Name(),
		Lines:          s.lines,
		DentistPayable: total,
		BASRefund:      decimal.Zero,
		BasG1:          total,
		Bas1A:          gst,
	}
}

// calculateNetSuper treats the commission as already loaded with super; the
// super component is paid by the clinic and not deducted from the dentist.
func calculateNetSuper(m arrangement.NetWithSuper, in Input) Result {
	var s sheet
	s.add(KeyGrossPatientFee, "Gross patient fee", in.GrossPatientFee)
	s.add(KeyLabFee, "Lab fee", in.LabFee)
	netFee := s.add(KeyNetFee, "Net fee", netFeeBase(in, m.LabPaidByClinic))
	commission := s.add(KeyCommission, "Commission including super", netFee.Mul(m.Commission))
	component := s.add(KeyCommissionComponent, "Commission component", commission.Div(one.Add(m.Super)))
	s.add(KeySuperComponent, "Super component", component.Mul(m.Super))
	gst := s.add(KeyGSTOnCommission, "GST on commission component", component.Mul(m.GST))
	total := s.add(KeyTotalPayable, "Total payable", component.Add(gst))

	return Result{
		Method:         m.Name(),
		Lines:          s.lines,
		DentistPayable: total,
		BASRefund:      decimal.Zero,
		BasG1:          total,
		Bas1A:          gst,
	}
}
