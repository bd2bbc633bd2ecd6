package arrangement

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrUnknownMethod is returned when the arrangement does not map to one of the
// seven calculation methods. Callers treat it as "no result".
var ErrUnknownMethod = errors.New("arrangement: unknown calculation method")

// DefaultSuperPercent is the super loading assumed folded into a commission
// when the arrangement leaves superComponentPercent unset.
const DefaultSuperPercent = 12

var hundred = decimal.NewFromInt(100)

// Method is the closed set of calculation methods. Each variant carries only
// the rates it needs, already converted to fractions.
type Method interface {
	Name() string
	RequiredFields() []string
	method()
}

// NetWithoutSuper pays a commission plus GST on that commission.
type NetWithoutSuper struct {
	Commission      decimal.Decimal
	GST             decimal.Decimal
	LabPaidByClinic bool
}

// NetWithSuper strips a super loading from the commission before applying GST.
type NetWithSuper struct {
	Commission      decimal.Decimal
	GST             decimal.Decimal
	Super           decimal.Decimal
	LabPaidByClinic bool
}

// GrossBasic deducts a service-and-facility fee plus GST from the net fee.
type GrossBasic struct {
	ServiceFee decimal.Decimal
	ServiceGST decimal.Decimal
}

// GrossLabGST is GrossBasic with GST on the lab fee also deducted.
type GrossLabGST struct {
	ServiceFee decimal.Decimal
	ServiceGST decimal.Decimal
	LabGST     decimal.Decimal
}

// GrossMerchantBank also deducts merchant and bank fees.
type GrossMerchantBank struct {
	ServiceFee decimal.Decimal
	ServiceGST decimal.Decimal
	GST        decimal.Decimal
}

// GrossPatientGST handles GST-inclusive patient fees.
type GrossPatientGST struct {
	ServiceFee decimal.Decimal
	ServiceGST decimal.Decimal
}

// GrossOutwork bundles outwork costs and levies an outwork charge.
type GrossOutwork struct {
	ServiceFee decimal.Decimal
	ServiceGST decimal.Decimal
	GST        decimal.Decimal
	LabGST     decimal.Decimal
}

func (NetWithoutSuper) method()   {}
func (NetWithSuper) method()      {}
func (GrossBasic) method()        {}
func (GrossLabGST) method()       {}
func (GrossMerchantBank) method() {}
func (GrossPatientGST) method()   {}
func (GrossOutwork) method()      {}

// Stable method names persisted on transaction records.
const (
	NameNet               = "net"
	NameNetSuper          = "net_super"
	NameGrossBasic        = "gross_basic"
	NameGrossLabGST       = "gross_lab_gst"
	NameGrossMerchantBank = "gross_merchant_bank"
	NameGrossPatientGST   = "gross_patient_gst"
	NameGrossOutwork      = "gross_outwork"
)

func (NetWithoutSuper) Name() string   { return NameNet }
func (NetWithSuper) Name() string      { return NameNetSuper }
func (GrossBasic) Name() string        { return NameGrossBasic }
func (GrossLabGST) Name() string       { return NameGrossLabGST }
func (GrossMerchantBank) Name() string { return NameGrossMerchantBank }
func (GrossPatientGST) Name() string   { return NameGrossPatientGST }
func (GrossOutwork) Name() string      { return NameGrossOutwork }

// Input field keys shared with the calc package and the form layer.
const (
	FieldGrossPatientFee    = "grossPatientFee"
	FieldLabFee             = "labFee"
	FieldGSTOnLabFee        = "gstOnLabFee"
	FieldMerchantFeeWithGST = "merchantFeeWithGst"
	FieldBankFee            = "bankFee"
	FieldGSTOnPatientFee    = "gstOnPatientFee"
	FieldMerchantFeeCost    = "merchantFeeCost"
)

func (NetWithoutSuper) RequiredFields() []string {
	return []string{FieldGrossPatientFee, FieldLabFee}
}

func (NetWithSuper) RequiredFields() []string {
	return []string{FieldGrossPatientFee, FieldLabFee}
}

func (GrossBasic) RequiredFields() []string {
	return []string{FieldGrossPatientFee, FieldLabFee}
}

// RequiredFields omits gstOnLabFee: it is derived from configuration.
func (GrossLabGST) RequiredFields() []string {
	return []string{FieldGrossPatientFee, FieldLabFee}
}

func (GrossMerchantBank) RequiredFields() []string {
	return []string{FieldGrossPatientFee, FieldLabFee, FieldMerchantFeeWithGST, FieldBankFee}
}

func (GrossPatientGST) RequiredFields() []string {
	return []string{FieldGrossPatientFee, FieldLabFee, FieldGSTOnPatientFee}
}

func (GrossOutwork) RequiredFields() []string {
	return []string{FieldGrossPatientFee, FieldLabFee, FieldMerchantFeeCost}
}

// Select maps an arrangement to exactly one calculation method.
func Select(a FinancialArrangement) (Method, error) {
	commission := Fraction(a.CommissionSplitting.CommissionPercent)
	gst := Fraction(a.CommissionSplitting.GSTPercent)

	if a.CommissionSplitting.GSTOnCommission {
		if a.NetMethod.WithSuperHolding {
			return NetWithSuper{
				Commission:      commission,
				GST:             gst,
				Super:           a.superFraction(),
				LabPaidByClinic: a.LabPaidByClinic(),
			}, nil
		}
		return NetWithoutSuper{
			Commission:      commission,
			GST:             gst,
			LabPaidByClinic: a.LabPaidByClinic(),
		}, nil
	}

	serviceGST := a.ServiceGSTFraction()
	variant := a.GrossMethod.SelectedMethod
	switch variant {
	case VariantBasic:
		return GrossBasic{ServiceFee: commission, ServiceGST: serviceGST}, nil
	case VariantLabGST:
		return GrossLabGST{ServiceFee: commission, ServiceGST: serviceGST, LabGST: a.labGSTFraction(VariantLabGST)}, nil
	case VariantMerchantBank:
		return GrossMerchantBank{ServiceFee: commission, ServiceGST: serviceGST, GST: gst}, nil
	case VariantPatientGST:
		return GrossPatientGST{ServiceFee: commission, ServiceGST: serviceGST}, nil
	case VariantOutwork:
		return GrossOutwork{ServiceFee: commission, ServiceGST: serviceGST, GST: gst, LabGST: a.labGSTFraction(VariantOutwork)}, nil
	default:
		return nil, fmt.Errorf("%w: gross variant %q", ErrUnknownMethod, variant)
	}
}

// ServiceGSTFraction returns the GST rate applied to service-and-facility fees,
// falling back to the general GST rate when the specific one is unset.
func (a FinancialArrangement) ServiceGSTFraction() decimal.Decimal {
	if a.GrossMethod.GSTOnServiceFacilityFeePercent > 0 {
		return Fraction(a.GrossMethod.GSTOnServiceFacilityFeePercent)
	}
	return Fraction(a.CommissionSplitting.GSTPercent)
}

// labGSTFraction yields the lab-fee GST rate only when the selected variant is
// exactly the requesting one; any other selection yields zero.
func (a FinancialArrangement) labGSTFraction(requester GrossVariant) decimal.Decimal {
	if a.GrossMethod.SelectedMethod != requester {
		return decimal.Zero
	}
	return Fraction(a.GrossMethod.GSTLabFeePercent)
}

func (a FinancialArrangement) superFraction() decimal.Decimal {
	if a.NetMethod.SuperComponentPercent > 0 {
		return Fraction(a.NetMethod.SuperComponentPercent)
	}
	return Fraction(DefaultSuperPercent)
}

// Fraction converts a 0-100 percentage into a fraction. Non-finite values
// become zero.
func Fraction(percent float64) decimal.Decimal {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(percent).Div(hundred)
}
