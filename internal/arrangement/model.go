package arrangement

// PayBy identifies who settles the laboratory invoice.
type PayBy string

const (
	PayByClinic  PayBy = "clinic"
	PayByDentist PayBy = "dentist"
)

// GrossVariant enumerates the gross method options a clinic can select.
type GrossVariant string

const (
	VariantBasic        GrossVariant = "basic"
	VariantLabGST       GrossVariant = "labGst"
	VariantMerchantBank GrossVariant = "merchantBank"
	VariantPatientGST   GrossVariant = "patientGst"
	VariantOutwork      GrossVariant = "outwork"
)

// FinancialArrangement is a clinic's calculation configuration as stored by the
// records layer. Percentages are 0-100 numbers.
type FinancialArrangement struct {
	CommissionSplitting CommissionSplitting `json:"commissionSplitting"`
	LabFee              LabFee              `json:"labFee"`
	NetMethod           NetMethod           `json:"netMethod"`
	GrossMethod         GrossMethod         `json:"grossMethod"`
}

// CommissionSplitting holds the headline commission and GST settings.
type CommissionSplitting struct {
	CommissionPercent float64 `json:"commissionPercent" validate:"gte=0,lte=100"`
	GSTOnCommission   bool    `json:"gstOnCommission"`
	GSTPercent        float64 `json:"gstPercent" validate:"gte=0,lte=100"`
}

// LabFee describes laboratory fee handling.
type LabFee struct {
	Enabled bool  `json:"enabled"`
	PayBy   PayBy `json:"payBy" validate:"omitempty,oneof=clinic dentist"`
}

// NetMethod configures the contractor (net) family.
type NetMethod struct {
	Enabled               bool    `json:"enabled"`
	WithSuperHolding      bool    `json:"withSuperHolding"`
	SuperComponentPercent float64 `json:"superComponentPercent" validate:"gte=0,lte=100"`
}

// GrossMethod configures the service-and-facility (gross) family.
type GrossMethod struct {
	Enabled                        bool         `json:"enabled"`
	SelectedMethod                 GrossVariant `json:"selectedMethod" validate:"omitempty,oneof=basic labGst merchantBank patientGst outwork"`
	ServiceFacilityFee             float64      `json:"serviceFacilityFee" validate:"gte=0,lte=100"`
	GSTOnServiceFacilityFee        bool         `json:"gstOnServiceFacilityFee"`
	GSTOnServiceFacilityFeePercent float64      `json:"gstOnServiceFacilityFeePercent" validate:"gte=0,lte=100"`
	GSTLabFeePercent               float64      `json:"gstLabFeePercent" validate:"gte=0,lte=100"`
	MerchantBankFeeWithGST         bool         `json:"merchantBankFeeWithGst"`
	GSTPatientFeePercent           float64      `json:"gstPatientFeePercent" validate:"gte=0,lte=100"`
	LabFeeChargePercent            float64      `json:"labFeeChargePercent" validate:"gte=0,lte=100"`
}

// LabPaidByClinic reports whether the clinic settles lab invoices, which
// removes the lab fee from the net-method fee base.
func (a FinancialArrangement) LabPaidByClinic() bool {
	return a.LabFee.PayBy == PayByClinic
}
