package arrangement

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/clinicbooks/clinicbooks/testing"
)

func netArrangement(withSuper bool) FinancialArrangement {
	return FinancialArrangement{
		CommissionSplitting: CommissionSplitting{CommissionPercent: 40, GSTOnCommission: true, GSTPercent: 10},
		LabFee:              LabFee{Enabled: true, PayBy: PayByClinic},
		NetMethod:           NetMethod{Enabled: true, WithSuperHolding: withSuper},
	}
}

func grossArrangement(variant GrossVariant) FinancialArrangement {
	return FinancialArrangement{
		CommissionSplitting: CommissionSplitting{CommissionPercent: 40, GSTPercent: 10},
		LabFee:              LabFee{Enabled: true, PayBy: PayByDentist},
		GrossMethod:         GrossMethod{Enabled: true, SelectedMethod: variant, GSTLabFeePercent: 10},
	}
}

func TestSelectNetFamily(t *testing.T) {
	m, err := Select(netArrangement(false))
	require.NoError(t, err)
	net, ok := m.(NetWithoutSuper)
	require.True(t, ok, "expected NetWithoutSuper got %T", m)
	assert.True(t, net.Commission.Equal(decimal.RequireFromString("0.4")))
	assert.True(t, net.GST.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, net.LabPaidByClinic)

	m, err = Select(netArrangement(true))
	require.NoError(t, err)
	super, ok := m.(NetWithSuper)
	require.True(t, ok, "expected NetWithSuper got %T", m)
	assert.True(t, super.Super.Equal(decimal.RequireFromString("0.12")))
}

func TestSelectNetIgnoresGrossVariant(t *testing.T) {
	a := netArrangement(false)
	a.GrossMethod.SelectedMethod = "bogus"
	m, err := Select(a)
	require.NoError(t, err)
	assert.Equal(t, NameNet, m.Name())
}

func TestSelectGrossVariants(t *testing.T) {
	cases := map[GrossVariant]string{
		VariantBasic:        NameGrossBasic,
		VariantLabGST:       NameGrossLabGST,
		VariantMerchantBank: NameGrossMerchantBank,
		VariantPatientGST:   NameGrossPatientGST,
		VariantOutwork:      NameGrossOutwork,
	}
	for variant, name := range cases {
		m, err := Select(grossArrangement(variant))
		require.NoError(t, err, variant)
		assert.Equal(t, name, m.Name())
	}
}

func TestSelectUnknownVariant(t *testing.T) {
	_, err := Select(grossArrangement("cash"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMethod))

	_, err = Select(grossArrangement(""))
	assert.True(t, errors.Is(err, ErrUnknownMethod))
}

func TestServiceGSTFallsBackToGeneralRate(t *testing.T) {
	a := grossArrangement(VariantBasic)
	assert.True(t, a.ServiceGSTFraction().Equal(decimal.RequireFromString("0.1")))

	a.GrossMethod.GSTOnServiceFacilityFeePercent = 15
	assert.True(t, a.ServiceGSTFraction().Equal(decimal.RequireFromString("0.15")))
}

func TestLabGSTOnlyForMatchingVariant(t *testing.T) {
	a := grossArrangement(VariantLabGST)
	assert.True(t, a.labGSTFraction(VariantLabGST).Equal(decimal.RequireFromString("0.1")))
	assert.True(t, a.labGSTFraction(VariantOutwork).IsZero())

	m, err := Select(grossArrangement(VariantOutwork))
	require.NoError(t, err)
	assert.True(t, m.(GrossOutwork).LabGST.Equal(decimal.RequireFromString("0.1")))
}

func TestSuperPercentOverride(t *testing.T) {
	a := netArrangement(true)
	a.NetMethod.SuperComponentPercent = 11.5
	m, err := Select(a)
	require.NoError(t, err)
	assert.True(t, m.(NetWithSuper).Super.Equal(decimal.RequireFromString("0.115")))
}

func TestRequiredFields(t *testing.T) {
	m, err := Select(grossArrangement(VariantMerchantBank))
	require.NoError(t, err)
	assert.Equal(t, []string{FieldGrossPatientFee, FieldLabFee, FieldMerchantFeeWithGST, FieldBankFee}, m.RequiredFields())

	m, err = Select(grossArrangement(VariantLabGST))
	require.NoError(t, err)
	assert.NotContains(t, m.RequiredFields(), FieldGSTOnLabFee)
}

func TestArrangementJSONFieldNames(t *testing.T) {
	raw := `{
		"commissionSplitting": {"commissionPercent": 40, "gstOnCommission": false, "gstPercent": 10},
		"labFee": {"enabled": true, "payBy": "dentist"},
		"netMethod": {"enabled": false, "withSuperHolding": false, "superComponentPercent": 0},
		"grossMethod": {"enabled": true, "selectedMethod": "outwork", "gstLabFeePercent": 10,
			"gstOnServiceFacilityFeePercent": 10, "merchantBankFeeWithGst": true}
	}`
	var a FinancialArrangement
	require.NoError(t, json.Unmarshal([]byte(raw), &a))
	assert.Equal(t, VariantOutwork, a.GrossMethod.SelectedMethod)
	assert.Equal(t, PayByDentist, a.LabFee.PayBy)
	assert.True(t, a.GrossMethod.MerchantBankFeeWithGST)
	require.NoError(t, a.Validate())
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	a := grossArrangement(VariantBasic)
	a.CommissionSplitting.CommissionPercent = 140
	err := a.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArrangement))
	assert.Contains(t, err.Error(), "CommissionPercent")

	a = grossArrangement("cash")
	assert.Error(t, a.Validate())

	a = grossArrangement("")
	assert.Error(t, a.Validate())
}

func TestFractionNonFinite(t *testing.T) {
	assert.True(t, Fraction(math.NaN()).IsZero())
	assert.True(t, Fraction(math.Inf(1)).IsZero())
}
