package bas

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbooks/clinicbooks/internal/ledger"
	_ "github.com/clinicbooks/clinicbooks/testing"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func income(id, date, gross, gst string) ledger.IncomeRecord {
	return ledger.IncomeRecord{
		ID:        id,
		EntryDate: date,
		Calculations: map[string]decimal.Decimal{
			"basG1": dec(gross),
			"bas1A": dec(gst),
		},
	}
}

func expense(id, entity, date, gross, gst string) ledger.ExpenseRecord {
	return ledger.ExpenseRecord{
		ID:        id,
		EntityID:  entity,
		EntryDate: date,
		Calculations: map[string]decimal.Decimal{
			"totalAmount": dec(gross),
			"gstAmount":   dec(gst),
			"netAmount":   dec(gross).Sub(dec(gst)),
		},
	}
}

func testConfig() CategoryConfig {
	return CategoryConfig{
		IncomeCategories: map[string]IncomeCategory{
			CategoryIncomeGSTFree: {Enabled: true, Label: "GST-free income", BasCode: CodeG3},
			CategoryIncomeGST:     {Enabled: true, Label: "Taxable income", BasCode: CodeG1},
		},
		ExpenseEntities: map[string]ExpenseEntity{
			"rent":  {Enabled: true, BasCode: CodeG11, Name: "Rent"},
			"chair": {Enabled: true, BasCode: CodeG10, Name: "Dental chair"},
		},
		QuarterlySettings: QuarterlySettings{FinancialYearStart: "July", ReportingPeriod: "quarterly"},
	}
}

func TestResolveQuarterJulyYear(t *testing.T) {
	p, err := ResolveQuarter(1, 2024, FYStartJuly)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC), p.End)

	p, err = ResolveQuarter(2, 2024, FYStartJuly)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), p.End)

	p, err = ResolveQuarter(3, 2024, FYStartJuly)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), p.End)

	p, err = ResolveQuarter(4, 2024, FYStartJuly)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), p.End)
}

func TestResolveQuarterCalendarYear(t *testing.T) {
	p, err := ResolveQuarter(1, 2024, FYStartJanuary)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), p.End)

	p, err = ResolveQuarter(4, 2024, FYStartJanuary)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), p.End)

	_, err = ResolveQuarter(5, 2024, FYStartJanuary)
	require.ErrorIs(t, err, ErrInvalidQuarter)
}

func TestParseQuarter(t *testing.T) {
	for in, want := range map[string]Quarter{"Q1": 1, "q2": 2, "3": 3, " Q4 ": 4} {
		got, err := ParseQuarter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "Q0", "Q5", "first"} {
		_, err := ParseQuarter(in)
		assert.ErrorIs(t, err, ErrInvalidQuarter, in)
	}
}

func TestFinancialYearStartDefaultsToJuly(t *testing.T) {
	assert.Equal(t, FYStartJuly, CategoryConfig{}.FinancialYearStart())
	cfg := CategoryConfig{QuarterlySettings: QuarterlySettings{FinancialYearStart: "January"}}
	assert.Equal(t, FYStartJanuary, cfg.FinancialYearStart())
}

func TestGenerateReportBucketsAndNetting(t *testing.T) {
	incomeLog := []ledger.IncomeRecord{
		income("i1", "2024-07-01", "2200", "200"),
		income("i2", "2024-09-30", "1100", "100"),
		income("i3", "2024-08-15", "900", "0"),
		income("outside", "2024-10-01", "5000", "500"),
		income("bad-date", "not-a-date", "5000", "500"),
		{ID: "no-calcs", EntryDate: "2024-08-01"},
	}
	expenseLog := []ledger.ExpenseRecord{
		expense("e1", "rent", "2024-07-10", "660", "60"),
		expense("e2", "chair", "2024-08-10", "242", "22"),
		expense("e3", "unknown", "2024-08-10", "1100", "100"),
		expense("e4", "rent", "2023-07-10", "660", "60"),
	}

	report, err := GenerateReport(1, 2024, testConfig(), incomeLog, expenseLog)
	require.NoError(t, err)

	assert.Equal(t, "Q1", report.Quarter)
	assert.Equal(t, 3, report.IncomeCount)
	assert.Equal(t, 3, report.ExpenseCount)

	taxable := report.Income[CategoryIncomeGST]
	assert.True(t, taxable.Gross.Equal(dec("3300")))
	assert.True(t, taxable.GST.Equal(dec("300")))
	assert.True(t, taxable.Net.Equal(dec("3000")))
	assert.Equal(t, CodeG1, taxable.BasCode)

	free := report.Income[CategoryIncomeGSTFree]
	assert.True(t, free.Gross.Equal(dec("900")))
	assert.True(t, free.GST.IsZero())

	assert.True(t, report.ExpenseEntities["rent"].GST.Equal(dec("60")))
	assert.True(t, report.ExpenseEntities["chair"].GST.Equal(dec("22")))
	assert.NotContains(t, report.ExpenseEntities, "unknown")

	totals := report.Totals
	assert.True(t, totals.TotalIncome.Equal(dec("4200")))
	assert.True(t, totals.TotalExpenses.Equal(dec("902")))
	assert.True(t, totals.NetGSTPosition.Equal(dec("218")))
	assert.True(t, totals.GSTPayable.Equal(dec("218")))
	assert.True(t, totals.GSTRefund.IsZero())

	fields := report.BASFields
	assert.True(t, fields.G1.Equal(dec("4200")))
	assert.True(t, fields.G3.Equal(dec("900")))
	assert.True(t, fields.G10.Equal(dec("242")))
	assert.True(t, fields.G11.Equal(dec("660")))
	assert.True(t, fields.A1.Equal(dec("300")))
	assert.True(t, fields.B1.Equal(dec("82")))
}

func TestGenerateReportRefundPosition(t *testing.T) {
	report, err := GenerateReport(1, 2024, testConfig(),
		[]ledger.IncomeRecord{income("i1", "2024-07-01", "110", "10")},
		[]ledger.ExpenseRecord{expense("e1", "rent", "2024-07-02", "550", "50")})
	require.NoError(t, err)
	assert.True(t, report.Totals.NetGSTPosition.Equal(dec("-40")))
	assert.True(t, report.Totals.GSTPayable.IsZero())
	assert.True(t, report.Totals.GSTRefund.Equal(dec("40")))
}

func TestTotalIncomeReplacesCategorySum(t *testing.T) {
	cfg := testConfig()
	cfg.IncomeCategories[CategoryTotalIncome] = IncomeCategory{Enabled: true, BasCode: CodeG1}
	incomeLog := []ledger.IncomeRecord{
		income("i1", "2024-07-01", "2200", "200"),
		income("i2", "2024-08-15", "900", "0"),
	}

	report, err := GenerateReport(1, 2024, cfg, incomeLog, nil)
	require.NoError(t, err)
	assert.True(t, report.Income[CategoryTotalIncome].Gross.Equal(dec("3100")))
	assert.True(t, report.Totals.TotalIncome.Equal(dec("3100")), report.Totals.TotalIncome.String())
	assert.True(t, report.BASFields.A1.Equal(dec("200")))
}

func TestDisabledCategoriesAreIgnored(t *testing.T) {
	cfg := testConfig()
	cfg.IncomeCategories[CategoryIncomeGSTFree] = IncomeCategory{Enabled: false}
	cfg.ExpenseEntities["chair"] = ExpenseEntity{Enabled: false, BasCode: CodeG10}

	report, err := GenerateReport(1, 2024, cfg,
		[]ledger.IncomeRecord{income("i1", "2024-08-15", "900", "0")},
		[]ledger.ExpenseRecord{expense("e1", "chair", "2024-08-10", "242", "22")})
	require.NoError(t, err)
	assert.NotContains(t, report.Income, CategoryIncomeGSTFree)
	assert.NotContains(t, report.ExpenseEntities, "chair")
	assert.True(t, report.Totals.TotalIncome.IsZero())
	assert.True(t, report.Totals.TotalExpenses.IsZero())
}

func TestBusinessUseScaling(t *testing.T) {
	cfg := testConfig()
	cfg.ExpenseEntities["car"] = ExpenseEntity{Enabled: true, BasCode: CodeG11, BusinessUse: 80}

	report, err := GenerateReport(1, 2024, cfg, nil,
		[]ledger.ExpenseRecord{expense("e1", "car", "2024-07-20", "550", "50")})
	require.NoError(t, err)

	car := report.ExpenseEntities["car"]
	assert.True(t, car.Gross.Equal(dec("440")), car.Gross.String())
	assert.True(t, car.GST.Equal(dec("40")), car.GST.String())
	assert.True(t, car.Net.Equal(dec("400")), car.Net.String())
	assert.Equal(t, 80.0, car.BusinessUse)
	assert.Equal(t, 100.0, report.ExpenseEntities["rent"].BusinessUse)
}

func TestExpenseMatchesEntityFromInputs(t *testing.T) {
	rec := expense("e1", "", "2024-07-20", "110", "10")
	rec.Inputs = map[string]any{"entityId": "rent"}

	report, err := GenerateReport(1, 2024, testConfig(), nil, []ledger.ExpenseRecord{rec})
	require.NoError(t, err)
	assert.True(t, report.ExpenseEntities["rent"].Gross.Equal(dec("110")))
}

func TestGSTFreeFlagForcesGSTFreeBucket(t *testing.T) {
	rec := income("i1", "2024-07-05", "500", "45")
	rec.GSTFree = true

	report, err := GenerateReport(1, 2024, testConfig(), []ledger.IncomeRecord{rec}, nil)
	require.NoError(t, err)
	assert.True(t, report.Income[CategoryIncomeGSTFree].Gross.Equal(dec("500")))
	assert.True(t, report.Income[CategoryIncomeGST].Gross.IsZero())
}

func TestGenerateReportIsIdempotent(t *testing.T) {
	incomeLog := []ledger.IncomeRecord{
		income("i1", "2025-01-03", "1234.56", "112.23"),
		income("i2", "2025-02-11", "99.99", "0"),
	}
	expenseLog := []ledger.ExpenseRecord{expense("e1", "rent", "2025-03-31", "333.33", "30.30")}

	first, err := GenerateReport(3, 2024, testConfig(), incomeLog, expenseLog)
	require.NoError(t, err)
	second, err := GenerateReport(3, 2024, testConfig(), incomeLog, expenseLog)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
	assert.Equal(t, 2, first.IncomeCount)
	assert.Equal(t, "2025-01-01", first.Period.Start.Format(ledger.DateLayout))
}

func TestReportJSONRoundTripsPeriod(t *testing.T) {
	report, err := GenerateReport(2, 2024, testConfig(), nil, nil)
	require.NoError(t, err)
	payload, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"period":{"end":"2024-12-31","start":"2024-10-01"}`)
	assert.Contains(t, string(payload), `"basFields"`)

	var back Report
	require.NoError(t, json.Unmarshal(payload, &back))
	assert.Equal(t, report.Period, back.Period)
}

func TestCategoryConfigValidate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	bad := testConfig()
	bad.ExpenseEntities["car"] = ExpenseEntity{Enabled: true, BusinessUse: 120}
	require.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = testConfig()
	bad.QuarterlySettings.FinancialYearStart = "march"
	require.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
}
