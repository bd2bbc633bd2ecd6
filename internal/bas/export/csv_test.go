package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbooks/clinicbooks/internal/bas"
	"github.com/clinicbooks/clinicbooks/internal/ledger"
)

func sampleReport(t *testing.T) bas.Report {
	t.Helper()
	cfg := bas.CategoryConfig{
		IncomeCategories: map[string]bas.IncomeCategory{
			bas.CategoryIncomeGST: {Enabled: true, BasCode: bas.CodeG1},
		},
		ExpenseEntities: map[string]bas.ExpenseEntity{
			"car": {Enabled: true, BasCode: bas.CodeG11, BusinessUse: 80},
		},
	}
	income := []ledger.IncomeRecord{{
		ID: "i1", EntryDate: "2024-07-10",
		Calculations: map[string]decimal.Decimal{"basG1": decimal.NewFromInt(3300), "bas1A": decimal.NewFromInt(300)},
	}}
	expenses := []ledger.ExpenseRecord{{
		ID: "e1", EntityID: "car", EntryDate: "2024-07-11",
		Calculations: map[string]decimal.Decimal{"totalAmount": decimal.NewFromInt(550), "gstAmount": decimal.NewFromInt(50)},
	}}
	report, err := bas.GenerateReport(1, 2024, cfg, income, expenses)
	require.NoError(t, err)
	report.ClinicID = "clinic-1"
	return report
}

func TestWriteReportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReportCSV(&buf, sampleReport(t)))

	reader := csv.NewReader(&buf)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Clinic", "clinic-1"}, rows[0])
	assert.Equal(t, []string{"Quarter", "Q1", "2024"}, rows[1])
	assert.Equal(t, []string{"Period", "2024-07-01", "2024-09-30"}, rows[2])

	byKey := map[string][]string{}
	for _, row := range rows[4:] {
		if len(row) > 1 {
			byKey[row[0]+"/"+row[1]] = row
		}
	}
	assert.Equal(t, []string{"income", "incomeGst", "G1", "3300.00", "300.00", "3000.00", ""}, byKey["income/incomeGst"][:7])
	assert.Equal(t, []string{"expense", "car", "G11", "440.00", "40.00", "400.00", "80"}, byKey["expense/car"][:7])
	assert.Equal(t, "260.00", byKey["total/gstPayable"][3])
	assert.Equal(t, "40.00", byKey["field/1B"][3])
	assert.NotEmpty(t, byKey["expense/car"][7])
}

func TestFormatAUD(t *testing.T) {
	out := FormatAUD(decimal.RequireFromString("1234.5"))
	assert.Contains(t, out, "234.50")
	assert.Contains(t, out, "$")
}
