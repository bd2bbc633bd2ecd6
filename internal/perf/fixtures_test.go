package perf

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clinicbooks/clinicbooks/internal/arrangement"
	"github.com/clinicbooks/clinicbooks/internal/bas"
	"github.com/clinicbooks/clinicbooks/internal/calc"
	"github.com/clinicbooks/clinicbooks/internal/ledger"
)

var benchArrangement = arrangement.FinancialArrangement{
	CommissionSplitting: arrangement.CommissionSplitting{CommissionPercent: 40, GSTOnCommission: true, GSTPercent: 10},
	LabFee:              arrangement.LabFee{Enabled: true, PayBy: arrangement.PayByClinic},
}

var benchConfig = bas.CategoryConfig{
	IncomeCategories: map[string]bas.IncomeCategory{
		bas.CategoryIncomeGSTFree: {Enabled: true, BasCode: bas.CodeG1},
		bas.CategoryIncomeGST:     {Enabled: true, BasCode: bas.Code1A},
		bas.CategoryTotalIncome:   {Enabled: true, BasCode: bas.CodeG1},
	},
	ExpenseEntities: map[string]bas.ExpenseEntity{
		"rent":  {Enabled: true, BasCode: bas.CodeG11, BusinessUse: 100},
		"chair": {Enabled: true, BasCode: bas.CodeG10, BusinessUse: 100},
		"car":   {Enabled: true, BasCode: bas.CodeG11, BusinessUse: 70},
	},
	QuarterlySettings: bas.QuarterlySettings{FinancialYearStart: bas.FYStartJuly},
}

// quarterLog builds n income and n/4 expense records spread over Q1 FY2024.
func quarterLog(n int) ([]ledger.IncomeRecord, []ledger.ExpenseRecord) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	income := make([]ledger.IncomeRecord, 0, n)
	for i := 0; i < n; i++ {
		raw := calc.RawInput{"grossPatientFee": 800 + i%900, "labFee": (i % 5) * 40}
		result, err := calc.Calculate(raw, benchArrangement)
		if err != nil {
			panic(err)
		}
		income = append(income, ledger.NewIncomeRecord("bench", start.AddDate(0, 0, i%92), calc.Normalize(raw), benchArrangement, result))
	}
	entities := []string{"rent", "chair", "car"}
	expenses := make([]ledger.ExpenseRecord, 0, n/4)
	for i := 0; i < n/4; i++ {
		breakdown := calc.CalculateExpenseGST(decimal.NewFromInt(int64(110+i%500)), 10)
		expenses = append(expenses, ledger.NewExpenseRecord("bench", entities[i%len(entities)], start.AddDate(0, 0, i%92), 10, breakdown))
	}
	return income, expenses
}

type staticLog struct {
	income   []ledger.IncomeRecord
	expenses []ledger.ExpenseRecord
}

func (s staticLog) ListPeriod(context.Context, string, time.Time, time.Time) ([]ledger.IncomeRecord, []ledger.ExpenseRecord, error) {
	return s.income, s.expenses, nil
}

type staticConfigs struct{}

func (staticConfigs) CategoryConfig(_ context.Context, clinicID string) (bas.CategoryConfig, error) {
	if clinicID == "" {
		return bas.CategoryConfig{}, fmt.Errorf("clinic required")
	}
	return benchConfig, nil
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
