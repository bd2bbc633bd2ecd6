package bas

import (
	"github.com/shopspring/decimal"

	"github.com/clinicbooks/clinicbooks/internal/ledger"
)

// BAS field codes.
const (
	CodeG1  = "G1"
	CodeG3  = "G3"
	CodeG10 = "G10"
	CodeG11 = "G11"
	Code1A  = "1A"
	Code1B  = "1B"
)

// Bucket totals one income category.
type Bucket struct {
	Gross   decimal.Decimal `json:"gross"`
	GST     decimal.Decimal `json:"gst"`
	Net     decimal.Decimal `json:"net"`
	BasCode string          `json:"basCode"`
}

// EntityBucket totals one expense entity after business-use scaling.
type EntityBucket struct {
	Gross       decimal.Decimal `json:"gross"`
	GST         decimal.Decimal `json:"gst"`
	Net         decimal.Decimal `json:"net"`
	BasCode     string          `json:"basCode"`
	BusinessUse float64         `json:"businessUse"`
}

// Totals is the quarter's GST position.
type Totals struct {
	TotalIncome    decimal.Decimal `json:"totalIncome"`
	TotalExpenses  decimal.Decimal `json:"totalExpenses"`
	GSTPayable     decimal.Decimal `json:"gstPayable"`
	GSTRefund      decimal.Decimal `json:"gstRefund"`
	NetGSTPosition decimal.Decimal `json:"netGstPosition"`
}

// Fields are the statement lines lodged with the tax office.
type Fields struct {
	G1  decimal.Decimal `json:"G1"`
	G3  decimal.Decimal `json:"G3"`
	G10 decimal.Decimal `json:"G10"`
	G11 decimal.Decimal `json:"G11"`
	A1  decimal.Decimal `json:"1A"`
	B1  decimal.Decimal `json:"1B"`
}

// Report is a quarter's BAS summary.
type Report struct {
	ClinicID        string                  `json:"clinicId,omitempty"`
	Quarter         string                  `json:"quarter"`
	Year            int                     `json:"year"`
	Period          Period                  `json:"period"`
	Income          map[string]Bucket       `json:"income"`
	ExpenseEntities map[string]EntityBucket `json:"expenseEntities"`
	Totals          Totals                  `json:"totals"`
	BASFields       Fields                  `json:"basFields"`
	IncomeCount     int                     `json:"incomeCount"`
	ExpenseCount    int                     `json:"expenseCount"`
}

var hundred = decimal.NewFromInt(100)

// GenerateReport aggregates the log into a quarter summary. It reads the
// records without modifying them and returns the same totals for the same input.
func GenerateReport(q Quarter, year int, cfg CategoryConfig, income []ledger.IncomeRecord, expenses []ledger.ExpenseRecord) (Report, error) {
	period, err := ResolveQuarter(q, year, cfg.FinancialYearStart())
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Quarter:         q.String(),
		Year:            year,
		Period:          period,
		Income:          make(map[string]Bucket),
		ExpenseEntities: make(map[string]EntityBucket),
	}

	incomeIn := filterIncome(period, income)
	expensesIn := filterExpenses(period, expenses)
	report.IncomeCount = len(incomeIn)
	report.ExpenseCount = len(expensesIn)

	var (
		categoryGross, categoryGST decimal.Decimal
		totalGross, totalGST       decimal.Decimal
		gstFreeGross               decimal.Decimal
		hasTotal                   bool
	)
	for key, cat := range cfg.IncomeCategories {
		if !cat.Enabled {
			continue
		}
		kind := classifyCategory(key)
		bucket := Bucket{BasCode: cat.BasCode}
		for _, rec := range incomeIn {
			amounts, _ := rec.BASAmounts()
			switch kind {
			case kindGSTFree:
				if !rec.IsGSTFree() {
					continue
				}
			case kindGST:
				if rec.IsGSTFree() {
					continue
				}
			case kindTotal:
			default:
				continue
			}
			bucket.Gross = bucket.Gross.Add(amounts.Gross)
			bucket.GST = bucket.GST.Add(amounts.GST)
			bucket.Net = bucket.Net.Add(amounts.Net)
		}
		report.Income[key] = bucket

		switch kind {
		case kindTotal:
			hasTotal = true
			totalGross, totalGST = bucket.Gross, bucket.GST
		case kindGSTFree:
			gstFreeGross = gstFreeGross.Add(bucket.Gross)
			fallthrough
		case kindGST:
			categoryGross = categoryGross.Add(bucket.Gross)
			categoryGST = categoryGST.Add(bucket.GST)
		}
	}
	incomeGross, incomeGST := categoryGross, categoryGST
	if hasTotal {
		incomeGross, incomeGST = totalGross, totalGST
	}

	var expenseGross, expenseGST, g10, g11 decimal.Decimal
	for id, entity := range cfg.ExpenseEntities {
		if !entity.Enabled {
			continue
		}
		percent := entity.businessUsePercent()
		share := decimal.NewFromFloat(percent).Div(hundred)
		bucket := EntityBucket{BasCode: entity.BasCode, BusinessUse: percent}
		for _, rec := range expensesIn {
			if expenseEntityID(rec) != id {
				continue
			}
			amounts, _ := rec.BASAmounts()
			bucket.Gross = bucket.Gross.Add(amounts.Gross.Mul(share))
			bucket.GST = bucket.GST.Add(amounts.GST.Mul(share))
			bucket.Net = bucket.Net.Add(amounts.Net.Mul(share))
		}
		report.ExpenseEntities[id] = bucket

		expenseGross = expenseGross.Add(bucket.Gross)
		expenseGST = expenseGST.Add(bucket.GST)
		if entity.BasCode == CodeG10 {
			g10 = g10.Add(bucket.Gross)
		} else {
			g11 = g11.Add(bucket.Gross)
		}
	}

	position := incomeGST.Sub(expenseGST)
	report.Totals = Totals{
		TotalIncome:    incomeGross,
		TotalExpenses:  expenseGross,
		GSTPayable:     decimal.Max(decimal.Zero, position),
		GSTRefund:      decimal.Max(decimal.Zero, position.Neg()),
		NetGSTPosition: position,
	}
	report.BASFields = Fields{
		G1:  incomeGross,
		G3:  gstFreeGross,
		G10: g10,
		G11: g11,
		A1:  incomeGST,
		B1:  expenseGST,
	}
	return report, nil
}

func filterIncome(p Period, records []ledger.IncomeRecord) []ledger.IncomeRecord {
	var out []ledger.IncomeRecord
	for _, rec := range records {
		if _, ok := rec.BASAmounts(); !ok {
			continue
		}
		day, ok := ledger.ParseEntryDate(rec.EntryDate)
		if !ok || !p.Contains(day) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func filterExpenses(p Period, records []ledger.ExpenseRecord) []ledger.ExpenseRecord {
	var out []ledger.ExpenseRecord
	for _, rec := range records {
		if _, ok := rec.BASAmounts(); !ok {
			continue
		}
		day, ok := ledger.ParseEntryDate(rec.EntryDate)
		if !ok || !p.Contains(day) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// expenseEntityID prefers the record column and falls back to the raw inputs.
func expenseEntityID(rec ledger.ExpenseRecord) string {
	if rec.EntityID != "" {
		return rec.EntityID
	}
	if id, ok := rec.Inputs["entityId"].(string); ok {
		return id
	}
	return ""
}
