// Package export renders BAS reports for download.
package export

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/clinicbooks/clinicbooks/internal/bas"
	"github.com/clinicbooks/clinicbooks/internal/ledger"
)

var (
	australia = language.MustParse("en-AU")
	printer   = message.NewPrinter(australia)
)

// FormatAUD renders an amount with the AUD symbol and digit grouping.
func FormatAUD(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	symbol := printer.Sprint(currency.Symbol(currency.AUD))
	return symbol + printer.Sprintf("%.2f", f)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// WriteReportCSV writes the report as sections of rows. Amount columns use
// plain two-decimal figures; the last column repeats gross for display.
func WriteReportCSV(w io.Writer, report bas.Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := [][]string{
		{"Clinic", report.ClinicID},
		{"Quarter", report.Quarter, strconv.Itoa(report.Year)},
		{"Period", report.Period.Start.Format(ledger.DateLayout), report.Period.End.Format(ledger.DateLayout)},
		{},
		{"Section", "Key", "BAS Code", "Gross", "GST", "Net", "Business Use %", "Gross (AUD)"},
	}
	for _, record := range header {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	for _, key := range sortedKeys(report.Income) {
		b := report.Income[key]
		if err := writer.Write([]string{"income", key, b.BasCode, money(b.Gross), money(b.GST), money(b.Net), "", FormatAUD(b.Gross)}); err != nil {
			return err
		}
	}
	for _, id := range sortedKeys(report.ExpenseEntities) {
		b := report.ExpenseEntities[id]
		use := strconv.FormatFloat(b.BusinessUse, 'f', -1, 64)
		if err := writer.Write([]string{"expense", id, b.BasCode, money(b.Gross), money(b.GST), money(b.Net), use, FormatAUD(b.Gross)}); err != nil {
			return err
		}
	}

	t := report.Totals
	f := report.BASFields
	summary := [][]string{
		{"total", "totalIncome", "", money(t.TotalIncome)},
		{"total", "totalExpenses", "", money(t.TotalExpenses)},
		{"total", "gstPayable", "", money(t.GSTPayable)},
		{"total", "gstRefund", "", money(t.GSTRefund)},
		{"total", "netGstPosition", "", money(t.NetGSTPosition)},
		{"field", bas.CodeG1, bas.CodeG1, money(f.G1)},
		{"field", bas.CodeG3, bas.CodeG3, money(f.G3)},
		{"field", bas.CodeG10, bas.CodeG10, money(f.G10)},
		{"field", bas.CodeG11, bas.CodeG11, money(f.G11)},
		{"field", bas.Code1A, bas.Code1A, money(f.A1)},
		{"field", bas.Code1B, bas.Code1B, money(f.B1)},
	}
	for _, record := range summary {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
