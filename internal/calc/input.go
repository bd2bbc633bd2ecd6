package calc

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clinicbooks/clinicbooks/internal/arrangement"
)

// RawInput carries entered figures as they arrive from the form layer: numbers,
// numeric strings, blanks or nothing at all.
type RawInput map[string]any

// Input is a fully populated set of transaction figures.
type Input struct {
	GrossPatientFee    decimal.Decimal `json:"grossPatientFee"`
	LabFee             decimal.Decimal `json:"labFee"`
	GSTOnLabFee        decimal.Decimal `json:"gstOnLabFee"`
	MerchantFeeWithGST decimal.Decimal `json:"merchantFeeWithGst"`
	BankFee            decimal.Decimal `json:"bankFee"`
	GSTOnPatientFee    decimal.Decimal `json:"gstOnPatientFee"`
	MerchantFeeCost    decimal.Decimal `json:"merchantFeeCost"`
}

// Normalize fills every field, coercing absent or unusable values to zero.
func Normalize(raw RawInput) Input {
	return Input{
		GrossPatientFee:    Coerce(raw[arrangement.FieldGrossPatientFee]),
		LabFee:             Coerce(raw[arrangement.FieldLabFee]),
		GSTOnLabFee:        Coerce(raw[arrangement.FieldGSTOnLabFee]),
		MerchantFeeWithGST: Coerce(raw[arrangement.FieldMerchantFeeWithGST]),
		BankFee:            Coerce(raw[arrangement.FieldBankFee]),
		GSTOnPatientFee:    Coerce(raw[arrangement.FieldGSTOnPatientFee]),
		MerchantFeeCost:    Coerce(raw[arrangement.FieldMerchantFeeCost]),
	}
}

// Raw converts the input back into its stored map form.
func (in Input) Raw() RawInput {
	return RawInput{
		arrangement.FieldGrossPatientFee:    in.GrossPatientFee,
		arrangement.FieldLabFee:             in.LabFee,
		arrangement.FieldGSTOnLabFee:        in.GSTOnLabFee,
		arrangement.FieldMerchantFeeWithGST: in.MerchantFeeWithGST,
		arrangement.FieldBankFee:            in.BankFee,
		arrangement.FieldGSTOnPatientFee:    in.GSTOnPatientFee,
		arrangement.FieldMerchantFeeCost:    in.MerchantFeeCost,
	}
}

// Coerce turns a loosely typed value into a decimal amount. Anything that is
// not a finite number becomes zero.
func Coerce(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case float64:
		return fromFloat(val)
	case float32:
		return fromFloat(float64(val))
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt32(val)
	case int64:
		return decimal.NewFromInt(val)
	case json.Number:
		return fromString(val.String())
	case string:
		return fromString(val)
	default:
		return decimal.Zero
	}
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func fromString(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
