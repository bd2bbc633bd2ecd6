package bas

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/clinicbooks/clinicbooks/internal/ledger"
)

// ErrInvalidQuarter indicates a quarter selector outside Q1-Q4.
var ErrInvalidQuarter = errors.New("bas: invalid quarter")

// Quarter is a reporting quarter, 1 through 4.
type Quarter int

// ParseQuarter accepts "Q1".."Q4" (any case) or "1".."4".
func ParseQuarter(s string) (Quarter, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "Q")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuarter, s)
	}
	return Quarter(n), nil
}

// String renders the quarter as "Q1".."Q4".
func (q Quarter) String() string {
	return "Q" + strconv.Itoa(int(q))
}

// Period is an inclusive date range.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether day falls within the period, inclusive.
func (p Period) Contains(day time.Time) bool {
	return !day.Before(p.Start) && !day.After(p.End)
}

func (p Period) String() string {
	return p.Start.Format(ledger.DateLayout) + " to " + p.End.Format(ledger.DateLayout)
}

// MarshalJSON renders the bounds as ISO dates.
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"start": p.Start.Format(ledger.DateLayout),
		"end":   p.End.Format(ledger.DateLayout),
	})
}

// UnmarshalJSON reads ISO date bounds, used when reports come back from cache.
func (p *Period) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, ok := ledger.ParseEntryDate(raw["start"])
	if !ok {
		return fmt.Errorf("bas: period start %q", raw["start"])
	}
	end, ok := ledger.ParseEntryDate(raw["end"])
	if !ok {
		return fmt.Errorf("bas: period end %q", raw["end"])
	}
	p.Start, p.End = start, end
	return nil
}

// ResolveQuarter maps a quarter of the given year to concrete dates. Under the
// July convention Q1 starts in July of year, and Q3/Q4 fall in year+1.
func ResolveQuarter(q Quarter, year int, fyStart string) (Period, error) {
	if q < 1 || q > 4 {
		return Period{}, fmt.Errorf("%w: %d", ErrInvalidQuarter, int(q))
	}
	startMonth := 1 + 3*(int(q)-1)
	if fyStart != FYStartJanuary {
		startMonth += 6
		if startMonth > 12 {
			startMonth -= 12
			year++
		}
	}
	start := time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, -1)
	return Period{Start: start, End: end}, nil
}

// CurrentQuarter returns the quarter and financial-year label containing day.
func CurrentQuarter(day time.Time, fyStart string) (Quarter, int) {
	month := int(day.Month())
	if fyStart == FYStartJanuary {
		return Quarter((month-1)/3 + 1), day.Year()
	}
	if month >= 7 {
		return Quarter((month-7)/3 + 1), day.Year()
	}
	return Quarter((month-1)/3 + 3), day.Year() - 1
}
