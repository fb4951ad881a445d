package models

import (
	"fmt"
	"time"
)

// JST is the reference timezone for all period boundaries.
var JST = time.FixedZone("Asia/Tokyo", 9*60*60)

const periodLayout = "2006-01"

// Period is a calendar month keyed as "YYYY-MM"
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a "YYYY-MM" key
func ParsePeriod(s string) (Period, error) {
	t, err := time.ParseInLocation(periodLayout, s, JST)
	if err != nil || len(s) != len(periodLayout) {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYY-MM", s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// MustParsePeriod is ParsePeriod for literals; it panics on malformed input.
func MustParsePeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PeriodOf returns the period containing t, evaluated in JST
func PeriodOf(t time.Time) Period {
	local := t.In(JST)
	return Period{Year: local.Year(), Month: local.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether p is the zero period
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Start is 00:00 JST on the first day of the period
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, JST)
}

// End is the exclusive upper bound: 00:00 JST on the first day of the next period
func (p Period) End() time.Time {
	return p.Next().Start()
}

// LastDay is 00:00 JST on the final calendar day of the period.
// Commission rates are resolved against this date.
func (p Period) LastDay() time.Time {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, JST)
}

// Next returns the following period
func (p Period) Next() Period {
	return PeriodOf(time.Date(p.Year, p.Month+1, 1, 0, 0, 0, 0, JST))
}

// Prev returns the preceding period
func (p Period) Prev() Period {
	return PeriodOf(time.Date(p.Year, p.Month-1, 1, 0, 0, 0, 0, JST))
}

// Before reports whether p is strictly earlier than other
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// MarshalText implements encoding.TextMarshaler
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// CivilDate returns t's calendar date as a comparable yyyymmdd integer,
// read in t's own location. DATE columns scan as UTC midnight, so their
// calendar date is preserved.
func CivilDate(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
