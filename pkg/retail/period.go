package retail

import (
	"fmt"
	"time"
)

// YearMonth is a calendar month. It is used for monthly grouping and carries
// no day or time of day.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses the YYYY-MM form produced by String.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year-month %q: %w", s, err)
	}
	return YearMonthOf(t), nil
}

// String renders the month as YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}
