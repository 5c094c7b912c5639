package cleaner

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/jmylchreest/retailprep/pkg/retail"
)

// Step names, in default order.
const (
	StepDropMissingDescription = "drop-missing-description"
	StepParseInvoiceDate       = "parse-invoice-date"
	StepPositiveQuantity       = "positive-quantity"
	StepPositivePrice          = "positive-price"
	StepDropMissingCustomer    = "drop-missing-customer"
	StepCastCustomerID         = "cast-customer-id"
	StepTotalPrice             = "total-price"
	StepYearMonthParts         = "year-month-parts"
	StepYearMonthPeriod        = "year-month-period"
	StepISOWeek                = "iso-week"
	StepWeekdayName            = "weekday-name"
	StepStripDescription       = "strip-description"
	StepResetIndex             = "reset-index"
)

// DefaultSteps returns the cleaning chain for the retail extract.
func DefaultSteps(cfg *Config) []Step {
	return []Step{
		DropMissingDescription(cfg.BlankDescriptionIsMissing),
		ParseInvoiceDate(cfg.location()),
		PositiveQuantity(),
		PositivePrice(),
		DropMissingCustomer(),
		CastCustomerID(),
		TotalPrice(),
		YearMonthParts(),
		YearMonthPeriod(),
		ISOWeek(),
		WeekdayName(),
		StripDescription(),
		ResetIndex(),
	}
}

type stepFunc struct {
	name  string
	apply func(*Frame) error
}

func (s stepFunc) Name() string { return s.name }

func (s stepFunc) Apply(f *Frame) error { return s.apply(f) }

func newStep(name string, fn func(*Frame) error) Step {
	return stepFunc{name: name, apply: fn}
}

func filterStep(name string, keep func(*Row) bool) Step {
	return newStep(name, func(f *Frame) error {
		f.Filter(keep)
		return nil
	})
}

func deriveStep(name string, fn func(*Row)) Step {
	return newStep(name, func(f *Frame) error {
		for _, r := range f.Rows {
			fn(r)
		}
		return nil
	})
}

// DropMissingDescription drops rows whose Description is null, and also
// whitespace-only ones when blankIsMissing is set.
func DropMissingDescription(blankIsMissing bool) Step {
	return filterStep(StepDropMissingDescription, func(r *Row) bool {
		d := r.Raw.Description
		if d == nil {
			return false
		}
		return !blankIsMissing || strings.TrimSpace(*d) != ""
	})
}

// ParseInvoiceDate parses every InvoiceDate. A single value that is not
// date-like fails the step with a *DateError.
func ParseInvoiceDate(loc *time.Location) Step {
	return newStep(StepParseInvoiceDate, func(f *Frame) error {
		return f.Each(func(r *Row) error {
			t, err := dateparse.ParseIn(strings.TrimSpace(r.Raw.InvoiceDate), loc)
			if err != nil {
				return &DateError{Line: r.Raw.Line, Value: r.Raw.InvoiceDate, Err: err}
			}
			r.Record.InvoiceDate = t
			return nil
		})
	})
}

// PositiveQuantity keeps rows with Quantity > 0. Returns carry a negative
// quantity and are dropped here, as are rows with no quantity.
func PositiveQuantity() Step {
	return filterStep(StepPositiveQuantity, func(r *Row) bool {
		return r.Raw.Quantity.Valid && r.Record.Quantity > 0
	})
}

// PositivePrice keeps rows with Price > 0. A null price is not positive.
func PositivePrice() Step {
	return filterStep(StepPositivePrice, func(r *Row) bool {
		return r.Raw.Price.Valid && r.Record.Price.IsPositive()
	})
}

// DropMissingCustomer drops rows without a Customer ID.
func DropMissingCustomer() Step {
	return filterStep(StepDropMissingCustomer, func(r *Row) bool {
		return r.Raw.CustomerID.Valid
	})
}

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// errCustomerIDRange is returned for identifiers that do not fit in int64.
var errCustomerIDRange = errors.New("customer id out of int64 range")

// CastCustomerID converts Customer ID to an integer, truncating any
// fractional part toward zero.
func CastCustomerID() Step {
	return newStep(StepCastCustomerID, func(f *Frame) error {
		return f.Each(func(r *Row) error {
			id := r.Raw.CustomerID.Decimal.Truncate(0)
			if id.GreaterThan(maxInt64) || id.LessThan(minInt64) {
				return fmt.Errorf("line %d: %q: %w", r.Raw.Line, r.Raw.CustomerID.Decimal.String(), errCustomerIDRange)
			}
			r.Record.CustomerID = id.IntPart()
			return nil
		})
	})
}

// TotalPrice sets TotalPrice = Quantity * Price without rounding.
func TotalPrice() Step {
	return deriveStep(StepTotalPrice, func(r *Row) {
		r.Record.TotalPrice = decimal.NewFromInt(r.Record.Quantity).Mul(r.Record.Price)
	})
}

// YearMonthParts sets InvoiceYear and InvoiceMonth.
func YearMonthParts() Step {
	return deriveStep(StepYearMonthParts, func(r *Row) {
		r.Record.InvoiceYear = r.Record.InvoiceDate.Year()
		r.Record.InvoiceMonth = int(r.Record.InvoiceDate.Month())
	})
}

// YearMonthPeriod sets YearMonth.
func YearMonthPeriod() Step {
	return deriveStep(StepYearMonthPeriod, func(r *Row) {
		r.Record.YearMonth = retail.YearMonthOf(r.Record.InvoiceDate)
	})
}

// ISOWeek sets InvoiceWeek to the ISO-8601 week number.
func ISOWeek() Step {
	return deriveStep(StepISOWeek, func(r *Row) {
		_, week := r.Record.InvoiceDate.ISOWeek()
		r.Record.InvoiceWeek = week
	})
}

// WeekdayName sets InvoiceDay to the English weekday name.
func WeekdayName() Step {
	return deriveStep(StepWeekdayName, func(r *Row) {
		r.Record.InvoiceDay = r.Record.InvoiceDate.Weekday().String()
	})
}

// StripDescription trims leading and trailing whitespace from Description.
func StripDescription() Step {
	return deriveStep(StepStripDescription, func(r *Row) {
		r.Record.Description = strings.TrimSpace(r.Record.Description)
	})
}

// ResetIndex numbers the remaining rows from 0 in their current order.
func ResetIndex() Step {
	return newStep(StepResetIndex, func(f *Frame) error {
		for i, r := range f.Rows {
			r.Record.Index = i
		}
		return nil
	})
}
