package retail

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
)

// ReadCleaned reads a file written by Save (CSV, UTF-8) back into a
// Dataset, parsing derived columns instead of recomputing them.
func ReadCleaned(path string, delimiter rune) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cleaned file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	if delimiter != 0 {
		cr.Comma = delimiter
	}

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for _, col := range append(append([]string{}, RequiredColumns...), DerivedColumns...) {
		if !slices.Contains(header, col) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	ds := &Dataset{Columns: header}
	for i := 0; ; i++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)

		rec := Record{Index: i}
		for j, col := range header {
			if err := setCell(&rec, col, row[j]); err != nil {
				return nil, &ParseError{Line: line, Column: col, Value: row[j], Err: err}
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

func setCell(r *Record, col, v string) error {
	var err error
	switch col {
	case ColInvoiceNo:
		r.InvoiceNo = v
	case ColStockCode:
		r.StockCode = v
	case ColDescription:
		r.Description = v
	case ColQuantity:
		r.Quantity, err = strconv.ParseInt(v, 10, 64)
	case ColInvoiceDate:
		r.InvoiceDate, err = ParseTimestamp(v)
	case ColPrice:
		r.Price, err = decimal.NewFromString(v)
	case ColCustomerID:
		r.CustomerID, err = strconv.ParseInt(v, 10, 64)
	case ColCountry:
		r.Country = v
	case ColTotalPrice:
		r.TotalPrice, err = decimal.NewFromString(v)
	case ColInvoiceYear:
		r.InvoiceYear, err = strconv.Atoi(v)
	case ColInvoiceMonth:
		r.InvoiceMonth, err = strconv.Atoi(v)
	case ColYearMonth:
		r.YearMonth, err = ParseYearMonth(v)
	case ColInvoiceWeek:
		r.InvoiceWeek, err = strconv.Atoi(v)
	case ColInvoiceDay:
		r.InvoiceDay = v
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[col] = v
	}
	return err
}
