package retail

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// InvoiceDate layouts. Timestamps at UTC offset zero are written without an
// offset; any other offset is kept so the instant survives a re-read.
const (
	TimestampLayout       = "2006-01-02 15:04:05"
	TimestampOffsetLayout = "2006-01-02 15:04:05-07:00"
)

// FormatTimestamp renders t for output.
func FormatTimestamp(t time.Time) string {
	if _, offset := t.Zone(); offset != 0 {
		return t.Format(TimestampOffsetLayout)
	}
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a value written by FormatTimestamp. Values without
// an offset are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(TimestampOffsetLayout, s)
}

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath infers the format from the file extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// SaveOptions configures Save.
type SaveOptions struct {
	// Format selects the file format. Empty means FormatFromPath.
	Format Format

	// Delimiter separates CSV fields. Zero means ','.
	Delimiter rune
}

// Save writes ds to path and returns the absolute path written. The parent
// directory is created when missing. The file is written to a temporary
// name in the same directory and renamed into place, so a failed save
// leaves no partial output.
func Save(ds *Dataset, path string, opts SaveOptions) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	format := opts.Format
	if format == "" {
		format = FormatFromPath(abs)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(abs)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	switch format {
	case FormatCSV:
		err = Write(tmp, ds, opts.Delimiter)
	case FormatXLSX:
		err = WriteXLSX(tmp, ds)
	default:
		err = fmt.Errorf("unsupported output format: %s", format)
	}
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", abs, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", abs, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", abs, err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", fmt.Errorf("write %s: %w", abs, err)
	}
	return abs, nil
}

// Write renders ds as delimited UTF-8 text: a header row from ds.Columns and
// one row per record, without an index column.
func Write(w io.Writer, ds *Dataset, delimiter rune) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	if err := cw.Write(ds.Columns); err != nil {
		return err
	}
	row := make([]string, len(ds.Columns))
	for i := range ds.Records {
		for j, col := range ds.Columns {
			row[j] = FormatCell(&ds.Records[i], col)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatCell renders one column of r as text.
func FormatCell(r *Record, col string) string {
	switch col {
	case ColInvoiceNo:
		return r.InvoiceNo
	case ColStockCode:
		return r.StockCode
	case ColDescription:
		return r.Description
	case ColQuantity:
		return strconv.FormatInt(r.Quantity, 10)
	case ColInvoiceDate:
		return FormatTimestamp(r.InvoiceDate)
	case ColPrice:
		return r.Price.String()
	case ColCustomerID:
		return strconv.FormatInt(r.CustomerID, 10)
	case ColCountry:
		return r.Country
	case ColTotalPrice:
		return r.TotalPrice.String()
	case ColInvoiceYear:
		return strconv.Itoa(r.InvoiceYear)
	case ColInvoiceMonth:
		return strconv.Itoa(r.InvoiceMonth)
	case ColYearMonth:
		return r.YearMonth.String()
	case ColInvoiceWeek:
		return strconv.Itoa(r.InvoiceWeek)
	case ColInvoiceDay:
		return r.InvoiceDay
	default:
		return r.Extra[col]
	}
}
