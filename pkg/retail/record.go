package retail

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is one line item as read from the source file. Nullable source
// fields keep their null state so cleaning can filter on it.
type RawRecord struct {
	// Line is the 1-based line in the source file (the header is line 1).
	Line int

	InvoiceNo   string
	StockCode   string
	Description *string // nil when the cell is null
	Quantity    sql.NullInt64
	InvoiceDate string // unparsed; cleaning turns it into a timestamp
	Price       decimal.NullDecimal
	CustomerID  decimal.NullDecimal
	Country     string

	// Extra holds cells of columns outside RequiredColumns, keyed by column name.
	Extra map[string]string
}

// RawDataset is the file as loaded: the header as read and every record in
// file order.
type RawDataset struct {
	Columns []string
	Records []RawRecord
}

// Len returns the number of records.
func (d *RawDataset) Len() int {
	return len(d.Records)
}

// Record is a cleaned line item with its derived fields.
type Record struct {
	// Index is the 0-based position in the cleaned dataset.
	Index int

	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    int64
	InvoiceDate time.Time
	Price       decimal.Decimal
	CustomerID  int64
	Country     string

	TotalPrice   decimal.Decimal
	InvoiceYear  int
	InvoiceMonth int
	YearMonth    YearMonth
	InvoiceWeek  int
	InvoiceDay   string

	Extra map[string]string
}

// Dataset is the cleaned table. Columns is the output header: the source
// header followed by the derived columns.
type Dataset struct {
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}
