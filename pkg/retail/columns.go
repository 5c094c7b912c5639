// Package retail models the online-retail transaction extract and reads and
// writes it as delimited text.
//
// A file is read into a RawDataset (Load, Read), turned into a cleaned
// Dataset by the cleaner package, and written back out with Save or Write.
package retail

import "slices"

// Source columns. The customer identifier keeps the space used by the extract.
const (
	ColInvoiceNo   = "InvoiceNo"
	ColStockCode   = "StockCode"
	ColDescription = "Description"
	ColQuantity    = "Quantity"
	ColInvoiceDate = "InvoiceDate"
	ColPrice       = "Price"
	ColCustomerID  = "Customer ID"
	ColCountry     = "Country"
)

// Derived columns, in the order they are appended to the output header.
const (
	ColTotalPrice   = "TotalPrice"
	ColInvoiceYear  = "InvoiceYear"
	ColInvoiceMonth = "InvoiceMonth"
	ColYearMonth    = "YearMonth"
	ColInvoiceWeek  = "InvoiceWeek"
	ColInvoiceDay   = "InvoiceDay"
)

// RequiredColumns lists the columns every input header must contain.
var RequiredColumns = []string{
	ColInvoiceNo,
	ColStockCode,
	ColDescription,
	ColQuantity,
	ColInvoiceDate,
	ColPrice,
	ColCustomerID,
	ColCountry,
}

// DerivedColumns lists the columns computed during cleaning.
var DerivedColumns = []string{
	ColTotalPrice,
	ColInvoiceYear,
	ColInvoiceMonth,
	ColYearMonth,
	ColInvoiceWeek,
	ColInvoiceDay,
}

// IsRequired reports whether col is one of the source columns.
func IsRequired(col string) bool {
	return slices.Contains(RequiredColumns, col)
}

// IsDerived reports whether col is one of the derived columns.
func IsDerived(col string) bool {
	return slices.Contains(DerivedColumns, col)
}

// OutputColumns returns header followed by every derived column that header
// does not already contain. A header read from a previous output therefore
// maps onto itself.
func OutputColumns(header []string) []string {
	cols := make([]string, 0, len(header)+len(DerivedColumns))
	cols = append(cols, header...)
	for _, c := range DerivedColumns {
		if !slices.Contains(header, c) {
			cols = append(cols, c)
		}
	}
	return cols
}
