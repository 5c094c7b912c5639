package retail

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet WriteXLSX puts the table on.
const SheetName = "Transactions"

// WriteXLSX renders ds as a single-sheet workbook with the same header and
// row order as Write. Numeric columns are stored as numbers.
func WriteXLSX(w io.Writer, ds *Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	header := make([]any, len(ds.Columns))
	for i, col := range ds.Columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i := range ds.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]any, len(ds.Columns))
		for j, col := range ds.Columns {
			row[j] = cellValue(&ds.Records[i], col)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

// cellValue is FormatCell with numbers left unformatted.
func cellValue(r *Record, col string) any {
	switch col {
	case ColQuantity:
		return r.Quantity
	case ColPrice:
		return r.Price.InexactFloat64()
	case ColCustomerID:
		return r.CustomerID
	case ColTotalPrice:
		return r.TotalPrice.InexactFloat64()
	case ColInvoiceYear:
		return r.InvoiceYear
	case ColInvoiceMonth:
		return r.InvoiceMonth
	case ColInvoiceWeek:
		return r.InvoiceWeek
	default:
		return FormatCell(r, col)
	}
}
