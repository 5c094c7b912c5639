package retail

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// DefaultEncoding is the charset of the raw extract.
const DefaultEncoding = "ISO-8859-1"

// ReadOptions configures how a delimited file is decoded.
type ReadOptions struct {
	// Encoding is an IANA charset name. Empty means DefaultEncoding.
	Encoding string

	// Delimiter separates fields. Zero means ','.
	Delimiter rune
}

func (o ReadOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// Load opens path and reads it with Read. A missing file yields an error
// matching fs.ErrNotExist.
func Load(path string, opts ReadOptions) (*RawDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	ds, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

// Read parses delimited text with a header row into a RawDataset, keeping
// file order and every column. Quantity, Price and Customer ID are typed on
// the way in. Null cells stay null; the first non-null cell that does not
// parse aborts the read with a *ParseError.
func Read(r io.Reader, opts ReadOptions) (*RawDataset, error) {
	dec, err := charsetDecoder(opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.Comma = opts.delimiter()

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty input: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	idx, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	ds := &RawDataset{Columns: header}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)

		rec, err := parseRawRecord(header, idx, row, line)
		if err != nil {
			return nil, err
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// charsetDecoder resolves an IANA charset name.
func charsetDecoder(name string) (*encoding.Decoder, error) {
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc.NewDecoder(), nil
}

func indexColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		if _, dup := idx[col]; !dup {
			idx[col] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRawRecord(header []string, idx map[string]int, row []string, line int) (RawRecord, error) {
	cell := func(col string) string {
		return row[idx[col]]
	}

	rec := RawRecord{
		Line:        line,
		InvoiceNo:   cell(ColInvoiceNo),
		StockCode:   cell(ColStockCode),
		InvoiceDate: cell(ColInvoiceDate),
		Country:     cell(ColCountry),
	}

	if d := cell(ColDescription); !IsNull(d) {
		rec.Description = &d
	}

	if c := cell(ColQuantity); !IsNull(c) {
		q, err := parseInteger(c)
		if err != nil {
			return RawRecord{}, &ParseError{Line: line, Column: ColQuantity, Value: c, Err: err}
		}
		rec.Quantity = sql.NullInt64{Int64: q, Valid: true}
	}

	if c := cell(ColPrice); !IsNull(c) {
		price, err := decimal.NewFromString(strings.TrimSpace(c))
		if err != nil {
			return RawRecord{}, &ParseError{Line: line, Column: ColPrice, Value: c, Err: err}
		}
		rec.Price = decimal.NullDecimal{Decimal: price, Valid: true}
	}

	if c := cell(ColCustomerID); !IsNull(c) {
		id, err := decimal.NewFromString(strings.TrimSpace(c))
		if err != nil {
			return RawRecord{}, &ParseError{Line: line, Column: ColCustomerID, Value: c, Err: err}
		}
		rec.CustomerID = decimal.NullDecimal{Decimal: id, Valid: true}
	}

	for i, col := range header {
		if IsRequired(col) {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra[col] = row[i]
	}
	return rec, nil
}

// parseInteger accepts plain integers and whole-valued decimals such as "3.0".
func parseInteger(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, errors.New("not a whole number")
	}
	return d.IntPart(), nil
}
