// Package cleaner turns a raw retail extract into the cleaned dataset.
//
// Cleaning is an ordered chain of named steps over a Frame. Filters drop
// rows, derivations fill in fields of each row's Record, and the final step
// numbers the surviving rows. The order is fixed: later steps rely on
// fields that earlier steps validated.
package cleaner

import (
	"time"

	"github.com/jmylchreest/retailprep/pkg/retail"
)

// Step is one stage of cleaning.
type Step interface {
	// Apply transforms the frame in place.
	Apply(f *Frame) error

	// Name identifies the step in stats and logs.
	Name() string
}

// Row pairs a source record with the cleaned record built from it.
type Row struct {
	Raw    *retail.RawRecord
	Record retail.Record
}

// Frame is the working table steps operate on.
type Frame struct {
	Columns []string
	Rows    []*Row
}

// NewFrame seeds a frame from raw. Fields that need no conversion are copied
// into each Record; derived columns carried over from a previous run are
// dropped from Extra so they are recomputed.
func NewFrame(raw *retail.RawDataset) *Frame {
	f := &Frame{
		Columns: retail.OutputColumns(raw.Columns),
		Rows:    make([]*Row, len(raw.Records)),
	}
	for i := range raw.Records {
		src := &raw.Records[i]
		rec := retail.Record{
			InvoiceNo: src.InvoiceNo,
			StockCode: src.StockCode,
			Quantity:  src.Quantity.Int64,
			Price:     src.Price.Decimal,
			Country:   src.Country,
			Extra:     carryExtra(src.Extra),
		}
		if src.Description != nil {
			rec.Description = *src.Description
		}
		f.Rows[i] = &Row{Raw: src, Record: rec}
	}
	return f
}

func carryExtra(extra map[string]string) map[string]string {
	var out map[string]string
	for k, v := range extra {
		if retail.IsDerived(k) {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(extra))
		}
		out[k] = v
	}
	return out
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Filter keeps the rows for which keep returns true, in order, and returns
// how many were dropped.
func (f *Frame) Filter(keep func(*Row) bool) int {
	kept := f.Rows[:0]
	for _, r := range f.Rows {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	dropped := len(f.Rows) - len(kept)
	clear(f.Rows[len(kept):])
	f.Rows = kept
	return dropped
}

// Each calls fn for every row and stops at the first error.
func (f *Frame) Each(fn func(*Row) error) error {
	for _, r := range f.Rows {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// Dataset returns the cleaned records.
func (f *Frame) Dataset() *retail.Dataset {
	ds := &retail.Dataset{
		Columns: f.Columns,
		Records: make([]retail.Record, len(f.Rows)),
	}
	for i, r := range f.Rows {
		ds.Records[i] = r.Record
	}
	return ds
}

// Cleaner runs the cleaning chain over a raw dataset.
type Cleaner struct {
	config *Config
	chain  *Chain
	stats  *Stats
}

// New creates a Cleaner. If config is nil, DefaultConfig() is used.
func New(config *Config) *Cleaner {
	if config == nil {
		config = DefaultConfig()
	}
	steps := config.Steps
	if len(steps) == 0 {
		steps = DefaultSteps(config)
	}
	return &Cleaner{
		config: config,
		chain:  NewChain(steps...),
	}
}

// Name describes the step chain for logging.
func (c *Cleaner) Name() string {
	return c.chain.Name()
}

// Steps returns the names of the steps in the order they run.
func (c *Cleaner) Steps() []string {
	return c.chain.Names()
}

// Clean returns the cleaned dataset. It does no I/O.
func (c *Cleaner) Clean(raw *retail.RawDataset) (*retail.Dataset, error) {
	result, err := c.CleanWithStats(raw)
	if err != nil {
		return nil, err
	}
	return result.Dataset, nil
}

// CleanWithStats cleans raw and reports what each step did. Any step error
// aborts the whole operation; no partial dataset is returned.
func (c *Cleaner) CleanWithStats(raw *retail.RawDataset) (*Result, error) {
	start := time.Now()
	stats := NewStats()
	stats.InputRows = raw.Len()

	f := NewFrame(raw)
	if err := c.chain.Run(f, stats); err != nil {
		return nil, err
	}

	stats.OutputRows = f.Len()
	stats.TotalDuration = time.Since(start)
	c.stats = stats

	return &Result{
		Dataset: f.Dataset(),
		Stats:   stats,
	}, nil
}

// Stats returns the stats from the last successful Clean.
func (c *Cleaner) Stats() *Stats {
	return c.stats
}

// Clean cleans raw with the default configuration.
func Clean(raw *retail.RawDataset) (*retail.Dataset, error) {
	return New(nil).Clean(raw)
}
