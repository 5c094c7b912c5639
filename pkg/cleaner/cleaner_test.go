package cleaner

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/jmylchreest/retailprep/pkg/retail"
)

const header = "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,Price,Customer ID,Country\n"

// rawRows builds a raw dataset from CSV data rows.
func rawRows(t *testing.T, rows ...string) *retail.RawDataset {
	t.Helper()
	input := header + strings.Join(rows, "\n")
	if len(rows) > 0 {
		input += "\n"
	}
	raw, err := retail.Read(strings.NewReader(input), retail.ReadOptions{Encoding: "UTF-8"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return raw
}

// loadSample reads the shared Latin-1 fixture.
func loadSample(t *testing.T) *retail.RawDataset {
	t.Helper()
	raw, err := retail.Load(filepath.Join("..", "retail", "testdata", "online_retail_sample.csv"), retail.ReadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return raw
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- Scenario Tests ---

func TestClean_Sample(t *testing.T) {
	ds, err := Clean(loadSample(t))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	want := []struct {
		invoice  string
		desc     string
		customer int64
		total    string
	}{
		{"536365", "Mug", 17850, "7.5"},
		{"536366", "HAND WARMER UNION JACK", 17850, "11.1"},
		{"536370", "ALARM CLOCK BAKELIKE PINK", 12583, "90"},
		{"536370", "POSTAGE", 12583, "54"},
		{"537001", "CRÈME BRÛLÉE DISH", 12680, "2.4"},
	}

	if ds.Len() != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), ds.Len())
	}
	for i, w := range want {
		rec := ds.Records[i]
		if rec.Index != i {
			t.Errorf("record %d: Index = %d", i, rec.Index)
		}
		if rec.InvoiceNo != w.invoice || rec.Description != w.desc || rec.CustomerID != w.customer {
			t.Errorf("record %d = %s/%q/%d, want %s/%q/%d",
				i, rec.InvoiceNo, rec.Description, rec.CustomerID, w.invoice, w.desc, w.customer)
		}
		if !rec.TotalPrice.Equal(dec(w.total)) {
			t.Errorf("record %d: TotalPrice = %s, want %s", i, rec.TotalPrice, w.total)
		}
	}
}

func TestClean_DerivedFields(t *testing.T) {
	ds, err := Clean(rawRows(t, "536365,85123A, Mug ,3,2010-12-01 08:26,2.50,17850.0,United Kingdom"))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if ds.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", ds.Len())
	}

	rec := ds.Records[0]
	wantDate := time.Date(2010, time.December, 1, 8, 26, 0, 0, time.UTC)
	if !rec.InvoiceDate.Equal(wantDate) {
		t.Errorf("InvoiceDate = %v, want %v", rec.InvoiceDate, wantDate)
	}
	if rec.Description != "Mug" {
		t.Errorf("Description = %q, want %q", rec.Description, "Mug")
	}
	if rec.CustomerID != 17850 {
		t.Errorf("CustomerID = %d, want 17850", rec.CustomerID)
	}
	if !rec.TotalPrice.Equal(dec("7.5")) {
		t.Errorf("TotalPrice = %s, want 7.5", rec.TotalPrice)
	}
	if rec.InvoiceYear != 2010 || rec.InvoiceMonth != 12 {
		t.Errorf("InvoiceYear/Month = %d/%d, want 2010/12", rec.InvoiceYear, rec.InvoiceMonth)
	}
	if rec.YearMonth.String() != "2010-12" {
		t.Errorf("YearMonth = %s, want 2010-12", rec.YearMonth)
	}
	if rec.InvoiceWeek != 48 {
		t.Errorf("InvoiceWeek = %d, want 48", rec.InvoiceWeek)
	}
	if rec.InvoiceDay != "Wednesday" {
		t.Errorf("InvoiceDay = %q, want Wednesday", rec.InvoiceDay)
	}
}

func TestClean_DropRules(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"return", "C536379,D,Discount,-1,2010-12-01 09:41,27.50,14527.0,United Kingdom"},
		{"zero quantity", "536380,D,Mug,0,2010-12-01 09:41,2.50,14527.0,United Kingdom"},
		{"zero price", "536414,22139,Mug,56,2010-12-01 11:52,0.00,14527.0,United Kingdom"},
		{"negative price", "A563186,B,Adjust bad debt,1,2011-08-12 14:51,-11062.06,14527.0,United Kingdom"},
		{"missing customer", "536544,21773,BOTTLE,1,2010-12-01 14:32,2.51,,United Kingdom"},
		{"missing description", "536381,22139,,5,2010-12-01 09:41,4.25,15311.0,United Kingdom"},
		{"NA description", "536381,22139,NA,5,2010-12-01 09:41,4.25,15311.0,United Kingdom"},
		{"blank description", "536381,22139,   ,5,2010-12-01 09:41,4.25,15311.0,United Kingdom"},
		{"missing price", "536382,22139,Mug,5,2010-12-01 09:41,,15311.0,United Kingdom"},
		{"NaN price", "536382,22139,Mug,5,2010-12-01 09:41,NaN,15311.0,United Kingdom"},
		{"missing quantity", "536382,22139,Mug,,2010-12-01 09:41,4.25,15311.0,United Kingdom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Clean(rawRows(t, tt.row))
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			if ds.Len() != 0 {
				t.Errorf("expected row to be dropped, got %+v", ds.Records)
			}
		})
	}
}

func TestClean_NullNumericsFiltered(t *testing.T) {
	raw := rawRows(t,
		"536365,85123A,Mug,3,2010-12-01 08:26,2.50,17850.0,United Kingdom",
		"536366,22633,Warmer,6,2010-12-01 08:28,,17850.0,United Kingdom",
		"536367,22633,Warmer,6,2010-12-01 08:28,NaN,17850.0,United Kingdom",
		"536368,22633,Warmer,,2010-12-01 08:28,1.85,17850.0,United Kingdom",
	)

	c := New(nil)
	result, err := c.CleanWithStats(raw)
	if err != nil {
		t.Fatalf("CleanWithStats() error = %v", err)
	}
	ds := result.Dataset
	if ds.Len() != 1 || ds.Records[0].InvoiceNo != "536365" {
		t.Fatalf("expected only the complete row, got %+v", ds.Records)
	}

	dropped := map[string]int{}
	for _, p := range result.Stats.Phases {
		dropped[p.Name] = p.Dropped()
	}
	if dropped[StepPositiveQuantity] != 1 || dropped[StepPositivePrice] != 2 {
		t.Errorf("unexpected drops %v", dropped)
	}
}

func TestClean_BlankDescriptionKeptWhenConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlankDescriptionIsMissing = false

	ds, err := New(cfg).Clean(rawRows(t, "536381,22139,   ,5,2010-12-01 09:41,4.25,15311.0,United Kingdom"))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if ds.Len() != 1 || ds.Records[0].Description != "" {
		t.Errorf("expected one record with empty description, got %+v", ds.Records)
	}
}

func TestClean_HeaderOnly(t *testing.T) {
	ds, err := Clean(rawRows(t))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if ds.Len() != 0 {
		t.Errorf("expected no records, got %d", ds.Len())
	}
	if diff := cmp.Diff(retail.OutputColumns(retail.RequiredColumns), ds.Columns); diff != "" {
		t.Errorf("Columns mismatch (-want +got):\n%s", diff)
	}
}

func TestClean_InvalidDateAborts(t *testing.T) {
	raw := rawRows(t,
		"536365,85123A,Mug,3,2010-12-01 08:26,2.50,17850.0,United Kingdom",
		"536366,22633,Warmer,6,not a date,1.85,17850.0,United Kingdom",
	)

	ds, err := Clean(raw)
	if err == nil {
		t.Fatal("expected error for invalid InvoiceDate")
	}
	if ds != nil {
		t.Error("no dataset should be returned on failure")
	}

	var derr *DateError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DateError, got %v", err)
	}
	if derr.Line != 3 || derr.Value != "not a date" {
		t.Errorf("DateError = %+v", derr)
	}
	if !strings.HasPrefix(err.Error(), StepParseInvoiceDate+":") {
		t.Errorf("expected error prefixed with step name, got %v", err)
	}
}

func TestClean_DateOfDroppedRowStillValidated(t *testing.T) {
	// The return is dropped after dates are parsed, so its bad date still fails.
	raw := rawRows(t, "C536379,D,Discount,-1,garbage,27.50,14527.0,United Kingdom")

	if _, err := Clean(raw); err == nil {
		t.Fatal("expected error for invalid InvoiceDate")
	}
}

func TestClean_CustomerIDTruncates(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12680.9", 12680},
		{"17850.0", 17850},
		{"17850", 17850},
		{"-5.7", -5},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ds, err := Clean(rawRows(t, "1,A,Mug,1,2011-01-03 10:00,1.20,"+tt.in+",France"))
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			if got := ds.Records[0].CustomerID; got != tt.want {
				t.Errorf("CustomerID = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClean_CustomerIDOutOfRange(t *testing.T) {
	raw := rawRows(t, "1,A,Mug,1,2011-01-03 10:00,1.20,1e30,France")

	_, err := Clean(raw)
	if !errors.Is(err, errCustomerIDRange) {
		t.Fatalf("expected errCustomerIDRange, got %v", err)
	}
}

func TestClean_ExactTotalPrice(t *testing.T) {
	ds, err := Clean(rawRows(t, "1,A,Mug,3,2011-01-03 10:00,0.1,1,France"))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if got := ds.Records[0].TotalPrice.String(); got != "0.3" {
		t.Errorf("TotalPrice = %s, want 0.3", got)
	}
}

func TestClean_ISOWeekAtYearBoundary(t *testing.T) {
	// 2011-01-01 is a Saturday in ISO week 52 of 2010.
	ds, err := Clean(rawRows(t, "1,A,Mug,1,2011-01-01 10:00,1,1,France"))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	rec := ds.Records[0]
	if rec.InvoiceWeek != 52 || rec.InvoiceYear != 2011 || rec.InvoiceDay != "Saturday" {
		t.Errorf("got week %d year %d day %s", rec.InvoiceWeek, rec.InvoiceYear, rec.InvoiceDay)
	}
}

func TestClean_ExtraColumnsPreserved(t *testing.T) {
	input := "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,Price,Customer ID,Country,Channel\n" +
		"1,A,Mug,1,2011-01-03 10:00,1,1,France,web\n"
	raw, err := retail.Read(strings.NewReader(input), retail.ReadOptions{Encoding: "UTF-8"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	ds, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if ds.Columns[8] != "Channel" || ds.Columns[9] != retail.ColTotalPrice {
		t.Errorf("unexpected columns %v", ds.Columns)
	}
	if ds.Records[0].Extra["Channel"] != "web" {
		t.Errorf("Extra = %v", ds.Records[0].Extra)
	}
}

func TestClean_DoesNotModifyInput(t *testing.T) {
	raw := loadSample(t)
	before := *raw.Records[0].Description

	if _, err := Clean(raw); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if raw.Len() != 10 || *raw.Records[0].Description != before {
		t.Error("raw dataset was modified")
	}
}

// --- Invariant Tests ---

func TestClean_Invariants(t *testing.T) {
	ds, err := Clean(loadSample(t))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	for i, rec := range ds.Records {
		if rec.Index != i {
			t.Errorf("record %d: Index = %d", i, rec.Index)
		}
		if rec.Quantity <= 0 || !rec.Price.IsPositive() {
			t.Errorf("record %d: non-positive quantity or price", i)
		}
		if rec.Description == "" || rec.Description != strings.TrimSpace(rec.Description) {
			t.Errorf("record %d: Description %q not stripped or empty", i, rec.Description)
		}
		if !rec.TotalPrice.Equal(decimal.NewFromInt(rec.Quantity).Mul(rec.Price)) {
			t.Errorf("record %d: TotalPrice mismatch", i)
		}
		_, week := rec.InvoiceDate.ISOWeek()
		if rec.InvoiceWeek != week || rec.InvoiceWeek < 1 || rec.InvoiceWeek > 53 {
			t.Errorf("record %d: InvoiceWeek = %d", i, rec.InvoiceWeek)
		}
		if rec.InvoiceYear != rec.InvoiceDate.Year() || rec.InvoiceMonth != int(rec.InvoiceDate.Month()) {
			t.Errorf("record %d: year/month mismatch", i)
		}
		if rec.YearMonth != retail.YearMonthOf(rec.InvoiceDate) {
			t.Errorf("record %d: YearMonth mismatch", i)
		}
		if rec.InvoiceDay != rec.InvoiceDate.Weekday().String() {
			t.Errorf("record %d: InvoiceDay mismatch", i)
		}
	}
}

func TestClean_Idempotent(t *testing.T) {
	first, err := Clean(loadSample(t))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "clean.csv")
	if _, err := retail.Save(first, path, retail.SaveOptions{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw, err := retail.Load(path, retail.ReadOptions{Encoding: "UTF-8"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	second, err := Clean(raw)
	if err != nil {
		t.Fatalf("second Clean() error = %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cleaning is not idempotent (-first +second):\n%s", diff)
	}
}

func TestClean_OffsetSurvivesResave(t *testing.T) {
	first, err := Clean(rawRows(t, "536365,85123A,Mug,3,2010-12-01T08:26:00+05:00,2.50,17850,United Kingdom"))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "clean.csv")
	if _, err := retail.Save(first, path, retail.SaveOptions{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw, err := retail.Load(path, retail.ReadOptions{Encoding: "UTF-8"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second, err := Clean(raw)
	if err != nil {
		t.Fatalf("second Clean() error = %v", err)
	}

	want := time.Date(2010, time.December, 1, 3, 26, 0, 0, time.UTC)
	if !first.Records[0].InvoiceDate.Equal(want) || !second.Records[0].InvoiceDate.Equal(want) {
		t.Errorf("InvoiceDate = %v then %v, want instant %v",
			first.Records[0].InvoiceDate, second.Records[0].InvoiceDate, want)
	}
}

// --- Stats Tests ---

func TestCleanWithStats(t *testing.T) {
	c := New(nil)
	result, err := c.CleanWithStats(loadSample(t))
	if err != nil {
		t.Fatalf("CleanWithStats() error = %v", err)
	}

	stats := result.Stats
	if stats.InputRows != 10 || stats.OutputRows != 5 {
		t.Errorf("rows = %d -> %d, want 10 -> 5", stats.InputRows, stats.OutputRows)
	}
	if stats.DroppedRows() != 5 || stats.RetainedPercent() != 50 {
		t.Errorf("DroppedRows = %d, RetainedPercent = %v", stats.DroppedRows(), stats.RetainedPercent())
	}
	if len(stats.Phases) != len(c.Steps()) {
		t.Fatalf("expected %d phases, got %d", len(c.Steps()), len(stats.Phases))
	}

	dropped := map[string]int{
		StepDropMissingDescription: 2,
		StepParseInvoiceDate:       0,
		StepPositiveQuantity:       1,
		StepPositivePrice:          1,
		StepDropMissingCustomer:    1,
		StepTotalPrice:             0,
	}
	phases := make(map[string]*Phase, len(stats.Phases))
	for _, p := range stats.Phases {
		phases[p.Name] = p
	}
	for name, want := range dropped {
		p, ok := phases[name]
		if !ok {
			t.Errorf("missing phase %s", name)
			continue
		}
		if p.Dropped() != want {
			t.Errorf("%s dropped %d, want %d", name, p.Dropped(), want)
		}
	}

	if c.Stats() != stats {
		t.Error("Stats() should return the last run's stats")
	}
	if !strings.Contains(stats.String(), "Rows: 10 -> 5 (50.0% retained)") {
		t.Errorf("unexpected summary %q", stats.String())
	}
}

func TestCleaner_Steps(t *testing.T) {
	want := []string{
		StepDropMissingDescription,
		StepParseInvoiceDate,
		StepPositiveQuantity,
		StepPositivePrice,
		StepDropMissingCustomer,
		StepCastCustomerID,
		StepTotalPrice,
		StepYearMonthParts,
		StepYearMonthPeriod,
		StepISOWeek,
		StepWeekdayName,
		StepStripDescription,
		StepResetIndex,
	}
	if diff := cmp.Diff(want, New(nil).Steps()); diff != "" {
		t.Errorf("Steps() mismatch (-want +got):\n%s", diff)
	}
}

// --- Chain Tests ---

func TestCleaner_Name(t *testing.T) {
	c := New(&Config{Steps: []Step{PositiveQuantity(), ResetIndex()}})
	if got, want := c.Name(), "chain(positive-quantity->reset-index)"; got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}
}

func TestChain_ErrorStopsChain(t *testing.T) {
	boom := errors.New("boom")
	ran := false

	c := NewChain(
		newStep("fail", func(*Frame) error { return boom }),
		newStep("after", func(*Frame) error { ran = true; return nil }),
	)

	stats := NewStats()
	err := c.Run(NewFrame(rawRows(t)), stats)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ran {
		t.Error("steps after a failure should not run")
	}
	if len(stats.Phases) != 1 || stats.Phases[0].Name != "fail" {
		t.Errorf("unexpected phases %+v", stats.Phases)
	}
}

func TestCleaner_CustomSteps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Steps = []Step{PositiveQuantity(), ResetIndex()}

	c := New(cfg)
	ds, err := c.Clean(rawRows(t,
		"1,A,Mug,-1,2011-01-03 10:00,1,1,France",
		"2,A,Mug,2,2011-01-03 10:00,1,1,France",
	))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if ds.Len() != 1 || ds.Records[0].InvoiceNo != "2" || ds.Records[0].Index != 0 {
		t.Errorf("unexpected records %+v", ds.Records)
	}
}

func TestFrame_Filter(t *testing.T) {
	f := NewFrame(rawRows(t,
		"1,A,Mug,1,2011-01-03 10:00,1,1,France",
		"2,A,Mug,2,2011-01-03 10:00,1,1,France",
		"3,A,Mug,3,2011-01-03 10:00,1,1,France",
	))

	dropped := f.Filter(func(r *Row) bool { return r.Record.Quantity != 2 })
	if dropped != 1 || f.Len() != 2 {
		t.Fatalf("dropped %d, len %d", dropped, f.Len())
	}
	if f.Rows[0].Record.InvoiceNo != "1" || f.Rows[1].Record.InvoiceNo != "3" {
		t.Error("Filter should preserve order")
	}
}
