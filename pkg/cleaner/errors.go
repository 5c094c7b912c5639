package cleaner

import "fmt"

// DateError reports an InvoiceDate that is not date-like. It aborts the
// whole cleaning run.
type DateError struct {
	Line  int
	Value string
	Err   error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("line %d: invalid InvoiceDate %q: %v", e.Line, e.Value, e.Err)
}

func (e *DateError) Unwrap() error {
	return e.Err
}
