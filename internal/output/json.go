package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// jsonEncoder writes a single JSON document.
type jsonEncoder struct {
	w      io.Writer
	pretty bool
	indent string
}

func (e *jsonEncoder) Encode(v any) error {
	var (
		data []byte
		err  error
	)
	if e.pretty {
		data, err = json.MarshalIndent(v, "", e.indent)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = e.w.Write(data)
	return err
}

// jsonlEncoder writes newline-delimited JSON. A Lister becomes one line per
// entry; anything else is a single line.
type jsonlEncoder struct {
	w io.Writer
}

func (e *jsonlEncoder) Encode(v any) error {
	items := []any{v}
	if l, ok := v.(Lister); ok {
		items = l.Lines()
	}

	bw := bufio.NewWriter(e.w)
	enc := json.NewEncoder(bw)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return bw.Flush()
}
