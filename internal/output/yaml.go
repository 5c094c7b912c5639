package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// yamlEncoder writes a single YAML document with 2-space indentation.
type yamlEncoder struct {
	w io.Writer
}

func (e *yamlEncoder) Encode(v any) error {
	enc := yaml.NewEncoder(e.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
