// Package output serialises run reports.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatJSONL, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// FormatFromPath infers the format from the file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatJSON
	}
}

// Encoder writes one document.
type Encoder interface {
	Encode(v any) error
}

// Lister is implemented by values that serialise to several JSONL records
// rather than a single line.
type Lister interface {
	Lines() []any
}

// EncoderOption configures an encoder.
type EncoderOption func(*encoderConfig)

type encoderConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) EncoderOption {
	return func(c *encoderConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) EncoderOption {
	return func(c *encoderConfig) {
		c.indent = indent
	}
}

// NewEncoder creates an encoder for the specified format.
func NewEncoder(w io.Writer, format Format, opts ...EncoderOption) (Encoder, error) {
	cfg := &encoderConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return &jsonEncoder{w: w, pretty: cfg.pretty, indent: cfg.indent}, nil
	case FormatJSONL:
		return &jsonlEncoder{w: w}, nil
	case FormatYAML:
		return &yamlEncoder{w: w}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteFile encodes v to path, creating the parent directory if needed.
func WriteFile(path string, format Format, v any, opts ...EncoderOption) error {
	format, err := ParseFormat(string(format))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	enc, err := NewEncoder(f, format, opts...)
	if err != nil {
		f.Close()
		return err
	}
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode report: %w", err)
	}
	return f.Close()
}
