// Package retailprep runs the load → clean → save pipeline for the online
// retail extract.
package retailprep

import (
	"path/filepath"

	"github.com/jmylchreest/retailprep/pkg/cleaner"
	"github.com/jmylchreest/retailprep/pkg/retail"
)

// Default locations, relative to the project root.
const (
	DefaultInput  = "data/online_retail_raw.csv"
	DefaultOutput = "data/online_retail_clean.csv"
)

// Config holds all pipeline configuration.
type Config struct {
	// Input is the raw extract to read.
	Input string `validate:"required"`

	// Output is where the cleaned dataset is written.
	Output string `validate:"required"`

	// Encoding is the IANA charset of Input.
	Encoding string `validate:"required"`

	// Delimiter separates fields in both Input and a CSV Output.
	Delimiter rune `validate:"required"`

	// Format of Output; empty infers it from the extension.
	Format retail.Format `validate:"omitempty,oneof=csv xlsx"`

	// Cleaner overrides the default cleaning chain.
	Cleaner *cleaner.Cleaner
}

// DefaultConfig returns defaults with paths resolved against root.
func DefaultConfig(root string) Config {
	return Config{
		Input:     filepath.Join(root, DefaultInput),
		Output:    filepath.Join(root, DefaultOutput),
		Encoding:  retail.DefaultEncoding,
		Delimiter: ',',
	}
}

// Option configures the pipeline.
type Option func(*Config)

// WithInput sets the input path.
func WithInput(path string) Option {
	return func(c *Config) {
		c.Input = path
	}
}

// WithOutput sets the output path.
func WithOutput(path string) Option {
	return func(c *Config) {
		c.Output = path
	}
}

// WithEncoding sets the input charset.
func WithEncoding(name string) Option {
	return func(c *Config) {
		c.Encoding = name
	}
}

// WithDelimiter sets the field delimiter.
func WithDelimiter(d rune) Option {
	return func(c *Config) {
		c.Delimiter = d
	}
}

// WithFormat sets the output format.
func WithFormat(f retail.Format) Option {
	return func(c *Config) {
		c.Format = f
	}
}

// WithCleaner injects a cleaner, e.g. one with a custom chain.
func WithCleaner(cl *cleaner.Cleaner) Option {
	return func(c *Config) {
		c.Cleaner = cl
	}
}
