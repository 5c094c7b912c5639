package cleaner

import "time"

// Config defines the options of the cleaning chain.
type Config struct {
	// Location is the zone InvoiceDate values without an explicit offset
	// are read in. Default: UTC.
	Location *time.Location `json:"-"`

	// BlankDescriptionIsMissing treats a Description made only of whitespace
	// as missing, so it is dropped with the null ones instead of surviving as
	// an empty string after stripping.
	BlankDescriptionIsMissing bool `json:"blank_description_is_missing"`

	// Steps replaces the default chain when non-empty.
	Steps []Step `json:"-"`
}

// DefaultConfig returns the configuration used for the retail extract.
func DefaultConfig() *Config {
	return &Config{
		Location:                  time.UTC,
		BlankDescriptionIsMissing: true,
	}
}

func (c *Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}
