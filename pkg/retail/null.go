package retail

// nullTokens are the cell values read as null, matching the NA markers
// understood by common dataframe CSV readers.
var nullTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNull reports whether a raw cell value denotes a missing value.
func IsNull(cell string) bool {
	_, ok := nullTokens[cell]
	return ok
}
