package normalize

import (
	"strconv"
	"strings"
	"unicode"
)

// CleanNumber parses a raw count cell. Spreadsheet exports from different
// locales separate thousands with regular spaces, no-break spaces
// (U+00A0) or narrow no-break spaces (U+202F); every whitespace-class
// code point is stripped before parsing. A cell that still does not parse
// is reported missing, never fatal: one bad cell must not abort a table.
func CleanNumber(raw string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
