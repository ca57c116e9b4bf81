package normalize

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the day/month/year shapes seen across the source
// exports: the stores emit DD/MM/YYYY (padded or not) while Excel
// re-saves sometimes produce ISO dates or a trailing midnight time.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
}

// frenchMonths maps the twelve abbreviated French month names, accents
// included, to their month numbers. Periods are stripped before lookup.
var frenchMonths = map[string]time.Month{
	"janv": time.January,
	"févr": time.February,
	"mars": time.March,
	"avr":  time.April,
	"mai":  time.May,
	"juin": time.June,
	"juil": time.July,
	"août": time.August,
	"sept": time.September,
	"oct":  time.October,
	"nov":  time.November,
	"déc":  time.December,
}

// ParseDate parses a day/month/year string in any of the known export
// layouts. Unparsable input yields missing, not an error.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseFrenchDate parses strings of the shape "<day> <abbrev-month>. <year>"
// as produced by French-locale store exports, e.g. "1 janv. 2024" or
// "15 déc. 2024". Unrecognized tokens and impossible calendar dates
// (e.g. "31 févr. 2024") yield missing.
func ParseFrenchDate(raw string) (time.Time, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ".", "")
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(fields[0])
	if err != nil {
		return time.Time{}, false
	}
	month, ok := frenchMonths[strings.ToLower(fields[1])]
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 31 becomes Mar 2); reject it.
	if t.Day() != day || t.Month() != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}
