package retrieval

import "time"

// dateLayouts is tried in order. Earlier layouts win for ambiguous inputs, so
// "01-02-2003" parses day-first.
var dateLayouts = []string{
	"02-01-2006",
	"01.02.2006",
	"2006/01/02",
	"02/01/2006",
	"01-02-2006",
	"2006.01.02",
	"2006-01-02",
}

// NormalizeDate converts a date string in any of the accepted formats to ISO
// YYYY-MM-DD. It reports false when no format matches, returning the input
// unchanged so callers can fall back to substring matching.
func NormalizeDate(s string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return s, false
}
