package event

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	venueLabelPrefix   = regexp.MustCompile(`(?i)^(?:venue|location|place|at|in):\s*`)
	venueCountrySuffix = regexp.MustCompile(`(?i)\s*,\s*india$`)
)

// CleanVenue strips label prefixes ("Venue:", "Location:", "Place:", "At:",
// "In:") and a trailing ", India", collapses whitespace and trims.
// Empty input reports absence. The result may still be empty, which callers
// treat as absent.
//
// Cleaning repeats until nothing changes, so CleanVenue is idempotent.
func CleanVenue(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	venue := collapseSpaces(norm.NFKC.String(text))
	for {
		next := venueLabelPrefix.ReplaceAllString(venue, "")
		next = venueCountrySuffix.ReplaceAllString(next, "")
		next = collapseSpaces(next)
		if next == venue {
			return venue, true
		}
		venue = next
	}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
