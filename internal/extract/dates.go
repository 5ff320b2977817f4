package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const monthNames = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)`

// The five pattern families scanned for candidate dates. Families overlap on
// purpose: the extractor is recall-biased, and duplicate candidates are
// cheaper than missed ones.
var datePatterns = []*regexp.Regexp{
	// numeric day/month/year (or month/day/year), "/" or "-" separated
	regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{4}\b`),
	// ISO-like year-first numeric
	regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
	// day month-name year
	regexp.MustCompile(`(?i)\b\d{1,2}\s+` + monthNames + `[a-z]*\s+\d{4}\b`),
	// month-name day year
	regexp.MustCompile(`(?i)\b` + monthNames + `[a-z]*\s+\d{1,2},?\s+\d{4}\b`),
	// bare four-digit year
	regexp.MustCompile(`\b\d{4}\b`),
}

var yearOnlyPattern = regexp.MustCompile(`^\d{4}$`)

// Dates scans text with every pattern family independently and parses each
// match. Unparseable matches are dropped after a fuzzy attempt; nothing is
// raised to the caller.
func Dates(text string) []time.Time {
	var out []time.Time
	for _, re := range datePatterns {
		for _, m := range re.FindAllString(text, -1) {
			if d, ok := ParseDate(m); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

// ParseDate parses one date fragment. Numeric day/month/year is read
// day-first (UK convention: 12/03/2019 is 12 March 2019); month-first is
// retried only when day-first is not calendar-valid. A bare four-digit year
// resolves to January 1 of that year. The boolean result replaces error
// handling: false means the fragment is not a usable date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if yearOnlyPattern.MatchString(s) {
		y, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}

	d, err := dateparse.ParseAny(s,
		dateparse.PreferMonthFirst(false),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
