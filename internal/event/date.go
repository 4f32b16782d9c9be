package event

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// DateField names the role of a capture group in a DatePattern.
type DateField int

const (
	FieldDay DateField = iota
	FieldMonth
	FieldYear
	FieldWeekday // matched but ignored
)

// DatePattern is one recognized date format. Fields lists the role of each
// capture group in order. A pattern without a FieldYear group takes the
// reference year.
type DatePattern struct {
	Name   string
	Regexp *regexp.Regexp
	Fields []DateField
}

// DateParser normalizes free text into YYYY-MM-DD using an ordered list of
// patterns. The first pattern that matches decides the result.
type DateParser struct {
	Patterns []DatePattern
	Months   map[string]int // lower-case month abbreviation -> 1..12
}

// MonthPattern and WeekdayPattern match an English month or weekday name,
// abbreviated or full, as one capture group. Use them case-insensitively.
const (
	MonthPattern   = `(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*`
	WeekdayPattern = `(mon|tue|wed|thu|fri|sat|sun)[a-z]*`
)

// disallowedDateChars matches everything outside word characters,
// whitespace and - / , :
var disallowedDateChars = regexp.MustCompile(`[^\w\s\-/,:]`)

// MonthTable maps three-letter month abbreviations to month numbers.
var MonthTable = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// DefaultDatePatterns are tried in this order:
// "5 Jul 2025", "Jul 5, 2025", "2025-7-5", "05/07/2025" (day first),
// "Wed, 24 Sep" (no year).
var DefaultDatePatterns = []DatePattern{
	{
		Name:   "day-month-year",
		Regexp: regexp.MustCompile(`(?i)(\d{1,2})\s+` + MonthPattern + `\s+(\d{4})`),
		Fields: []DateField{FieldDay, FieldMonth, FieldYear},
	},
	{
		Name:   "month-day-year",
		Regexp: regexp.MustCompile(`(?i)` + MonthPattern + `\s+(\d{1,2}),?\s+(\d{4})`),
		Fields: []DateField{FieldMonth, FieldDay, FieldYear},
	},
	{
		Name:   "iso",
		Regexp: regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`),
		Fields: []DateField{FieldYear, FieldMonth, FieldDay},
	},
	{
		Name:   "numeric-day-first",
		Regexp: regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`),
		Fields: []DateField{FieldDay, FieldMonth, FieldYear},
	},
	{
		Name:   "weekday-day-month",
		Regexp: regexp.MustCompile(`(?i)` + WeekdayPattern + `,?\s+(\d{1,2})\s+` + MonthPattern),
		Fields: []DateField{FieldWeekday, FieldDay, FieldMonth},
	},
}

// DefaultDateParser is the parser used by NormalizeDate.
var DefaultDateParser = &DateParser{
	Patterns: DefaultDatePatterns,
	Months:   MonthTable,
}

// NormalizeDate normalizes text with the default parser.
// See DateParser.Normalize.
func NormalizeDate(text string, referenceYear int) (string, bool) {
	return DefaultDateParser.Normalize(text, referenceYear)
}

// Normalize returns text as a zero-padded YYYY-MM-DD date.
// It returns false when the text is empty, matches no pattern, or the first
// matching pattern does not describe a real calendar date.
// referenceYear is only used by patterns that carry no year.
func (p *DateParser) Normalize(text string, referenceYear int) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	cleaned := strings.TrimSpace(disallowedDateChars.ReplaceAllString(norm.NFKC.String(text), ""))

	for _, pattern := range p.Patterns {
		matches := pattern.Regexp.FindStringSubmatch(cleaned)
		if matches == nil {
			continue
		}
		return p.assemble(pattern, matches[1:], referenceYear)
	}

	return "", false
}

// assemble builds the date from the capture groups of a matched pattern
func (p *DateParser) assemble(pattern DatePattern, groups []string, referenceYear int) (string, bool) {
	year, month, day := referenceYear, 0, 0

	for i, field := range pattern.Fields {
		if i >= len(groups) {
			break
		}
		value := groups[i]

		switch field {
		case FieldDay:
			day, _ = strconv.Atoi(value)
		case FieldYear:
			year, _ = strconv.Atoi(value)
		case FieldMonth:
			month = p.parseMonth(value)
		}
	}

	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return "", false
	}

	// Reject dates time.Date would roll over, such as Feb 30
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// parseMonth accepts a month number or a month name
func (p *DateParser) parseMonth(value string) int {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	name := strings.ToLower(value)
	if len(name) > 3 {
		name = name[:3]
	}
	return p.Months[name]
}
