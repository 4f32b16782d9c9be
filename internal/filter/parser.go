package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateRange is returned for any unparseable or inverted range.
var ErrInvalidDateRange = errors.New("invalid date range")

const monthPattern = `(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)`

var (
	sameMonthRange  = regexp.MustCompile(`(?i)^` + monthPattern + `\s+(\d{1,2})\s*-\s*(\d{1,2})$`)
	crossMonthRange = regexp.MustCompile(`(?i)^` + monthPattern + `\s+(\d{1,2})\s*-\s*` + monthPattern + `\s+(\d{1,2})$`)
	wholeMonth      = regexp.MustCompile(`(?i)^` + monthPattern + `$`)
)

// ParseDateRange parses a date range string into start and end times.
//
// Supported formats:
//   - "Jun 1-15" or "June 1-15" - Same month, different days
//   - "June 1 - July 15" - Different months
//   - "June" - Entire month
//
// Dates fall in year; a cross-month range whose end month comes before its
// start month ends in the following year. Start time is at 00:00:00, end
// time is at 23:59:59, both UTC.
func ParseDateRange(input string, year int) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("%w: empty", ErrInvalidDateRange)
	}

	if matches := sameMonthRange.FindStringSubmatch(input); matches != nil {
		month := parseMonth(matches[1])
		from, err := day(year, month, matches[2])
		if err != nil {
			return nil, nil, err
		}
		to, err := day(year, month, matches[3])
		if err != nil {
			return nil, nil, err
		}
		return span(from, to)
	}

	if matches := crossMonthRange.FindStringSubmatch(input); matches != nil {
		month1 := parseMonth(matches[1])
		month2 := parseMonth(matches[3])

		year2 := year
		if month2 < month1 {
			year2++
		}

		from, err := day(year, month1, matches[2])
		if err != nil {
			return nil, nil, err
		}
		to, err := day(year2, month2, matches[4])
		if err != nil {
			return nil, nil, err
		}
		return span(from, to)
	}

	if matches := wholeMonth.FindStringSubmatch(input); matches != nil {
		month := parseMonth(matches[1])
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		// Last day of month
		to := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
		return span(from, to)
	}

	return nil, nil, fmt.Errorf("%w: use 'Jun 1-15', 'June 1 - July 15', or 'June'", ErrInvalidDateRange)
}

// day builds a calendar date, rejecting days the month does not have
func day(year int, month time.Month, text string) (time.Time, error) {
	d, err := strconv.Atoi(text)
	if err != nil || d < 1 {
		return time.Time{}, fmt.Errorf("%w: invalid day %s", ErrInvalidDateRange, text)
	}
	t := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	if t.Month() != month {
		return time.Time{}, fmt.Errorf("%w: %s has no day %d", ErrInvalidDateRange, month, d)
	}
	return t, nil
}

func span(from, to time.Time) (*time.Time, *time.Time, error) {
	if from.After(to) {
		return nil, nil, fmt.Errorf("%w: start date must be before end date", ErrInvalidDateRange)
	}
	end := to.Add(24*time.Hour - time.Second)
	return &from, &end, nil
}

// parseMonth converts a month name to time.Month
func parseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) > 3 {
		name = name[:3]
	}

	months := map[string]time.Month{
		"jan": time.January,
		"feb": time.February,
		"mar": time.March,
		"apr": time.April,
		"may": time.May,
		"jun": time.June,
		"jul": time.July,
		"aug": time.August,
		"sep": time.September,
		"oct": time.October,
		"nov": time.November,
		"dec": time.December,
	}

	return months[name]
}
