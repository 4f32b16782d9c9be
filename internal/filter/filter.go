// Package filter narrows a ranked record list after normalization.
//
// Criteria combine with AND; within one criterion any value may match:
//   - Date range (from/to, inclusive)
//   - Sources (case-insensitive exact match)
//   - Venues and names (case-insensitive substring match)
//   - Categories (case-insensitive exact match)
//   - Weekends only (Saturday/Sunday)
//
// Filtering never reorders records, so the ranking is preserved.
//
// Example usage:
//
//	from, to, err := filter.ParseDateRange("Jun 1-15", 2025)
//	f := filter.NewFilter()
//	f.DateFrom, f.DateTo = from, to
//	f.Sources = []string{"Eventbrite"}
//	records = f.Apply(records)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/city-events/internal/event"
)

// Filter represents record filtering criteria
type Filter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	Sources    []string `json:"sources,omitempty"`
	Venues     []string `json:"venues,omitempty"`
	Names      []string `json:"names,omitempty"`
	Categories []string `json:"categories,omitempty"`

	WeekendsOnly bool `json:"weekends_only,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
func NewFilter() *Filter {
	return &Filter{
		Sources:    []string{},
		Venues:     []string{},
		Names:      []string{},
		Categories: []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Sources) == 0 &&
		len(f.Venues) == 0 &&
		len(f.Names) == 0 &&
		len(f.Categories) == 0 &&
		!f.WeekendsOnly
}

// Matches checks if a record matches all active filter criteria.
// Records without a date pass the date checks.
func (f *Filter) Matches(r *event.Record) bool {
	if f.IsEmpty() {
		return true
	}

	if date := r.Time(); !date.IsZero() {
		if f.DateFrom != nil && date.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && date.After(*f.DateTo) {
			return false
		}
		if f.WeekendsOnly {
			weekday := date.Weekday()
			if weekday != time.Saturday && weekday != time.Sunday {
				return false
			}
		}
	}

	if len(f.Sources) > 0 && !anyEqual(r.Source, f.Sources) {
		return false
	}
	if len(f.Categories) > 0 && !anyEqual(r.Category, f.Categories) {
		return false
	}
	if len(f.Venues) > 0 && !anyContains(r.Venue, f.Venues) {
		return false
	}
	if len(f.Names) > 0 && !anyContains(r.Name, f.Names) {
		return false
	}

	return true
}

func anyEqual(value string, candidates []string) bool {
	for _, c := range candidates {
		if strings.EqualFold(value, strings.TrimSpace(c)) {
			return true
		}
	}
	return false
}

func anyContains(value string, candidates []string) bool {
	lower := strings.ToLower(value)
	for _, c := range candidates {
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(c))) {
			return true
		}
	}
	return false
}

// Apply returns the records that match, in input order.
// If the filter is empty, returns the list unchanged.
func (f *Filter) Apply(records []*event.Record) []*event.Record {
	if f.IsEmpty() {
		return records
	}

	filtered := make([]*event.Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			filtered = append(filtered, r)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Jun 1, 2025 | To: Jun 15, 2025 | Sources: Eventbrite | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Sources) > 0 {
		parts = append(parts, fmt.Sprintf("Sources: %s", strings.Join(f.Sources, ", ")))
	}
	if len(f.Venues) > 0 {
		parts = append(parts, fmt.Sprintf("Venues: %s", strings.Join(f.Venues, ", ")))
	}
	if len(f.Names) > 0 {
		parts = append(parts, fmt.Sprintf("Names: %s", strings.Join(f.Names, ", ")))
	}
	if len(f.Categories) > 0 {
		parts = append(parts, fmt.Sprintf("Categories: %s", strings.Join(f.Categories, ", ")))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}

	return strings.Join(parts, " | ")
}
