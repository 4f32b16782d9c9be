package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of every normalized record date.
const DateLayout = "2006-01-02"

// Attempt is one raw extraction attempt produced by a feed.
// Date and venue text are unparsed; empty strings mean the fragment was missing.
type Attempt struct {
	Source   string `json:"source"`
	Name     string `json:"name"`
	RawDate  string `json:"raw_date,omitempty"`
	RawVenue string `json:"raw_venue,omitempty"`
	URL      string `json:"url,omitempty"`
	City     string `json:"city,omitempty"`
	Category string `json:"category,omitempty"` // feed-supplied hint, e.g. the sport
}

// Record is a normalized event listing
type Record struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Name     string `json:"name"`
	Date     string `json:"date,omitempty"`  // YYYY-MM-DD, empty when unparseable
	Venue    string `json:"venue,omitempty"` // cleaned, empty when unparseable
	URL      string `json:"url"`
	City     string `json:"city"`
	Category string `json:"category,omitempty"`
	Score    int    `json:"turnover_pct,omitempty"`
}

// GenerateID creates a deterministic ID for a record from its name.
// Names are the de-duplication key (compared exactly), so the ID is stable
// across feeds and runs and two records in one result never share it.
func GenerateID(name string) string {
	h := sha1.New()
	h.Write([]byte(strings.TrimSpace(name)))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewRecord assembles a record candidate from an attempt.
// Fragments that fail to normalize leave the field empty.
func NewRecord(a Attempt, dates *DateParser, referenceYear int) *Record {
	name := strings.TrimSpace(a.Name)
	date, _ := dates.Normalize(a.RawDate, referenceYear)
	venue, _ := CleanVenue(a.RawVenue)

	return &Record{
		ID:       GenerateID(name),
		Source:   strings.TrimSpace(a.Source),
		Name:     name,
		Date:     date,
		Venue:    venue,
		URL:      strings.TrimSpace(a.URL),
		City:     strings.ToLower(strings.TrimSpace(a.City)),
		Category: a.Category,
	}
}

// Time returns the record date as a UTC time, or the zero time if absent.
func (r *Record) Time() time.Time {
	if r.Date == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsValid reports whether the record has a date and a venue that is not
// the placeholder sentinel (compared case-insensitively).
func (r *Record) IsValid(placeholder string) bool {
	if r.Date == "" || r.Venue == "" {
		return false
	}
	return placeholder == "" || !strings.EqualFold(r.Venue, placeholder)
}
