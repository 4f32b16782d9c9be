package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/pfrederiksen/city-events/internal/calendar"
	"github.com/pfrederiksen/city-events/internal/event"
	"github.com/pfrederiksen/city-events/internal/profile"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// ParseFormat validates a user-supplied output format.
func ParseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case FormatText, FormatJSON, FormatICS:
		return format, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'ics')", s)
	}
}

// OutputRecord is a record as shown to the user
type OutputRecord struct {
	*event.Record
	New        bool     `json:"new,omitempty"`
	Changed    bool     `json:"changed,omitempty"` // date, venue or source differs from the last run
	Highlights []string `json:"highlights,omitempty"`
}

// FeedError describes a feed that could not be read
type FeedError struct {
	Feed  string `json:"feed"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error"`
}

// OutputResult contains data to be output
type OutputResult struct {
	RunID        string                `json:"run_id"`
	CheckedAt    time.Time             `json:"checked_at"`
	Profile      string                `json:"profile"`
	City         string                `json:"city"`
	Ranking      string                `json:"ranking"`
	Filter       string                `json:"filter,omitempty"`
	TotalSeen    int                   `json:"total_seen"`
	UniqueCount  int                   `json:"unique_count"`
	ValidCount   int                   `json:"valid_count"`
	InvalidCount int                   `json:"invalid_count"`
	NewCount     int                   `json:"new_count"`
	NewBySource  map[string]int        `json:"new_by_source,omitempty"`
	NewOnly      bool                  `json:"new_only,omitempty"`
	Records      []*OutputRecord       `json:"records"`
	Changes      []*event.RecordChange `json:"changes,omitempty"`
	FailedFeeds  []FeedError           `json:"failed_feeds,omitempty"`
}

// updates drops "new" entries; new records are reported through the diff
func updates(changes []*event.RecordChange) []*event.RecordChange {
	var out []*event.RecordChange
	for _, c := range changes {
		if c.ChangeType != "new" {
			out = append(out, c)
		}
	}
	return out
}

func countBySource(diff *event.DiffResult) map[string]int {
	if len(diff.BySource) == 0 {
		return nil
	}
	counts := make(map[string]int, len(diff.BySource))
	for source, records := range diff.BySource {
		counts[source] = len(records)
	}
	return counts
}

func newOutputRecords(p *profile.Profile, city string, records []*event.Record, diff *event.DiffResult, changes []*event.RecordChange) []*OutputRecord {
	isNew := make(map[string]bool, len(diff.NewRecords))
	for _, rec := range diff.NewRecords {
		isNew[rec.ID] = true
	}
	changed := make(map[string]bool, len(changes))
	for _, c := range changes {
		changed[c.RecordID] = true
	}

	out := make([]*OutputRecord, 0, len(records))
	for _, rec := range records {
		o := &OutputRecord{Record: rec, New: isNew[rec.ID], Changed: changed[rec.ID]}
		if p.HasHighlights() {
			o.Highlights = p.Highlights(city, rec.Category)
		}
		out = append(out, o)
	}
	return out
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, p *profile.Profile, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, p)
	case FormatICS:
		return writeICS(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func writeICS(w io.Writer, result *OutputResult) error {
	records := make([]*event.Record, 0, len(result.Records))
	for _, rec := range result.Records {
		records = append(records, rec.Record)
	}
	_, err := io.WriteString(w, calendar.GenerateICS(records, result.CheckedAt))
	return err
}

// column is one column of the text table
type column struct {
	title string
	width int
	right bool
	value func(r *OutputRecord) string
}

func tableColumns(result *OutputResult, p *profile.Profile) []column {
	cols := []column{
		{title: "Event Name", width: 40, value: func(r *OutputRecord) string { return r.Name }},
		{title: "Date", width: 10, value: func(r *OutputRecord) string { return r.Date }},
		{title: "Venue", width: 30, value: func(r *OutputRecord) string { return r.Venue }},
	}
	if p.Scores != nil {
		cols = append(cols, column{title: "Score", width: 5, right: true, value: func(r *OutputRecord) string {
			return fmt.Sprintf("%d%%", r.Score)
		}})
	}
	if p.HasHighlights() {
		cols = append(cols, column{title: "Local Highlights", width: 30, value: func(r *OutputRecord) string {
			return strings.Join(r.Highlights, ", ")
		}})
	}
	cols = append(cols, column{title: "Source", width: 26, value: func(r *OutputRecord) string { return r.Source }})
	if !result.NewOnly && (result.NewCount > 0 || len(result.Changes) > 0) {
		cols = append(cols, column{title: "", width: 7, value: func(r *OutputRecord) string {
			switch {
			case r.New:
				return "NEW"
			case r.Changed:
				return "CHANGED"
			}
			return ""
		}})
	}
	return cols
}

// formatCounts renders per-source counts sorted by source name
func formatCounts(counts map[string]int) string {
	sources := make([]string, 0, len(counts))
	for source := range counts {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	parts := make([]string, len(sources))
	for i, source := range sources {
		parts[i] = fmt.Sprintf("%s: %d", source, counts[source])
	}
	return strings.Join(parts, ", ")
}

// cell truncates s to width display cells and pads it
func cell(s string, width int, right bool) string {
	s = runewidth.Truncate(s, width, "…")
	if right {
		return runewidth.FillLeft(s, width)
	}
	return runewidth.FillRight(s, width)
}

func writeRow(w io.Writer, cols []column, value func(c column) string) {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = cell(value(c), c.width, c.right)
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " | "), " "))
}

// writeText outputs results as a human-readable table
func writeText(w io.Writer, result *OutputResult, p *profile.Profile) error {
	fmt.Fprintf(w, "Total events found: %d\n", result.TotalSeen)
	fmt.Fprintf(w, "Unique events: %d\n", result.UniqueCount)
	fmt.Fprintf(w, "Events with valid date & venue: %d\n", result.ValidCount)
	if result.Filter != "" {
		fmt.Fprintf(w, "Filter: %s\n", result.Filter)
	}
	if len(result.NewBySource) > 0 {
		fmt.Fprintf(w, "New since last run: %d (%s)\n", result.NewCount, formatCounts(result.NewBySource))
	}
	for _, c := range result.Changes {
		fmt.Fprintf(w, "Changed: %s %s %q -> %q\n", c.Name, c.ChangeType, c.OldValue, c.NewValue)
	}
	for _, f := range result.FailedFeeds {
		fmt.Fprintf(w, "Feed failed: %s (%s)\n", f.Feed, f.Error)
	}

	city := strings.ToUpper(result.City)

	if len(result.Records) == 0 {
		switch {
		case result.NewOnly:
			fmt.Fprintln(w, "\nNo new events since the last run.")
		case result.ValidCount > 0:
			fmt.Fprintln(w, "\nNo events match the filter.")
		default:
			fmt.Fprintf(w, "\nNo events with a date and venue found for %s.\n", city)
			if len(p.EmptyReasons) > 0 {
				fmt.Fprintln(w, "This could mean:")
				for i, reason := range p.EmptyReasons {
					fmt.Fprintf(w, "%d. %s\n", i+1, reason)
				}
			}
		}
		return nil
	}

	title := p.Title
	if title == "" {
		title = p.Name
	}

	cols := tableColumns(result, p)
	width := 0
	for _, c := range cols {
		width += c.width + 3
	}

	fmt.Fprintf(w, "\n%s - %s\n", strings.ToUpper(title), city)
	fmt.Fprintln(w, strings.Repeat("=", width))
	writeRow(w, cols, func(c column) string { return c.title })
	fmt.Fprintln(w, strings.Repeat("-", width))
	for _, rec := range result.Records {
		writeRow(w, cols, func(c column) string { return c.value(rec) })
	}

	label := "events"
	if result.NewOnly {
		label = "new events"
	}
	fmt.Fprintf(w, "\nTotal: %d %s\n", len(result.Records), label)
	return nil
}
