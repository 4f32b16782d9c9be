package scraper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pfrederiksen/city-events/internal/event"
	"github.com/pfrederiksen/city-events/internal/logger"
	"github.com/pfrederiksen/city-events/internal/profile"
)

// page carries what every parser needs to build attempts
type page struct {
	source   string
	url      string
	city     string
	keywords []string
}

func (pg page) attempt(name, date, venue, url string) event.Attempt {
	if url == "" {
		url = pg.url
	}
	return event.Attempt{
		Source:   pg.source,
		Name:     strings.TrimSpace(name),
		RawDate:  date,
		RawVenue: venue,
		URL:      url,
		City:     pg.city,
	}
}

// relevant reports whether name contains one of the keywords.
// An empty keyword list accepts everything.
func (pg page) relevant(name string) bool {
	if len(pg.keywords) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, k := range pg.keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// parse dispatches a fetched page to the parser for the feed kind
func parse(feed *profile.Feed, pg page, body []byte) ([]event.Attempt, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	switch feed.Kind {
	case profile.KindJSONLD:
		return parseJSONLD(doc, pg), nil
	case profile.KindTable:
		attempts := parseTable(doc, pg)
		if len(attempts) == 0 && feed.TextFallback {
			attempts = parseTextBlocks(doc, pg)
		}
		return attempts, nil
	case profile.KindText:
		return parseTextBlocks(doc, pg), nil
	case profile.KindGroup:
		return parseGroup(doc, pg, feed.Group), nil
	default:
		return nil, fmt.Errorf("%w: %q", profile.ErrUnknownFeedKind, feed.Kind)
	}
}

// parseJSONLD extracts schema.org Event objects from ld+json scripts.
// Objects may be top level, in a list, in an @graph or in an ItemList.
func parseJSONLD(doc *goquery.Document, pg page) []event.Attempt {
	attempts := make([]event.Attempt, 0)

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		var data interface{}
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			logger.Debug("skipping malformed ld+json", logger.Fields{"source": pg.source, "index": i})
			return
		}

		for _, obj := range collectEvents(data) {
			name := stringField(obj, "name")
			if name == "" || !pg.relevant(name) {
				continue
			}
			attempts = append(attempts, pg.attempt(
				name,
				stringField(obj, "startDate"),
				locationName(obj["location"]),
				stringField(obj, "url"),
			))
		}
	})

	return attempts
}

func collectEvents(v interface{}) []map[string]interface{} {
	var events []map[string]interface{}

	switch node := v.(type) {
	case []interface{}:
		for _, item := range node {
			events = append(events, collectEvents(item)...)
		}
	case map[string]interface{}:
		if isEventType(node["@type"]) {
			return append(events, node)
		}
		for _, key := range []string{"@graph", "itemListElement", "item"} {
			if child, ok := node[key]; ok {
				events = append(events, collectEvents(child)...)
			}
		}
	}

	return events
}

// isEventType accepts "Event" and its subtypes such as "BusinessEvent"
func isEventType(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return strings.HasSuffix(t, "Event")
	case []interface{}:
		for _, item := range t {
			if isEventType(item) {
				return true
			}
		}
	}
	return false
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

func locationName(v interface{}) string {
	switch loc := v.(type) {
	case string:
		return loc
	case map[string]interface{}:
		return stringField(loc, "name")
	case []interface{}:
		if len(loc) > 0 {
			return locationName(loc[0])
		}
	}
	return ""
}

// parseTable reads "date | name | venue" rows, skipping each table's header row
func parseTable(doc *goquery.Document, pg page) []event.Attempt {
	attempts := make([]event.Attempt, 0)

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			cells := row.Find("td")
			if cells.Length() < 3 {
				return
			}

			date := strings.TrimSpace(cells.Eq(0).Text())
			name := strings.TrimSpace(cells.Eq(1).Text())
			venue := strings.TrimSpace(cells.Eq(2).Text())
			if name == "" || !pg.relevant(name) {
				return
			}

			url, _ := cells.Eq(1).Find("a").Attr("href")
			attempts = append(attempts, pg.attempt(name, date, venue, url))
		})
	})

	return attempts
}

// dateLine matches a line that opens with a day and month, optionally after a
// weekday and optionally as a day range: "Sat, 12 Jul 2025", "12 - 14 Jul 2025".
var dateLine = regexp.MustCompile(`(?i)^(?:` + event.WeekdayPattern + `,?\s+)?\d{1,2}(?:\s*-\s*\d{1,2})?\s+` +
	event.MonthPattern + `\.?\s+\d{4}`)

// parseTextBlocks scans the page text for a date line followed by a name line
// and a venue line.
func parseTextBlocks(doc *goquery.Document, pg page) []event.Attempt {
	attempts := make([]event.Attempt, 0)
	lines := textLines(doc.Find("body"))

	for i := 0; i+1 < len(lines); i++ {
		if !dateLine.MatchString(lines[i]) {
			continue
		}

		name := lines[i+1]
		if dateLine.MatchString(name) || !pg.relevant(name) {
			continue
		}
		venue := ""
		if i+2 < len(lines) && !dateLine.MatchString(lines[i+2]) {
			venue = lines[i+2]
		}

		attempts = append(attempts, pg.attempt(name, lines[i], venue, ""))
		i++
	}

	return attempts
}

// textLines returns the non-empty text lines under sel, one or more per text
// node, with whitespace collapsed. Script and style contents are skipped.
func textLines(sel *goquery.Selection) []string {
	var lines []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			for _, line := range strings.Split(n.Data, "\n") {
				line = strings.Join(strings.Fields(line), " ")
				if line != "" {
					lines = append(lines, line)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}
	return lines
}

// parseGroup turns a meetup group page into one recurring meetup attempt
func parseGroup(doc *goquery.Document, pg page, group *profile.Group) []event.Attempt {
	attempts := make([]event.Attempt, 0, 1)
	if group == nil {
		return attempts
	}

	title := strings.Join(strings.Fields(doc.Find("h1").First().Text()), " ")
	if title == "" || !pg.relevant(title) {
		return attempts
	}

	return append(attempts, pg.attempt(title+group.Suffix, group.Date, group.Venue, ""))
}
