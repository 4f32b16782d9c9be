package scraper

import (
	"time"

	"github.com/pfrederiksen/city-events/internal/event"
	"github.com/pfrederiksen/city-events/internal/profile"
)

// Catalog generates the listings of a catalog feed for city: the fixed
// listings first, then one series entry per focus sport of the city (or the
// series fallback sports), up to the series limit.
func Catalog(p *profile.Profile, feed *profile.Feed, city string) []event.Attempt {
	pg := page{
		source: feed.Name,
		url:    profile.Expand(feed.URL, city, ""),
		city:   city,
	}

	attempts := make([]event.Attempt, 0, len(feed.Listings))
	for _, l := range feed.Listings {
		a := pg.attempt(
			profile.Expand(l.Name, city, l.Category),
			l.Date,
			profile.Expand(l.Venue, city, l.Category),
			"",
		)
		a.Category = l.Category
		attempts = append(attempts, a)
	}

	s := feed.Series
	if s == nil {
		return attempts
	}

	start, err := time.Parse(event.DateLayout, s.Start)
	if err != nil {
		return attempts
	}

	sports := p.CityFocus(city)
	if len(sports) == 0 {
		sports = s.Fallback
	}
	if len(sports) > s.Limit {
		sports = sports[:s.Limit]
	}

	for i, sport := range sports {
		date := start.AddDate(0, 0, i*s.StepDays).Format(event.DateLayout)
		a := pg.attempt(
			profile.Expand(s.Name, city, sport),
			date,
			profile.Expand(s.Venue, city, sport),
			"",
		)
		a.Category = sport
		attempts = append(attempts, a)
	}

	return attempts
}
