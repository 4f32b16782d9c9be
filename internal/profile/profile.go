package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/city-events/internal/event"
)

//go:embed profiles.yaml
var defaultProfiles []byte

// Profile validation errors.
var (
	ErrNoProfiles        = errors.New("at least one profile is required")
	ErrMissingName       = errors.New("profile name is required")
	ErrDuplicateProfile  = errors.New("duplicate profile name")
	ErrUnknownProfile    = errors.New("unknown profile")
	ErrNoFeeds           = errors.New("at least one feed is required")
	ErrMissingFeedName   = errors.New("feed name is required")
	ErrUnknownFeedKind   = errors.New("feed kind must be one of: jsonld, table, text, group, catalog")
	ErrMissingFeedURL    = errors.New("feed url is required")
	ErrMissingGroup      = errors.New("group feed requires a group section")
	ErrEmptyCatalog      = errors.New("catalog feed requires listings or a series")
	ErrInvalidSeries     = errors.New("series requires a name, a start date and a positive limit")
	ErrMissingScoreTable = errors.New("score ranking requires a score table")
)

// Kind selects how a feed page is turned into attempts.
type Kind string

const (
	KindJSONLD  Kind = "jsonld"
	KindTable   Kind = "table"
	KindText    Kind = "text"
	KindGroup   Kind = "group"
	KindCatalog Kind = "catalog"
)

// Remote reports whether the feed has to be fetched over HTTP.
func (k Kind) Remote() bool {
	return k != KindCatalog
}

// Set is a collection of profiles keyed by name.
type Set struct {
	Profiles []*Profile `yaml:"profiles"`
}

// Profile is the immutable configuration of one domain.
type Profile struct {
	Name         string            `yaml:"name"`
	Title        string            `yaml:"title"`
	Ranking      string            `yaml:"ranking"`
	Placeholder  string            `yaml:"placeholder"`
	Keywords     []string          `yaml:"keywords"`
	Scores       *event.ScoreTable `yaml:"scores,omitempty"`
	Feeds        []Feed            `yaml:"feeds"`
	EmptyReasons []string          `yaml:"empty_reasons"`

	// Focus lists the popular sports of a city or state, most popular first.
	Focus map[string][]string `yaml:"focus,omitempty"`
	// States maps a city to the state whose data it borrows.
	States   map[string]string              `yaml:"states,omitempty"`
	Local    map[string][]string            `yaml:"highlights,omitempty"`
	Featured map[string]map[string][]string `yaml:"featured,omitempty"` // category -> city or state -> names
}

// Feed describes one source of listings.
type Feed struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`
	// URL may contain {city}, {City} and {location} placeholders.
	URL string `yaml:"url"`
	// Keywords override the profile keywords for this feed.
	Keywords     []string `yaml:"keywords,omitempty"`
	TextFallback bool     `yaml:"text_fallback,omitempty"`

	Group    *Group    `yaml:"group,omitempty"`
	Listings []Listing `yaml:"listings,omitempty"`
	Series   *Series   `yaml:"series,omitempty"`
}

// Group is the recurring meetup advertised by a group page.
type Group struct {
	Suffix string `yaml:"suffix"`
	Date   string `yaml:"date"`
	Venue  string `yaml:"venue"`
}

// Listing is a fixed catalog entry.
type Listing struct {
	Name     string `yaml:"name"`
	Date     string `yaml:"date"`
	Venue    string `yaml:"venue"`
	Category string `yaml:"category"`
}

// Series generates one listing per focus sport of the city.
type Series struct {
	Name     string   `yaml:"name"`
	Venue    string   `yaml:"venue"`
	Start    string   `yaml:"start"`
	StepDays int      `yaml:"step_days"`
	Limit    int      `yaml:"limit"`
	Fallback []string `yaml:"fallback"`
}

// Default returns the embedded profiles.
func Default() (*Set, error) {
	return Parse(defaultProfiles)
}

// Load reads profiles from path, or the embedded defaults when path is empty.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML profile set.
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing profiles YAML: %w", err)
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("validating profiles: %w", err)
	}

	return &set, nil
}

// Validate checks every profile and feed definition.
func (s *Set) Validate() error {
	if len(s.Profiles) == 0 {
		return ErrNoProfiles
	}

	seen := make(map[string]bool)
	for i, p := range s.Profiles {
		if p == nil || strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: profile[%d]", ErrMissingName, i)
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Name)
		}
		seen[key] = true

		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", p.Name, err)
		}
	}

	return nil
}

// Validate checks a single profile.
func (p *Profile) Validate() error {
	ranking, err := event.ParseRanking(p.Ranking)
	if err != nil {
		return err
	}
	if ranking == event.RankScore && p.Scores == nil {
		return ErrMissingScoreTable
	}

	if len(p.Feeds) == 0 {
		return ErrNoFeeds
	}

	for i, f := range p.Feeds {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%w: feed[%d]", ErrMissingFeedName, i)
		}

		switch f.Kind {
		case KindJSONLD, KindTable, KindText:
		case KindGroup:
			if f.Group == nil {
				return fmt.Errorf("%w: feed[%d]", ErrMissingGroup, i)
			}
		case KindCatalog:
			if len(f.Listings) == 0 && f.Series == nil {
				return fmt.Errorf("%w: feed[%d]", ErrEmptyCatalog, i)
			}
			if f.Series != nil {
				if err := f.Series.validate(); err != nil {
					return fmt.Errorf("%w: feed[%d]", err, i)
				}
			}
		default:
			return fmt.Errorf("%w: feed[%d] has %q", ErrUnknownFeedKind, i, f.Kind)
		}

		if f.Kind.Remote() && strings.TrimSpace(f.URL) == "" {
			return fmt.Errorf("%w: feed[%d]", ErrMissingFeedURL, i)
		}
	}

	return nil
}

func (s *Series) validate() error {
	if s.Name == "" || s.Limit < 1 {
		return ErrInvalidSeries
	}
	if _, err := time.Parse(event.DateLayout, s.Start); err != nil {
		return ErrInvalidSeries
	}
	return nil
}

// Get returns the profile with the given name (case-insensitive).
func (s *Set) Get(name string) (*Profile, error) {
	for _, p := range s.Profiles {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownProfile, name, strings.Join(s.Names(), ", "))
}

// Names returns the sorted profile names.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.Profiles))
	for _, p := range s.Profiles {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// RankingPolicy returns the parsed ranking. Profiles are validated on load,
// so an unknown name falls back to chronological order.
func (p *Profile) RankingPolicy() event.Ranking {
	r, err := event.ParseRanking(p.Ranking)
	if err != nil {
		return event.RankChronological
	}
	return r
}

// FeedKeywords returns the keywords that make a listing relevant for f.
func (p *Profile) FeedKeywords(f *Feed) []string {
	if len(f.Keywords) > 0 {
		return f.Keywords
	}
	return p.Keywords
}

// CityFocus returns the focus sports of city, falling back to its state.
// It returns nil when neither is known.
func (p *Profile) CityFocus(city string) []string {
	key := cityKey(city)
	if focus, ok := p.Focus[key]; ok {
		return focus
	}
	if state, ok := p.States[key]; ok {
		return p.Focus[state]
	}
	return nil
}

// Expand fills the placeholders of a feed template for city.
//
//	{city}     lower-case slug, e.g. "new-delhi"
//	{City}     title case, e.g. "New Delhi"
//	{location} the city as given
//	{sport}    the sport of a series entry
func Expand(template, city, sport string) string {
	location := strings.TrimSpace(city)
	r := strings.NewReplacer(
		"{city}", strings.ReplaceAll(cityKey(location), " ", "-"),
		"{City}", titleCase(location),
		"{location}", location,
		"{sport}", sport,
	)
	return r.Replace(template)
}

func cityKey(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(city)), " ")
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
