package event

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultPlaceholder is the venue sentinel meaning "to be determined".
const DefaultPlaceholder = "TBD"

// Structural input errors. Malformed fragments are never errors.
var (
	ErrNilAttempts          = errors.New("attempts must not be nil")
	ErrMissingSource        = errors.New("attempt has no source")
	ErrInvalidReferenceYear = errors.New("reference year must be between 1 and 9999")
	ErrMissingScoreTable    = errors.New("score ranking requires a score table")
	ErrUnknownRanking       = errors.New("unknown ranking")
	ErrUnknownDedupPolicy   = errors.New("unknown dedup policy")
)

// DedupPolicy decides which of two candidates with the same name survives
type DedupPolicy string

const (
	// DedupFirstSeen keeps the first candidate in feed order.
	DedupFirstSeen DedupPolicy = "first-seen"
	// DedupMostComplete keeps the first candidate unless it is invalid and a
	// later one is valid; the replacement takes the earlier position.
	DedupMostComplete DedupPolicy = "most-complete"
)

// ParseDedupPolicy maps a user-supplied name to a DedupPolicy.
func ParseDedupPolicy(s string) (DedupPolicy, error) {
	switch DedupPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DedupFirstSeen:
		return DedupFirstSeen, nil
	case DedupMostComplete:
		return DedupMostComplete, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDedupPolicy, s)
	}
}

// Options configures a Normalize call
type Options struct {
	// ReferenceYear fills in dates written without a year ("Wed, 24 Sep").
	ReferenceYear int
	// Scores classifies valid records. Optional unless Ranking is RankScore.
	Scores *ScoreTable
	// Ranking defaults to RankChronological.
	Ranking Ranking
	// Placeholder is the venue sentinel that does not count as a venue.
	// Defaults to DefaultPlaceholder.
	Placeholder string
	// Dedup defaults to DedupFirstSeen.
	Dedup DedupPolicy
	// Dates defaults to DefaultDateParser.
	Dates *DateParser
}

// Result holds the ranked valid records and diagnostic counts
type Result struct {
	Records      []*Record `json:"records"`
	TotalSeen    int       `json:"total_seen"`
	UniqueCount  int       `json:"unique_count"`
	ValidCount   int       `json:"valid_count"`
	InvalidCount int       `json:"invalid_count"`
}

// Normalize assembles, de-duplicates, filters, scores and ranks attempts.
//
// Attempts are processed in slice order, which is the feed order; it decides
// which duplicate is kept. Attempts with an empty name are dropped without
// being compared. Unparseable dates or venues never fail the call; such
// records are counted as unique but excluded from Records.
//
// Normalize only fails on structural misuse: a nil attempt slice, an attempt
// without a source, or inconsistent options.
func Normalize(attempts []Attempt, opts Options) (*Result, error) {
	if attempts == nil {
		return nil, ErrNilAttempts
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	unique := make([]*Record, 0, len(attempts))
	positions := make(map[string]int, len(attempts))

	for i, a := range attempts {
		if strings.TrimSpace(a.Source) == "" {
			return nil, fmt.Errorf("attempt %d: %w", i, ErrMissingSource)
		}

		rec := NewRecord(a, opts.Dates, opts.ReferenceYear)
		if rec.Name == "" {
			continue
		}

		pos, seen := positions[rec.Name]
		if !seen {
			positions[rec.Name] = len(unique)
			unique = append(unique, rec)
			continue
		}

		if opts.Dedup == DedupMostComplete &&
			!unique[pos].IsValid(opts.Placeholder) && rec.IsValid(opts.Placeholder) {
			unique[pos] = rec
		}
	}

	valid := make([]*Record, 0, len(unique))
	for _, rec := range unique {
		if rec.IsValid(opts.Placeholder) {
			valid = append(valid, rec)
		}
	}

	if opts.Scores != nil {
		opts.Scores.Apply(valid)
	}
	opts.Ranking.Sort(valid)

	return &Result{
		Records:      valid,
		TotalSeen:    len(attempts),
		UniqueCount:  len(unique),
		ValidCount:   len(valid),
		InvalidCount: len(unique) - len(valid),
	}, nil
}

// withDefaults fills zero values and validates the options
func (o Options) withDefaults() (Options, error) {
	if o.ReferenceYear < 1 || o.ReferenceYear > 9999 {
		return o, fmt.Errorf("%w: %d", ErrInvalidReferenceYear, o.ReferenceYear)
	}
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
	if o.Dates == nil {
		o.Dates = DefaultDateParser
	}

	switch o.Dedup {
	case "":
		o.Dedup = DedupFirstSeen
	case DedupFirstSeen, DedupMostComplete:
	default:
		return o, fmt.Errorf("%w: %q", ErrUnknownDedupPolicy, o.Dedup)
	}

	switch o.Ranking {
	case "":
		o.Ranking = RankChronological
	case RankChronological:
	case RankScore:
		if o.Scores == nil {
			return o, ErrMissingScoreTable
		}
	default:
		return o, fmt.Errorf("%w: %q", ErrUnknownRanking, o.Ranking)
	}

	return o, nil
}
