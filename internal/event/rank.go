package event

import (
	"fmt"
	"sort"
	"strings"
)

// Ranking is a sort policy for valid records
type Ranking string

const (
	RankChronological Ranking = "date"
	RankScore         Ranking = "score"
)

// FarFutureDate stands in for a missing date when sorting chronologically.
const FarFutureDate = "9999-12-31"

// ParseRanking maps a user-supplied name to a Ranking.
func ParseRanking(s string) (Ranking, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "date", "chronological":
		return RankChronological, nil
	case "score", "turnover":
		return RankScore, nil
	default:
		return "", fmt.Errorf("%w: %q (must be 'date' or 'score')", ErrUnknownRanking, s)
	}
}

// Sort orders records in place. The sort is stable: records that compare
// equal keep their feed order.
func (r Ranking) Sort(records []*Record) {
	switch r {
	case RankScore:
		sort.SliceStable(records, func(i, j int) bool {
			return compareByScore(records[i], records[j])
		})
	default:
		sort.SliceStable(records, func(i, j int) bool {
			return sortableDate(records[i]) < sortableDate(records[j])
		})
	}
}

// compareByScore puts higher scores first and breaks ties by later date
func compareByScore(i, j *Record) bool {
	if i.Score != j.Score {
		return i.Score > j.Score
	}
	return i.Date > j.Date
}

func sortableDate(r *Record) string {
	if r.Date == "" {
		return FarFutureDate
	}
	return r.Date
}
