package event

import "strings"

// CategoryScore ties a name keyword to a popularity score
type CategoryScore struct {
	Keyword string `json:"keyword" yaml:"keyword"`
	Score   int    `json:"score" yaml:"score"`
}

// ScoreTable classifies event names into categories.
// Categories are matched in order; the first keyword found in the name wins.
type ScoreTable struct {
	Categories []CategoryScore `json:"categories" yaml:"categories"`
	Default    int             `json:"default" yaml:"default"`
}

// Classify returns the first category whose keyword appears in name
// (case-insensitive) and its score. If none match it returns an empty
// category and the default score.
func (t *ScoreTable) Classify(name string) (string, int) {
	lower := strings.ToLower(name)
	for _, c := range t.Categories {
		if c.Keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(c.Keyword)) {
			return strings.ToLower(c.Keyword), c.Score
		}
	}
	return "", t.Default
}

// Apply attaches category and score to every record.
// A record keeps its feed category hint when no keyword matches.
func (t *ScoreTable) Apply(records []*Record) {
	for _, r := range records {
		category, score := t.Classify(r.Name)
		if category != "" {
			r.Category = category
		}
		r.Score = score
	}
}
