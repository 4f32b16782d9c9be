package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/city-events/internal/event"
)

func TestDefault(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)
	assert.Equal(t, []string{"sports", "tech"}, set.Names())

	tech, err := set.Get("tech")
	require.NoError(t, err)
	assert.Equal(t, event.RankChronological, tech.RankingPolicy())
	assert.Equal(t, "TBD", tech.Placeholder)
	assert.Nil(t, tech.Scores)
	require.Len(t, tech.Feeds, 5)
	assert.Equal(t, "Eventbrite", tech.Feeds[0].Name)
	assert.Equal(t, KindJSONLD, tech.Feeds[0].Kind)
	assert.True(t, tech.Feeds[1].TextFallback)
	assert.False(t, tech.HasHighlights())

	sports, err := set.Get("SPORTS")
	require.NoError(t, err)
	assert.Equal(t, event.RankScore, sports.RankingPolicy())
	require.NotNil(t, sports.Scores)
	assert.Equal(t, 60, sports.Scores.Default)
	assert.Equal(t, "wrestling", sports.Scores.Categories[0].Keyword)
	assert.Equal(t, 85, sports.Scores.Categories[0].Score)
	assert.True(t, sports.HasHighlights())
	for _, f := range sports.Feeds {
		assert.Equal(t, KindCatalog, f.Kind, f.Name)
	}
}

func TestSet_GetUnknown(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)

	_, err = set.Get("music")
	assert.ErrorIs(t, err, ErrUnknownProfile)
	assert.Contains(t, err.Error(), "sports, tech")
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "no profiles",
			yaml:    "profiles: []",
			wantErr: ErrNoProfiles,
		},
		{
			name:    "missing name",
			yaml:    "profiles:\n  - feeds: [{name: a, kind: jsonld, url: 'http://x'}]",
			wantErr: ErrMissingName,
		},
		{
			name: "duplicate name",
			yaml: `profiles:
  - name: tech
    feeds: [{name: a, kind: jsonld, url: 'http://x'}]
  - name: Tech
    feeds: [{name: a, kind: jsonld, url: 'http://x'}]`,
			wantErr: ErrDuplicateProfile,
		},
		{
			name:    "no feeds",
			yaml:    "profiles:\n  - name: tech",
			wantErr: ErrNoFeeds,
		},
		{
			name:    "unknown kind",
			yaml:    "profiles:\n  - name: tech\n    feeds: [{name: a, kind: rss, url: 'http://x'}]",
			wantErr: ErrUnknownFeedKind,
		},
		{
			name:    "remote feed without url",
			yaml:    "profiles:\n  - name: tech\n    feeds: [{name: a, kind: table}]",
			wantErr: ErrMissingFeedURL,
		},
		{
			name:    "group without group section",
			yaml:    "profiles:\n  - name: tech\n    feeds: [{name: a, kind: group, url: 'http://x'}]",
			wantErr: ErrMissingGroup,
		},
		{
			name:    "empty catalog",
			yaml:    "profiles:\n  - name: sports\n    feeds: [{name: a, kind: catalog}]",
			wantErr: ErrEmptyCatalog,
		},
		{
			name: "series with bad start",
			yaml: `profiles:
  - name: sports
    feeds:
      - name: a
        kind: catalog
        series: {name: "{City} Cup", start: "June 18", limit: 1}`,
			wantErr: ErrInvalidSeries,
		},
		{
			name:    "score ranking without table",
			yaml:    "profiles:\n  - name: sports\n    ranking: score\n    feeds: [{name: a, kind: catalog, listings: [{name: x}]}]",
			wantErr: ErrMissingScoreTable,
		},
		{
			name:    "unknown ranking",
			yaml:    "profiles:\n  - name: sports\n    ranking: popularity\n    feeds: [{name: a, kind: catalog, listings: [{name: x}]}]",
			wantErr: event.ErrUnknownRanking,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("profiles: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing profiles YAML")
}

func TestLoad(t *testing.T) {
	t.Run("empty path uses embedded profiles", func(t *testing.T) {
		set, err := Load("")
		require.NoError(t, err)
		assert.Len(t, set.Profiles, 2)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profiles.yaml")
		data := "profiles:\n  - name: music\n    feeds: [{name: Gigs, kind: table, url: 'https://gigs.example/{city}'}]\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		set, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"music"}, set.Names())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestExpand(t *testing.T) {
	tests := []struct {
		template string
		city     string
		sport    string
		want     string
	}{
		{"https://allevents.in/{city}/startup", "New Delhi", "", "https://allevents.in/new-delhi/startup"},
		{"{City} State {sport} Championship", "chennai", "Table Tennis", "Chennai State Table Tennis Championship"},
		{"{location} District {sport} Championship", "  Jaipur ", "Wrestling", "Jaipur District Wrestling Championship"},
		{"SAI Training Center, {location}", "delhi", "", "SAI Training Center, delhi"},
		{"no placeholders", "Pune", "", "no placeholders"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.template, tt.city, tt.sport))
		})
	}
}

func TestCityFocus(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)
	sports, err := set.Get("sports")
	require.NoError(t, err)

	assert.Equal(t, []string{"Wrestling", "Boxing", "Athletics", "Cricket"}, sports.CityFocus("Delhi"))
	assert.Equal(t, []string{"Archery", "Wrestling", "Athletics", "Boxing"}, sports.CityFocus("patna"), "falls back to state")
	assert.Nil(t, sports.CityFocus("Atlantis"))
}

func TestFeedKeywords(t *testing.T) {
	p := &Profile{Keywords: []string{"tech"}}

	assert.Equal(t, []string{"tech"}, p.FeedKeywords(&Feed{}))
	assert.Equal(t, []string{"cloud"}, p.FeedKeywords(&Feed{Keywords: []string{"cloud"}}))
}
