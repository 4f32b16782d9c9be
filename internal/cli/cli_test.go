package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

// execute runs the root command in a scratch directory without a config file
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("LOG_LEVEL", "error")

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeAttempts(t *testing.T, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "attempts.json")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write attempts: %v", err)
	}
	return path
}

const techAttempts = `[
  {"source": "Eventbrite", "name": "Delhi Cloud Summit", "raw_date": "Sat, 14 Jun 2025", "raw_venue": "Venue: India Habitat Centre, India", "url": "https://eventbrite.example/1", "city": "Delhi"},
  {"source": "10times", "name": "GoLang Meetup", "raw_date": "Wed, 24 Sep", "raw_venue": "Location: Nehru Place", "city": "Delhi"},
  {"source": "AllEvents.in", "name": "Startup Mixer", "raw_date": "TBA", "raw_venue": "Hauz Khas", "city": "Delhi"},
  {"source": "Meetup", "name": "Delhi Cloud Summit", "raw_date": "2025-06-01", "raw_venue": "Elsewhere", "city": "Delhi"}
]`

type jsonResult struct {
	RunID        string         `json:"run_id"`
	Profile      string         `json:"profile"`
	City         string         `json:"city"`
	Ranking      string         `json:"ranking"`
	TotalSeen    int            `json:"total_seen"`
	UniqueCount  int            `json:"unique_count"`
	ValidCount   int            `json:"valid_count"`
	InvalidCount int            `json:"invalid_count"`
	NewCount     int            `json:"new_count"`
	NewBySource  map[string]int `json:"new_by_source"`
	Records      []struct {
		Name       string   `json:"name"`
		Date       string   `json:"date"`
		Venue      string   `json:"venue"`
		Source     string   `json:"source"`
		Category   string   `json:"category"`
		Score      int      `json:"turnover_pct"`
		New        bool     `json:"new"`
		Changed    bool     `json:"changed"`
		Highlights []string `json:"highlights"`
	} `json:"records"`
	Changes []struct {
		Name       string `json:"name"`
		ChangeType string `json:"change_type"`
		OldValue   string `json:"old_value"`
		NewValue   string `json:"new_value"`
	} `json:"changes"`
}

func decode(t *testing.T, out string) jsonResult {
	t.Helper()

	var res jsonResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	return res
}

func TestRun_AttemptsFileText(t *testing.T) {
	dataDir := t.TempDir()
	path := writeAttempts(t, techAttempts)

	out, err := execute(t, "--city", "Delhi", "--attempts", path, "--year", "2025", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, want := range []string{
		"Total events found: 4",
		"Unique events: 3",
		"Events with valid date & venue: 2",
		"TECH EVENTS - DELHI",
		"Delhi Cloud Summit",
		"2025-09-24",
		"India Habitat Centre",
		"New since last run: 2 (10times: 1, Eventbrite: 1)",
		"Total: 2 events",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Startup Mixer") {
		t.Error("record without a date should not be shown")
	}
	if strings.Index(out, "Delhi Cloud Summit") > strings.Index(out, "GoLang Meetup") {
		t.Error("records should be in date order")
	}
}

func TestRun_SportsJSON(t *testing.T) {
	dataDir := t.TempDir()

	out, err := execute(t, "--city", "Delhi", "--profile", "sports", "--format", "json", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	res := decode(t, out)
	if _, err := uuid.Parse(res.RunID); err != nil {
		t.Errorf("run_id %q is not a UUID: %v", res.RunID, err)
	}
	if res.Profile != "sports" || res.Ranking != "score" {
		t.Errorf("profile/ranking = %s/%s, want sports/score", res.Profile, res.Ranking)
	}
	if res.TotalSeen != 11 || res.UniqueCount != 9 || res.ValidCount != 9 || res.InvalidCount != 0 {
		t.Errorf("counts = %d/%d/%d/%d, want 11/9/9/0", res.TotalSeen, res.UniqueCount, res.ValidCount, res.InvalidCount)
	}
	if res.NewCount != 9 {
		t.Errorf("new_count = %d, want 9 on first run", res.NewCount)
	}
	if len(res.Records) != 9 {
		t.Fatalf("got %d records, want 9", len(res.Records))
	}

	first := res.Records[0]
	if first.Name != "Delhi District Wrestling Championship" || first.Score != 85 {
		t.Errorf("first record = %s (%d), want Delhi District Wrestling Championship (85)", first.Name, first.Score)
	}
	if !first.New {
		t.Error("first run records should be marked new")
	}
	if len(first.Highlights) == 0 {
		t.Error("sports records should carry highlights")
	}
	for i := 1; i < len(res.Records); i++ {
		if res.Records[i].Score > res.Records[i-1].Score {
			t.Errorf("records not ranked by score at %d", i)
		}
	}
}

func TestRun_NewOnly(t *testing.T) {
	dataDir := t.TempDir()
	args := []string{"--city", "Delhi", "--profile", "sports", "--format", "json", "--new-only", "--data-dir", dataDir}

	out, err := execute(t, args...)
	if !errors.Is(err, ErrNewRecords) {
		t.Fatalf("first run error = %v, want ErrNewRecords", err)
	}
	if got := len(decode(t, out).Records); got != 9 {
		t.Errorf("first run returned %d records, want 9", got)
	}

	out, err = execute(t, args...)
	if err != nil {
		t.Fatalf("second run error = %v, want nil", err)
	}
	res := decode(t, out)
	if len(res.Records) != 0 || res.NewCount != 0 {
		t.Errorf("second run returned %d records (new_count %d), want none", len(res.Records), res.NewCount)
	}
}

func TestRun_Filters(t *testing.T) {
	out, err := execute(t, "--city", "Delhi", "--profile", "sports", "--format", "json",
		"--range", "Jun 20-22", "--year", "2025", "--source", "District Sports Office", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	res := decode(t, out)
	if len(res.Records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(res.Records), res.Records)
	}
	for _, rec := range res.Records {
		if rec.Source != "District Sports Office" {
			t.Errorf("record from %s passed the source filter", rec.Source)
		}
		if rec.Date < "2025-06-20" || rec.Date > "2025-06-22" {
			t.Errorf("record dated %s passed the range filter", rec.Date)
		}
	}
	if res.ValidCount != 9 {
		t.Errorf("valid_count = %d, filters should not change the counts", res.ValidCount)
	}
}

func TestRun_NameAndCategoryFilters(t *testing.T) {
	path := writeAttempts(t, `[
  {"source": "Catalog", "name": "Delhi Wrestling Open", "raw_date": "2025-06-14", "raw_venue": "IG Stadium", "category": "Wrestling"},
  {"source": "Catalog", "name": "Delhi Boxing Cup", "raw_date": "2025-06-15", "raw_venue": "Talkatora Stadium", "category": "Boxing"},
  {"source": "Catalog", "name": "Junior Wrestling Trials", "raw_date": "2025-06-16", "raw_venue": "Chhatrasal Stadium", "category": "Wrestling"}
]`)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "category", args: []string{"--category", "wrestling"}, want: []string{"Delhi Wrestling Open", "Junior Wrestling Trials"}},
		{name: "name", args: []string{"--name", "boxing"}, want: []string{"Delhi Boxing Cup"}},
		{name: "name and category", args: []string{"--name", "delhi", "--category", "Wrestling"}, want: []string{"Delhi Wrestling Open"}},
		{name: "no match", args: []string{"--category", "tennis"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--city", "Delhi", "--profile", "sports", "--sort", "date", "--format", "json", "--attempts", path, "--data-dir", t.TempDir()}, tt.args...)
			out, err := execute(t, args...)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}

			res := decode(t, out)
			var got []string
			for _, rec := range res.Records {
				got = append(got, rec.Name)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("records = %v, want %v", got, tt.want)
			}
			if res.ValidCount != 3 {
				t.Errorf("valid_count = %d, filters should not change the counts", res.ValidCount)
			}
		})
	}
}

func TestRun_ReportsChangedRecords(t *testing.T) {
	dataDir := t.TempDir()
	moved := strings.Replace(techAttempts, "Location: Nehru Place", "Location: Connaught Place", 1)

	if _, err := execute(t, "--city", "Delhi", "--attempts", writeAttempts(t, techAttempts), "--year", "2025", "--data-dir", dataDir); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	out, err := execute(t, "--city", "Delhi", "--attempts", writeAttempts(t, moved), "--year", "2025", "--format", "json", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	res := decode(t, out)
	if res.NewCount != 0 || len(res.NewBySource) != 0 {
		t.Errorf("new_count = %d, new_by_source = %v, want none", res.NewCount, res.NewBySource)
	}
	if len(res.Changes) != 1 {
		t.Fatalf("got %d changes, want 1: %+v", len(res.Changes), res.Changes)
	}
	c := res.Changes[0]
	if c.Name != "GoLang Meetup" || c.ChangeType != "venue" {
		t.Errorf("change = %s/%s, want GoLang Meetup/venue", c.Name, c.ChangeType)
	}
	if !strings.Contains(c.OldValue, "Nehru Place") || !strings.Contains(c.NewValue, "Connaught Place") {
		t.Errorf("change values = %q -> %q", c.OldValue, c.NewValue)
	}
	for _, rec := range res.Records {
		if want := rec.Name == "GoLang Meetup"; rec.Changed != want {
			t.Errorf("%s changed = %v, want %v", rec.Name, rec.Changed, want)
		}
	}

	out, err = execute(t, "--city", "Delhi", "--attempts", writeAttempts(t, moved), "--year", "2025", "--format", "json", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("third run failed: %v", err)
	}
	if got := decode(t, out).Changes; len(got) != 0 {
		t.Errorf("unchanged rerun reported %d changes", len(got))
	}
}

func TestRun_NotifiesNewRecords(t *testing.T) {
	var posts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	t.Setenv("NOTIFY_DELAY", "0s")
	dataDir := t.TempDir()
	args := []string{"--city", "Delhi", "--profile", "sports", "--format", "json", "--notify-webhook", server.URL, "--data-dir", dataDir}

	if _, err := execute(t, args...); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if got := posts.Load(); got != 9 {
		t.Errorf("first run posted %d notifications, want 9", got)
	}

	if _, err := execute(t, args...); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if got := posts.Load(); got != 9 {
		t.Errorf("second run posted %d more notifications, want 0", got-9)
	}
}

func TestRun_NotifyFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	_, err := execute(t, "--city", "Delhi", "--profile", "sports", "--notify-webhook", server.URL, "--data-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "notifying") {
		t.Errorf("error = %v, want notifying error", err)
	}
}

func TestRun_ICS(t *testing.T) {
	out, err := execute(t, "--city", "Delhi", "--profile", "sports", "--format", "ics", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n") {
		t.Errorf("output is not a calendar:\n%s", out)
	}
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 9 {
		t.Errorf("VEVENT count = %d, want 9", got)
	}
}

func TestRun_EmptyResultShowsReasons(t *testing.T) {
	path := writeAttempts(t, `[{"source": "Eventbrite", "name": "Mystery Event", "raw_date": "5 Jul 2025", "raw_venue": "tbd"}]`)

	out, err := execute(t, "--city", "Delhi", "--attempts", path, "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, want := range []string{
		"No events with a date and venue found for DELHI.",
		"This could mean:",
		"1. Events don't have complete date/venue information",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_Errors(t *testing.T) {
	attempts := writeAttempts(t, techAttempts)
	noSource := writeAttempts(t, `[{"name": "Orphan"}]`)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing city", args: []string{"--format", "json"}, wantErr: `required flag(s) "city" not set`},
		{name: "bad format", args: []string{"--city", "Delhi", "--format", "xml"}, wantErr: "invalid format"},
		{name: "bad dedup", args: []string{"--city", "Delhi", "--dedup", "latest"}, wantErr: "unknown dedup policy"},
		{name: "bad sort", args: []string{"--city", "Delhi", "--attempts", attempts, "--sort", "popularity"}, wantErr: "unknown ranking"},
		{name: "unknown profile", args: []string{"--city", "Delhi", "--profile", "music"}, wantErr: "unknown profile"},
		{name: "bad range", args: []string{"--city", "Delhi", "--attempts", attempts, "--range", "soon"}, wantErr: "invalid date range"},
		{name: "score without table", args: []string{"--city", "Delhi", "--attempts", attempts, "--sort", "score"}, wantErr: "score ranking requires a score table"},
		{name: "attempt without source", args: []string{"--city", "Delhi", "--attempts", noSource}, wantErr: "attempt has no source"},
		{name: "missing attempts file", args: []string{"--city", "Delhi", "--attempts", "/nonexistent/attempts.json"}, wantErr: "opening attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--data-dir", t.TempDir())
			_, err := execute(t, args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       int
		wantStderr bool
	}{
		{name: "success", err: nil, want: ExitSuccess},
		{name: "new records", err: ErrNewRecords, want: ExitNewEvents},
		{name: "failure", err: errors.New("boom"), want: ExitError, wantStderr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := exitCode(tt.err, &stderr); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
			if got := stderr.Len() > 0; got != tt.wantStderr {
				t.Errorf("stderr written = %v, want %v", got, tt.wantStderr)
			}
		})
	}
}
