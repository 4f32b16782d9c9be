package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/city-events/internal/config"
	"github.com/pfrederiksen/city-events/internal/event"
	"github.com/pfrederiksen/city-events/internal/filter"
	"github.com/pfrederiksen/city-events/internal/logger"
	"github.com/pfrederiksen/city-events/internal/notifier"
	"github.com/pfrederiksen/city-events/internal/profile"
	"github.com/pfrederiksen/city-events/internal/scraper"
	"github.com/pfrederiksen/city-events/internal/storage"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

// Version is reported by --version.
var Version = "dev"

// ErrNewRecords signals that --new-only found records; it maps to ExitNewEvents.
var ErrNewRecords = errors.New("new records found")

// options holds the flag values of one command instance
type options struct {
	city         string
	profile      string
	format       string
	sort         string
	dedup        string
	dateRange    string
	sources      []string
	venues       []string
	names        []string
	categories   []string
	weekends     bool
	attemptsPath string
	newOnly      bool
	dataDir      string
	profilesPath string
	year         int
	webhookURL   string
	notifyDryRun bool
	verbose      bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "city-events",
		Short: "Find upcoming events in a city",
		Long: `A CLI tool that collects event listings for a city from several sources,
keeps only the ones with a real date and venue, and ranks them.
Runs are remembered so that --new-only reports events added since the last check.`,
		Example: `  city-events --city Delhi
  city-events --city Jaipur --profile sports --format json
  city-events --city Pune --range "Jun 1-15" --format ics > events.ics`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	// Define flags
	flags := cmd.Flags()
	flags.StringVar(&opts.city, "city", "", "City to search (required)")
	flags.StringVar(&opts.profile, "profile", "tech", "Domain profile (e.g. tech, sports)")
	flags.StringVar(&opts.format, "format", "text", "Output format: text, json or ics")
	flags.StringVar(&opts.sort, "sort", "", "Ranking: date or score (default: the profile's ranking)")
	flags.StringVar(&opts.dedup, "dedup", string(event.DedupFirstSeen), "Duplicate policy: first-seen or most-complete")
	flags.StringVar(&opts.dateRange, "range", "", `Only show events in a date range ("Jun 1-15", "June 1 - July 15", "June")`)
	flags.StringSliceVar(&opts.sources, "source", nil, "Only show events from these sources")
	flags.StringSliceVar(&opts.venues, "venue", nil, "Only show events whose venue contains one of these")
	flags.StringSliceVar(&opts.names, "name", nil, "Only show events whose name contains one of these")
	flags.StringSliceVar(&opts.categories, "category", nil, "Only show events in these categories (e.g. wrestling)")
	flags.BoolVar(&opts.weekends, "weekends", false, "Only show events on Saturday or Sunday")
	flags.StringVar(&opts.attemptsPath, "attempts", "", "Read attempts from a JSON file ('-' for stdin) instead of scraping")
	flags.BoolVar(&opts.newOnly, "new-only", false, "Only show events not seen in the previous run (exit code 2 if any)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Data directory for snapshots (overrides config)")
	flags.StringVar(&opts.profilesPath, "profiles", "", "Profiles YAML file (overrides the built-in profiles)")
	flags.StringVar(&opts.webhookURL, "notify-webhook", "", "Post new events to this incoming-webhook URL (overrides config)")
	flags.BoolVar(&opts.notifyDryRun, "notify-dry-run", false, "Print the notifications for new events to stderr instead of posting them")
	flags.IntVar(&opts.year, "year", 0, "Reference year for dates without a year (default: config or current year)")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	_ = cmd.MarkFlagRequired("city")

	return cmd
}

// run is the main command logic
func run(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	city := strings.TrimSpace(opts.city)
	if city == "" {
		return fmt.Errorf("--city is required")
	}

	format, err := ParseFormat(opts.format)
	if err != nil {
		return err
	}
	dedup, err := event.ParseDedupPolicy(opts.dedup)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, cfg)

	runID := uuid.NewString()
	level := logger.ParseLevel(cfg.Log.Level)
	if opts.verbose {
		level = logger.LevelDebug
	}
	log := logger.New(level, logger.Format(cfg.Log.Format), cmd.ErrOrStderr()).
		With(logger.Fields{"run_id": runID})
	logger.SetDefault(log)

	profiles, err := profile.Load(cfg.ProfilesPath)
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}
	p, err := profiles.Get(opts.profile)
	if err != nil {
		return err
	}

	ranking := p.RankingPolicy()
	if opts.sort != "" {
		if ranking, err = event.ParseRanking(opts.sort); err != nil {
			return err
		}
	}

	now := time.Now()
	year := cfg.Year(now)

	f, err := buildFilter(opts, year)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	log.Debug("starting run", logger.Fields{
		"city":     city,
		"profile":  p.Name,
		"data_dir": store.Dir(),
		"year":     year,
		"ranking":  string(ranking),
		"filter":   f.String(),
	})

	notify, err := newNotifier(cmd, opts, cfg)
	if err != nil {
		return fmt.Errorf("initializing notifier: %w", err)
	}

	metrics := logger.NewMetrics()

	// Collect attempts
	var (
		attempts []event.Attempt
		failed   []FeedError
	)
	if opts.attemptsPath != "" {
		attempts, err = readAttempts(opts.attemptsPath, cmd.InOrStdin())
		if err != nil {
			return err
		}
		log.Debug("read attempts", logger.Fields{"path": opts.attemptsPath, "attempts": len(attempts)})
	} else {
		runner := scraper.New(scraper.Options{
			UserAgent: cfg.HTTP.UserAgent,
			Timeout:   cfg.HTTP.Timeout,
			Delay:     cfg.HTTP.RequestDelay,
			Logger:    log,
			Metrics:   metrics,
		})
		results := runner.Run(ctx, p, city)
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("running feeds: %w", err)
		}
		attempts = scraper.Attempts(results)
		for _, res := range scraper.Failed(results) {
			failed = append(failed, FeedError{Feed: res.Feed, URL: res.URL, Error: res.Err.Error()})
		}
	}

	result, err := event.Normalize(attempts, event.Options{
		ReferenceYear: year,
		Scores:        p.Scores,
		Ranking:       ranking,
		Placeholder:   p.Placeholder,
		Dedup:         dedup,
	})
	if err != nil {
		return fmt.Errorf("normalizing attempts: %w", err)
	}

	metrics.SetGauge("records.valid", float64(result.ValidCount))
	metrics.SetGauge("records.invalid", float64(result.InvalidCount))
	log.Info("normalized", logger.Fields{
		"total_seen": result.TotalSeen,
		"unique":     result.UniqueCount,
		"valid":      result.ValidCount,
		"invalid":    result.InvalidCount,
	})

	// Load previous snapshot
	previous, err := store.LoadSnapshot(p.Name, city)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	records := f.Apply(result.Records)
	diff := event.Diff(previous, records)
	changes := updates(event.CompareSnapshots(previous, records))

	// Save updated snapshot
	if err := store.SaveRecords(result.Records, p.Name, city); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	log.Debug("saved snapshot", logger.Fields{
		"path":    store.SnapshotPath(p.Name, city),
		"new":     len(diff.NewRecords),
		"changed": len(changes),
	})

	if opts.newOnly {
		records = diff.NewRecords
	}

	out := &OutputResult{
		RunID:        runID,
		CheckedAt:    now.UTC(),
		Profile:      p.Name,
		City:         city,
		Ranking:      string(ranking),
		TotalSeen:    result.TotalSeen,
		UniqueCount:  result.UniqueCount,
		ValidCount:   result.ValidCount,
		InvalidCount: result.InvalidCount,
		NewCount:     len(diff.NewRecords),
		NewBySource:  countBySource(diff),
		NewOnly:      opts.newOnly,
		Records:      newOutputRecords(p, city, records, diff, changes),
		Changes:      changes,
		FailedFeeds:  failed,
	}
	if !f.IsEmpty() {
		out.Filter = f.String()
	}

	if err := WriteOutput(cmd.OutOrStdout(), out, p, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if notify != nil && len(diff.NewRecords) > 0 {
		if err := notify.Notify(ctx, diff.NewRecords); err != nil {
			log.Error("notification failed", logger.Fields{"new": len(diff.NewRecords)}, err)
			return fmt.Errorf("notifying: %w", err)
		}
		metrics.AddCounter("notifications.sent", int64(len(diff.NewRecords)))
		log.Info("notified", logger.Fields{"new": len(diff.NewRecords)})
	}

	log.Debug("run metrics", logger.Fields(metrics.GetSnapshot()))

	// Set exit code based on whether new records were found
	if opts.newOnly && len(diff.NewRecords) > 0 {
		return ErrNewRecords
	}
	return nil
}

// applyFlags lets explicitly set flags override the loaded configuration
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = opts.dataDir
	}
	if cmd.Flags().Changed("profiles") {
		cfg.ProfilesPath = opts.profilesPath
	}
	if cmd.Flags().Changed("year") {
		cfg.ReferenceYear = opts.year
	}
	if cmd.Flags().Changed("notify-webhook") {
		cfg.Notify.WebhookURL = opts.webhookURL
	}
}

// newNotifier returns the notifier for new records, or nil when
// notifications are off
func newNotifier(cmd *cobra.Command, opts *options, cfg *config.Config) (notifier.Notifier, error) {
	switch {
	case opts.notifyDryRun:
		return notifier.NewDryRunNotifier(cmd.ErrOrStderr()), nil
	case cfg.Notify.WebhookURL != "":
		return notifier.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Delay)
	default:
		return nil, nil
	}
}

func buildFilter(opts *options, year int) (*filter.Filter, error) {
	f := filter.NewFilter()

	if opts.dateRange != "" {
		from, to, err := filter.ParseDateRange(opts.dateRange, year)
		if err != nil {
			return nil, err
		}
		f.DateFrom, f.DateTo = from, to
	}
	f.Sources = append(f.Sources, opts.sources...)
	f.Venues = append(f.Venues, opts.venues...)
	f.Names = append(f.Names, opts.names...)
	f.Categories = append(f.Categories, opts.categories...)
	f.WeekendsOnly = opts.weekends

	return f, nil
}

// readAttempts decodes a JSON array of attempts from path, or from stdin when
// path is "-".
func readAttempts(path string, stdin io.Reader) ([]event.Attempt, error) {
	var r io.Reader = stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening attempts: %w", err)
		}
		defer file.Close()
		r = file
	}

	var attempts []event.Attempt
	if err := json.NewDecoder(r).Decode(&attempts); err != nil {
		return nil, fmt.Errorf("parsing attempts: %w", err)
	}
	return attempts, nil
}

// Execute runs the CLI and exits with the resulting code
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := exitCode(NewRootCmd().ExecuteContext(ctx), os.Stderr)
	stop()
	os.Exit(code)
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrNewRecords):
		return ExitNewEvents
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
}
