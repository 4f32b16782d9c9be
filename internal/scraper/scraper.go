package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/city-events/internal/event"
	"github.com/pfrederiksen/city-events/internal/logger"
	"github.com/pfrederiksen/city-events/internal/profile"
)

const (
	UserAgent = "city-events/1.0 (github.com/pfrederiksen/city-events)"
	Timeout   = 15 * time.Second
	Delay     = time.Second
)

// ErrUnexpectedStatus is returned for any non-200 response.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Fetcher retrieves a page body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches pages with a resty client
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates a fetcher with the given User-Agent and timeout.
func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	if userAgent == "" {
		userAgent = UserAgent
	}
	if timeout <= 0 {
		timeout = Timeout
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return &HTTPFetcher{client: client}
}

// Fetch performs a GET request and returns the body of a 200 response.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}

	return resp.Body(), nil
}

// Options configures a Runner. Zero values use the package defaults.
type Options struct {
	Fetcher   Fetcher
	UserAgent string
	Timeout   time.Duration
	// Delay is the minimum pause between two network fetches.
	Delay   time.Duration
	Logger  *logger.Logger
	Metrics *logger.Metrics
}

// Runner visits the feeds of a profile in order
type Runner struct {
	fetcher Fetcher
	limiter *rate.Limiter
	log     *logger.Logger
	metrics *logger.Metrics
}

// FeedResult is the outcome of one feed. Err is set when the feed could not
// be fetched or parsed; Attempts is then empty.
type FeedResult struct {
	Feed     string
	URL      string
	Attempts []event.Attempt
	Err      error
	Duration time.Duration
}

// New creates a Runner.
func New(opts Options) *Runner {
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(opts.UserAgent, opts.Timeout)
	}

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = logger.NewMetrics()
	}

	return &Runner{
		fetcher: fetcher,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
		metrics: metrics,
	}
}

// Run visits every feed of p for city and returns one result per feed, in
// feed order. Feed failures are recorded in the result; only a cancelled
// context ends the run early.
func (r *Runner) Run(ctx context.Context, p *profile.Profile, city string) []FeedResult {
	results := make([]FeedResult, 0, len(p.Feeds))

	for i := range p.Feeds {
		feed := &p.Feeds[i]
		start := time.Now()

		res := FeedResult{Feed: feed.Name, URL: profile.Expand(feed.URL, city, "")}
		res.Attempts, res.Err = r.runFeed(ctx, p, feed, city)
		res.Duration = time.Since(start)

		r.metrics.RecordTiming("feed.duration", res.Duration)
		fields := logger.Fields{"feed": feed.Name, "kind": string(feed.Kind), "url": res.URL}
		if res.Err != nil {
			r.metrics.IncrCounter("feeds.failed")
			fields["error"] = res.Err.Error()
			r.log.Warn("feed failed", fields)
		} else {
			r.metrics.IncrCounter("feeds.ok")
			r.metrics.AddCounter("attempts.total", int64(len(res.Attempts)))
			fields["attempts"] = len(res.Attempts)
			r.log.Info("feed done", fields)
		}

		results = append(results, res)

		if ctx.Err() != nil {
			break
		}
	}

	return results
}

func (r *Runner) runFeed(ctx context.Context, p *profile.Profile, feed *profile.Feed, city string) ([]event.Attempt, error) {
	if !feed.Kind.Remote() {
		return Catalog(p, feed, city), nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", feed.Name, err)
	}

	url := profile.Expand(feed.URL, city, "")
	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", feed.Name, err)
	}

	pg := page{
		source:   feed.Name,
		url:      url,
		city:     city,
		keywords: p.FeedKeywords(feed),
	}

	attempts, err := parse(feed, pg, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", feed.Name, err)
	}
	return attempts, nil
}

// Attempts concatenates the attempts of all results in feed order.
func Attempts(results []FeedResult) []event.Attempt {
	attempts := make([]event.Attempt, 0)
	for _, res := range results {
		attempts = append(attempts, res.Attempts...)
	}
	return attempts
}

// Failed returns the results that carry an error.
func Failed(results []FeedResult) []FeedResult {
	var failed []FeedResult
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}
