package httpfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/ports"
	"github.com/senpai-on-fire/saci-database-sub001/internal/telemetry"
)

// DefaultMaxAttempts is used when Config.MaxAttempts is not positive.
const DefaultMaxAttempts = 3

// Config tunes a Fetcher.
type Config struct {
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MinDelay    time.Duration
	UserAgent   string
}

// Fetcher implements ports.Fetcher: GET with a fixed timeout, retrying
// rate-limited and transport failures according to a RetryPolicy.
type Fetcher struct {
	client    *http.Client
	policy    RetryPolicy
	sleeper   ports.Sleeper
	userAgent string
	logger    *slog.Logger
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithSleeper replaces the wall-clock sleeper.
func WithSleeper(s ports.Sleeper) Option {
	return func(f *Fetcher) { f.sleeper = s }
}

// WithLogger sets the logger used for progress and warning notices.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New creates a Fetcher.
func New(cfg Config, opts ...Option) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		policy: RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
			MinDelay:    cfg.MinDelay,
		},
		sleeper:   SystemSleeper{},
		userAgent: cfg.UserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "fetcher")
	return f
}

// Policy returns the retry policy in use.
func (f *Fetcher) Policy() RetryPolicy {
	return f.policy
}

// Fetch performs a GET of rawURL with params appended to its query.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string, params url.Values) (*ports.Response, error) {
	target, err := buildURL(rawURL, params)
	if err != nil {
		return nil, err
	}

	state := StateAttempting
	for attempt := 1; state == StateAttempting; attempt++ {
		resp, outcome := f.attempt(ctx, target, headers)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var delay time.Duration
		state, delay = f.policy.Next(attempt, outcome)

		switch state {
		case StateSucceeded:
			return resp, nil

		case StateExhausted:
			return nil, f.failure(target, attempt, outcome)

		case StateBackoff:
			reason := "transport"
			if outcome.Err == nil {
				reason = "rate_limited"
				f.logger.Warn("Rate limited, backing off",
					"url", target, "attempt", attempt, "max_attempts", f.policy.MaxAttempts, "delay", delay)
			} else {
				f.logger.Warn("Request failed, retrying",
					"url", target, "attempt", attempt, "max_attempts", f.policy.MaxAttempts, "delay", delay, "error", outcome.Err)
			}
			telemetry.HTTPRetries.WithLabelValues(reason).Inc()

			if err := f.sleeper.Sleep(ctx, delay); err != nil {
				return nil, err
			}
			state = StateAttempting
		}
	}

	// unreachable: the loop only exits through a terminal state above
	return nil, fmt.Errorf("fetch %s: retry loop ended in state %s", target, state)
}

func (f *Fetcher) attempt(ctx context.Context, target string, headers map[string]string) (*ports.Response, Outcome) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, Outcome{Err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if f.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	f.logger.Debug("Requesting", "url", target)
	resp, err := f.client.Do(req)
	if err != nil {
		telemetry.HTTPRequests.WithLabelValues(req.URL.Host, "error").Inc()
		return nil, Outcome{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.HTTPRequests.WithLabelValues(req.URL.Host, "error").Inc()
		return nil, Outcome{Err: fmt.Errorf("read body: %w", err)}
	}
	telemetry.HTTPRequests.WithLabelValues(req.URL.Host, strconv.Itoa(resp.StatusCode)).Inc()

	outcome := Outcome{StatusCode: resp.StatusCode}
	if resp.StatusCode == http.StatusTooManyRequests {
		outcome.RetryAfter, outcome.HasRetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	}

	return &ports.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, outcome
}

func (f *Fetcher) failure(target string, attempts int, o Outcome) error {
	fe := &FetchError{URL: target, StatusCode: o.StatusCode, Attempts: attempts}
	switch {
	case o.Err != nil:
		fe.Kind = ErrTransport
		fe.Err = o.Err
	case o.StatusCode == http.StatusTooManyRequests:
		fe.Kind = ErrRateLimited
	default:
		fe.Kind = ErrUnexpectedStatus
	}
	f.logger.Warn("Giving up on request", "url", target, "attempts", attempts, "error", fe)
	return fe
}

func buildURL(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// parseRetryAfter accepts delta-seconds or an HTTP-date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second)), true
	}
	if at, err := http.ParseTime(v); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
