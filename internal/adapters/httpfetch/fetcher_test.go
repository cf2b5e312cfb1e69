package httpfetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleeper captures requested delays instead of waiting.
type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func (s *recordingSleeper) total() time.Duration {
	var sum time.Duration
	for _, d := range s.delays {
		sum += d
	}
	return sum
}

// flakyTransport fails the first n round trips before delegating.
type flakyTransport struct {
	failures int32
	calls    int32
	next     http.RoundTripper
}

func (t *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	n := atomic.AddInt32(&t.calls, 1)
	if n <= t.failures {
		return nil, errors.New("connection reset by peer")
	}
	return t.next.RoundTrip(req)
}

func newTestFetcher(minDelay time.Duration, sleeper *recordingSleeper, opts ...Option) *Fetcher {
	cfg := Config{
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		BaseDelay:   minDelay,
		MinDelay:    minDelay,
	}
	return New(cfg, append([]Option{WithSleeper(sleeper)}, opts...)...)
}

func TestFetch_RetryAfterHonoured(t *testing.T) {
	tests := []struct {
		name     string
		minDelay time.Duration
		want     time.Duration
	}{
		{"server delay dominates", 700 * time.Millisecond, 6 * time.Second},
		{"floored to twice the minimum delay", 7 * time.Second, 14 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&calls, 1) == 1 {
					w.Header().Set("Retry-After", "5")
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				w.Write([]byte(`{"ok":true}`))
			}))
			defer srv.Close()

			sleeper := &recordingSleeper{}
			f := newTestFetcher(tt.minDelay, sleeper)

			resp, err := f.Fetch(context.Background(), srv.URL, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
			assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "exactly one retry")
			require.Len(t, sleeper.delays, 1)
			assert.Equal(t, tt.want, sleeper.delays[0])
			assert.GreaterOrEqual(t, sleeper.total(), maxDuration(6*time.Second, 2*tt.minDelay))
		})
	}
}

func TestFetch_RateLimitExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	f := newTestFetcher(time.Second, sleeper)

	_, err := f.Fetch(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusTooManyRequests, fe.StatusCode)
	assert.Equal(t, 3, fe.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	// exponential backoff from the base delay, no sleep after the final attempt
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.delays)
}

func TestFetch_TransportFailureLinearBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	transport := &flakyTransport{failures: 2, next: http.DefaultTransport}
	sleeper := &recordingSleeper{}
	f := newTestFetcher(500*time.Millisecond, sleeper, WithHTTPClient(&http.Client{Transport: transport}))

	resp, err := f.Fetch(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, sleeper.delays)
}

func TestFetch_TransportFailureExhausted(t *testing.T) {
	transport := &flakyTransport{failures: 10}
	sleeper := &recordingSleeper{}
	f := newTestFetcher(time.Second, sleeper, WithHTTPClient(&http.Client{Transport: transport}))

	_, err := f.Fetch(context.Background(), "http://provider.invalid/api", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, int32(3), atomic.LoadInt32(&transport.calls))
	assert.Len(t, sleeper.delays, 2)
}

func TestFetch_OtherStatusNotRetried(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(status)
			}))
			defer srv.Close()

			sleeper := &recordingSleeper{}
			f := newTestFetcher(time.Second, sleeper)

			_, err := f.Fetch(context.Background(), srv.URL, nil, nil)
			assert.ErrorIs(t, err, ErrUnexpectedStatus)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
			assert.Empty(t, sleeper.delays)
		})
	}
}

func TestFetch_ParamsAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "px4", r.URL.Query().Get("keywordSearch"))
		assert.Equal(t, "200", r.URL.Query().Get("resultsPerPage"))
		assert.Equal(t, "existing", r.URL.Query().Get("keep"))
		assert.Equal(t, "secret", r.Header.Get("apiKey"))
		assert.Equal(t, "saci-test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	f := New(Config{Timeout: time.Second, UserAgent: "saci-test"}, WithSleeper(&recordingSleeper{}))
	params := url.Values{"keywordSearch": {"px4"}, "resultsPerPage": {"200"}}

	resp, err := f.Fetch(context.Background(), srv.URL+"?keep=existing", map[string]string{"apiKey": "secret"}, params)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, DefaultMaxAttempts, f.Policy().MaxAttempts)
}

func TestFetch_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := New(Config{Timeout: time.Second, BaseDelay: time.Second}, WithSleeper(cancellingSleeper{cancel}))

	_, err := f.Fetch(ctx, srv.URL, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type cancellingSleeper struct{ cancel context.CancelFunc }

func (s cancellingSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	s.cancel()
	return ctx.Err()
}

func TestSystemSleeper(t *testing.T) {
	assert.NoError(t, SystemSleeper{}.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SystemSleeper{}.Sleep(ctx, time.Hour), context.Canceled)
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
