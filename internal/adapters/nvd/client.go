package nvd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
	"github.com/senpai-on-fire/saci-database-sub001/internal/core/ports"
	"github.com/senpai-on-fire/saci-database-sub001/internal/telemetry"
)

// PageSize is the provider's maximum resultsPerPage.
const PageSize = 200

// ErrInvalidMaxResults is returned for a non-positive result limit.
var ErrInvalidMaxResults = errors.New("max results must be positive")

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	// Delay is the mandatory spacing between consecutive requests.
	Delay time.Duration
}

// Client implements ports.VulnerabilitySearcher against the NVD 2.0 API.
type Client struct {
	fetcher ports.Fetcher
	sleeper ports.Sleeper
	cfg     ClientConfig
	logger  *slog.Logger
}

// NewClient creates a search client.
func NewClient(fetcher ports.Fetcher, sleeper ports.Sleeper, cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		fetcher: fetcher,
		sleeper: sleeper,
		cfg:     cfg,
		logger:  logger.With("component", "nvd"),
	}
}

// Search runs every keyword independently and returns the union of their
// results, deduplicated by CVE identifier with the first occurrence kept.
// A keyword whose fetch fails is logged and skipped; records already
// gathered are kept. Only context cancellation aborts the whole call.
func (c *Client) Search(ctx context.Context, keywords []string, maxResults int) ([]domain.RawVulnerability, error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxResults, maxResults)
	}

	s := &searchRun{
		client:     c,
		maxResults: maxResults,
		seen:       make(map[string]struct{}),
	}

	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}

		added, err := s.keyword(ctx, kw)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s.results, ctxErr
			}
			c.logger.Warn("Search failed for keyword, continuing with the next one",
				"keyword", kw, "records_kept", added, "error", err)
			continue
		}
		c.logger.Info("Keyword search complete", "keyword", kw, "new_records", added, "total", len(s.results))
	}

	return s.results, nil
}

// searchRun is the state of a single Search call.
type searchRun struct {
	client     *Client
	maxResults int
	seen       map[string]struct{}
	results    []domain.RawVulnerability
	requested  bool
}

func (s *searchRun) keyword(ctx context.Context, kw string) (int, error) {
	ctx, span := otel.Tracer("nvd").Start(ctx, "SearchKeyword")
	defer span.End()
	span.SetAttributes(attribute.String("keyword", kw))

	added, fetched := 0, 0
	for {
		p, err := s.fetchPage(ctx, kw, fetched)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "page fetch failed")
			return added, err
		}
		telemetry.SearchPages.WithLabelValues(kw).Inc()

		if len(p.Records) == 0 {
			break
		}

		records := p.Records
		if remaining := s.maxResults - fetched; len(records) > remaining {
			records = records[:remaining]
		}
		for _, r := range records {
			if s.add(r) {
				added++
			}
		}

		// Advance by what was returned, not by PageSize, so short pages are not skipped.
		fetched += len(records)
		s.client.logger.Debug("Fetched page", "keyword", kw, "fetched", fetched, "total", p.Total)

		if fetched >= p.Total || fetched >= s.maxResults {
			break
		}
	}

	span.SetAttributes(attribute.Int("records.added", added))
	return added, nil
}

func (s *searchRun) fetchPage(ctx context.Context, kw string, startIndex int) (page, error) {
	// Sleep before every request but the first, so no idle wait trails the last page.
	if s.requested {
		if err := s.client.sleeper.Sleep(ctx, s.client.cfg.Delay); err != nil {
			return page{}, err
		}
	}
	s.requested = true

	params := url.Values{
		"keywordSearch":  {kw},
		"startIndex":     {strconv.Itoa(startIndex)},
		"resultsPerPage": {strconv.Itoa(PageSize)},
	}
	var headers map[string]string
	if s.client.cfg.APIKey != "" {
		headers = map[string]string{"apiKey": s.client.cfg.APIKey}
	}

	resp, err := s.client.fetcher.Fetch(ctx, s.client.cfg.BaseURL, headers, params)
	if err != nil {
		return page{}, err
	}
	return decodePage(resp.Body)
}

// add appends r unless its identifier was already seen in this call.
// Records without an identifier are passed through for the enricher to drop.
func (s *searchRun) add(r domain.RawVulnerability) bool {
	if r.ID != "" {
		if _, dup := s.seen[r.ID]; dup {
			return false
		}
		s.seen[r.ID] = struct{}{}
	}
	s.results = append(s.results, r)
	return true
}
