package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
	"github.com/senpai-on-fire/saci-database-sub001/internal/core/ports"
	"github.com/senpai-on-fire/saci-database-sub001/internal/telemetry"
)

// Options configures a Cache.
type Options struct {
	WeaknessURL      string
	AttackPatternURL string
	// EnableWeaknessNames turns CWE name resolution on. When off, ids are
	// returned unchanged and nothing is downloaded.
	EnableWeaknessNames bool
	// EnableAttackPatterns turns CAPEC lookup on. When off, lookups return
	// an empty list and nothing is downloaded.
	EnableAttackPatterns bool
}

// Cache implements ports.TaxonomyResolver. Each catalog is downloaded at
// most once per Cache, on first use, whether or not the download succeeds.
type Cache struct {
	fetcher ports.Fetcher
	opts    Options
	logger  *slog.Logger

	mu sync.Mutex

	weaknessesAttempted bool
	weaknessNames       map[string]string
	nameCache           map[string]string

	patternsAttempted bool
	patternIndex      map[string][]domain.AttackPattern
	patternCache      map[string][]domain.AttackPattern
}

// New creates a Cache that downloads through fetcher.
func New(fetcher ports.Fetcher, opts Options, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger.With("component", "taxonomy"),
	}
	c.Reset()
	return c
}

// Reset discards every loaded catalog and lookup so the next lookup
// downloads again.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.weaknessesAttempted = false
	c.weaknessNames = nil
	c.nameCache = make(map[string]string)
	c.patternsAttempted = false
	c.patternIndex = nil
	c.patternCache = make(map[string][]domain.AttackPattern)
}

// ResolveWeaknessName returns the human-readable name of a CWE id, or id
// itself when the name is unknown or resolution is disabled.
func (c *Cache) ResolveWeaknessName(ctx context.Context, id string) string {
	if !c.opts.EnableWeaknessNames {
		return id
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if name, ok := c.nameCache[id]; ok {
		return name
	}
	c.loadWeaknessesLocked(ctx)

	name := id
	if n, ok := c.weaknessNames[DenormalizeWeaknessID(id)]; ok {
		name = n
	}
	c.nameCache[id] = name
	return name
}

// AttackPatternsForWeakness returns the CAPEC patterns related to a CWE id.
// The returned slice is a copy and may be modified by the caller.
func (c *Cache) AttackPatternsForWeakness(ctx context.Context, id string) []domain.AttackPattern {
	if !c.opts.EnableAttackPatterns {
		return []domain.AttackPattern{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	patterns, ok := c.patternCache[id]
	if !ok {
		c.loadPatternsLocked(ctx)
		patterns = c.patternIndex[DenormalizeWeaknessID(id)]
		c.patternCache[id] = patterns
	}

	out := make([]domain.AttackPattern, len(patterns))
	copy(out, patterns)
	return out
}

// WeaknessCount reports how many CWE names are loaded. It does not trigger
// a download.
func (c *Cache) WeaknessCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.weaknessNames)
}

func (c *Cache) loadWeaknessesLocked(ctx context.Context) {
	if c.weaknessesAttempted {
		return
	}
	c.weaknessesAttempted = true

	names, err := c.download(ctx, Weaknesses, c.opts.WeaknessURL, func(doc []byte) (int, error) {
		idx, err := parseWeaknessCatalog(doc)
		c.weaknessNames = idx
		return len(idx), err
	})
	if err != nil {
		c.weaknessNames = fallbackNames()
		c.logger.Warn("CWE catalog unavailable, using built-in names",
			"url", c.opts.WeaknessURL, "fallback_entries", len(c.weaknessNames), "error", err)
		return
	}
	c.logger.Info("CWE catalog loaded", "entries", names)
}

func (c *Cache) loadPatternsLocked(ctx context.Context) {
	if c.patternsAttempted {
		return
	}
	c.patternsAttempted = true

	weaknesses, err := c.download(ctx, AttackPatterns, c.opts.AttackPatternURL, func(doc []byte) (int, error) {
		idx, err := parseAttackPatternCatalog(doc)
		c.patternIndex = idx
		return len(idx), err
	})
	if err != nil {
		c.patternIndex = map[string][]domain.AttackPattern{}
		c.logger.Warn("CAPEC catalog unavailable, attack patterns disabled for this run",
			"url", c.opts.AttackPatternURL, "error", err)
		return
	}
	c.logger.Info("CAPEC catalog loaded", "weaknesses", weaknesses)
}

// download fetches a catalog, unpacks it and hands the XML to parse.
func (c *Cache) download(ctx context.Context, taxonomy, rawURL string, parse func([]byte) (int, error)) (int, error) {
	ctx, span := otel.Tracer("taxonomy").Start(ctx, "DownloadCatalog")
	defer span.End()
	span.SetAttributes(attribute.String("taxonomy", taxonomy), attribute.String("url", rawURL))

	n, err := c.fetchAndParse(ctx, taxonomy, rawURL, parse)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog unavailable")
		telemetry.TaxonomyDownloads.WithLabelValues(taxonomy, "fallback").Inc()
		return 0, err
	}
	span.SetAttributes(attribute.Int("entries", n))
	telemetry.TaxonomyDownloads.WithLabelValues(taxonomy, "loaded").Inc()
	return n, nil
}

func (c *Cache) fetchAndParse(ctx context.Context, taxonomy, rawURL string, parse func([]byte) (int, error)) (int, error) {
	c.logger.Info("Downloading catalog", "taxonomy", taxonomy, "url", rawURL)
	resp, err := c.fetcher.Fetch(ctx, rawURL, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", taxonomy, err)
	}

	doc, err := extractXML(resp.Body)
	if err != nil {
		return 0, &ParseError{Taxonomy: taxonomy, Err: err}
	}
	return parse(doc)
}
